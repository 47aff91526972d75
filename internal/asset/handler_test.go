// AngelaMos | 2026
// handler_test.go

package asset

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devassets/assets-api/internal/core"
	"github.com/devassets/assets-api/internal/middleware"
)

// headerIdentity stands in for the token gate: the caller id comes from a
// test header.
func headerIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Test-User")
		if id == "" {
			core.Unauthenticated(w, "authentication required")
			return
		}
		ctx := middleware.WithIdentity(r.Context(), &middleware.Identity{UserID: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	svc, _ := newTestService(t)
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, headerIdentity)
	return r
}

func call(t *testing.T, h http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeAsset(t *testing.T, w *httptest.ResponseRecorder) AssetResponse {
	t.Helper()
	var body struct {
		Success bool          `json:"success"`
		Data    AssetResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.True(t, body.Success)
	return body.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) core.ErrorBody {
	t.Helper()
	var body core.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.False(t, body.Success)
	return body.Error
}

func TestHandlerCreateAndGet(t *testing.T) {
	h := newTestRouter(t)

	w := call(t, h, http.MethodPost, "/assets", alice, map[string]any{
		"name":        "My Art",
		"description": "oil on canvas",
		"tags":        []string{"x", "", "y"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeAsset(t, w)
	assert.Equal(t, "my-art", created.Slug)
	assert.Equal(t, []string{"x", "y"}, created.Tags)
	assert.Equal(t, alice, created.Owner)
	assert.Equal(t, []string{}, created.Likes)

	w = call(t, h, http.MethodGet, "/assets/"+created.ID, bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decodeAsset(t, w).ID)
}

func TestHandlerRequiresIdentity(t *testing.T) {
	h := newTestRouter(t)

	w := call(t, h, http.MethodGet, "/assets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlerNotFound(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name string
		path string
	}{
		{"malformed id", "/assets/not-a-uuid"},
		{"unknown id", "/assets/33333333-3333-3333-3333-333333333333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(t, h, http.MethodGet, tt.path, alice, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, core.CodeNotFound, decodeError(t, w).Code)
		})
	}
}

func TestHandlerValidationDetails(t *testing.T) {
	h := newTestRouter(t)

	w := call(t, h, http.MethodPost, "/assets", alice, map[string]any{"name": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, core.CodeValidation, body.Code)
	assert.Equal(t, []string{"Please add a name", "Please add a description"}, body.Details)
}

func TestHandlerLikeConflict(t *testing.T) {
	h := newTestRouter(t)

	w := call(t, h, http.MethodPost, "/assets", alice, map[string]any{
		"name": "Liked", "description": "d",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeAsset(t, w).ID

	w = call(t, h, http.MethodPost, "/assets/"+id+"/likes", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{bob}, decodeAsset(t, w).Likes)

	w = call(t, h, http.MethodPost, "/assets/"+id+"/likes", bob, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, core.CodeConflict, body.Code)
	assert.Equal(t, "Asset already liked", body.Message)

	w = call(t, h, http.MethodDelete, "/assets/"+id+"/likes", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = call(t, h, http.MethodDelete, "/assets/"+id+"/likes", bob, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Asset has not yet been liked", decodeError(t, w).Message)
}

func TestHandlerDeleteByStranger(t *testing.T) {
	h := newTestRouter(t)

	w := call(t, h, http.MethodPost, "/assets", alice, map[string]any{
		"name": "Mine", "description": "d",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeAsset(t, w).ID

	w = call(t, h, http.MethodDelete, "/assets/"+id, bob, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, core.CodeUnauthorized, decodeError(t, w).Code)

	w = call(t, h, http.MethodDelete, "/assets/"+id, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decodeAsset(t, w).ID)
}

func TestHandlerListIsPaginated(t *testing.T) {
	h := newTestRouter(t)

	for _, name := range []string{"A", "B", "C"} {
		w := call(t, h, http.MethodPost, "/assets", alice, map[string]any{
			"name": name, "description": "d",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := call(t, h, http.MethodGet, "/assets?page=1&pageSize=2", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []AssetResponse     `json:"data"`
		Meta core.PaginationMeta `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, core.PaginationMeta{Page: 1, PageSize: 2, Total: 3, TotalPages: 2}, body.Meta)
}
