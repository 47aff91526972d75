// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devassets/assets-api/internal/core"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
	seen   string
}

func (s *stubVerifier) VerifyAccessToken(
	_ context.Context,
	token string,
) (*AccessTokenClaims, error) {
	s.seen = token
	return s.claims, s.err
}

type stubPrincipals struct {
	principal *Principal
	err       error
}

func (s *stubPrincipals) LookupPrincipal(
	_ context.Context,
	_ string,
) (*Principal, error) {
	return s.principal, s.err
}

func echoIdentity(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentity(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // test helper
		_ = json.NewEncoder(w).Encode(id)
	})
}

func TestAuthenticatorAttachesIdentity(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	verifier := &stubVerifier{claims: &AccessTokenClaims{
		UserID:    "user-1",
		TokenID:   "jti-1",
		ExpiresAt: exp,
	}}
	principals := &stubPrincipals{principal: &Principal{
		ID:       "user-1",
		Email:    "alice@example.com",
		Nickname: "alice",
	}}

	handler := Authenticator(verifier, principals)(echoIdentity(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/user", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc.def.ghi", verifier.seen)

	var id Identity
	require.NoError(t, json.NewDecoder(w.Body).Decode(&id))
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "alice", id.Nickname)
	assert.Equal(t, "jti-1", id.TokenID)
	assert.Equal(t, "abc.def.ghi", id.Token)
}

func TestAuthenticatorRejects(t *testing.T) {
	validClaims := &AccessTokenClaims{UserID: "user-1", TokenID: "jti"}
	validPrincipal := &Principal{ID: "user-1"}

	tests := []struct {
		name       string
		header     string
		verifier   *stubVerifier
		principals *stubPrincipals
		wantCode   string
	}{
		{
			name:       "missing header",
			header:     "",
			verifier:   &stubVerifier{claims: validClaims},
			principals: &stubPrincipals{principal: validPrincipal},
			wantCode:   core.CodeUnauthenticated,
		},
		{
			name:       "no scheme",
			header:     "abc.def.ghi",
			verifier:   &stubVerifier{claims: validClaims},
			principals: &stubPrincipals{principal: validPrincipal},
			wantCode:   core.CodeUnauthenticated,
		},
		{
			name:       "wrong scheme",
			header:     "Basic dXNlcjpwYXNz",
			verifier:   &stubVerifier{claims: validClaims},
			principals: &stubPrincipals{principal: validPrincipal},
			wantCode:   core.CodeUnauthenticated,
		},
		{
			name:       "revoked token",
			header:     "Bearer revoked",
			verifier:   &stubVerifier{err: fmt.Errorf("verify: %w", core.ErrTokenRevoked)},
			principals: &stubPrincipals{principal: validPrincipal},
			wantCode:   core.CodeTokenRevoked,
		},
		{
			name:       "expired token",
			header:     "Bearer expired",
			verifier:   &stubVerifier{err: fmt.Errorf("verify: %w", core.ErrTokenExpired)},
			principals: &stubPrincipals{principal: validPrincipal},
			wantCode:   core.CodeTokenExpired,
		},
		{
			name:       "deleted user",
			header:     "Bearer valid",
			verifier:   &stubVerifier{claims: validClaims},
			principals: &stubPrincipals{err: fmt.Errorf("get user: %w", core.ErrNotFound)},
			wantCode:   core.CodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				called = true
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			Authenticator(tt.verifier, tt.principals)(next).ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body core.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestExtractTokenSchemeIsCaseInsensitive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer   tok ")

	assert.Equal(t, "tok", ExtractToken(req))
}

func TestGetUserIDWithoutIdentity(t *testing.T) {
	assert.Empty(t, GetUserID(context.Background()))
	assert.False(t, IsAuthenticated(context.Background()))
}
