// AngelaMos | 2026
// handler.go

package asset

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/devassets/assets-api/internal/core"
	"github.com/devassets/assets-api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/assets", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/tags", h.ListTags)
		r.Get("/tags/{tag}", h.ListByTag)
		r.Get("/user/{userID}", h.ListByOwner)

		r.Route("/{assetID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/comments", h.AddComment)
			r.Delete("/comments/{commentID}", h.RemoveComment)
			r.Post("/likes", h.AddLike)
			r.Delete("/likes", h.RemoveLike)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", DefaultPageSize),
	}
	params = normalizeListParams(params)

	assets, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.Paginated(w, ToAssetResponses(assets), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.HandleError(w, r, err)
		return
	}

	asset, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.Created(w, ToAssetResponse(asset))
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, tags)
}

func (h *Handler) ListByTag(w http.ResponseWriter, r *http.Request) {
	assets, err := h.service.ListByTag(r.Context(), chi.URLParam(r, "tag"))
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToAssetResponses(assets))
}

func (h *Handler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "userID")
	if err := core.RequireID(ownerID, "user"); err != nil {
		core.HandleError(w, r, err)
		return
	}

	assets, err := h.service.ListByOwner(r.Context(), ownerID)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToAssetResponses(assets))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathAssetID(w, r)
	if !ok {
		return
	}

	asset, err := h.service.Get(r.Context(), id)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToAssetResponse(asset))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathAssetID(w, r)
	if !ok {
		return
	}

	var req UpdateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.HandleError(w, r, err)
		return
	}

	asset, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToAssetResponse(asset))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathAssetID(w, r)
	if !ok {
		return
	}

	asset, err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToAssetResponse(asset))
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathAssetID(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	asset, err := h.service.AddComment(
		r.Context(),
		id,
		middleware.GetUserID(r.Context()),
		req.Text,
	)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToAssetResponse(asset))
}

func (h *Handler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathAssetID(w, r)
	if !ok {
		return
	}

	commentID := chi.URLParam(r, "commentID")
	if err := core.RequireID(commentID, "comment"); err != nil {
		core.HandleError(w, r, err)
		return
	}

	asset, err := h.service.RemoveComment(
		r.Context(),
		id,
		commentID,
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToAssetResponse(asset))
}

func (h *Handler) AddLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathAssetID(w, r)
	if !ok {
		return
	}

	asset, err := h.service.AddLike(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToAssetResponse(asset))
}

func (h *Handler) RemoveLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathAssetID(w, r)
	if !ok {
		return
	}

	asset, err := h.service.RemoveLike(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToAssetResponse(asset))
}

func pathAssetID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "assetID")
	if err := core.RequireID(id, "asset"); err != nil {
		core.HandleError(w, r, err)
		return "", false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return n
}
