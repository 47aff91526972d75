// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/devassets/assets-api/internal/core"
	"github.com/devassets/assets-api/internal/middleware"
)

const avatarField = "avatar"

// Only raster formats: stored files are served from the API origin and an
// SVG could carry script.
var avatarTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

var errNoAvatar = errors.New("no avatar file in request")

type Handler struct {
	service       *Service
	maxUploadSize int64
}

func NewHandler(service *Service, maxUploadSize int64) *Handler {
	return &Handler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/user", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.GetMe)
		r.Put("/", h.UpdateMe)
		r.Delete("/", h.DeleteMe)
		r.Put("/avatar", h.UploadAvatar)
		r.Delete("/avatar", h.DeleteAvatar)
	})

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.GetProfile)
		r.Post("/follow", h.Follow)
		r.Delete("/follow", h.Unfollow)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetProfile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToUserResponse(user, h.service.AvatarURL(user.Avatar)))
}

// UpdateMe accepts either a JSON body or a multipart form whose optional
// "avatar" part replaces the current avatar.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var (
		req    UpdateProfileRequest
		avatar *AvatarUpload
	)

	if isMultipart(r) {
		form, upload, closeFn, err := h.parseMultipart(w, r)
		if err != nil && !errors.Is(err, errNoAvatar) {
			core.HandleError(w, r, err)
			return
		}
		defer closeFn()
		req, avatar = form, upload
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	user, err := h.service.UpdateProfile(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
		avatar,
	)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToUserResponse(user, h.service.AvatarURL(user.Avatar)))
}

func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		core.BadRequest(w, "expected multipart/form-data")
		return
	}

	_, avatar, closeFn, err := h.parseMultipart(w, r)
	if err != nil {
		if errors.Is(err, errNoAvatar) {
			core.HandleError(w, r, core.NewValidationError("Please upload a file"))
			return
		}
		core.HandleError(w, r, err)
		return
	}
	defer closeFn()

	user, err := h.service.UpdateProfile(
		r.Context(),
		middleware.GetUserID(r.Context()),
		UpdateProfileRequest{},
		avatar,
	)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToUserResponse(user, h.service.AvatarURL(user.Avatar)))
}

func (h *Handler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.DeleteAvatar(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToUserResponse(user, h.service.AvatarURL(user.Avatar)))
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		core.Unauthenticated(w, "authentication required")
		return
	}

	resp, err := h.service.DeleteAccount(r.Context(), identity.UserID, identity.Token)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetProfile(r.Context(), targetID)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToPublicProfileResponse(user, h.service.AvatarURL(user.Avatar)))
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Follow(
		r.Context(),
		targetID,
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToPublicProfileResponse(user, h.service.AvatarURL(user.Avatar)))
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Unfollow(
		r.Context(),
		targetID,
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.HandleError(w, r, err)
		return
	}

	core.OK(w, ToPublicProfileResponse(user, h.service.AvatarURL(user.Avatar)))
}

func pathUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "userID")
	if err := core.RequireID(id, "user"); err != nil {
		core.HandleError(w, r, err)
		return "", false
	}
	return id, true
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseMultipart reads the profile fields and the optional avatar part.
// The avatar type is sniffed from its content; the client supplied
// Content-Type is ignored. The returned close func is always safe to call.
func (h *Handler) parseMultipart(
	w http.ResponseWriter,
	r *http.Request,
) (UpdateProfileRequest, *AvatarUpload, func(), error) {
	noop := func() {}
	var req UpdateProfileRequest

	// multipart framing adds a little on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+64<<10)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, nil, noop, core.NewValidationError(h.sizeMessage())
		}
		return req, nil, noop, core.BadRequestError("invalid multipart form")
	}

	req.Name = formValue(r.MultipartForm, "name")
	req.Nickname = formValue(r.MultipartForm, "nickName")
	req.Email = formValue(r.MultipartForm, "email")
	req.Password = formValue(r.MultipartForm, "password")

	file, header, err := r.FormFile(avatarField)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, noop, errNoAvatar
	}
	if err != nil {
		return req, nil, noop, core.BadRequestError("invalid avatar upload")
	}
	closeFn := func() { _ = file.Close() } //nolint:errcheck // request scoped

	if header.Size > h.maxUploadSize {
		closeFn()
		return req, nil, noop, core.NewValidationError(h.sizeMessage())
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		closeFn()
		return req, nil, noop, fmt.Errorf("detect avatar type: %w", err)
	}
	if !mimetype.EqualsAny(mtype.String(), avatarTypes...) {
		closeFn()
		return req, nil, noop, core.NewValidationError("Please upload an image file")
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		closeFn()
		return req, nil, noop, fmt.Errorf("rewind avatar: %w", err)
	}

	return req, &AvatarUpload{
		Reader:      file,
		Size:        header.Size,
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
	}, closeFn, nil
}

func (h *Handler) sizeMessage() string {
	return fmt.Sprintf("Please upload an image less than %d bytes", h.maxUploadSize)
}

func formValue(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
