// AngelaMos | 2026
// routes.go

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devassets/assets-api/internal/asset"
	"github.com/devassets/assets-api/internal/auth"
	"github.com/devassets/assets-api/internal/user"
)

const APIPrefix = "/api/v1"

// API is the set of handlers mounted under APIPrefix plus the public
// endpoints around it. Nil middleware fields are skipped.
type API struct {
	Auth   *auth.Handler
	Users  *user.Handler
	Assets *asset.Handler

	Authenticator     func(http.Handler) http.Handler
	RateLimiter       func(http.Handler) http.Handler
	CredentialLimiter func(http.Handler) http.Handler

	JWKS        http.HandlerFunc
	UploadsPath string
	Uploads     http.Handler
}

func (s *Server) Mount(api API) {
	r := s.router

	if s.health != nil {
		s.health.RegisterRoutes(r)
	}
	r.Handle("/metrics", promhttp.Handler())

	if api.JWKS != nil {
		r.Get("/.well-known/jwks.json", api.JWKS)
	}

	if api.Uploads != nil && api.UploadsPath != "" {
		r.Handle(api.UploadsPath+"/*", api.Uploads)
	}

	r.Route(APIPrefix, func(r chi.Router) {
		if api.RateLimiter != nil {
			r.Use(api.RateLimiter)
		}

		api.Auth.RegisterRoutes(r, api.Authenticator, api.CredentialLimiter)
		api.Users.RegisterRoutes(r, api.Authenticator)
		api.Assets.RegisterRoutes(r, api.Authenticator)
	})
}
