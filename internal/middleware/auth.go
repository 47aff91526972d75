// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/devassets/assets-api/internal/core"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// PrincipalLookup resolves a token subject to a live account.
type PrincipalLookup interface {
	LookupPrincipal(ctx context.Context, userID string) (*Principal, error)
}

type AccessTokenClaims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

type Principal struct {
	ID       string
	Email    string
	Nickname string
}

func Authenticator(
	verifier TokenVerifier,
	principals PrincipalLookup,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				core.HandleError(w, r, fmt.Errorf(
					"missing authorization token: %w",
					core.ErrUnauthenticated,
				))
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				core.HandleError(w, r, err)
				return
			}

			principal, err := principals.LookupPrincipal(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.HandleError(w, r, fmt.Errorf(
						"token subject no longer exists: %w",
						core.ErrUnauthenticated,
					))
					return
				}
				core.HandleError(w, r, err)
				return
			}

			ctx := WithIdentity(r.Context(), &Identity{
				UserID:    principal.ID,
				Email:     principal.Email,
				Nickname:  principal.Nickname,
				Token:     token,
				TokenID:   claims.TokenID,
				ExpiresAt: claims.ExpiresAt,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken reads "<scheme> <token>" from the Authorization header.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
