// AngelaMos | 2026
// context.go

package middleware

import (
	"context"
	"time"
)

type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "request_id"
)

// Identity is the authenticated principal attached by Authenticator.
type Identity struct {
	UserID    string
	Email     string
	Nickname  string
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func GetIdentity(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

func GetUserID(ctx context.Context) string {
	if id, ok := GetIdentity(ctx); ok {
		return id.UserID
	}
	return ""
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
