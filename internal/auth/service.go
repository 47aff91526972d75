// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/devassets/assets-api/internal/core"
)

type UserInfo struct {
	ID           string
	Name         string
	Nickname     string
	Email        string
	Avatar       string
	PasswordHash string
	CreatedAt    time.Time
}

type NewUser struct {
	Name     string
	Nickname string
	Email    string
	Password string
}

// UserProvider owns account validation and persistence; Create receives
// the raw password and is responsible for hashing it.
type UserProvider interface {
	Create(ctx context.Context, in NewUser) (*UserInfo, error)
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	jwt          *JWTManager
	userProvider UserProvider
}

func NewService(jwt *JWTManager, userProvider UserProvider) *Service {
	return &Service{
		jwt:          jwt,
		userProvider: userProvider,
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AuthResponse, error) {
	user, err := s.userProvider.Create(ctx, NewUser(req))
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	return s.createAuthResponse(user)
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, fmt.Errorf("login: %w", core.NotFoundError("user"))
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, fmt.Errorf("login: %w", core.ErrInvalidCredentials)
	}

	if newHash != "" {
		if err := s.userProvider.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	return s.createAuthResponse(user)
}

// Logout revokes the presented token; repeating it is harmless.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.jwt.Revoke(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("current user: %w", core.ErrUnauthenticated)
	}

	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *Service) createAuthResponse(user *UserInfo) (*AuthResponse, error) {
	token, expiresAt, err := s.jwt.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &AuthResponse{
		User:      toUserResponse(user),
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}
