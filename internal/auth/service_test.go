// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devassets/assets-api/internal/core"
)

type stubUserProvider struct {
	users   map[string]*UserInfo
	created []NewUser
}

func newStubUserProvider() *stubUserProvider {
	return &stubUserProvider{users: make(map[string]*UserInfo)}
}

func (s *stubUserProvider) add(t *testing.T, id, email, password string) *UserInfo {
	t.Helper()
	hash, err := core.HashPassword(password)
	require.NoError(t, err)

	u := &UserInfo{
		ID:           id,
		Name:         "Test " + id,
		Nickname:     id,
		Email:        email,
		Avatar:       "no-photo.jpg",
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	s.users[id] = u
	return u
}

func (s *stubUserProvider) Create(_ context.Context, in NewUser) (*UserInfo, error) {
	for _, u := range s.users {
		if u.Email == strings.ToLower(in.Email) {
			return nil, core.NewValidationError("Email already exists")
		}
	}
	s.created = append(s.created, in)
	u := &UserInfo{
		ID:       fmt.Sprintf("user-%d", len(s.users)+1),
		Name:     in.Name,
		Nickname: in.Nickname,
		Email:    strings.ToLower(in.Email),
		Avatar:   "no-photo.jpg",
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubUserProvider) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (s *stubUserProvider) GetByID(_ context.Context, id string) (*UserInfo, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (s *stubUserProvider) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.users[id].PasswordHash = hash
	return nil
}

func TestRegisterIssuesToken(t *testing.T) {
	m := newTestManager(t, NewMemoryRegistry(), time.Hour)
	users := newStubUserProvider()
	svc := NewService(m, users)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Nickname: "alice",
		Email:    "Alice@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, "Bearer", resp.TokenType)
	require.Len(t, users.created, 1)
	assert.Equal(t, "secret123", users.created[0].Password)

	claims, err := m.VerifyAccessToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestRegisterPropagatesValidation(t *testing.T) {
	m := newTestManager(t, NewMemoryRegistry(), time.Hour)
	users := newStubUserProvider()
	users.add(t, "u1", "alice@example.com", "secret123")
	svc := NewService(m, users)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Nickname: "alice2",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.Error(t, err)

	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Messages, "Email already exists")
}

func TestLogin(t *testing.T) {
	m := newTestManager(t, NewMemoryRegistry(), time.Hour)
	users := newStubUserProvider()
	users.add(t, "u1", "alice@example.com", "secret123")
	svc := NewService(m, users)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginRequest{Email: " Alice@example.com ", Password: "secret123"})
		require.NoError(t, err)
		assert.Equal(t, "u1", resp.User.ID)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "nope-nope"})
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginRequest{Email: "bob@example.com", Password: "secret123"})
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	m := newTestManager(t, NewMemoryRegistry(), time.Hour)
	users := newStubUserProvider()
	users.add(t, "u1", "alice@example.com", "secret123")
	svc := NewService(m, users)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.Token))

	_, err = m.VerifyAccessToken(ctx, resp.Token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestGetCurrentUser(t *testing.T) {
	m := newTestManager(t, NewMemoryRegistry(), time.Hour)
	users := newStubUserProvider()
	users.add(t, "u1", "alice@example.com", "secret123")
	svc := NewService(m, users)

	u, err := svc.GetCurrentUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = svc.GetCurrentUser(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	_, err = svc.GetCurrentUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
