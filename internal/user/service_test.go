// AngelaMos | 2026
// service_test.go

package user

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devassets/assets-api/internal/auth"
	"github.com/devassets/assets-api/internal/config"
	"github.com/devassets/assets-api/internal/core"
)

const (
	testDeletedEmail  = "deleted@devassets.local"
	testDefaultAvatar = "no-photo.jpg"
)

type memRepo struct {
	mu        sync.Mutex
	users     map[string]*User
	followers map[string][]string
	updateErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:     make(map[string]*User),
		followers: make(map[string][]string),
	}
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.NewValidationError(msgEmailTaken))
		}
		if existing.Nickname == u.Nickname {
			return fmt.Errorf("create user: %w", core.NewValidationError(msgNicknameTaken))
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (m *memRepo) taken(match func(*User) bool, excludeID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != excludeID && match(u) {
			return true
		}
	}
	return false
}

func (m *memRepo) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	return m.taken(func(u *User) bool { return u.Email == email }, excludeID), nil
}

func (m *memRepo) NicknameTaken(_ context.Context, nickname, excludeID string) (bool, error) {
	return m.taken(func(u *User) bool { return u.Nickname == nickname }, excludeID), nil
}

func (m *memRepo) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[u.ID]; !ok {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	u.PasswordHash = hash
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

func (m *memRepo) ListFollowers(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.followers[userID]...), nil
}

func (m *memRepo) AddFollower(_ context.Context, userID, followerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.followers[userID] {
		if id == followerID {
			return false, nil
		}
	}
	m.followers[userID] = append(m.followers[userID], followerID)
	return true, nil
}

func (m *memRepo) RemoveFollower(_ context.Context, userID, followerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.followers[userID]
	for i, id := range list {
		if id == followerID {
			m.followers[userID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) DeleteAllExcept(_ context.Context, keepEmail string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, u := range m.users {
		if u.Email != keepEmail {
			delete(m.users, id)
			n++
		}
	}
	return n, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: make(map[string][]byte)}
}

func (f *fakeStorage) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = data
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	delete(f.files, name)
	return nil
}

func (f *fakeStorage) URL(name string) string {
	return "/uploads/" + name
}

type nopRevoker struct{}

func (nopRevoker) Revoke(context.Context, string) error { return nil }

func testAccounts() config.AccountsConfig {
	return config.AccountsConfig{
		DeletedUserEmail: testDeletedEmail,
		DefaultAvatar:    testDefaultAvatar,
	}
}

func newTestService(t *testing.T) (*Service, *memRepo, *fakeStorage) {
	t.Helper()
	repo := newMemRepo()
	store := newFakeStorage()
	svc := NewService(repo, nil, nil, nopRevoker{}, store, testAccounts())
	return svc, repo, store
}

func seedUser(t *testing.T, repo *memRepo, nickname, email string) *User {
	t.Helper()
	u := &User{
		ID:           uuid.New().String(),
		Name:         strings.ToUpper(nickname[:1]) + nickname[1:],
		Nickname:     nickname,
		Email:        email,
		PasswordHash: "hash",
		Avatar:       testDefaultAvatar,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func ptr(s string) *string { return &s }

func validationMessages(t *testing.T, err error) []string {
	t.Helper()
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Messages
}

func TestCreateValidationOrder(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "alice", "alice@example.com")

	tests := []struct {
		name string
		in   auth.NewUser
		want []string
	}{
		{
			name: "everything missing",
			in:   auth.NewUser{},
			want: []string{
				"Please add a name",
				"Please add a nickname",
				"Please add an email",
				"Please add a password",
			},
		},
		{
			name: "bad email and short password",
			in: auth.NewUser{
				Name: "Bob", Nickname: "bob", Email: "not-an-email", Password: "short",
			},
			want: []string{
				"Please add a valid email",
				"Password must be at least 8 characters",
			},
		},
		{
			name: "duplicate email and nickname",
			in: auth.NewUser{
				Name: "Alice", Nickname: "alice", Email: "ALICE@example.com", Password: "password123",
			},
			want: []string{"Email already exists", "Nickname already exists"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			assert.Equal(t, tt.want, validationMessages(t, err))
		})
	}
}

func TestCreateHashesPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)

	info, err := svc.Create(context.Background(), auth.NewUser{
		Name: " Carol ", Nickname: "carol", Email: "Carol@Example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Carol", info.Name)
	assert.Equal(t, "carol@example.com", info.Email)
	assert.Equal(t, testDefaultAvatar, info.Avatar)

	stored, err := repo.GetByID(context.Background(), info.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)

	ok, err := core.VerifyPassword("password123", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateProfileExcludesOwnRow(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice", "alice@example.com")
	seedUser(t, repo, "bob", "bob@example.com")

	updated, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileRequest{
		Name:  ptr("Alice Liddell"),
		Email: ptr("alice@example.com"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.Name)

	_, err = svc.UpdateProfile(ctx, alice.ID, UpdateProfileRequest{
		Nickname: ptr("bob"),
	}, nil)
	assert.Equal(t, []string{"Nickname already exists"}, validationMessages(t, err))

	_, err = svc.UpdateProfile(ctx, alice.ID, UpdateProfileRequest{
		Password: ptr("short"),
	}, nil)
	assert.Equal(t, []string{"Password must be at least 8 characters"}, validationMessages(t, err))

	_, err = svc.UpdateProfile(ctx, uuid.New().String(), UpdateProfileRequest{}, nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateProfileReplacesAvatarAfterPersist(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice", "alice@example.com")

	first, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileRequest{}, &AvatarUpload{
		Reader: bytes.NewReader([]byte("one")), Size: 3, ContentType: "image/png", Extension: ".png",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.Avatar, "avatar_"+alice.ID+"_"))
	assert.True(t, strings.HasSuffix(first.Avatar, ".png"))
	assert.Contains(t, store.files, first.Avatar)
	assert.Empty(t, store.deleted, "default avatar is never deleted")

	second, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileRequest{}, &AvatarUpload{
		Reader: bytes.NewReader([]byte("two")), Size: 3, ContentType: "image/png", Extension: "png",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.Avatar, second.Avatar)
	assert.Equal(t, []string{first.Avatar}, store.deleted)
	assert.Contains(t, store.files, second.Avatar)
}

func TestUpdateProfileKeepsOldAvatarWhenPersistFails(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice", "alice@example.com")

	current, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileRequest{}, &AvatarUpload{
		Reader: bytes.NewReader([]byte("one")), Size: 3, ContentType: "image/png", Extension: ".png",
	})
	require.NoError(t, err)

	repo.updateErr = errors.New("connection reset")
	_, err = svc.UpdateProfile(ctx, alice.ID, UpdateProfileRequest{}, &AvatarUpload{
		Reader: bytes.NewReader([]byte("two")), Size: 3, ContentType: "image/png", Extension: ".png",
	})
	require.Error(t, err)

	assert.Contains(t, store.files, current.Avatar, "stale avatar must survive a failed update")
	require.Len(t, store.deleted, 1)
	assert.NotEqual(t, current.Avatar, store.deleted[0], "only the new upload is cleaned up")

	stored, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, current.Avatar, stored.Avatar)
}

func TestDeleteAvatarResetsToDefault(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice", "alice@example.com")

	withAvatar, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileRequest{}, &AvatarUpload{
		Reader: bytes.NewReader([]byte("img")), Size: 3, ContentType: "image/jpeg", Extension: ".jpg",
	})
	require.NoError(t, err)

	reset, err := svc.DeleteAvatar(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, testDefaultAvatar, reset.Avatar)
	assert.Equal(t, []string{withAvatar.Avatar}, store.deleted)

	again, err := svc.DeleteAvatar(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, testDefaultAvatar, again.Avatar)
	assert.Len(t, store.deleted, 1)
}

func TestFollowAndUnfollow(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice", "alice@example.com")
	bob := seedUser(t, repo, "bob", "bob@example.com")

	_, err := svc.Follow(ctx, alice.ID, alice.ID)
	assert.Equal(t, []string{"You cannot follow yourself"}, validationMessages(t, err))

	profile, err := svc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, profile.Followers)

	_, err = svc.Follow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, core.ErrConflict)

	profile, err = svc.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.Followers)

	_, err = svc.Unfollow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.Follow(ctx, uuid.New().String(), bob.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestEnsureDeletedUserIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnsureDeletedUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, testDeletedEmail, first.Email)
	assert.Equal(t, "deleted-user", first.Nickname)

	second, err := svc.EnsureDeletedUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestLookupPrincipal(t *testing.T) {
	svc, repo, _ := newTestService(t)
	alice := seedUser(t, repo, "alice", "alice@example.com")

	p, err := svc.LookupPrincipal(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, p.ID)
	assert.Equal(t, "alice", p.Nickname)

	_, err = svc.LookupPrincipal(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, core.ErrNotFound)
}
