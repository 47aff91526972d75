// AngelaMos | 2026
// delete_test.go

package user

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devassets/assets-api/internal/asset"
	"github.com/devassets/assets-api/internal/auth"
	"github.com/devassets/assets-api/internal/config"
	"github.com/devassets/assets-api/internal/core"
)

func newJWTManager(t *testing.T) *auth.JWTManager {
	t.Helper()

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")
	require.NoError(t, auth.GenerateKeyPair(privPath, pubPath))

	m, err := auth.NewJWTManager(config.JWTConfig{
		PrivateKeyPath:    privPath,
		PublicKeyPath:     pubPath,
		AccessTokenExpire: time.Hour,
		Issuer:            "assets-api-test",
		Audience:          "assets-api-test-clients",
	}, auth.NewMemoryRegistry())
	require.NoError(t, err)

	return m
}

type deletionFixture struct {
	svc      *Service
	repo     *memRepo
	store    *fakeStorage
	mock     sqlmock.Sqlmock
	jwt      *auth.JWTManager
	user     *User
	sentinel *User
}

func newDeletionFixture(t *testing.T) *deletionFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := newMemRepo()
	store := newFakeStorage()
	jwt := newJWTManager(t)
	database := &core.Database{DB: sqlx.NewDb(db, "sqlmock")}

	svc := NewService(repo, database, asset.ReassignOwner, jwt, store, testAccounts())

	sentinel, err := svc.EnsureDeletedUser(context.Background())
	require.NoError(t, err)

	u := seedUser(t, repo, "alice", "alice@example.com")
	u.Avatar = "avatar_alice.png"
	require.NoError(t, repo.Update(context.Background(), u))

	return &deletionFixture{
		svc:      svc,
		repo:     repo,
		store:    store,
		mock:     mock,
		jwt:      jwt,
		user:     u,
		sentinel: sentinel,
	}
}

func TestDeleteAccountReassignsAssetsAndRevokesToken(t *testing.T) {
	f := newDeletionFixture(t)
	ctx := context.Background()

	token, _, err := f.jwt.Issue(f.user.ID)
	require.NoError(t, err)
	_, err = f.jwt.VerifyAccessToken(ctx, token)
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectExec(regexp.QuoteMeta(`UPDATE assets SET owner_id = $2 WHERE owner_id = $1`)).
		WithArgs(f.user.ID, f.sentinel.ID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	f.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(f.user.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	resp, err := f.svc.DeleteAccount(ctx, f.user.ID, token)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.ReassignedAssets)
	assert.Contains(t, resp.Message, "Discard")

	_, err = f.jwt.VerifyAccessToken(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	assert.Equal(t, []string{"avatar_alice.png"}, f.store.deleted)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteAccountRollsBackOnFailure(t *testing.T) {
	f := newDeletionFixture(t)
	ctx := context.Background()

	token, _, err := f.jwt.Issue(f.user.ID)
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectExec(regexp.QuoteMeta(`UPDATE assets SET owner_id = $2 WHERE owner_id = $1`)).
		WithArgs(f.user.ID, f.sentinel.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(f.user.ID).
		WillReturnError(errors.New("connection reset"))
	f.mock.ExpectRollback()

	_, err = f.svc.DeleteAccount(ctx, f.user.ID, token)
	require.Error(t, err)

	_, err = f.jwt.VerifyAccessToken(ctx, token)
	assert.NoError(t, err, "token stays valid when nothing was deleted")
	assert.Empty(t, f.store.deleted)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteAccountGuards(t *testing.T) {
	f := newDeletionFixture(t)
	ctx := context.Background()

	_, err := f.svc.DeleteAccount(ctx, f.sentinel.ID, "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = f.svc.DeleteAccount(ctx, "55555555-5555-5555-5555-555555555555", "")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, f.repo.Delete(ctx, f.sentinel.ID))
	_, err = f.svc.DeleteAccount(ctx, f.user.ID, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNotFound, "a missing sentinel is a server fault")

	require.NoError(t, f.mock.ExpectationsWereMet())
}
