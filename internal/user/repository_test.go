// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devassets/assets-api/internal/core"
)

const repoUserID = "66666666-6666-6666-6666-666666666666"

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepositoryCreateDuplicate(t *testing.T) {
	tests := []struct {
		constraint string
		message    string
	}{
		{"users_email_key", "Email already exists"},
		{"users_nickname_key", "Nickname already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock := newMockRepository(t)

			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := repo.Create(context.Background(), &User{ID: repoUserID, Email: "a@example.com"})

			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, []string{tt.message}, ve.Messages)
			assert.NotErrorIs(t, err, core.ErrDuplicateKey)

			w := httptest.NewRecorder()
			core.HandleError(w, httptest.NewRequest(http.MethodPost, "/api/v1/user", nil), err)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), core.CodeValidation)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepositoryUpdateUnknownConstraint(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"})

	err := repo.Update(context.Background(), &User{ID: repoUserID})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryEmailTakenExcludesID(t *testing.T) {
	repo, mock := newMockRepository(t)
	query := regexp.QuoteMeta(`SELECT 1 FROM users WHERE email = $1 AND ($2 = '' OR id::text <> $2)`)

	mock.ExpectQuery(query).
		WithArgs("a@example.com", repoUserID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(query).
		WithArgs("a@example.com", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.EmailTaken(context.Background(), "a@example.com", repoUserID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.EmailTaken(context.Background(), "a@example.com", "")
	require.NoError(t, err)
	assert.True(t, taken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(repoUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), repoUserID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryFollowers(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()
	follower := "77777777-7777-7777-7777-777777777777"

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_followers (user_id, follower_id)`)).
		WithArgs(repoUserID, follower).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT follower_id FROM user_followers`)).
		WithArgs(repoUserID).
		WillReturnRows(sqlmock.NewRows([]string{"follower_id"}).AddRow(follower))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_followers WHERE user_id = $1 AND follower_id = $2`)).
		WithArgs(repoUserID, follower).
		WillReturnResult(sqlmock.NewResult(0, 1))

	added, err := repo.AddFollower(ctx, repoUserID, follower)
	require.NoError(t, err)
	assert.False(t, added)

	followers, err := repo.ListFollowers(ctx, repoUserID)
	require.NoError(t, err)
	assert.Equal(t, []string{follower}, followers)

	removed, err := repo.RemoveFollower(ctx, repoUserID, follower)
	require.NoError(t, err)
	assert.True(t, removed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(repoUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), repoUserID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
