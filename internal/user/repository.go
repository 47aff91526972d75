// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/devassets/assets-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	NicknameTaken(ctx context.Context, nickname, excludeID string) (bool, error)
	Update(ctx context.Context, user *User) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	ListFollowers(ctx context.Context, userID string) ([]string, error)
	AddFollower(ctx context.Context, userID, followerID string) (bool, error)
	RemoveFollower(ctx context.Context, userID, followerID string) (bool, error)
	DeleteAllExcept(ctx context.Context, keepEmail string) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, nickname, email, password_hash, avatar,
		       reset_password_token, reset_password_expire,
		       created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, name, nickname, email, password_hash, avatar)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Name,
		user.Nickname,
		user.Email,
		user.PasswordHash,
		user.Avatar,
	)
	if err != nil {
		return translateUserError("create user", err)
	}

	return nil
}

// Two requests can both pass the availability checks and race to the
// insert; the loser gets the same message the checks would have produced.
var uniqueMessages = map[string]string{
	"users_email_key":    msgEmailTaken,
	"users_nickname_key": msgNicknameTaken,
}

func translateUserError(op string, err error) error {
	if constraint, ok := core.UniqueViolation(err); ok {
		if msg, known := uniqueMessages[constraint]; known {
			return fmt.Errorf("%s: %w", op, core.NewValidationError(msg))
		}
	}
	return core.TranslateDBError(op, err)
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

// EmailTaken ignores the row with excludeID so that an account can keep
// its own address on update. An empty excludeID checks every row.
func (r *repository) EmailTaken(
	ctx context.Context,
	email, excludeID string,
) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM users WHERE email = $1 AND ($2 = '' OR id::text <> $2))`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) NicknameTaken(
	ctx context.Context,
	nickname, excludeID string,
) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM users WHERE nickname = $1 AND ($2 = '' OR id::text <> $2))`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, nickname, excludeID); err != nil {
		return false, fmt.Errorf("check nickname exists: %w", err)
	}

	return exists, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, nickname = $3, email = $4, password_hash = $5,
		    avatar = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Name,
		user.Nickname,
		user.Email,
		user.PasswordHash,
		user.Avatar,
	)
	if err != nil {
		return translateUserError("update user", err)
	}

	return nil
}

func (r *repository) UpdatePasswordHash(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return requireAffected(result, "update password")
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return core.TranslateDBError("delete user", err)
	}

	return requireAffected(result, "delete user")
}

func (r *repository) ListFollowers(
	ctx context.Context,
	userID string,
) ([]string, error) {
	query := `
		SELECT follower_id FROM user_followers
		WHERE user_id = $1
		ORDER BY created_at`

	followers := []string{}
	if err := r.db.SelectContext(ctx, &followers, query, userID); err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}

	return followers, nil
}

// AddFollower reports whether a new edge was created.
func (r *repository) AddFollower(
	ctx context.Context,
	userID, followerID string,
) (bool, error) {
	query := `
		INSERT INTO user_followers (user_id, follower_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, userID, followerID)
	if err != nil {
		return false, core.TranslateDBError("add follower", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add follower: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) RemoveFollower(
	ctx context.Context,
	userID, followerID string,
) (bool, error) {
	query := `DELETE FROM user_followers WHERE user_id = $1 AND follower_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, followerID)
	if err != nil {
		return false, fmt.Errorf("remove follower: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove follower: %w", err)
	}

	return rows > 0, nil
}

// DeleteAllExcept wipes accounts for reseeding, keeping the given email.
func (r *repository) DeleteAllExcept(
	ctx context.Context,
	keepEmail string,
) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE email <> $1`, keepEmail)
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}

	return rows, nil
}

func requireAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
