// AngelaMos | 2026
// repository.go

package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/devassets/assets-api/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, asset *Asset) error
	Update(ctx context.Context, asset *Asset) error
	ReplaceTags(ctx context.Context, assetID string, tags []string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Asset, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Asset, int, error)
	ListByTag(ctx context.Context, tag string) ([]*Asset, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Asset, error)
	ListTags(ctx context.Context) ([]string, error)
	InsertComment(ctx context.Context, comment *Comment) error
	GetComment(ctx context.Context, assetID, commentID string) (*Comment, error)
	DeleteComment(ctx context.Context, assetID, commentID string) error
	AddLike(ctx context.Context, assetID, userID string) (bool, error)
	RemoveLike(ctx context.Context, assetID, userID string) (bool, error)
	ReassignOwner(ctx context.Context, fromID, toID string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// ReassignOwner moves every asset of fromID to toID on db, touching only
// the owner column. It is the hook account deletion runs inside its
// transaction.
func ReassignOwner(ctx context.Context, db core.DBTX, fromID, toID string) (int64, error) {
	return NewRepository(db).ReassignOwner(ctx, fromID, toID)
}

const assetColumns = `id, name, description, image, owner_id, slug, is_public,
		       created_at, updated_at`

func (r *repository) Insert(ctx context.Context, asset *Asset) error {
	query := `
		INSERT INTO assets (id, name, description, image, owner_id, slug, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, asset, query,
		asset.ID,
		asset.Name,
		asset.Description,
		asset.Image,
		asset.OwnerID,
		asset.Slug,
		asset.IsPublic,
	)
	if err != nil {
		return core.TranslateDBError("insert asset", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, asset *Asset) error {
	query := `
		UPDATE assets
		SET name = $2, description = $3, slug = $4, is_public = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &asset.UpdatedAt, query,
		asset.ID,
		asset.Name,
		asset.Description,
		asset.Slug,
		asset.IsPublic,
	)
	if err != nil {
		return core.TranslateDBError("update asset", err)
	}

	return nil
}

// ReplaceTags rewrites the ordered tag list of an asset.
func (r *repository) ReplaceTags(
	ctx context.Context,
	assetID string,
	tags []string,
) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM asset_tags WHERE asset_id = $1`, assetID,
	); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}

	for i, tag := range tags {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO asset_tags (asset_id, position, tag) VALUES ($1, $2, $3)`,
			assetID, i, tag,
		); err != nil {
			return core.TranslateDBError("insert tag", err)
		}
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete asset: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	var asset Asset
	err := r.db.GetContext(ctx, &asset, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get asset: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}

	assets := []*Asset{&asset}
	if err := r.loadRelations(ctx, assets); err != nil {
		return nil, err
	}

	return &asset, nil
}

func (r *repository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM assets WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check asset exists: %w", err)
	}

	return exists, nil
}

func (r *repository) List(
	ctx context.Context,
	limit, offset int,
) ([]*Asset, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM assets`); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	query := `
		SELECT ` + assetColumns + `
		FROM assets
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	assets, err := r.selectAssets(ctx, "list assets", query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return assets, total, nil
}

func (r *repository) ListByTag(ctx context.Context, tag string) ([]*Asset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM assets
		WHERE id IN (SELECT asset_id FROM asset_tags WHERE tag = $1)
		ORDER BY created_at DESC, id`

	return r.selectAssets(ctx, "list assets by tag", query, tag)
}

func (r *repository) ListByOwner(
	ctx context.Context,
	ownerID string,
) ([]*Asset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM assets
		WHERE owner_id = $1
		ORDER BY created_at DESC, id`

	return r.selectAssets(ctx, "list assets by owner", query, ownerID)
}

func (r *repository) ListTags(ctx context.Context) ([]string, error) {
	tags := []string{}
	if err := r.db.SelectContext(ctx, &tags,
		`SELECT DISTINCT tag FROM asset_tags ORDER BY tag`,
	); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return tags, nil
}

func (r *repository) InsertComment(ctx context.Context, comment *Comment) error {
	query := `
		INSERT INTO asset_comments (id, asset_id, author_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &comment.CreatedAt, query,
		comment.ID,
		comment.AssetID,
		comment.AuthorID,
		comment.Text,
	)
	if err != nil {
		return core.TranslateDBError("insert comment", err)
	}

	return nil
}

func (r *repository) GetComment(
	ctx context.Context,
	assetID, commentID string,
) (*Comment, error) {
	query := `
		SELECT id, asset_id, author_id, text, created_at
		FROM asset_comments
		WHERE asset_id = $1 AND id = $2`

	var comment Comment
	err := r.db.GetContext(ctx, &comment, query, assetID, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get comment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}

	return &comment, nil
}

func (r *repository) DeleteComment(
	ctx context.Context,
	assetID, commentID string,
) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM asset_comments WHERE asset_id = $1 AND id = $2`,
		assetID, commentID,
	)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete comment: %w", core.ErrNotFound)
	}

	return nil
}

// AddLike reports whether the like was new. The primary key makes the
// insert a no-op when the user already likes the asset.
func (r *repository) AddLike(
	ctx context.Context,
	assetID, userID string,
) (bool, error) {
	query := `
		INSERT INTO asset_likes (asset_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, assetID, userID)
	if err != nil {
		return false, core.TranslateDBError("add like", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add like: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) RemoveLike(
	ctx context.Context,
	assetID, userID string,
) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM asset_likes WHERE asset_id = $1 AND user_id = $2`,
		assetID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("remove like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove like: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) ReassignOwner(
	ctx context.Context,
	fromID, toID string,
) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE assets SET owner_id = $2 WHERE owner_id = $1`,
		fromID, toID,
	)
	if err != nil {
		return 0, core.TranslateDBError("reassign assets", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign assets: %w", err)
	}

	return rows, nil
}

func (r *repository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assets`)
	if err != nil {
		return 0, fmt.Errorf("delete assets: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete assets: %w", err)
	}

	return rows, nil
}

func (r *repository) selectAssets(
	ctx context.Context,
	op, query string,
	args ...any,
) ([]*Asset, error) {
	assets := []*Asset{}
	if err := r.db.SelectContext(ctx, &assets, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.loadRelations(ctx, assets); err != nil {
		return nil, err
	}

	return assets, nil
}

type tagRow struct {
	AssetID string `db:"asset_id"`
	Tag     string `db:"tag"`
}

type likeRow struct {
	AssetID string `db:"asset_id"`
	UserID  string `db:"user_id"`
}

// loadRelations fills tags, likes and comments for a page of assets with
// one query per relation.
func (r *repository) loadRelations(ctx context.Context, assets []*Asset) error {
	if len(assets) == 0 {
		return nil
	}

	ids := make([]string, 0, len(assets))
	byID := make(map[string]*Asset, len(assets))
	for _, a := range assets {
		a.Tags = []string{}
		a.Likes = []string{}
		a.Comments = []Comment{}
		ids = append(ids, a.ID)
		byID[a.ID] = a
	}

	var tags []tagRow
	if err := r.selectIn(ctx, &tags,
		`SELECT asset_id, tag FROM asset_tags
		 WHERE asset_id IN (?) ORDER BY asset_id, position`, ids,
	); err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	for _, t := range tags {
		if a, ok := byID[t.AssetID]; ok {
			a.Tags = append(a.Tags, t.Tag)
		}
	}

	var likes []likeRow
	if err := r.selectIn(ctx, &likes,
		`SELECT asset_id, user_id FROM asset_likes
		 WHERE asset_id IN (?) ORDER BY created_at, user_id`, ids,
	); err != nil {
		return fmt.Errorf("load likes: %w", err)
	}
	for _, l := range likes {
		if a, ok := byID[l.AssetID]; ok {
			a.Likes = append(a.Likes, l.UserID)
		}
	}

	var comments []Comment
	if err := r.selectIn(ctx, &comments,
		`SELECT id, asset_id, author_id, text, created_at FROM asset_comments
		 WHERE asset_id IN (?) ORDER BY seq DESC`, ids,
	); err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	for _, c := range comments {
		if a, ok := byID[c.AssetID]; ok {
			a.Comments = append(a.Comments, c)
		}
	}

	return nil
}

func (r *repository) selectIn(
	ctx context.Context,
	dest any,
	query string,
	ids []string,
) error {
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return err
	}

	return r.db.SelectContext(ctx, dest, r.db.Rebind(query), args...)
}
