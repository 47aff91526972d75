// AngelaMos | 2026
// entity.go

package asset

import (
	"time"
)

type Asset struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Image       string    `db:"image"`
	OwnerID     string    `db:"owner_id"`
	Slug        string    `db:"slug"`
	IsPublic    bool      `db:"is_public"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	Tags     []string  `db:"-"`
	Likes    []string  `db:"-"`
	Comments []Comment `db:"-"`
}

func (a *Asset) IsOwnedBy(userID string) bool {
	return userID != "" && a.OwnerID == userID
}

type Comment struct {
	ID        string    `db:"id"`
	AssetID   string    `db:"asset_id"`
	AuthorID  string    `db:"author_id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}
