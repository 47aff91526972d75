// AngelaMos | 2026
// dto.go

package asset

import (
	"time"
)

type CreateAssetRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags" validate:"max=32,dive,max=64"`
	IsPublic    bool     `json:"isPublic"`
}

// UpdateAssetRequest is a partial replacement; nil fields are left as is.
type UpdateAssetRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=32,dive,max=64"`
	IsPublic    *bool    `json:"isPublic,omitempty"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

type ListParams struct {
	Page     int
	PageSize int
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type CommentResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Asset     string    `json:"asset"`
	CreatedAt time.Time `json:"createdAt"`
}

type AssetResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
	Owner       string            `json:"owner"`
	Slug        string            `json:"slug"`
	IsPublic    bool              `json:"isPublic"`
	Tags        []string          `json:"tags"`
	Likes       []string          `json:"likes"`
	Comments    []CommentResponse `json:"comments"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func ToAssetResponse(a *Asset) AssetResponse {
	comments := make([]CommentResponse, 0, len(a.Comments))
	for _, c := range a.Comments {
		comments = append(comments, CommentResponse{
			ID:        c.ID,
			Text:      c.Text,
			Author:    c.AuthorID,
			Asset:     c.AssetID,
			CreatedAt: c.CreatedAt,
		})
	}

	return AssetResponse{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Image:       a.Image,
		Owner:       a.OwnerID,
		Slug:        a.Slug,
		IsPublic:    a.IsPublic,
		Tags:        nonNil(a.Tags),
		Likes:       nonNil(a.Likes),
		Comments:    comments,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func ToAssetResponses(assets []*Asset) []AssetResponse {
	out := make([]AssetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, ToAssetResponse(a))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
