// AngelaMos | 2026
// service.go

package asset

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"

	"github.com/devassets/assets-api/internal/core"
)

const (
	MaxNameLength      = 50
	MinCommentLength   = 5
	MaxCommentLength   = 200
	DefaultPageSize    = 20
	MaxPageSize        = 100
	defaultAssetsImage = "no-photo.jpg"
)

var (
	ErrAlreadyLiked = core.ConflictError("Asset already liked")
	ErrNotLiked     = core.ConflictError("Asset has not yet been liked")
)

var assetEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "assets_api_asset_events_total",
		Help: "Asset mutations by kind",
	},
	[]string{"event"},
)

type Service struct {
	repo         Repository
	tx           core.Transactor
	newRepo      func(core.DBTX) Repository
	defaultImage string
}

func NewService(repo Repository, tx core.Transactor, defaultImage string) *Service {
	if defaultImage == "" {
		defaultImage = defaultAssetsImage
	}

	return &Service{
		repo:         repo,
		tx:           tx,
		newRepo:      NewRepository,
		defaultImage: defaultImage,
	}
}

func validateAsset(name, description string) error {
	ve := &core.ValidationError{}

	switch {
	case name == "":
		ve.Add("Please add a name")
	case utf8.RuneCountInString(name) > MaxNameLength:
		ve.Add(fmt.Sprintf("Name can not be more than %d characters", MaxNameLength))
	}

	if description == "" {
		ve.Add("Please add a description")
	}

	return ve.OrNil()
}

// cleanTags trims every tag and drops the blank ones, keeping order and
// duplicates.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *Service) Create(
	ctx context.Context,
	ownerID string,
	req CreateAssetRequest,
) (*Asset, error) {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)

	if err := validateAsset(name, description); err != nil {
		return nil, err
	}

	asset := &Asset{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Image:       s.defaultImage,
		OwnerID:     ownerID,
		Slug:        Slugify(name),
		IsPublic:    req.IsPublic,
		Tags:        cleanTags(req.Tags),
		Likes:       []string{},
		Comments:    []Comment{},
	}

	err := s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.newRepo(tx)
		if err := repo.Insert(ctx, asset); err != nil {
			return err
		}
		return repo.ReplaceTags(ctx, asset.ID, asset.Tags)
	})
	if err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}

	assetEvents.WithLabelValues("created").Inc()

	return asset, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Asset, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial replacement. Only the owner may update.
func (s *Service) Update(
	ctx context.Context,
	requesterID, id string,
	req UpdateAssetRequest,
) (*Asset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !asset.IsOwnedBy(requesterID) {
		return nil, core.UnauthorizedError("not authorized to update this asset")
	}

	if req.Name != nil {
		asset.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		asset.Description = strings.TrimSpace(*req.Description)
	}
	if req.IsPublic != nil {
		asset.IsPublic = *req.IsPublic
	}

	if err := validateAsset(asset.Name, asset.Description); err != nil {
		return nil, err
	}

	asset.Slug = Slugify(asset.Name)

	replaceTags := req.Tags != nil
	if replaceTags {
		asset.Tags = cleanTags(req.Tags)
	}

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.newRepo(tx)
		if err := repo.Update(ctx, asset); err != nil {
			return err
		}
		if replaceTags {
			return repo.ReplaceTags(ctx, asset.ID, asset.Tags)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update asset: %w", err)
	}

	return asset, nil
}

// Delete removes an asset owned by requesterID and returns it.
func (s *Service) Delete(ctx context.Context, requesterID, id string) (*Asset, error) {
	ctx, span := core.StartSpan(ctx, "asset.Delete",
		attribute.String("asset.id", id),
	)
	defer span.End()

	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !asset.IsOwnedBy(requesterID) {
		return nil, core.UnauthorizedError("not authorized to delete this asset")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	assetEvents.WithLabelValues("deleted").Inc()

	return asset, nil
}

func (s *Service) AddComment(
	ctx context.Context,
	id, authorID, text string,
) (*Asset, error) {
	if err := s.requireAsset(ctx, id); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return nil, core.NewValidationError("Please add some text")
	case n < MinCommentLength:
		return nil, core.NewValidationError(fmt.Sprintf(
			"Comment must be at least %d characters", MinCommentLength))
	case n > MaxCommentLength:
		return nil, core.NewValidationError(fmt.Sprintf(
			"Comment can not be more than %d characters", MaxCommentLength))
	}

	comment := &Comment{
		ID:       uuid.New().String(),
		AssetID:  id,
		AuthorID: authorID,
		Text:     text,
	}

	if err := s.repo.InsertComment(ctx, comment); err != nil {
		return nil, err
	}

	assetEvents.WithLabelValues("commented").Inc()

	return s.repo.GetByID(ctx, id)
}

// RemoveComment deletes a comment. Only its author may remove it.
func (s *Service) RemoveComment(
	ctx context.Context,
	id, commentID, requesterID string,
) (*Asset, error) {
	if err := s.requireAsset(ctx, id); err != nil {
		return nil, err
	}

	comment, err := s.repo.GetComment(ctx, id, commentID)
	if err != nil {
		return nil, err
	}

	if comment.AuthorID != requesterID {
		return nil, core.UnauthorizedError("not authorized to remove this comment")
	}

	if err := s.repo.DeleteComment(ctx, id, commentID); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) AddLike(ctx context.Context, id, userID string) (*Asset, error) {
	if err := s.requireAsset(ctx, id); err != nil {
		return nil, err
	}

	added, err := s.repo.AddLike(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, fmt.Errorf("add like: %w", ErrAlreadyLiked)
	}

	assetEvents.WithLabelValues("liked").Inc()

	return s.repo.GetByID(ctx, id)
}

func (s *Service) RemoveLike(ctx context.Context, id, userID string) (*Asset, error) {
	if err := s.requireAsset(ctx, id); err != nil {
		return nil, err
	}

	removed, err := s.repo.RemoveLike(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, fmt.Errorf("remove like: %w", ErrNotLiked)
	}

	assetEvents.WithLabelValues("unliked").Inc()

	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params ListParams) ([]*Asset, int, error) {
	params = normalizeListParams(params)
	return s.repo.List(ctx, params.PageSize, params.Offset())
}

func (s *Service) ListByTag(ctx context.Context, tag string) ([]*Asset, error) {
	return s.repo.ListByTag(ctx, strings.TrimSpace(tag))
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*Asset, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) ListTags(ctx context.Context) ([]string, error) {
	return s.repo.ListTags(ctx)
}

func (s *Service) requireAsset(ctx context.Context, id string) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return core.NotFoundError("asset")
	}
	return nil
}

func normalizeListParams(p ListParams) ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}
