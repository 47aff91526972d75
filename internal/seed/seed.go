// AngelaMos | 2026
// seed.go

// Package seed fills a development database with fake accounts and assets.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/devassets/assets-api/internal/asset"
	"github.com/devassets/assets-api/internal/auth"
	"github.com/devassets/assets-api/internal/user"
)

const DefaultPassword = "password123"

var tagPool = []string{
	"pixel", "ui", "icons", "fonts", "sprites", "audio", "3d",
	"textures", "shaders", "templates", "illustrations", "retro",
}

type Accounts interface {
	Create(ctx context.Context, in auth.NewUser) (*auth.UserInfo, error)
	EnsureDeletedUser(ctx context.Context) (*user.User, error)
}

type Assets interface {
	Create(ctx context.Context, ownerID string, req asset.CreateAssetRequest) (*asset.Asset, error)
	AddLike(ctx context.Context, id, userID string) (*asset.Asset, error)
	AddComment(ctx context.Context, id, authorID, text string) (*asset.Asset, error)
}

type AssetWiper interface {
	DeleteAll(ctx context.Context) (int64, error)
}

type AccountWiper interface {
	DeleteAllExcept(ctx context.Context, keepEmail string) (int64, error)
}

type Options struct {
	Users          int
	AssetsPerUser  int
	Clean          bool
	KeepEmail      string
	RandomSeed     int64
	MaxInteractors int
}

type Result struct {
	Users    int
	Assets   int
	Likes    int
	Comments int
}

type Seeder struct {
	accounts     Accounts
	assets       Assets
	assetWiper   AssetWiper
	accountWiper AccountWiper
	faker        *gofakeit.Faker
	opts         Options
}

func New(
	accounts Accounts,
	assets Assets,
	assetWiper AssetWiper,
	accountWiper AccountWiper,
	opts Options,
) *Seeder {
	if opts.MaxInteractors <= 0 {
		opts.MaxInteractors = 3
	}

	return &Seeder{
		accounts:     accounts,
		assets:       assets,
		assetWiper:   assetWiper,
		accountWiper: accountWiper,
		faker:        gofakeit.New(opts.RandomSeed),
		opts:         opts,
	}
}

// Run optionally wipes existing data, makes sure the deleted-user account
// exists, then creates accounts, their assets and some likes and comments.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	if s.opts.Clean {
		if err := s.clear(ctx); err != nil {
			return nil, err
		}
	}

	if _, err := s.accounts.EnsureDeletedUser(ctx); err != nil {
		return nil, fmt.Errorf("ensure deleted user: %w", err)
	}

	res := &Result{}

	users := make([]*auth.UserInfo, 0, s.opts.Users)
	for i := range s.opts.Users {
		u, err := s.accounts.Create(ctx, s.fakeUser(i))
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, u)
	}
	res.Users = len(users)

	for _, owner := range users {
		for range s.opts.AssetsPerUser {
			a, err := s.assets.Create(ctx, owner.ID, s.fakeAsset())
			if err != nil {
				return nil, fmt.Errorf("create asset for %s: %w", owner.Nickname, err)
			}
			res.Assets++

			likes, comments, err := s.interact(ctx, a.ID, owner.ID, users)
			if err != nil {
				return nil, err
			}
			res.Likes += likes
			res.Comments += comments
		}
	}

	slog.InfoContext(ctx, "seed complete",
		"users", res.Users,
		"assets", res.Assets,
		"likes", res.Likes,
		"comments", res.Comments,
	)

	return res, nil
}

func (s *Seeder) clear(ctx context.Context) error {
	assets, err := s.assetWiper.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("clear assets: %w", err)
	}

	users, err := s.accountWiper.DeleteAllExcept(ctx, s.opts.KeepEmail)
	if err != nil {
		return fmt.Errorf("clear users: %w", err)
	}

	slog.InfoContext(ctx, "cleared existing data", "assets", assets, "users", users)
	return nil
}

// interact has a few accounts other than the owner like and comment on an
// asset.
func (s *Seeder) interact(
	ctx context.Context,
	assetID, ownerID string,
	users []*auth.UserInfo,
) (int, int, error) {
	others := make([]*auth.UserInfo, 0, len(users))
	for _, u := range users {
		if u.ID != ownerID {
			others = append(others, u)
		}
	}

	for i := len(others) - 1; i > 0; i-- {
		j := s.faker.Number(0, i)
		others[i], others[j] = others[j], others[i]
	}

	n := min(s.faker.Number(0, s.opts.MaxInteractors), len(others))

	var likes, comments int
	for _, u := range others[:n] {
		if _, err := s.assets.AddLike(ctx, assetID, u.ID); err != nil {
			return 0, 0, fmt.Errorf("like asset: %w", err)
		}
		likes++

		if !s.faker.Bool() {
			continue
		}
		if _, err := s.assets.AddComment(ctx, assetID, u.ID, s.faker.Sentence(8)); err != nil {
			return 0, 0, fmt.Errorf("comment on asset: %w", err)
		}
		comments++
	}

	return likes, comments, nil
}

func (s *Seeder) fakeUser(i int) auth.NewUser {
	first := s.faker.FirstName()
	last := s.faker.LastName()
	nickname := strings.ToLower(fmt.Sprintf("%s%s%d", first[:1], last, i))

	return auth.NewUser{
		Name:     first + " " + last,
		Nickname: nickname,
		Email:    nickname + "@" + s.faker.DomainName(),
		Password: DefaultPassword,
	}
}

func (s *Seeder) fakeAsset() asset.CreateAssetRequest {
	tags := append([]string(nil), tagPool...)
	s.faker.ShuffleStrings(tags)

	name := s.faker.AppName()
	if len(name) > asset.MaxNameLength {
		name = name[:asset.MaxNameLength]
	}

	return asset.CreateAssetRequest{
		Name:        name,
		Description: s.faker.Sentence(12),
		Tags:        tags[:s.faker.Number(1, 3)],
		IsPublic:    s.faker.Bool(),
	}
}
