// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devassets/assets-api/internal/asset"
	"github.com/devassets/assets-api/internal/config"
	"github.com/devassets/assets-api/internal/core"
	"github.com/devassets/assets-api/internal/seed"
	"github.com/devassets/assets-api/internal/storage"
	"github.com/devassets/assets-api/internal/user"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	users := flag.Int("users", 10, "number of accounts to create")
	assetsPerUser := flag.Int("assets", 3, "number of assets per account")
	clean := flag.Bool("clean", true, "wipe users and assets before seeding")
	randomSeed := flag.Int64("seed", time.Now().UnixNano(), "random seed for fake data")
	flag.Parse()

	opts := seed.Options{
		Users:         *users,
		AssetsPerUser: *assetsPerUser,
		Clean:         *clean,
		RandomSeed:    *randomSeed,
	}

	if err := run(*configPath, opts); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, opts seed.Options) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	assetRepo := asset.NewRepository(db.DB)
	assetSvc := asset.NewService(assetRepo, db, cfg.Accounts.DefaultAvatar)

	// The seeder never deletes accounts, so no tokens need revoking.
	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(
		userRepo,
		db,
		asset.ReassignOwner,
		noopRevoker{},
		store,
		cfg.Accounts,
	)

	opts.KeepEmail = cfg.Accounts.DeletedUserEmail

	res, err := seed.New(userSvc, assetSvc, assetRepo, userRepo, opts).Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("database seeded",
		"users", res.Users,
		"assets", res.Assets,
		"password", seed.DefaultPassword,
	)
	return nil
}

type noopRevoker struct{}

func (noopRevoker) Revoke(context.Context, string) error { return nil }

var _ user.TokenRevoker = noopRevoker{}
