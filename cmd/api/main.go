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

	goredis "github.com/redis/go-redis/v9"

	"github.com/devassets/assets-api/internal/asset"
	"github.com/devassets/assets-api/internal/auth"
	"github.com/devassets/assets-api/internal/config"
	"github.com/devassets/assets-api/internal/core"
	"github.com/devassets/assets-api/internal/health"
	"github.com/devassets/assets-api/internal/middleware"
	"github.com/devassets/assets-api/internal/server"
	"github.com/devassets/assets-api/internal/storage"
	"github.com/devassets/assets-api/internal/user"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
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

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	var (
		redis       *core.Redis
		redisClient *goredis.Client
	)
	if cfg.Redis.URL != "" {
		redis, err = core.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		redisClient = redis.Client
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	} else {
		logger.Warn("redis not configured, using in-process rate limits")
	}

	jwtManager, err := auth.NewJWTManager(
		cfg.JWT,
		newRevocationRegistry(cfg.Auth, redis),
	)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
		"revocation_store", cfg.Auth.RevocationStore,
	)

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("storage initialized", "driver", cfg.Storage.Driver)

	assetRepo := asset.NewRepository(db.DB)
	assetSvc := asset.NewService(assetRepo, db, cfg.Accounts.DefaultAvatar)
	assetHandler := asset.NewHandler(assetSvc)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(
		userRepo,
		db,
		asset.ReassignOwner,
		jwtManager,
		store,
		cfg.Accounts,
	)
	userHandler := user.NewHandler(userSvc, cfg.Storage.MaxUploadSize)

	if _, err := userSvc.EnsureDeletedUser(ctx); err != nil {
		return err
	}

	authSvc := auth.NewService(jwtManager, userSvc)
	authHandler := auth.NewHandler(authSvc)

	healthCfg := health.Config{
		Database: db,
		DBStats:  db.Stats,
	}
	if redis != nil {
		healthCfg.Redis = redis
		healthCfg.RedisStats = redis.PoolStats
	}
	healthHandler := health.NewHandler(healthCfg)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		CORS:          cfg.CORS,
		Production:    cfg.IsProduction(),
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	globalLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Burst,
			cfg.RateLimit.Window,
		),
		FailOpen: true,
	})
	defer globalLimiter.Close()

	credentialLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthWindow,
		),
		KeyFunc:  middleware.KeyByIPAndRoute,
		FailOpen: true,
	})
	defer credentialLimiter.Close()

	api := server.API{
		Auth:              authHandler,
		Users:             userHandler,
		Assets:            assetHandler,
		Authenticator:     middleware.Authenticator(jwtManager, userSvc),
		RateLimiter:       globalLimiter.Handler,
		CredentialLimiter: credentialLimiter.Handler,
		JWKS:              jwtManager.GetJWKSHandler(),
	}
	if local, ok := store.(*storage.Local); ok {
		api.UploadsPath = local.PublicPath()
		api.Uploads = local.Handler()
	}
	srv.Mount(api)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+cfg.Server.DrainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, cfg.Server.DrainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if redis != nil {
		if err := redis.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// newRevocationRegistry picks where revoked token ids are kept. Config
// validation guarantees a redis connection for the redis store.
func newRevocationRegistry(
	cfg config.AuthConfig,
	rdb *core.Redis,
) auth.RevocationRegistry {
	if cfg.RevocationStore == config.RevocationRedis && rdb != nil {
		return auth.NewRedisRegistry(rdb.Client, rdb.Key("blacklist"))
	}

	return auth.NewMemoryRegistry()
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
