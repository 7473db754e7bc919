package app

import (
	"context"
	"fmt"
	"time"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/config"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/caching"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/cdn"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/database"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/handler"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/middleware"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/repositories"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/services"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/storage"
	"github.com/sirupsen/logrus"
	"github.com/wI2L/fizz"
	"gorm.io/gorm"
)

// App owns the collaborators shared by the server and the operator CLI.
type App struct {
	Config *config.Config
	Logger *logrus.Logger

	DB     *gorm.DB
	Repo   repositories.AssetRepository
	Store  storage.Store
	Purger cdn.Purger

	Tokens *services.TokenService
	Assets *services.AssetService
}

// New connects the directory, opens the object store and builds the
// services. Close releases the database connection.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(ctx, cfg.Storage)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	purger := cdn.New(cdn.CloudflareConfig{
		Enabled: cfg.CDN.PurgeEnabled,
		APIKey:  cfg.CDN.APIKey,
		ZoneID:  cfg.CDN.ZoneID,
		APIBase: cfg.CDN.APIBase,
	})
	if _, noop := purger.(cdn.Noop); noop && cfg.CDN.PurgeEnabled {
		logger.WithField("action", "cdn_purge").Warn("purge enabled but Cloudflare credentials are missing; purging is disabled")
	}

	repo := repositories.NewAssetRepository(db)
	tokens := services.NewTokenService(repo, services.TokenServiceOptions{
		DefaultTTL: cfg.TokenTTL(),
		Logger:     logger,
	})
	assets := services.NewAssetService(repo, store, purger, tokens, services.AssetServiceOptions{
		Policy: &caching.Policy{
			SharedMaxAge: cfg.Cache.SharedMaxAge,
			ClientMaxAge: cfg.Cache.ClientMaxAge,
		},
		PublicBaseURL: cfg.CDN.Endpoint,
		PurgeTimeout:  10 * time.Second,
		Logger:        logger,
	})

	return &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Repo:   repo,
		Store:  store,
		Purger: purger,
		Tokens: tokens,
		Assets: assets,
	}, nil
}

// NewStore opens the configured object store backend.
func NewStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendFS:
		return storage.NewFileStore(cfg.Path)
	case config.BackendS3:
		return storage.NewS3Store(ctx, storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// Router builds the HTTP surface over the app's services.
func (a *App) Router(version string) *fizz.Fizz {
	controller := handler.NewAssetsController(a.Assets, a.Tokens, a.Config.MaxUploadBytes)
	return delivery.NewRouter(delivery.RouterConfig{
		Version:   version,
		ServerURL: a.Config.CDN.Endpoint,
		Auth: middleware.AuthConfig{
			Enabled: a.Config.Auth.Enabled,
			Secret:  a.Config.Auth.JWTSecret,
		},
		CORSOrigins: a.Config.CORS.Origins(),
		Logger:      a.Logger,
	}, controller, handler.NewSystemController(version))
}

func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
