package database

import (
	"fmt"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/config"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/models"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the asset directory for the configured driver and migrates
// the schema.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.URL)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the asset, version and token tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Asset{}, &models.AssetVersion{}, &models.AccessToken{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
