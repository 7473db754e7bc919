package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrVersionConflict is returned when the asset's version counter moved
// between reading it and recording a new version.
var ErrVersionConflict = errors.New("asset version changed concurrently")

// AssetRepository is the authoritative directory of assets, their versions
// and access tokens. Lookups return (nil, nil) on a miss.
type AssetRepository interface {
	CreateAsset(ctx context.Context, asset *models.Asset) error
	GetAssetByID(ctx context.Context, id string) (*models.Asset, error)
	DeleteAsset(ctx context.Context, id string) (*models.Asset, []models.AssetVersion, error)

	GetVersionByID(ctx context.Context, id string) (*models.AssetVersion, error)
	ListVersions(ctx context.Context, assetID string) ([]models.AssetVersion, error)
	PublishVersion(ctx context.Context, expectedVersion int, version *models.AssetVersion) error

	CreateToken(ctx context.Context, token *models.AccessToken) error
	GetTokenByValue(ctx context.Context, token string) (*models.AccessToken, error)
	RevokeToken(ctx context.Context, token string) (bool, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type assetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) CreateAsset(ctx context.Context, asset *models.Asset) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(asset).Error; err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

func (r *assetRepository) GetAssetByID(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.WithContext(ctx).First(&asset, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return &asset, nil
}

// DeleteAsset removes the asset together with its versions and tokens in a
// single transaction. It returns the removed rows so the caller can clean up
// stored objects; a missing asset yields (nil, nil, nil).
func (r *assetRepository) DeleteAsset(ctx context.Context, id string) (*models.Asset, []models.AssetVersion, error) {
	var (
		asset    models.Asset
		versions []models.AssetVersion
		found    bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&asset, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true

		if err := tx.Where("asset_id = ?", id).Order("version_number").Find(&versions).Error; err != nil {
			return err
		}
		if err := tx.Where("asset_id = ?", id).Delete(&models.AccessToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("asset_id = ?", id).Delete(&models.AssetVersion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Asset{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("delete asset: %w", err)
	}
	if !found {
		return nil, nil, nil
	}
	return &asset, versions, nil
}

func (r *assetRepository) GetVersionByID(ctx context.Context, id string) (*models.AssetVersion, error) {
	var version models.AssetVersion
	err := r.db.WithContext(ctx).Preload("Asset").First(&version, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	return &version, nil
}

func (r *assetRepository) ListVersions(ctx context.Context, assetID string) ([]models.AssetVersion, error) {
	versions := make([]models.AssetVersion, 0)
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("version_number ASC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

// PublishVersion bumps the asset's version counter from expectedVersion to
// expectedVersion+1 and records version with that pre-increment number, in
// one transaction. The update is conditional on the counter still holding
// expectedVersion; otherwise nothing is written and ErrVersionConflict is
// returned.
func (r *assetRepository) PublishVersion(ctx context.Context, expectedVersion int, version *models.AssetVersion) error {
	version.VersionNumber = expectedVersion
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Asset{}).
			Where("id = ? AND version = ?", version.AssetID, expectedVersion).
			UpdateColumn("version", gorm.Expr("version + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		return tx.Omit(clause.Associations).Create(version).Error
	})
	if errors.Is(err, ErrVersionConflict) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("publish version: %w", err)
	}
	return nil
}

func (r *assetRepository) CreateToken(ctx context.Context, token *models.AccessToken) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(token).Error; err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

func (r *assetRepository) GetTokenByValue(ctx context.Context, token string) (*models.AccessToken, error) {
	var at models.AccessToken
	err := r.db.WithContext(ctx).Preload("Asset").First(&at, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &at, nil
}

func (r *assetRepository) RevokeToken(ctx context.Context, token string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.AccessToken{}).
		Where("token = ?", token).
		UpdateColumn("is_revoked", true)
	if res.Error != nil {
		return false, fmt.Errorf("revoke token: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteExpiredTokens removes tokens that can no longer be used at now.
func (r *assetRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ? OR is_revoked = ?", now, true).
		Delete(&models.AccessToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
