package models

import "time"

// Asset is a mutable content slot. Version starts at 1 and is bumped once
// per successful publish.
type Asset struct {
	ID        string    `gorm:"column:id;primaryKey;size:36"`
	Filename  string    `gorm:"column:filename;size:255;not null"`
	MimeType  string    `gorm:"column:mime_type;size:100;not null"`
	Size      int64     `gorm:"column:size;not null"`
	ETag      string    `gorm:"column:etag;size:255;not null"`
	ObjectKey string    `gorm:"column:object_key;size:500;not null;uniqueIndex"`
	Version   int       `gorm:"column:version;not null"`
	IsPublic  bool      `gorm:"column:is_public;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`

	Versions []AssetVersion `gorm:"foreignKey:AssetID"`
	Tokens   []AccessToken  `gorm:"foreignKey:AssetID"`
}

// AssetVersion is an immutable snapshot of an asset. Its id is independent
// of the asset id so public version URLs reveal nothing about the asset.
type AssetVersion struct {
	ID            string    `gorm:"column:id;primaryKey;size:36"`
	AssetID       string    `gorm:"column:asset_id;size:36;not null;uniqueIndex:idx_asset_version_number,priority:1"`
	VersionNumber int       `gorm:"column:version_number;not null;uniqueIndex:idx_asset_version_number,priority:2"`
	ObjectKey     string    `gorm:"column:object_key;size:500;not null;uniqueIndex"`
	ETag          string    `gorm:"column:etag;size:255;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`

	Asset *Asset `gorm:"foreignKey:AssetID"`
}

// AccessToken grants bearer access to exactly one asset until ExpiresAt.
type AccessToken struct {
	ID        string    `gorm:"column:id;primaryKey;size:36"`
	Token     string    `gorm:"column:token;size:500;not null;uniqueIndex"`
	AssetID   string    `gorm:"column:asset_id;size:36;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	IsRevoked bool      `gorm:"column:is_revoked;not null"`

	Asset *Asset `gorm:"foreignKey:AssetID"`
}

// IsValid reports whether the token may still be used at now: it must not be
// revoked and now must be strictly before the expiry.
func (t *AccessToken) IsValid(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}
