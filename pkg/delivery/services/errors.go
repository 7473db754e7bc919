package services

import "errors"

var (
	ErrAssetNotFound   = errors.New("asset not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrTokenNotFound   = errors.New("token not found")
	// ErrInvalidToken covers unknown, expired, revoked and mis-scoped tokens
	// alike so callers cannot tell them apart.
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrInvalidTTL      = errors.New("token lifetime out of range")
	ErrEmptyContent    = errors.New("empty content")
	ErrStorage         = errors.New("storage failure")
	ErrVersionConflict = errors.New("asset is being published concurrently")
)
