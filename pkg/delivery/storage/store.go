package storage

import (
	"context"
	"errors"
)

// Store holds the bytes of assets and versions under path-like keys such as
// "assets/<id>/<filename>". Implementations must be safe for concurrent use
// and return content byte-for-byte as it was put.
type Store interface {
	Put(ctx context.Context, key string, data []byte, mediaType string) error
	// Get returns ErrNotFound when no object exists under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete is idempotent: removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)
