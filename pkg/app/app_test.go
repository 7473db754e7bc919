package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/config"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/cdn"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/services"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/storage"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Host: "127.0.0.1",
		Port: 8000,
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			URL:    "file:" + filepath.Join(dir, "content.db"),
		},
		Storage: config.StorageConfig{
			Backend: config.BackendFS,
			Path:    filepath.Join(dir, "objects"),
		},
		CDN:                config.CDNConfig{Endpoint: "https://cdn.example.com", PurgeEnabled: true},
		Cache:              config.CacheConfig{SharedMaxAge: 600, ClientMaxAge: 30},
		TokenExpirySeconds: 120,
		MaxUploadBytes:     1 << 20,
	}
}

func TestNew_WiresServices(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.IsType(t, cdn.Noop{}, a.Purger, "missing credentials fall back to no-op")
	assert.Equal(t, 120, a.Tokens.DefaultTTLSeconds())
	assert.Equal(t, "https://cdn.example.com", a.Assets.PublicBaseURL())

	asset, err := a.Assets.Upload(context.Background(), services.UploadInput{Filename: "a.txt", Content: []byte("abc"), IsPublic: true})
	require.NoError(t, err)

	content, err := a.Assets.FetchAsset(context.Background(), asset.ID, services.FetchRequest{})
	require.NoError(t, err)
	assert.Equal(t, "abc", string(content.Body))
	assert.Equal(t, "public, s-maxage=600, max-age=30", content.CacheControl)
}

func TestApp_Router(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	w := httptest.NewRecorder()
	a.Router("test").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	s, err := NewStore(ctx, config.StorageConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, s)

	_, err = NewStore(ctx, config.StorageConfig{Backend: config.BackendFS, Path: t.TempDir()})
	require.NoError(t, err)

	_, err = NewStore(ctx, config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}
