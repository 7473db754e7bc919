package delivery_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/caching"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/cdn"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/handler"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/helpers/problem"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/middleware"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/models"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/repositories"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/services"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/storage"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/testutil"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/logging"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicBase = "https://cdn.example.com"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, auth middleware.AuthConfig) http.Handler {
	t.Helper()
	repo := repositories.NewAssetRepository(testutil.NewTestDB(t))
	tokens := services.NewTokenService(repo, services.TokenServiceOptions{
		DefaultTTL: time.Hour,
		Logger:     logging.Discard(),
	})
	assets := services.NewAssetService(repo, storage.NewMemoryStore(), cdn.Noop{}, tokens, services.AssetServiceOptions{
		PublicBaseURL: publicBase,
		Logger:        logging.Discard(),
	})
	return delivery.NewRouter(delivery.RouterConfig{
		Version:   "1.0.0",
		ServerURL: publicBase,
		Auth:      auth,
		Logger:    logging.Discard(),
	}, handler.NewAssetsController(assets, tokens, 1<<20), handler.NewSystemController("1.0.0"))
}

func do(t *testing.T, h http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func upload(t *testing.T, h http.Handler, body string, public bool) models.AssetResponse {
	t.Helper()
	target := "/v1/assets?filename=hello.txt&is_public=false"
	if public {
		target = "/v1/assets?filename=hello.txt&is_public=true"
	}
	w := do(t, h, http.MethodPost, target, []byte(body), map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[models.AssetResponse](t, w)
}

func TestEndToEnd_PublicAsset(t *testing.T) {
	h := newTestRouter(t, middleware.AuthConfig{})

	asset := upload(t, h, "hello", true)
	assert.Equal(t, caching.ComputeETag([]byte("hello")), asset.ETag)
	download := "/v1/assets/" + asset.Id + "/download"

	w := do(t, h, http.MethodGet, download, nil, map[string]string{"If-None-Match": asset.ETag})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.Bytes())
	assert.Equal(t, asset.ETag, w.Header().Get("ETag"))
	assert.Equal(t, "public, s-maxage=3600, max-age=60", w.Header().Get("Cache-Control"))

	w = do(t, h, http.MethodGet, download, nil, map[string]string{"If-None-Match": `"something-else"`})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "public, s-maxage=3600, max-age=60", w.Header().Get("Cache-Control"))
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, h, http.MethodHead, download, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
	assert.Equal(t, "5", w.Header().Get("Content-Length"))
	assert.Equal(t, asset.ETag, w.Header().Get("ETag"))

	w = do(t, h, http.MethodPost, "/v1/assets/"+asset.Id+"/publish", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v1 := decodeBody[models.PublishResponse](t, w)
	assert.Equal(t, 1, v1.VersionNumber)
	assert.Equal(t, asset.ETag, v1.ETag)
	assert.Equal(t, publicBase+"/v1/public/"+v1.VersionId, v1.Url)

	w = do(t, h, http.MethodGet, "/v1/public/"+v1.VersionId, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "public, max-age=31536000, immutable", w.Header().Get("Cache-Control"))
	assert.Equal(t, "1", w.Header().Get("X-Version-Number"))

	w = do(t, h, http.MethodGet, "/v1/public/"+v1.VersionId, nil, map[string]string{"If-None-Match": v1.ETag})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", w.Header().Get("Cache-Control"))

	w = do(t, h, http.MethodPost, "/v1/assets/"+asset.Id+"/publish", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	v2 := decodeBody[models.PublishResponse](t, w)
	assert.Equal(t, 2, v2.VersionNumber)
	assert.NotEqual(t, v1.VersionId, v2.VersionId)

	w = do(t, h, http.MethodGet, "/v1/assets/"+asset.Id+"/versions", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	versions := decodeBody[[]models.AssetVersionResponse](t, w)
	require.Len(t, versions, 2)
	assert.Equal(t, v1.VersionId, versions[0].Id)
	assert.Equal(t, v2.Url, versions[1].Url)

	w = do(t, h, http.MethodGet, "/v1/assets/"+asset.Id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.0.0", w.Header().Get("API-Version"))
	meta := decodeBody[models.AssetResponse](t, w)
	assert.Equal(t, 3, meta.Version)

	w = do(t, h, http.MethodDelete, "/v1/assets/"+asset.Id, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/v1/assets/"+asset.Id, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, problem.ContentType, w.Header().Get("Content-Type"))
	apiErr := decodeBody[problem.APIError](t, w)
	assert.Equal(t, "Asset not found", apiErr.Detail)

	w = do(t, h, http.MethodGet, "/v1/public/"+v1.VersionId, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndToEnd_PrivateAsset(t *testing.T) {
	h := newTestRouter(t, middleware.AuthConfig{})

	asset := upload(t, h, "secret", false)
	assert.False(t, asset.IsPublic)

	w := do(t, h, http.MethodGet, "/v1/assets/"+asset.Id+"/download", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Invalid or expired token", decodeBody[problem.APIError](t, w).Detail)

	w = do(t, h, http.MethodPost, "/v1/assets/"+asset.Id+"/access-token?expiry_seconds=60", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decodeBody[models.AccessTokenResponse](t, w)
	assert.NotEmpty(t, token.Token)
	assert.WithinDuration(t, time.Now().Add(time.Minute), token.ExpiresAt, 10*time.Second)

	w = do(t, h, http.MethodGet, "/v1/private/"+token.Token, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "secret", w.Body.String())
	assert.Equal(t, "private, no-store, no-cache, must-revalidate", w.Header().Get("Cache-Control"))

	w = do(t, h, http.MethodHead, "/v1/private/"+token.Token, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())

	w = do(t, h, http.MethodGet, "/v1/private/unissued-token-value", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Invalid or expired token", decodeBody[problem.APIError](t, w).Detail)

	w = do(t, h, http.MethodGet, "/v1/assets/"+asset.Id+"/download", nil, map[string]string{handler.HeaderAccessToken: token.Token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "private, no-store, no-cache, must-revalidate", w.Header().Get("Cache-Control"))

	w = do(t, h, http.MethodPost, "/v1/assets/"+asset.Id+"/access-token?expiry_seconds=-100", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	expired := decodeBody[models.AccessTokenResponse](t, w)
	w = do(t, h, http.MethodGet, "/v1/private/"+expired.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodPost, "/v1/assets/"+asset.Id+"/access-token?expiry_seconds=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEndToEnd_Errors(t *testing.T) {
	h := newTestRouter(t, middleware.AuthConfig{})

	w := do(t, h, http.MethodPost, "/v1/assets?filename=a.txt", []byte{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/v1/assets/missing/publish", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "/v1/assets/missing/publish", decodeBody[problem.APIError](t, w).Instance)

	w = do(t, h, http.MethodPost, "/v1/assets/missing/access-token", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/v1/public/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, "/v1/assets/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndToEnd_ScopeGuard(t *testing.T) {
	h := newTestRouter(t, middleware.AuthConfig{Enabled: true, Secret: "s3cr3t"})

	w := do(t, h, http.MethodPost, "/v1/assets?filename=a.txt&is_public=true", []byte("a"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"scope": "assets:read assets:write"})
	bearer, err := tok.SignedString([]byte("s3cr3t"))
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + bearer, "Content-Type": "text/plain"}

	w = do(t, h, http.MethodPost, "/v1/assets?filename=a.txt&is_public=true", []byte("a"), auth)
	require.Equal(t, http.StatusCreated, w.Code)
	asset := decodeBody[models.AssetResponse](t, w)

	// content routes are open
	w = do(t, h, http.MethodGet, "/v1/assets/"+asset.Id+"/download", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEndToEnd_CrossOrigin(t *testing.T) {
	h := newTestRouter(t, middleware.AuthConfig{Enabled: true, Secret: "s3cr3t"})
	origin := map[string]string{"Origin": "https://portal.example.nl"}

	// preflights carry no credentials and must not hit the scope guard
	w := do(t, h, http.MethodOptions, "/v1/assets", nil, map[string]string{
		"Origin":                         "https://portal.example.nl",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "Authorization, Content-Type",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"scope": "assets:write"})
	bearer, err := tok.SignedString([]byte("s3cr3t"))
	require.NoError(t, err)
	w = do(t, h, http.MethodPost, "/v1/assets?filename=a.txt&is_public=true", []byte("a"), map[string]string{
		"Authorization": "Bearer " + bearer,
		"Content-Type":  "text/plain",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	asset := decodeBody[models.AssetResponse](t, w)

	w = do(t, h, http.MethodGet, "/v1/assets/"+asset.Id+"/download", nil, origin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	exposed := strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))
	for _, name := range []string{"etag", "last-modified", "x-version-number", "api-version"} {
		assert.Contains(t, exposed, name)
	}
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestRouter(t, middleware.AuthConfig{})

	w := do(t, h, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody[models.HealthResponse](t, w).Status)

	w = do(t, h, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/v1/openapi.json", decodeBody[models.ServiceInfo](t, w).Docs)
}

func TestOpenAPIDocument(t *testing.T) {
	h := newTestRouter(t, middleware.AuthConfig{})

	w := do(t, h, http.MethodGet, "/v1/openapi.json", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(w.Body.Bytes())
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	assert.Equal(t, "1.0.0", doc.Info.Version)
	for _, path := range []string{"/v1/assets/{id}", "/v1/assets/{id}/publish", "/v1/assets/{id}/access-token", "/v1/assets/{id}/versions"} {
		assert.NotNil(t, doc.Paths.Value(path), path)
	}
	publish := doc.Paths.Value("/v1/assets/{id}/publish")
	require.NotNil(t, publish)
	require.NotNil(t, publish.Post)
	assert.Equal(t, "publishAsset", publish.Post.OperationID)
}
