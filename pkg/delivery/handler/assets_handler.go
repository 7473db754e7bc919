package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/helpers/problem"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/helpers/util"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/models"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/services"
	"github.com/gin-gonic/gin"
)

const uploadField = "file"

// AssetsController binds HTTP requests to the asset and token services
type AssetsController struct {
	Assets         *services.AssetService
	Tokens         *services.TokenService
	MaxUploadBytes int64
}

// NewAssetsController creates a new controller
func NewAssetsController(assets *services.AssetService, tokens *services.TokenService, maxUploadBytes int64) *AssetsController {
	return &AssetsController{Assets: assets, Tokens: tokens, MaxUploadBytes: maxUploadBytes}
}

// Upload handles POST /assets
func (ac *AssetsController) Upload(c *gin.Context) {
	if ac.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ac.MaxUploadBytes)
	}

	in, err := ac.readUpload(c)
	if err != nil {
		abortWithProblem(c, err)
		return
	}
	asset, err := ac.Assets.Upload(c.Request.Context(), in)
	if err != nil {
		abortWithProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, util.ToAssetResponse(asset))
}

// readUpload accepts either a multipart form with a "file" part or the raw
// request body named by ?filename=.
func (ac *AssetsController) readUpload(c *gin.Context) (services.UploadInput, error) {
	var in services.UploadInput

	isPublic, err := parseBoolQuery(c, "is_public")
	if err != nil {
		return in, err
	}
	in.IsPublic = isPublic

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile(uploadField)
		if err != nil {
			if isBodyTooLarge(err) {
				return in, err
			}
			return in, problem.NewBadRequest(c.Request.URL.Path, "Missing file",
				problem.InvalidParam{Name: uploadField, Reason: "is required"},
			)
		}
		f, err := fh.Open()
		if err != nil {
			return in, err
		}
		defer f.Close()
		if in.Content, err = io.ReadAll(f); err != nil {
			return in, err
		}
		in.Filename = fh.Filename
		in.MediaType = fh.Header.Get("Content-Type")
		return in, nil
	}

	if in.Content, err = io.ReadAll(c.Request.Body); err != nil {
		return in, err
	}
	in.Filename = c.Query("filename")
	in.MediaType = c.ContentType()
	return in, nil
}

func parseBoolQuery(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, problem.NewBadRequest(c.Request.URL.Path, "Invalid query parameter",
			problem.InvalidParam{Name: name, Reason: "must be true or false"},
		)
	}
	return v, nil
}

// RetrieveAsset handles GET /assets/:id
func (ac *AssetsController) RetrieveAsset(c *gin.Context, params *models.AssetParams) (*models.AssetResponse, error) {
	asset, err := ac.Assets.GetAsset(c.Request.Context(), params.Id)
	if err != nil {
		return nil, err
	}
	resp := util.ToAssetResponse(asset)
	return &resp, nil
}

// ListVersions handles GET /assets/:id/versions
func (ac *AssetsController) ListVersions(c *gin.Context, params *models.AssetParams) ([]models.AssetVersionResponse, error) {
	versions, err := ac.Assets.ListVersions(c.Request.Context(), params.Id)
	if err != nil {
		return nil, err
	}
	out := make([]models.AssetVersionResponse, len(versions))
	for i := range versions {
		out[i] = util.ToAssetVersionResponse(&versions[i], ac.Assets.PublicBaseURL())
	}
	return out, nil
}

// Publish handles POST /assets/:id/publish
func (ac *AssetsController) Publish(c *gin.Context, params *models.AssetParams) (*models.PublishResponse, error) {
	version, err := ac.Assets.Publish(c.Request.Context(), params.Id)
	if err != nil {
		return nil, err
	}
	resp := util.ToPublishResponse(version, ac.Assets.PublicBaseURL())
	return &resp, nil
}

// CreateAccessToken handles POST /assets/:id/access-token
func (ac *AssetsController) CreateAccessToken(c *gin.Context, params *models.AccessTokenParams) (*models.AccessTokenResponse, error) {
	ttl := ac.Tokens.DefaultTTLSeconds()
	if raw := strings.TrimSpace(params.ExpirySeconds); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, problem.NewBadRequest(c.Request.URL.Path, "Invalid query parameter",
				problem.InvalidParam{Name: "expiry_seconds", Reason: "must be an integer"},
			)
		}
		ttl = n
	}

	token, err := ac.Tokens.IssueToken(c.Request.Context(), params.Id, ttl)
	if err != nil {
		return nil, err
	}
	resp := util.ToAccessTokenResponse(token)
	return &resp, nil
}

// DeleteAsset handles DELETE /assets/:id
func (ac *AssetsController) DeleteAsset(c *gin.Context, params *models.AssetParams) error {
	return ac.Assets.DeleteAsset(c.Request.Context(), params.Id)
}

// Download handles GET and HEAD /assets/:id/download
func (ac *AssetsController) Download(c *gin.Context) {
	content, err := ac.Assets.FetchAsset(c.Request.Context(), c.Param("id"), fetchRequest(c))
	ac.respond(c, content, err)
}

// PublicVersion handles GET and HEAD /public/:versionId
func (ac *AssetsController) PublicVersion(c *gin.Context) {
	content, err := ac.Assets.FetchVersion(c.Request.Context(), c.Param("versionId"), fetchRequest(c))
	ac.respond(c, content, err)
}

// PrivateAsset handles GET and HEAD /private/:token
func (ac *AssetsController) PrivateAsset(c *gin.Context) {
	content, err := ac.Assets.FetchPrivate(c.Request.Context(), c.Param("token"), fetchRequest(c))
	ac.respond(c, content, err)
}

func (ac *AssetsController) respond(c *gin.Context, content *services.Content, err error) {
	if err != nil {
		abortWithProblem(c, err)
		return
	}
	writeContent(c, content)
}
