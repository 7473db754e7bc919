package delivery

import (
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/handler"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/middleware"
	"github.com/gin-gonic/gin"
	"github.com/loopfz/gadgeto/tonic"
	"github.com/sirupsen/logrus"
	"github.com/wI2L/fizz"
	"github.com/wI2L/fizz/openapi"
)

type RouterConfig struct {
	Version     string
	ServerURL   string
	Auth        middleware.AuthConfig
	CORSOrigins []string
	Logger      logrus.FieldLogger
}

var (
	apiVersionHeader = fizz.Header(
		"API-Version",
		"API version of the response",
		"",
	)

	notFoundResponse = fizz.Response("404", "Not Found", nil, nil, nil)
)

func NewRouter(cfg RouterConfig, assets *handler.AssetsController, system *handler.SystemController) *fizz.Fizz {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	tonic.SetErrorHook(handler.ErrorHook)

	g := gin.New()
	g.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(cfg.Logger),
		middleware.CORS(cfg.CORSOrigins),
		APIVersionMiddleware(cfg.Version),
	)
	f := fizz.NewFromEngine(g)

	if cfg.ServerURL != "" {
		f.Generator().SetServers([]*openapi.Server{
			{URL: cfg.ServerURL, Description: "Content delivery"},
		})
	}

	info := &openapi.Info{
		Title:       "Content delivery API v1",
		Description: "Upload, publish and serve assets with HTTP caching semantics",
		Version:     cfg.Version,
	}

	f.GET("/health",
		[]fizz.OperationOption{fizz.ID("health"), fizz.Summary("Health check")},
		tonic.Handler(system.Health, 200),
	)
	f.GET("/",
		[]fizz.OperationOption{fizz.ID("serviceInfo"), fizz.Summary("Service information")},
		tonic.Handler(system.ServiceInfo, 200),
	)

	root := f.Group("/v1", "API v1", "Content delivery v1 routes")

	read := root.Group("", "Assets", "Asset metadata", middleware.RequireAccess(cfg.Auth, "assets:read"))
	read.GET("/assets/:id",
		[]fizz.OperationOption{
			fizz.ID("retrieveAsset"),
			fizz.Summary("Retrieve asset metadata"),
			apiVersionHeader,
			notFoundResponse,
		},
		tonic.Handler(assets.RetrieveAsset, 200),
	)
	read.GET("/assets/:id/versions",
		[]fizz.OperationOption{
			fizz.ID("listVersions"),
			fizz.Summary("List published versions of an asset"),
			apiVersionHeader,
			notFoundResponse,
		},
		tonic.Handler(assets.ListVersions, 200),
	)

	write := root.Group("", "Asset management", "Upload, publish and delete assets", middleware.RequireAccess(cfg.Auth, "assets:write"))
	// multipart or raw body, not described by tonic
	write.POST("/assets", nil, assets.Upload)
	write.POST("/assets/:id/publish",
		[]fizz.OperationOption{
			fizz.ID("publishAsset"),
			fizz.Summary("Publish the current content as an immutable version"),
			apiVersionHeader,
			notFoundResponse,
		},
		tonic.Handler(assets.Publish, 201),
	)
	write.POST("/assets/:id/access-token",
		[]fizz.OperationOption{
			fizz.ID("createAccessToken"),
			fizz.Summary("Issue an access token for an asset"),
			apiVersionHeader,
			notFoundResponse,
		},
		tonic.Handler(assets.CreateAccessToken, 201),
	)
	write.DELETE("/assets/:id",
		[]fizz.OperationOption{
			fizz.ID("deleteAsset"),
			fizz.Summary("Delete an asset with its versions and tokens"),
			notFoundResponse,
		},
		tonic.Handler(assets.DeleteAsset, 204),
	)

	// Content routes stream bytes and are not described in the OpenAPI document.
	content := root.Group("", "Content", "Cacheable content")
	content.GET("/assets/:id/download", nil, assets.Download)
	content.HEAD("/assets/:id/download", nil, assets.Download)
	content.GET("/public/:versionId", nil, assets.PublicVersion)
	content.HEAD("/public/:versionId", nil, assets.PublicVersion)
	content.GET("/private/:token", nil, assets.PrivateAsset)
	content.HEAD("/private/:token", nil, assets.PrivateAsset)

	f.GET("/v1/openapi.json", []fizz.OperationOption{}, f.OpenAPI(info, "json"))

	return f
}

type apiVersionWriter struct {
	gin.ResponseWriter
	version string
}

func (w *apiVersionWriter) WriteHeader(code int) {
	if code >= 200 && code < 300 {
		w.Header().Set("API-Version", w.version)
	}
	w.ResponseWriter.WriteHeader(code)
}

func APIVersionMiddleware(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer = &apiVersionWriter{c.Writer, version}
		c.Next()
	}
}
