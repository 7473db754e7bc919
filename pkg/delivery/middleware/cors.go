package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS lets browsers call the API from allowedOrigins. An empty list or one
// containing "*" allows every origin. Validators and version headers are
// exposed so scripts can send conditional requests.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "HEAD", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Authorization",
			"If-None-Match", "X-Access-Token", HeaderRequestID,
		},
		ExposeHeaders: []string{
			"ETag", "Last-Modified", "Cache-Control", "Content-Disposition",
			"X-Version-Number", "API-Version", HeaderRequestID,
		},
		MaxAge: 12 * time.Hour,
	}

	cfg.AllowAllOrigins = len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}
