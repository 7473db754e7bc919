package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/caching"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/services"
	"github.com/gin-gonic/gin"
)

const (
	HeaderAccessToken   = "X-Access-Token"
	HeaderVersionNumber = "X-Version-Number"
)

func fetchRequest(c *gin.Context) services.FetchRequest {
	token := c.GetHeader(HeaderAccessToken)
	if token == "" {
		token = c.Query("token")
	}
	return services.FetchRequest{
		IfNoneMatch: c.GetHeader("If-None-Match"),
		Probe:       c.Request.Method == http.MethodHead,
		Token:       token,
	}
}

// writeContent renders a fetch result. A 304 repeats the validator and
// directive of the full response so caches can refresh their copy.
func writeContent(c *gin.Context, content *services.Content) {
	h := c.Writer.Header()
	h.Set("ETag", content.ETag)
	h.Set("Cache-Control", content.CacheControl)
	if !content.LastModified.IsZero() {
		h.Set("Last-Modified", caching.HTTPDate(content.LastModified))
	}
	if content.VersionNumber > 0 {
		h.Set(HeaderVersionNumber, strconv.Itoa(content.VersionNumber))
	}
	h.Set("X-Content-Type-Options", "nosniff")

	if content.NotModified {
		c.Status(http.StatusNotModified)
		c.Writer.WriteHeaderNow()
		return
	}

	h.Set("Content-Type", content.MediaType)
	h.Set("Content-Length", strconv.FormatInt(content.Size, 10))
	h.Set("Content-Disposition", contentDisposition(content.Filename))

	if content.Body == nil {
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()
		return
	}
	c.Data(http.StatusOK, content.MediaType, content.Body)
}

func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
