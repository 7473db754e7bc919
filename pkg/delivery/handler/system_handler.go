package handler

import (
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/models"
	"github.com/gin-gonic/gin"
)

type SystemController struct {
	Version string
}

func NewSystemController(version string) *SystemController {
	return &SystemController{Version: version}
}

// Health handles GET /health
func (sc *SystemController) Health(_ *gin.Context) (*models.HealthResponse, error) {
	return &models.HealthResponse{Status: "healthy"}, nil
}

// ServiceInfo handles GET /
func (sc *SystemController) ServiceInfo(_ *gin.Context) (*models.ServiceInfo, error) {
	return &models.ServiceInfo{
		Service: "content-delivery",
		Version: sc.Version,
		Docs:    "/v1/openapi.json",
	}, nil
}
