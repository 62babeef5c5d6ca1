package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fb-video-manager/domain/repository"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
	TestFacebook(c *gin.Context)
}

type HealthHandler struct {
	publishers repository.IPublisherFactory
}

func NewHealthHandler(publishers repository.IPublisherFactory) IHealthHandler {
	return &HealthHandler{publishers: publishers}
}

// Healthz returns OK for health checks
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TestFacebook probes the Graph API with the configured credentials.
func (h *HealthHandler) TestFacebook(ctx *gin.Context) {
	publisher, err := h.publishers.ForOwner(ctx.Query("user_id"))
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"connected": false, "error": err.Error()})
		return
	}
	if err := publisher.TestConnection(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"connected": false, "error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"connected": true})
}
