package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/session-api/internal/models"
	"github.com/noah-isme/session-api/internal/service"
)

type storeStatusReporter interface {
	StoreStatus(ctx context.Context) models.StoreStatus
}

// HealthHandler exposes observability endpoints.
type HealthHandler struct {
	status  storeStatusReporter
	metrics *service.MetricsService
}

// NewHealthHandler constructs a health handler.
func NewHealthHandler(status storeStatusReporter, metrics *service.MetricsService) *HealthHandler {
	return &HealthHandler{status: status, metrics: metrics}
}

// Health responds with a generic OK payload for liveness usage.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the revocation store can answer.
func (h *HealthHandler) Ready(c *gin.Context) {
	status := h.status.StoreStatus(c.Request.Context())
	if !status.Healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "revocation_store": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "revocation_store": status})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *HealthHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
