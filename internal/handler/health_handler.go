package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicerecon/internal/reconcile"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	engine *reconcile.Engine
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(engine *reconcile.Engine) *HealthHandler {
	return &HealthHandler{engine: engine}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. It reports the active reconciliation
// settings so operators can confirm which mode is deployed.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "reconciliation engine not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"mode":      h.engine.Mode(),
		"tolerance": h.engine.Tolerance().String(),
	})
}
