package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ladder/engine"
	"github.com/use-agent/ladder/models"
	"github.com/use-agent/ladder/scraper"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports the environment tier ceiling and browser pool utilisation,
// degrading status when > 80% of pages are active.
func Health(orch *engine.Orchestrator, b *scraper.Browser, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats models.PoolStats
		if b != nil {
			stats = b.Stats()
		}

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			MaxTier:   orch.Profile().MaxTier,
			PoolStats: stats,
			Version:   "0.1.0",
		})
	}
}
