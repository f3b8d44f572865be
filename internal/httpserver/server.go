package httpserver

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/shop-analytics-service/internal/config"
	"github.com/PratikDhanave/shop-analytics-service/internal/export"
	"github.com/PratikDhanave/shop-analytics-service/internal/handlers"
	"github.com/PratikDhanave/shop-analytics-service/internal/logging"
	"github.com/PratikDhanave/shop-analytics-service/internal/middleware"
	"github.com/PratikDhanave/shop-analytics-service/internal/store"
	"github.com/PratikDhanave/shop-analytics-service/internal/summary"
)

// NewRouter wires every endpoint.
// Probes: /health, /ready
// Ingest: /collect
// Query: /api/events, /api/summary
// Admin: /admin/export-events, /admin/db-usage
// Static: /dashboard and anything else under the public dir
func NewRouter(cfg config.Config, st store.Store, sweeper handlers.SweepTrigger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(logging.Component("http")),
		middleware.CORS(),
	)

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the DB dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	handlers.RegisterEventRoutes(r, st, sweeper, cfg.HTTP.MaxBodyBytes)
	handlers.RegisterMetricRoutes(r, st, summary.NewService(st, nil), cfg.Storage.QuotaBytes)
	handlers.RegisterExportRoutes(r, export.NewService(st))

	r.StaticFile("/dashboard", filepath.Join(cfg.HTTP.PublicDir, "dashboard.html"))
	r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.HTTP.PublicDir))))

	return r
}
