package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/shop-analytics-service/internal/logging"
	"github.com/PratikDhanave/shop-analytics-service/internal/middleware"
	"github.com/PratikDhanave/shop-analytics-service/internal/models"
	"github.com/PratikDhanave/shop-analytics-service/internal/store"
)

// Summarizer produces the dashboard summary.
type Summarizer interface {
	Summary(ctx context.Context) (models.Summary, error)
}

// RegisterMetricRoutes registers the serving-path endpoints.
//
// GET /api/summary
// - Aggregate over the most recent 500 events
//
// GET /admin/db-usage
// - Database size against quotaBytes
func RegisterMetricRoutes(r gin.IRoutes, st store.Store, summaries Summarizer, quotaBytes int64) {
	r.GET("/api/summary", func(c *gin.Context) {
		s, err := summaries.Summary(c.Request.Context())
		if err != nil {
			fail(c, "summary failed", err)
			return
		}
		c.JSON(http.StatusOK, s)
	})

	r.GET("/admin/db-usage", func(c *gin.Context) {
		used, err := st.StorageBytes(c.Request.Context())
		if err != nil {
			fail(c, "db usage failed", err)
			return
		}

		c.JSON(http.StatusOK, models.UsageResponse{
			OK:          true,
			UsedBytes:   used,
			UsedMB:      round2(float64(used) / (1024 * 1024)),
			UsedPercent: round2(float64(used) / float64(quotaBytes) * 100),
		})
	})
}

// requestLog tags the handlers logger with the request id.
func requestLog(c *gin.Context) *slog.Logger {
	return logging.With("component", "handlers", "request_id", middleware.GetRequestID(c))
}

// fail logs err and answers 500 with the underlying message.
func fail(c *gin.Context, msg string, err error) {
	requestLog(c).Error(msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
