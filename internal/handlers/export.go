package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/shop-analytics-service/internal/export"
)

// Exporter renders the CSV for a window of days.
type Exporter interface {
	Export(ctx context.Context, days int) (string, error)
}

// RegisterExportRoutes registers GET /admin/export-events?days=N (default 30).
func RegisterExportRoutes(r gin.IRoutes, exporter Exporter) {
	r.GET("/admin/export-events", func(c *gin.Context) {
		days := export.ParseDays(c.Query("days"))

		csv, err := exporter.Export(c.Request.Context(), days)
		if err != nil {
			fail(c, "export failed", err)
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(days)))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
	})
}
