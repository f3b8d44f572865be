package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/shop-analytics-service/internal/models"
	"github.com/PratikDhanave/shop-analytics-service/internal/normalize"
	"github.com/PratikDhanave/shop-analytics-service/internal/store"
)

const (
	defaultEventsLimit = 500
	maxEventsLimit     = 2000
)

// SweepTrigger is notified after every stored event.
type SweepTrigger interface {
	Trigger()
}

// RegisterEventRoutes registers the ingestion path and the raw events query.
//
// POST /collect
// - Body is any JSON object, capped at maxBodyBytes
// - Malformed or unreadable bodies are normalized, never rejected
// - Retention runs in the background after a successful insert
//
// GET /api/events?limit=N
// - Newest first, limit clamped to (0, 2000], default 500
func RegisterEventRoutes(r gin.IRoutes, st store.Store, sweeper SweepTrigger, maxBodyBytes int64) {
	r.POST("/collect", func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, models.CollectResponse{OK: false, Error: "payload too large"})
				return
			}
			// Unreadable bodies are stored as empty events, like malformed ones.
			requestLog(c).Warn("read body failed", "error", err)
			body = nil
		}

		payload := normalize.Payload(normalize.Decode(body))

		if _, err := st.InsertEvent(c.Request.Context(), payload); err != nil {
			fail(c, "insert event failed", err)
			return
		}

		// Never waits for the sweep.
		sweeper.Trigger()

		c.JSON(http.StatusOK, models.CollectResponse{OK: true})
	})

	r.GET("/api/events", func(c *gin.Context) {
		limit := parseLimit(c.Query("limit"))

		events, err := st.RecentEvents(c.Request.Context(), limit)
		if err != nil {
			fail(c, "list events failed", err)
			return
		}
		c.JSON(http.StatusOK, events)
	})
}

// parseLimit clamps the requested limit into (0, maxEventsLimit].
func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultEventsLimit
	}
	if n > maxEventsLimit {
		return maxEventsLimit
	}
	return n
}
