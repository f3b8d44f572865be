package summary

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/PratikDhanave/shop-analytics-service/internal/logging"
	"github.com/PratikDhanave/shop-analytics-service/internal/models"
)

// RecentLoader is the slice of the event store the summary reads from.
type RecentLoader interface {
	RecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// Service loads the recent window and summarizes it. Concurrent callers
// share a single load.
type Service struct {
	events RecentLoader
	group  singleflight.Group
	log    *slog.Logger
}

// NewService returns a Service reading from events. A nil logger uses the
// "summary" component logger.
func NewService(events RecentLoader, logger *slog.Logger) *Service {
	return &Service{
		events: events,
		log:    logging.Resolve(logger, "summary"),
	}
}

// Summary returns the summary over the most recent Window events.
func (s *Service) Summary(ctx context.Context) (models.Summary, error) {
	// The shared load must not be cancelled by whichever caller started it.
	loadCtx := context.WithoutCancel(ctx)

	v, err, shared := s.group.Do("summary", func() (interface{}, error) {
		events, err := s.events.RecentEvents(loadCtx, Window)
		if err != nil {
			return nil, err
		}
		// Store returns newest first; the pass wants chronological order.
		slices.Reverse(events)
		return Summarize(events), nil
	})
	if err != nil {
		s.log.Error("summary load failed", "error", err)
		return models.Summary{}, err
	}
	if shared {
		s.log.Debug("summary shared with concurrent caller")
	}
	return v.(models.Summary), nil
}
