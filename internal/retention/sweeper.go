// Package retention deletes events older than the retention horizon.
//
// The sweeper has no timer of its own. Ingestion calls Trigger after each
// stored event and the sweeper decides whether a pass is due, so with no
// traffic there is no cleanup.
package retention

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/PratikDhanave/shop-analytics-service/internal/logging"
)

const (
	DefaultHorizon  = 60 * 24 * time.Hour
	DefaultInterval = 24 * time.Hour

	sweepTimeout = 5 * time.Minute
)

// Deleter is the slice of the event store the sweeper needs.
type Deleter interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Stats holds retention statistics.
type Stats struct {
	LastRun time.Time
	Runs    int64
	Deleted int64
	Errors  int64
}

// Sweeper runs at most one deletion pass per interval, best effort.
//
// lastRun is read and written with separate atomic operations, not a
// compare-and-swap: two callers racing past the gate both delete, which is
// harmless because deletion is idempotent.
type Sweeper struct {
	store    Deleter
	horizon  time.Duration
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger

	lastRun atomic.Int64 // unix nanoseconds; zero until the first pass

	runs    atomic.Int64
	deleted atomic.Int64
	errors  atomic.Int64
}

// New returns a Sweeper. Non-positive horizon or interval use the defaults.
func New(store Deleter, horizon, interval time.Duration, logger *slog.Logger) *Sweeper {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		store:    store,
		horizon:  horizon,
		interval: interval,
		now:      time.Now,
		log:      logging.Resolve(logger, "retention"),
	}
}

// due reports whether a pass should start now and, if so, claims it by
// recording now as the last run before any deletion happens.
func (s *Sweeper) due(now time.Time) bool {
	last := time.Unix(0, s.lastRun.Load())
	if now.Sub(last) < s.interval {
		return false
	}
	s.lastRun.Store(now.UnixNano())
	return true
}

// Run performs a pass if one is due. It reports whether a pass ran and how
// many events it removed.
func (s *Sweeper) Run(ctx context.Context) (bool, int64, error) {
	now := s.now()
	if !s.due(now) {
		return false, 0, nil
	}

	s.runs.Add(1)
	cutoff := now.Add(-s.horizon)

	n, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.errors.Add(1)
		return true, 0, err
	}
	s.deleted.Add(n)
	return true, n, nil
}

// Trigger starts Run in the background. Failures are logged, never returned.
func (s *Sweeper) Trigger() {
	if !s.pending() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		ran, n, err := s.Run(ctx)
		if err != nil {
			s.log.Error("retention sweep failed", "error", err)
			return
		}
		if ran {
			s.log.Info("retention sweep finished", "deleted", n, "horizon", s.horizon)
		}
	}()
}

// pending is a cheap pre-check so Trigger does not start a goroutine per request.
func (s *Sweeper) pending() bool {
	return s.now().Sub(time.Unix(0, s.lastRun.Load())) >= s.interval
}

// Stats returns a snapshot of the sweeper counters.
func (s *Sweeper) Stats() Stats {
	st := Stats{
		Runs:    s.runs.Load(),
		Deleted: s.deleted.Load(),
		Errors:  s.errors.Load(),
	}
	if ns := s.lastRun.Load(); ns != 0 {
		st.LastRun = time.Unix(0, ns)
	}
	return st
}
