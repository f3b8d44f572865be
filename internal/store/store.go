package store

import (
	"context"
	"fmt"
	"time"

	"github.com/PratikDhanave/shop-analytics-service/internal/models"
)

// Store is the durable, append-only event table.
//
// Every method is a single independent statement; records are never updated.
type Store interface {
	// InsertEvent appends a record and returns its id. The store assigns created_at.
	InsertEvent(ctx context.Context, payload models.Payload) (int64, error)

	// RecentEvents returns up to limit records, newest first.
	RecentEvents(ctx context.Context, limit int) ([]models.Event, error)

	// EventsSince returns records created at or after since, oldest first.
	EventsSince(ctx context.Context, since time.Time) ([]models.Event, error)

	// DeleteOlderThan removes records created before cutoff and reports how many.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// StorageBytes reports the on-disk size of the database.
	StorageBytes(ctx context.Context) (int64, error)

	// Ping checks connectivity for the readiness probe.
	Ping(ctx context.Context) error

	// EnsureSchema creates the table and indexes if missing. Safe to run repeatedly.
	EnsureSchema(ctx context.Context) error

	Close()
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Open returns the Store for driver ("postgres" or "sqlite").
func Open(driver, url string) (Store, error) {
	switch driver {
	case "postgres":
		st, err := NewPostgresStore(url)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "sqlite":
		st, err := NewSQLiteStore(url)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}
