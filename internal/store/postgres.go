package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/shop-analytics-service/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable persistence layer for events.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return err
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// InsertEvent stores payload as JSONB; created_at comes from the column default.
func (p *PostgresStore) InsertEvent(ctx context.Context, payload models.Payload) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	var id int64
	err = p.pool.QueryRow(ctx, `
		INSERT INTO events(payload)
		VALUES ($1)
		RETURNING id
	`, body).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// RecentEvents returns the newest limit records.
func (p *PostgresStore) RecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, created_at, payload
		FROM events
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	return scanPgEvents(rows)
}

// EventsSince returns records in [since, now), ascending by creation time.
func (p *PostgresStore) EventsSince(ctx context.Context, since time.Time) ([]models.Event, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, created_at, payload
		FROM events
		WHERE created_at >= $1
		ORDER BY created_at ASC, id ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query events since: %w", err)
	}
	return scanPgEvents(rows)
}

// DeleteOlderThan is the retention pass.
func (p *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StorageBytes reports pg_database_size for the connected database.
func (p *PostgresStore) StorageBytes(ctx context.Context) (int64, error) {
	var size int64
	err := p.pool.QueryRow(ctx, `SELECT pg_database_size(current_database())`).Scan(&size)
	if err != nil {
		return 0, fmt.Errorf("query database size: %w", err)
	}
	return size, nil
}

func scanPgEvents(rows pgx.Rows) ([]models.Event, error) {
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			e       models.Event
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.CreatedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		e.Payload = json.RawMessage(payload)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
