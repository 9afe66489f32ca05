package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps chat interactions in Postgres. It is the analytics backend
// used when ANALYTICS_BACKEND=postgres.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

func New(ctx context.Context, databaseURL, table string) (*Store, error) {
	if table == "" {
		table = "jarvis_analytics"
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the interactions table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			session_id  TEXT NOT NULL,
			question    TEXT NOT NULL,
			response    TEXT NOT NULL,
			timestamp   TIMESTAMPTZ NOT NULL DEFAULT now(),
			topics      TEXT[] NOT NULL DEFAULT '{}',
			entities    TEXT[] NOT NULL DEFAULT '{}',
			user_agent  TEXT NOT NULL DEFAULT '',
			referrer    TEXT NOT NULL DEFAULT 'direct',
			ip_address  TEXT NOT NULL DEFAULT ''
		)`, s.ident()))
	if err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON %s (timestamp DESC)`,
		pgx.Identifier{s.table + "_timestamp_idx"}.Sanitize(), s.ident()))
	if err != nil {
		return fmt.Errorf("index %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}
