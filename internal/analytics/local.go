package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultLocalPath is where the local store lives when no path is configured.
const DefaultLocalPath = "~/.jarvis/analytics.db"

// Fixed width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// LocalStore keeps interactions in a SQLite file. It is the fallback when the
// hosted sink is unreachable, and the whole backend in local development.
type LocalStore struct {
	db *sql.DB
}

// OpenLocal opens or creates the store at path. Pass ":memory:" in tests.
func OpenLocal(path string) (*LocalStore, error) {
	if path == "" {
		path = DefaultLocalPath
	}
	path = expandPath(path)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	s := &LocalStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *LocalStore) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS interactions (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	question    TEXT NOT NULL,
	response    TEXT NOT NULL,
	timestamp   TEXT NOT NULL,
	topics      TEXT NOT NULL DEFAULT '[]',
	entities    TEXT NOT NULL DEFAULT '[]',
	user_agent  TEXT NOT NULL DEFAULT '',
	referrer    TEXT NOT NULL DEFAULT '',
	ip_address  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_interactions_timestamp ON interactions(timestamp);
`)
	return err
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) Log(ctx context.Context, in Interaction) error {
	topicsJSON, err := json.Marshal(nonNil(in.Topics))
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	entitiesJSON, err := json.Marshal(nonNil(in.Entities))
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO interactions (id, session_id, question, response, timestamp, topics, entities, user_agent, referrer, ip_address)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.SessionID, in.Question, in.Response, in.Timestamp.UTC().Format(timestampLayout),
		string(topicsJSON), string(entitiesJSON), in.UserAgent, in.Referrer, in.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (s *LocalStore) Recent(ctx context.Context, limit int) ([]Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, question, response, timestamp, topics, entities, user_agent, referrer, ip_address
FROM interactions
ORDER BY timestamp DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var (
			in                      Interaction
			ts, topicsJSON, entJSON string
		)
		if err := rows.Scan(&in.ID, &in.SessionID, &in.Question, &in.Response, &ts,
			&topicsJSON, &entJSON, &in.UserAgent, &in.Referrer, &in.IPAddress); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if in.Timestamp, err = time.Parse(timestampLayout, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		if err := json.Unmarshal([]byte(topicsJSON), &in.Topics); err != nil {
			return nil, fmt.Errorf("unmarshal topics: %w", err)
		}
		if err := json.Unmarshal([]byte(entJSON), &in.Entities); err != nil {
			return nil, fmt.Errorf("unmarshal entities: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
