package store

import (
	"context"
	"fmt"

	"github.com/hasnainrazaa03/jarvis/internal/analytics"
)

// Log inserts one interaction.
func (s *Store) Log(ctx context.Context, in analytics.Interaction) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, session_id, question, response, timestamp, topics, entities, user_agent, referrer, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.ident()),
		in.ID, in.SessionID, in.Question, in.Response, in.Timestamp,
		nonNil(in.Topics), nonNil(in.Entities), in.UserAgent, in.Referrer, in.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// Recent returns up to limit interactions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]analytics.Interaction, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, session_id, question, response, timestamp, topics, entities, user_agent, referrer, ip_address
		FROM %s ORDER BY timestamp DESC LIMIT $1`, s.ident()), limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	out := []analytics.Interaction{}
	for rows.Next() {
		var in analytics.Interaction
		if err := rows.Scan(&in.ID, &in.SessionID, &in.Question, &in.Response, &in.Timestamp,
			&in.Topics, &in.Entities, &in.UserAgent, &in.Referrer, &in.IPAddress); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		in.Timestamp = in.Timestamp.UTC()
		out = append(out, in)
	}
	return out, rows.Err()
}

// CountSessions returns how many distinct sessions have been recorded.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(DISTINCT session_id) FROM %s`, s.ident())).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
