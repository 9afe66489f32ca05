package analytics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
)

// DefaultSupabaseTimeout bounds one request to the hosted table.
const DefaultSupabaseTimeout = 5 * time.Second

const supabaseRESTPath = "/rest/v1"

// SupabaseSink writes interactions to a hosted Supabase table through its
// PostgREST endpoint.
type SupabaseSink struct {
	client *postgrest.Client
	table  string
}

// NewSupabaseSink builds a sink for url. Every request is cut off after
// timeout, or DefaultSupabaseTimeout when timeout is zero.
func NewSupabaseSink(url, serviceKey, table string, timeout time.Duration) (*SupabaseSink, error) {
	if url == "" || serviceKey == "" {
		return nil, fmt.Errorf("supabase: %w", ErrNoSink)
	}
	if table == "" {
		table = DefaultTable
	}
	if timeout <= 0 {
		timeout = DefaultSupabaseTimeout
	}

	client := postgrest.NewClient(strings.TrimRight(url, "/")+supabaseRESTPath, "public", map[string]string{
		"apikey":        serviceKey,
		"Authorization": "Bearer " + serviceKey,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("create supabase client: %w", client.ClientError)
	}
	client.Transport.Parent = deadlineTransport{next: http.DefaultTransport, timeout: timeout}
	return &SupabaseSink{client: client, table: table}, nil
}

// deadlineTransport puts a deadline on requests that postgrest-go builds
// without a context.
type deadlineTransport struct {
	next    http.RoundTripper
	timeout time.Duration
}

func (t deadlineTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), t.timeout)
	resp, err := t.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// supabaseRow mirrors the hosted table. Topics and entities are not stored
// there; they are recomputed from the question when summarizing.
type supabaseRow struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	UserAgent string    `json:"user_agent"`
	Referrer  string    `json:"referrer"`
	IPAddress string    `json:"ip_address"`
}

func (s *SupabaseSink) Log(ctx context.Context, in Interaction) error {
	row := supabaseRow{
		ID:        in.ID,
		Question:  in.Question,
		Response:  in.Response,
		SessionID: in.SessionID,
		Timestamp: in.Timestamp,
		UserAgent: in.UserAgent,
		Referrer:  in.Referrer,
		IPAddress: in.IPAddress,
	}
	if _, _, err := s.client.From(s.table).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return nil
}

func (s *SupabaseSink) Recent(ctx context.Context, limit int) ([]Interaction, error) {
	var rows []supabaseRow
	_, err := s.client.From(s.table).
		Select("*", "", false).
		Order("timestamp", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", s.table, err)
	}

	out := make([]Interaction, len(rows))
	for i, r := range rows {
		out[i] = Interaction{
			ID:        r.ID,
			SessionID: r.SessionID,
			Question:  r.Question,
			Response:  r.Response,
			Timestamp: r.Timestamp,
			UserAgent: r.UserAgent,
			Referrer:  r.Referrer,
			IPAddress: r.IPAddress,
		}
	}
	return out, nil
}
