package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectInteractionLogged carries every recorded chat turn.
	SubjectInteractionLogged = "portfolio.jarvis.interaction.logged"
	// SubjectInputFlagged carries sanitizer rejections.
	SubjectInputFlagged = "portfolio.jarvis.input.flagged"
	// SubjectRegistered is published once at startup.
	SubjectRegistered = "portfolio.jarvis.registered"
)

// FlaggedInput is emitted when the sanitizer rejects a chat message.
type FlaggedInput struct {
	Reason    string    `json:"reason"`
	Snippet   string    `json:"snippet"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}

// Registration announces a running instance and what it can serve.
type Registration struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Providers []string `json:"providers"`
	Analytics string   `json:"analytics"`
}

// Client publishes jarvis events as JSON. Publishing is fire-and-forget;
// while disconnected, nats buffers messages until the reconnect succeeds.
type Client struct {
	nc     *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	nc, err := nats.Connect(url, connectOptions(token, logger)...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{nc: nc, logger: logger}, nil
}

func connectOptions(token string, logger *slog.Logger) []nats.Option {
	opts := []nats.Option{
		nats.Name("jarvis"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	return opts
}

// Publish sends v as JSON on subject.
func (c *Client) Publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}
	if err := c.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// PublishFlagged reports a rejected chat message. It has the shape of a chat
// alerter so it can be registered next to the Slack poster.
func (c *Client) PublishFlagged(ctx context.Context, reason, snippet string) error {
	return c.Publish(SubjectInputFlagged, FlaggedInput{
		Reason:  reason,
		Snippet: snippet,
		At:      time.Now().UTC(),
	})
}

// Close drains pending publishes before disconnecting.
func (c *Client) Close() {
	if err := c.nc.Drain(); err != nil {
		c.logger.Warn("nats drain failed, closing", "error", err)
		c.nc.Close()
	}
}
