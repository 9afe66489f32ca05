// Package chat turns a conversation history into a single reply: it screens
// the latest user message, asks the configured LLM providers in order, shapes
// the answer, and falls back to a rule-based responder when no provider can
// answer.
package chat

import (
	"context"
	"errors"

	"github.com/hasnainrazaa03/jarvis/internal/analytics"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation, oldest first.
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"max=4000"`
}

// Where a reply came from.
const (
	SourceProvider = "provider"
	SourceLocal    = "local"
	SourceFlagged  = "flagged"
)

// FlaggedReply is returned instead of an answer when the sanitizer rejects input.
const FlaggedReply = "Hey, that message didn't look quite right. Ask me about my projects, skills, or experience instead!"

// ErrNoProviders means the provider chain for a request was empty.
var ErrNoProviders = errors.New("no providers available")

// Options are the per-call inputs besides the history.
type Options struct {
	// Provider overrides the configured default provider for this call.
	Provider string
	Session  analytics.Session
	Meta     analytics.Meta
}

type Response struct {
	Reply    string   `json:"reply"`
	Flagged  bool     `json:"flagged,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Source   string   `json:"source"`
	Topics   []string `json:"topics,omitempty"`
	Entities []string `json:"entities,omitempty"`
}

// Alerter is notified about rejected input. Slack and NATS both implement it
// through AlerterFunc.
type Alerter interface {
	Alert(ctx context.Context, reason, snippet string) error
}

type AlerterFunc func(ctx context.Context, reason, snippet string) error

func (f AlerterFunc) Alert(ctx context.Context, reason, snippet string) error {
	return f(ctx, reason, snippet)
}
