// Package analytics records completed chat turns and summarizes them.
package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hasnainrazaa03/jarvis/internal/topics"
)

// DefaultTable is the hosted table interactions are written to.
const DefaultTable = "jarvis_analytics"

// ErrNoSink is returned when no sink is configured to accept a write.
var ErrNoSink = errors.New("no analytics sink configured")

// Interaction is one completed chat turn. It is never modified after creation.
type Interaction struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
	Topics    []string  `json:"topics,omitempty"`
	Entities  []string  `json:"entities,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// Meta carries request details that are not part of the conversation.
type Meta struct {
	UserAgent string
	Referrer  string
	IPAddress string
}

// Session identifies one visitor conversation. It is created once, when the
// conversation starts, and passed to whatever needs the id.
type Session struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
}

func NewSession() Session {
	return Session{ID: uuid.NewString(), Start: time.Now().UTC()}
}

// SessionFromID resumes a session whose id was issued earlier, typically by
// the browser. An empty id starts a new session.
func SessionFromID(id string) Session {
	if id == "" {
		return NewSession()
	}
	return Session{ID: id, Start: time.Now().UTC()}
}

// NewInteraction tags and stamps a chat turn for session.
func NewInteraction(s Session, question, response string, meta Meta) Interaction {
	referrer := meta.Referrer
	if referrer == "" {
		referrer = "direct"
	}
	return Interaction{
		ID:        uuid.NewString(),
		SessionID: s.ID,
		Question:  question,
		Response:  response,
		Timestamp: time.Now().UTC(),
		Topics:    topics.Strings(topics.ExtractTopics(question)),
		Entities:  topics.ExtractEntities(question),
		UserAgent: meta.UserAgent,
		Referrer:  referrer,
		IPAddress: meta.IPAddress,
	}
}

// Sink accepts interaction records.
type Sink interface {
	Log(ctx context.Context, in Interaction) error
}

// Reader returns the most recent interactions, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Interaction, error)
}

// Publisher announces events to other services.
type Publisher interface {
	Publish(subject string, data any) error
}
