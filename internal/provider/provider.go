// Package provider adapts remote language-model backends to a single
// Generate(system, user) contract.
package provider

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by adapters constructed without credentials.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrEmptyCompletion is returned when a backend answers with no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Provider generates a reply to a single user message under a system prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// StatusError is a non-2xx answer from a backend.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Provider, e.Status, e.Body)
}

const maxErrorBody = 120

func newStatusError(provider string, status int, body []byte) *StatusError {
	s := string(body)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return &StatusError{Provider: provider, Status: status, Body: s}
}
