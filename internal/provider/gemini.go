package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const GeminiModel = "gemini-2.0-flash"

// Gemini generates replies through the Google GenAI SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// GeminiOptions tunes the client. BaseURL is empty in production.
type GeminiOptions struct {
	Model   string
	BaseURL string
	Timeout time.Duration
}

func NewGemini(ctx context.Context, apiKey string, opts GeminiOptions) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}
	if opts.Model == "" {
		opts.Model = GeminiModel
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: opts.Timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL: opts.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: opts.Model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userMessage), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   200,
		Temperature:       genai.Ptr[float32](0.4),
		TopP:              genai.Ptr[float32](0.8),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyCompletion)
	}
	return text, nil
}
