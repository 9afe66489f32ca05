package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	huggingFaceURL   = "https://router.huggingface.co/v1/chat/completions"
	HuggingFaceModel = "meta-llama/Meta-Llama-3-8B-Instruct"

	fireworksURL   = "https://api.fireworks.ai/inference/v1/chat/completions"
	FireworksModel = "accounts/fireworks/models/llama-v3p1-8b-instruct"
)

// ChatCompletionsConfig describes an OpenAI-compatible chat completions endpoint.
type ChatCompletionsConfig struct {
	Name        string
	URL         string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
	Stop        []string
	Timeout     time.Duration
}

// ChatCompletions calls an OpenAI-compatible /chat/completions endpoint.
type ChatCompletions struct {
	cfg    ChatCompletionsConfig
	client *http.Client
}

func NewChatCompletions(cfg ChatCompletionsConfig) *ChatCompletions {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ChatCompletions{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// HuggingFace returns an adapter for the Hugging Face inference router.
func HuggingFace(apiKey, model string, timeout time.Duration) *ChatCompletions {
	if model == "" {
		model = HuggingFaceModel
	}
	return NewChatCompletions(ChatCompletionsConfig{
		Name:        "huggingface",
		URL:         huggingFaceURL,
		APIKey:      apiKey,
		Model:       model,
		MaxTokens:   90,
		Temperature: 0.4,
		TopP:        0.7,
		Stop:        []string{"\n\n", "\n\n\n"},
		Timeout:     timeout,
	})
}

// Fireworks returns an adapter for Fireworks AI.
func Fireworks(apiKey, model string, timeout time.Duration) *ChatCompletions {
	if model == "" {
		model = FireworksModel
	}
	return NewChatCompletions(ChatCompletionsConfig{
		Name:        "fireworks",
		URL:         fireworksURL,
		APIKey:      apiKey,
		Model:       model,
		MaxTokens:   150,
		Temperature: 0.4,
		TopP:        0.8,
		Timeout:     timeout,
	})
}

// SetURL points the adapter at a different endpoint.
func (c *ChatCompletions) SetURL(url string) {
	c.cfg.URL = url
}

func (c *ChatCompletions) Name() string { return c.cfg.Name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *ChatCompletions) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%s: %w", c.cfg.Name, ErrNotConfigured)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		Stop:        c.cfg.Stop,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s call: %w", c.cfg.Name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newStatusError(c.cfg.Name, resp.StatusCode, respBody)
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("unmarshal %s response: %w", c.cfg.Name, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices: %w", c.cfg.Name, ErrEmptyCompletion)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%s: %w", c.cfg.Name, ErrEmptyCompletion)
	}
	return text, nil
}
