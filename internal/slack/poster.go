package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const postMessageURL = "https://slack.com/api/chat.postMessage"

// snippetLimit caps how much of a rejected message is echoed into Slack.
const snippetLimit = 80

// Poster sends flagged-input alerts to one channel with a bot token.
type Poster struct {
	token   string
	channel string
	apiURL  string
	http    *http.Client
	logger  *slog.Logger
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		apiURL:  postMessageURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

type textObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type block struct {
	Type     string       `json:"type"`
	Text     *textObject  `json:"text,omitempty"`
	Elements []textObject `json:"elements,omitempty"`
}

type message struct {
	Channel string  `json:"channel"`
	Text    string  `json:"text"`
	Blocks  []block `json:"blocks"`
}

type postResult struct {
	OK    bool   `json:"ok"`
	TS    string `json:"ts"`
	Error string `json:"error"`
}

// PostFlagged alerts the channel that the sanitizer rejected a chat message
// and returns the Slack message timestamp.
func (p *Poster) PostFlagged(ctx context.Context, reason, snippet string) (string, error) {
	text := formatFlaggedMessage(reason, snippet)
	ts, err := p.send(ctx, message{
		Channel: p.channel,
		Text:    text,
		Blocks: []block{
			{Type: "section", Text: &textObject{Type: "mrkdwn", Text: text}},
			{Type: "context", Elements: []textObject{{
				Type: "mrkdwn",
				Text: "jarvis portfolio chat · " + time.Now().UTC().Format(time.RFC1123),
			}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("post flagged alert: %w", err)
	}
	p.logger.Info("flagged input alert sent", "ts", ts, "reason", reason)
	return ts, nil
}

func (p *Poster) send(ctx context.Context, msg message) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var res postResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode slack response (status %d): %w", resp.StatusCode, err)
	}
	if !res.OK {
		return "", fmt.Errorf("slack rejected message: %s", res.Error)
	}
	return res.TS, nil
}

func formatFlaggedMessage(reason, snippet string) string {
	if r := []rune(snippet); len(r) > snippetLimit {
		snippet = string(r[:snippetLimit]) + "…"
	}
	// Backticks would close the code span early.
	snippet = strings.ReplaceAll(snippet, "`", "'")

	lines := []string{
		":warning: *Chat input flagged*",
		"*Reason:* " + reason,
	}
	if snippet == "" {
		lines = append(lines, "_Empty message._")
	} else {
		lines = append(lines, "*Snippet:* `"+snippet+"`")
	}
	return strings.Join(lines, "\n")
}
