package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/hasnainrazaa03/jarvis/internal/analytics"
	"github.com/hasnainrazaa03/jarvis/internal/chat"
	"github.com/hasnainrazaa03/jarvis/internal/sanitize"
)

type chatRequest struct {
	// Message is the newest user turn. It is appended to Messages when both
	// are sent.
	Message   string         `json:"message" validate:"max=4000"`
	Messages  []chat.Message `json:"messages" validate:"max=50,dive"`
	Provider  string         `json:"provider" validate:"omitempty,oneof=huggingface fireworks gemini anthropic"`
	SessionID string         `json:"session_id" validate:"max=128"`
}

// chatResponse adds conversation stats for the widget header.
type chatResponse struct {
	chat.Response
	Stats chat.Stats `json:"stats"`
}

func (req chatRequest) history() []chat.Message {
	h := req.Messages
	if req.Message != "" {
		h = append(h, chat.Message{Role: chat.RoleUser, Content: req.Message})
	}
	return h
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	history := req.history()
	resp := s.deps.Chat.Respond(r.Context(), history, chat.Options{
		Provider: req.Provider,
		Session:  analytics.SessionFromID(req.SessionID),
		Meta:     requestMeta(r),
	})
	if resp.Flagged && resp.Reason == string(sanitize.InvalidInput) {
		writeError(w, http.StatusBadRequest, "Invalid message")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: resp, Stats: chat.HistoryStats(history)})
}

func requestMeta(r *http.Request) analytics.Meta {
	return analytics.Meta{
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		IPAddress: clientIP(r),
	}
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
