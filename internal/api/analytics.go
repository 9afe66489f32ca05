package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/hasnainrazaa03/jarvis/internal/analytics"
)

const writeTokenHeader = "x-analytics-token"

type analyticsRequest struct {
	Question  string     `json:"question" validate:"required,max=2000"`
	Response  string     `json:"response" validate:"required,max=8000"`
	SessionID string     `json:"sessionId" validate:"max=128"`
	Timestamp *time.Time `json:"timestamp"`
	UserAgent string     `json:"userAgent" validate:"max=512"`
	Referrer  string     `json:"referrer" validate:"max=2048"`
}

type analyticsListResponse struct {
	Success  bool                    `json:"success"`
	Total    int                     `json:"total"`
	Data     []analytics.Interaction `json:"data"`
	Insights analytics.Insights      `json:"insights"`
}

func tokensEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// logInteraction handles POST /api/analytics from the browser widget.
func (s *Server) logInteraction(w http.ResponseWriter, r *http.Request) {
	if s.opts.WriteToken == "" {
		s.logger.Warn("ANALYTICS_WRITE_TOKEN not set, rejecting analytics write")
		writeError(w, http.StatusInternalServerError, "Server misconfigured: write token not set")
		return
	}
	if token := r.Header.Get(writeTokenHeader); token == "" || !tokensEqual(token, s.opts.WriteToken) {
		writeError(w, http.StatusUnauthorized, "Unauthorized: invalid or missing analytics write token")
		return
	}

	ip := clientIP(r)
	if !s.limiter.Allow(ip) {
		writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	var req analyticsRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.deps.Recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "analytics backend not configured")
		return
	}

	in := analytics.NewInteraction(analytics.SessionFromID(req.SessionID), req.Question, req.Response, analytics.Meta{
		UserAgent: req.UserAgent,
		Referrer:  req.Referrer,
		IPAddress: ip,
	})
	if req.Timestamp != nil {
		in.Timestamp = req.Timestamp.UTC()
	}
	if err := s.deps.Recorder.Log(r.Context(), in); err != nil {
		s.logger.Error("failed to log interaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log interaction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": in.ID})
}

// listInteractions handles GET /api/analytics for the dashboard.
func (s *Server) listInteractions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reader == nil {
		writeError(w, http.StatusServiceUnavailable, "analytics backend not configured")
		return
	}
	records, err := s.deps.Reader.Recent(r.Context(), analytics.RecentLimit)
	if err != nil {
		s.logger.Error("failed to read interactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read interactions")
		return
	}
	writeJSON(w, http.StatusOK, analyticsListResponse{
		Success:  true,
		Total:    len(records),
		Data:     records,
		Insights: analytics.Summarize(records),
	})
}

// bearerAuth rejects requests without "Authorization: Bearer <token>". An
// empty token rejects everything.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || !ok || !tokensEqual(got, token) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error":   "Unauthorized",
					"message": "You need to provide the secret token to view analytics",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
