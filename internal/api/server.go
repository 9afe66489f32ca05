package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gocache "github.com/patrickmn/go-cache"

	"github.com/hasnainrazaa03/jarvis/internal/analytics"
	"github.com/hasnainrazaa03/jarvis/internal/chat"
	"github.com/hasnainrazaa03/jarvis/internal/metrics"
	"github.com/hasnainrazaa03/jarvis/internal/provider"
	"github.com/hasnainrazaa03/jarvis/internal/qna"
)

// Responder answers one chat turn. *chat.Orchestrator implements it.
type Responder interface {
	Respond(ctx context.Context, history []chat.Message, opts chat.Options) chat.Response
}

// stateReporter is implemented by providers behind a circuit breaker.
type stateReporter interface {
	State() string
}

type Options struct {
	Port          int
	AllowedOrigin string
	// WriteToken guards POST /api/analytics. Empty rejects every write.
	WriteToken string
	// SecretToken guards GET /api/analytics.
	SecretToken string
	// RateLimit is the number of analytics writes allowed per IP per minute.
	RateLimit int
	// Backend names the analytics backend for the status endpoint.
	Backend string
}

// Deps are the collaborators behind the routes. Recorder, Reader and Metrics
// may be nil.
type Deps struct {
	Chat      Responder
	Index     *qna.Index
	Providers *provider.Registry
	Recorder  analytics.Sink
	Reader    analytics.Reader
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type Server struct {
	router  *chi.Mux
	httpSrv *http.Server
	opts    Options
	deps    Deps
	limiter *rateLimiter
	// sequencers holds one search Sequencer per browser session.
	sequencers *gocache.Cache
	logger     *slog.Logger
}

func NewServer(opts Options, deps Deps) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 30
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{opts.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", writeTokenHeader},
		MaxAge:         300,
	}))

	s := &Server{
		router:     router,
		opts:       opts,
		deps:       deps,
		limiter:    newRateLimiter(opts.RateLimit, time.Minute),
		sequencers: gocache.New(10*time.Minute, 20*time.Minute),
		logger:     logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/jarvis/status", s.status)
	router.Post("/api/chat", s.chat)
	router.Get("/api/qna/search", s.search)
	router.Post("/api/analytics", s.logInteraction)
	router.With(bearerAuth(opts.SecretToken)).Get("/api/analytics", s.listInteractions)
	router.Handle("/metrics", deps.Metrics.Handler())

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	var (
		names       = []string{}
		circuits    = map[string]string{}
		defaultName string
	)
	if s.deps.Providers != nil {
		names = s.deps.Providers.Names()
		defaultName = s.deps.Providers.Default()
		for _, name := range names {
			p, _ := s.deps.Providers.Get(name)
			if sp, ok := p.(stateReporter); ok {
				circuits[name] = sp.State()
			}
		}
	}
	kb := 0
	if s.deps.Index != nil {
		kb = s.deps.Index.Len()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":             "jarvis",
		"status":            "ok",
		"providers":         names,
		"default_provider":  defaultName,
		"circuits":          circuits,
		"knowledge_entries": kb,
		"analytics":         s.opts.Backend,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
