package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hasnainrazaa03/jarvis/internal/analytics"
	"github.com/hasnainrazaa03/jarvis/internal/config"
	"github.com/hasnainrazaa03/jarvis/internal/metrics"
	"github.com/hasnainrazaa03/jarvis/internal/provider"
	"github.com/hasnainrazaa03/jarvis/internal/store"
)

// buildProviders registers every provider that has an API key, each behind
// its own circuit breaker. Registration order is the fallback order.
func buildProviders(ctx context.Context, cfg config.Config, logger *slog.Logger) *provider.Registry {
	registry := provider.NewRegistry(cfg.LLMProvider)
	register := func(p provider.Provider) {
		registry.Register(provider.NewBreaker(p, provider.DefaultBreakerConfig(), logger))
	}

	if cfg.HuggingFaceAPIKey != "" {
		register(provider.HuggingFace(cfg.HuggingFaceAPIKey, cfg.HuggingFaceModel, cfg.LLMTimeout))
	}
	if cfg.GeminiAPIKey != "" {
		g, err := provider.NewGemini(ctx, cfg.GeminiAPIKey, provider.GeminiOptions{
			Model:   cfg.GeminiModel,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			logger.Warn("gemini disabled", "error", err)
		} else {
			register(g)
		}
	}
	if cfg.FireworksAPIKey != "" {
		register(provider.Fireworks(cfg.FireworksAPIKey, cfg.FireworksModel, cfg.LLMTimeout))
	}
	if cfg.AnthropicAPIKey != "" {
		register(provider.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.LLMTimeout))
	}
	return registry
}

// analyticsBackend holds the chat-facing sink and the dashboard reader.
// Either may be nil.
type analyticsBackend struct {
	sink    analytics.Sink
	reader  analytics.Reader
	closers []func()
}

func (b *analyticsBackend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func buildAnalytics(ctx context.Context, cfg config.Config, publisher analytics.Publisher, m *metrics.Metrics, logger *slog.Logger) (*analyticsBackend, error) {
	b := &analyticsBackend{}

	var primary *analytics.NamedSink
	switch cfg.AnalyticsBackend {
	case config.BackendSupabase:
		s, err := analytics.NewSupabaseSink(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.AnalyticsTable, cfg.AnalyticsTimeout)
		if err != nil {
			return nil, fmt.Errorf("supabase sink: %w", err)
		}
		primary = &analytics.NamedSink{Name: config.BackendSupabase, Sink: s}
		b.reader = s
	case config.BackendPostgres:
		s, err := store.New(ctx, cfg.DatabaseURL, cfg.AnalyticsTable)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		b.closers = append(b.closers, s.Close)
		if err := s.Migrate(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		if n, err := s.CountSessions(ctx); err == nil {
			logger.Info("postgres store ready", "sessions", n)
		}
		primary = &analytics.NamedSink{Name: config.BackendPostgres, Sink: s}
		b.reader = s
	case config.BackendLocal:
		s, err := analytics.OpenLocal(cfg.AnalyticsLocalPath)
		if err != nil {
			return nil, fmt.Errorf("local store: %w", err)
		}
		b.closers = append(b.closers, func() { _ = s.Close() })
		primary = &analytics.NamedSink{Name: config.BackendLocal, Sink: s}
		b.reader = s
	case config.BackendNone:
		logger.Info("analytics disabled")
		return b, nil
	}

	var fallback *analytics.NamedSink
	if cfg.AnalyticsFallback && cfg.AnalyticsBackend != config.BackendLocal {
		s, err := analytics.OpenLocal(cfg.AnalyticsLocalPath)
		if err != nil {
			logger.Warn("local analytics fallback unavailable", "error", err)
		} else {
			b.closers = append(b.closers, func() { _ = s.Close() })
			fallback = &analytics.NamedSink{Name: config.BackendLocal, Sink: s}
		}
	}

	b.sink = analytics.NewRecorder(primary, fallback, publisher, m, logger)
	logger.Info("analytics ready", "backend", cfg.AnalyticsBackend, "fallback", fallback != nil)
	return b, nil
}
