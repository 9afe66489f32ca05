package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hasnainrazaa03/jarvis/internal/analytics"
	"github.com/hasnainrazaa03/jarvis/internal/api"
	"github.com/hasnainrazaa03/jarvis/internal/chat"
	"github.com/hasnainrazaa03/jarvis/internal/config"
	"github.com/hasnainrazaa03/jarvis/internal/content"
	"github.com/hasnainrazaa03/jarvis/internal/hermes"
	"github.com/hasnainrazaa03/jarvis/internal/metrics"
	"github.com/hasnainrazaa03/jarvis/internal/qna"
	"github.com/hasnainrazaa03/jarvis/internal/slack"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("jarvis starting", "port", cfg.Port, "version", version)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Content
	c, err := content.Load(cfg.ContentDir)
	if err != nil {
		slog.Error("failed to load content", "dir", cfg.ContentDir, "error", err)
		os.Exit(1)
	}
	slog.Info("content loaded", "knowledge_entries", len(c.Knowledge), "projects", len(c.Profile.Projects))

	m := metrics.New()

	// Providers
	registry := buildProviders(ctx, cfg, slog.Default())
	if registry.Len() == 0 {
		slog.Warn("no LLM provider configured, answering from local rules only")
	} else {
		slog.Info("providers ready", "providers", registry.Names(), "default", registry.Default())
	}

	// NATS/Hermes (optional)
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	// Analytics
	var publisher analytics.Publisher
	if hermesClient != nil {
		publisher = hermesClient
	}
	backend, err := buildAnalytics(ctx, cfg, publisher, m, slog.Default())
	if err != nil {
		slog.Error("failed to set up analytics", "backend", cfg.AnalyticsBackend, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	// Flagged-input alerts
	var alerters []chat.Alerter
	if hermesClient != nil {
		alerters = append(alerters, chat.AlerterFunc(hermesClient.PublishFlagged))
	}
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		poster := slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		alerters = append(alerters, chat.AlerterFunc(func(ctx context.Context, reason, snippet string) error {
			_, err := poster.PostFlagged(ctx, reason, snippet)
			return err
		}))
		slog.Info("slack alerts ready", "channel", cfg.SlackChannel)
	}

	orch := chat.NewOrchestrator(chat.Config{
		Content:    c,
		Providers:  registry,
		Attempts:   cfg.FallbackAttempts,
		Recorder:   backend.sink,
		RecordWait: cfg.AnalyticsTimeout,
		Alerters:   alerters,
		Metrics:    m,
		Shaper:     chat.NewShaper(cfg.SuggestionSeed),
		Logger:     slog.Default(),
	})

	srv := api.NewServer(api.Options{
		Port:          cfg.Port,
		AllowedOrigin: cfg.AllowedOrigin,
		WriteToken:    cfg.AnalyticsWriteToken,
		SecretToken:   cfg.AnalyticsSecretToken,
		RateLimit:     cfg.AnalyticsRateLimit,
		Backend:       cfg.AnalyticsBackend,
	}, api.Deps{
		Chat:      orch,
		Index:     qna.NewIndex(c.Knowledge),
		Providers: registry,
		Recorder:  backend.sink,
		Reader:    backend.reader,
		Metrics:   m,
		Logger:    slog.Default(),
	})

	// Announce registration
	if hermesClient != nil {
		if err := hermesClient.Publish(hermes.SubjectRegistered, hermes.Registration{
			Service:   "jarvis",
			Version:   version,
			Providers: registry.Names(),
			Analytics: cfg.AnalyticsBackend,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("jarvis ready", "port", cfg.Port)
	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("jarvis stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
