package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hasnainrazaa03/jarvis/internal/analytics"
	"github.com/hasnainrazaa03/jarvis/internal/config"
	"github.com/hasnainrazaa03/jarvis/internal/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildProviders_OnlyKeyedProviders(t *testing.T) {
	cfg := config.Config{
		LLMProvider:       "anthropic",
		LLMTimeout:        time.Second,
		HuggingFaceAPIKey: "hf-key",
		AnthropicAPIKey:   "ant-key",
	}
	reg := buildProviders(context.Background(), cfg, discardLogger())

	names := reg.Names()
	if len(names) != 2 || names[0] != "huggingface" || names[1] != "anthropic" {
		t.Fatalf("expected [huggingface anthropic], got %v", names)
	}
	chain := reg.Chain("", 2)
	if chain[0].Name() != "anthropic" {
		t.Errorf("expected default provider first, got %s", chain[0].Name())
	}
}

func TestBuildProviders_NoKeys(t *testing.T) {
	reg := buildProviders(context.Background(), config.Config{LLMProvider: "huggingface"}, discardLogger())
	if reg.Len() != 0 {
		t.Errorf("expected empty registry, got %v", reg.Names())
	}
}

func TestBuildAnalytics_None(t *testing.T) {
	b, err := buildAnalytics(context.Background(), config.Config{AnalyticsBackend: config.BackendNone}, nil, metrics.New(), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer b.Close()
	if b.sink != nil || b.reader != nil {
		t.Error("expected no sink and no reader")
	}
}

func TestBuildAnalytics_Local(t *testing.T) {
	cfg := config.Config{
		AnalyticsBackend:   config.BackendLocal,
		AnalyticsLocalPath: ":memory:",
		AnalyticsFallback:  true,
	}
	b, err := buildAnalytics(context.Background(), cfg, nil, metrics.New(), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	in := analytics.NewInteraction(analytics.NewSession(), "What projects?", "Vimaan.", analytics.Meta{})
	if err := b.sink.Log(ctx, in); err != nil {
		t.Fatalf("log: %v", err)
	}
	got, err := b.reader.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].ID != in.ID {
		t.Errorf("expected the logged interaction back, got %+v", got)
	}
}

func TestBuildAnalytics_SupabaseMissingKey(t *testing.T) {
	cfg := config.Config{AnalyticsBackend: config.BackendSupabase, SupabaseURL: "https://example.supabase.co"}
	if _, err := buildAnalytics(context.Background(), cfg, nil, nil, discardLogger()); err == nil {
		t.Error("expected error without a service key")
	}
}
