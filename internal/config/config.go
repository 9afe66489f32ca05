package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Analytics backends.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendLocal    = "local"
	BackendNone     = "none"
)

// Providers lists the provider names LLM_PROVIDER may select.
var Providers = []string{"huggingface", "fireworks", "gemini", "anthropic"}

type Config struct {
	Port          int
	LogLevel      string
	AllowedOrigin string

	LLMProvider      string
	FallbackAttempts int
	LLMTimeout       time.Duration
	SuggestionSeed   int64

	HuggingFaceAPIKey string
	HuggingFaceModel  string
	FireworksAPIKey   string
	FireworksModel    string
	GeminiAPIKey      string
	GeminiModel       string
	AnthropicAPIKey   string
	AnthropicModel    string

	ContentDir string

	AnalyticsBackend     string
	SupabaseURL          string
	SupabaseServiceKey   string
	AnalyticsTable       string
	DatabaseURL          string
	AnalyticsLocalPath   string
	AnalyticsFallback    bool
	AnalyticsWriteToken  string
	AnalyticsSecretToken string
	AnalyticsRateLimit   int
	AnalyticsTimeout     time.Duration

	NatsURL   string
	NatsToken string

	SlackBotToken string
	SlackChannel  string
}

func Load() Config {
	return Config{
		Port:          envInt("JARVIS_PORT", 8790),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		AllowedOrigin: strings.TrimRight(envStr("ALLOWED_ORIGIN", "https://hasnainrazaa.vercel.app"), "/"),

		LLMProvider:      envStr("LLM_PROVIDER", "huggingface"),
		FallbackAttempts: envInt("LLM_FALLBACK_ATTEMPTS", 2),
		LLMTimeout:       time.Duration(envInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
		SuggestionSeed:   int64(envInt("SUGGESTION_SEED", 0)),

		HuggingFaceAPIKey: envStr("HUGGINGFACE_API_KEY", ""),
		HuggingFaceModel:  envStr("HUGGINGFACE_MODEL", ""),
		FireworksAPIKey:   envStr("FIREWORKS_API_KEY", ""),
		FireworksModel:    envStr("FIREWORKS_MODEL", ""),
		GeminiAPIKey:      envStr("GEMINI_API_KEY", ""),
		GeminiModel:       envStr("GEMINI_MODEL", ""),
		AnthropicAPIKey:   envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    envStr("ANTHROPIC_MODEL", ""),

		ContentDir: envStr("CONTENT_DIR", ""),

		AnalyticsBackend:     strings.ToLower(envStr("ANALYTICS_BACKEND", defaultBackend())),
		SupabaseURL:          envStr("SUPABASE_URL", ""),
		SupabaseServiceKey:   envStr("SUPABASE_SERVICE_KEY", ""),
		AnalyticsTable:       envStr("ANALYTICS_TABLE", "jarvis_analytics"),
		DatabaseURL:          envStr("DATABASE_URL", ""),
		AnalyticsLocalPath:   envStr("ANALYTICS_LOCAL_PATH", "~/.jarvis/analytics.db"),
		AnalyticsFallback:    envBool("ANALYTICS_LOCAL_FALLBACK", true),
		AnalyticsWriteToken:  envStr("ANALYTICS_WRITE_TOKEN", ""),
		AnalyticsSecretToken: envStr("ANALYTICS_SECRET_TOKEN", ""),
		AnalyticsRateLimit:   envInt("ANALYTICS_RATE_LIMIT", 30),
		AnalyticsTimeout:     time.Duration(envInt("ANALYTICS_TIMEOUT_SECONDS", 5)) * time.Second,

		NatsURL:   envStr("NATS_URL", ""),
		NatsToken: envStr("NATS_TOKEN", ""),

		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_ALERTS_CHANNEL", ""),
	}
}

// Validate reports configuration the service cannot start with. Missing
// provider keys are not an error: the chat falls back to local answers.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("JARVIS_PORT %d out of range", c.Port))
	}
	if !contains(Providers, c.LLMProvider) {
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q must be one of %s", c.LLMProvider, strings.Join(Providers, ", ")))
	}
	if c.FallbackAttempts < 1 {
		errs = append(errs, errors.New("LLM_FALLBACK_ATTEMPTS must be at least 1"))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT_SECONDS must be positive"))
	}
	if c.AnalyticsRateLimit < 1 {
		errs = append(errs, errors.New("ANALYTICS_RATE_LIMIT must be at least 1"))
	}
	if c.AnalyticsTimeout <= 0 {
		errs = append(errs, errors.New("ANALYTICS_TIMEOUT_SECONDS must be positive"))
	}

	switch c.AnalyticsBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			errs = append(errs, errors.New("ANALYTICS_BACKEND=supabase requires SUPABASE_URL and SUPABASE_SERVICE_KEY"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("ANALYTICS_BACKEND=postgres requires DATABASE_URL"))
		}
	case BackendLocal, BackendNone:
	default:
		errs = append(errs, fmt.Errorf("unknown ANALYTICS_BACKEND %q", c.AnalyticsBackend))
	}

	if c.SlackBotToken != "" && c.SlackChannel == "" {
		errs = append(errs, errors.New("SLACK_BOT_TOKEN is set but SLACK_ALERTS_CHANNEL is empty"))
	}
	return errors.Join(errs...)
}

// defaultBackend picks Supabase when it is configured, else the local store.
func defaultBackend() string {
	if os.Getenv("SUPABASE_URL") != "" {
		return BackendSupabase
	}
	return BackendLocal
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
