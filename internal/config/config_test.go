package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"log/slog"
)

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Errorf("expected default write timeout %v, got %v", defaultWriteTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Server.RequestTimeout != defaultRequestTimeout {
		t.Errorf("expected default request timeout %v, got %v", defaultRequestTimeout, cfg.Server.RequestTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Providers.MarketURL != defaultMarketURL || cfg.Providers.SentimentURL != defaultSentimentURL {
		t.Errorf("unexpected provider urls: %+v", cfg.Providers)
	}
	if cfg.Providers.RequestsPerSecond != defaultRequestsPerSecond {
		t.Errorf("expected %v requests per second, got %v", defaultRequestsPerSecond, cfg.Providers.RequestsPerSecond)
	}
	wantWatchlist := []string{"bitcoin", "ethereum", "solana", "taraxa"}
	if !reflect.DeepEqual(cfg.Analysis.Watchlist, wantWatchlist) {
		t.Errorf("expected watchlist %v, got %v", wantWatchlist, cfg.Analysis.Watchlist)
	}
	if cfg.Analysis.MaxCategories != 3 || cfg.Analysis.CategoryPageSize != 10 {
		t.Errorf("unexpected comparable settings: %+v", cfg.Analysis)
	}
	if cfg.OpenAI.APIKey != "" || cfg.OpenAI.Model != defaultOpenAIModel {
		t.Errorf("unexpected openai settings: %+v", cfg.OpenAI)
	}
	if cfg.Auth.TokenDuration != 24*time.Hour {
		t.Errorf("expected 24h admin tokens, got %v", cfg.Auth.TokenDuration)
	}
	if cfg.Health.Interval != time.Minute {
		t.Errorf("expected 60s health interval, got %v", cfg.Health.Interval)
	}
	if cfg.MCPServer.Port != defaultMCPServerPort {
		t.Errorf("expected MCP server port %q, got %q", defaultMCPServerPort, cfg.MCPServer.Port)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":                   "9090",
		"SERVER_READ_TIMEOUT_SECONDS":   "30",
		"REQUEST_TIMEOUT_SECONDS":       "20",
		"LOG_LEVEL":                     "debug",
		"LOG_FORMAT":                    "text",
		"MARKET_MCP_URL":                "http://localhost:9000/sse",
		"MCP_REQUESTS_PER_SECOND":       "0",
		"VS_CURRENCY":                   "EUR",
		"WATCHLIST":                     " Bitcoin , ,pepe ",
		"COMPARABLE_MAX_CATEGORIES":     "5",
		"OPENAI_API_KEY":                "sk-test",
		"OPENAI_TEMPERATURE":            "0.7",
		"OPENAI_MAX_TOKENS":             "800",
		"COMMENTARY_CACHE_TTL_SECONDS":  "0",
		"HEALTH_CHECK_INTERVAL_SECONDS": "0",
		"ADMIN_TOKEN_HOURS":             "2",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected overridden port, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second || cfg.Server.RequestTimeout != 20*time.Second {
		t.Errorf("unexpected timeouts: %+v", cfg.Server)
	}
	if cfg.Logging.Level != slog.LevelDebug || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Providers.MarketURL != "http://localhost:9000/sse" {
		t.Errorf("unexpected market url %q", cfg.Providers.MarketURL)
	}
	if cfg.Providers.RequestsPerSecond != 0 {
		t.Errorf("expected rate limiting disabled, got %v", cfg.Providers.RequestsPerSecond)
	}
	if cfg.Providers.VsCurrency != "eur" {
		t.Errorf("expected lowercased currency, got %q", cfg.Providers.VsCurrency)
	}
	if !reflect.DeepEqual(cfg.Analysis.Watchlist, []string{"bitcoin", "pepe"}) {
		t.Errorf("unexpected watchlist %v", cfg.Analysis.Watchlist)
	}
	if cfg.Analysis.MaxCategories != 5 {
		t.Errorf("expected 5 categories, got %d", cfg.Analysis.MaxCategories)
	}
	if cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.MaxTokens != 800 || cfg.OpenAI.Temperature != float32(0.7) {
		t.Errorf("unexpected openai config: %+v", cfg.OpenAI)
	}
	if cfg.Analysis.CommentaryCacheTTL != 0 || cfg.Health.Interval != 0 {
		t.Errorf("expected zero durations to disable cache and monitor")
	}
	if cfg.Auth.TokenDuration != 2*time.Hour {
		t.Errorf("expected 2h tokens, got %v", cfg.Auth.TokenDuration)
	}
}

func TestLoadPrefersPort(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("expected PORT to win, got %q", cfg.Server.Port)
	}
}

func TestLoadWithInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_READ_TIMEOUT_SECONDS":   "-1",
		"SERVER_WRITE_TIMEOUT_SECONDS":  "abc",
		"REQUEST_TIMEOUT_SECONDS":       "3.5",
		"HEALTH_CHECK_INTERVAL_SECONDS": "soon",
		"LOG_LEVEL":                     "verbose",
		"LOG_FORMAT":                    "xml",
		"MCP_REQUESTS_PER_SECOND":       "-2",
		"COMPARABLE_MAX_CATEGORIES":     "0",
		"OPENAI_MAX_TOKENS":             "lots",
		"OPENAI_TEMPERATURE":            "3",
		"ADMIN_TOKEN_HOURS":             "0",
		"WATCHLIST":                     " , ",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s=%q", key, value)
			}
		})
	}
}

func TestParseLogLevelAliases(t *testing.T) {
	tests := map[string]slog.Level{
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
	}

	for input, expected := range tests {
		level, err := parseLogLevel(input)
		if err != nil {
			t.Fatalf("parseLogLevel(%q) returned error: %v", input, err)
		}
		if level != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, level, expected)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	if err := LoadDotEnv(); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=6060\nVS_CURRENCY=gbp\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("VS_CURRENCY", "jpy")
	t.Cleanup(func() { os.Unsetenv("SERVER_PORT") })
	os.Unsetenv("SERVER_PORT")

	if err := LoadDotEnv(); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("expected port from .env, got %q", cfg.Server.Port)
	}
	if cfg.Providers.VsCurrency != "jpy" {
		t.Errorf("expected existing env to win over .env, got %q", cfg.Providers.VsCurrency)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT",
		"SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS",
		"SERVER_WRITE_TIMEOUT_SECONDS",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"REQUEST_TIMEOUT_SECONDS",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"MARKET_MCP_URL",
		"SENTIMENT_MCP_URL",
		"MCP_CLIENT_NAME",
		"MCP_CLIENT_VERSION",
		"MCP_REQUESTS_PER_SECOND",
		"VS_CURRENCY",
		"WATCHLIST",
		"COMPARABLE_MAX_CATEGORIES",
		"COMPARABLE_CATEGORY_PAGE_SIZE",
		"OPENAI_API_KEY",
		"OPENAI_MODEL",
		"OPENAI_TEMPERATURE",
		"OPENAI_MAX_TOKENS",
		"COMMENTARY_CACHE_TTL_SECONDS",
		"HEALTH_CHECK_INTERVAL_SECONDS",
		"ADMIN_JWT_SECRET",
		"ADMIN_PASSWORD",
		"ADMIN_TOKEN_HOURS",
		"MCP_SERVER_PORT",
	}

	for _, key := range keys {
		t.Setenv(key, "")
	}
}
