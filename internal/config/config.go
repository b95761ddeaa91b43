package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Providers ProvidersConfig
	Analysis  AnalysisConfig
	OpenAI    OpenAIConfig
	Auth      AuthConfig
	Health    HealthConfig
	MCPServer MCPServerConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration // deadline applied to each API request
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// ProvidersConfig describes the two remote tool providers.
type ProvidersConfig struct {
	MarketURL         string
	SentimentURL      string
	ClientName        string
	ClientVersion     string
	RequestsPerSecond float64 // per provider; 0 disables limiting
	VsCurrency        string
}

// AnalysisConfig tunes the analysis pipeline.
type AnalysisConfig struct {
	Watchlist          []string
	MaxCategories      int
	CategoryPageSize   int
	CommentaryCacheTTL time.Duration
}

// OpenAIConfig configures language-model commentary. An empty APIKey
// disables it.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// AuthConfig configures admin authentication.
type AuthConfig struct {
	JWTSecret     string
	AdminPassword string
	TokenDuration time.Duration
}

// HealthConfig configures the provider health monitor. A zero Interval
// disables it.
type HealthConfig struct {
	Interval time.Duration
}

// MCPServerConfig configures the MCP server binary.
type MCPServerConfig struct {
	Port string
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultRequestTimeout  = 45 * time.Second

	defaultLogFormat = "json"

	defaultMarketURL         = "https://mcp.api.coingecko.com/sse"
	defaultSentimentURL      = "https://mcp-server.looftaxyz.workers.dev/sse"
	defaultClientName        = "signaldesk"
	defaultClientVersion     = "1.0.0"
	defaultRequestsPerSecond = 5.0
	defaultVsCurrency        = "usd"

	defaultWatchlist          = "bitcoin,ethereum,solana,taraxa"
	defaultMaxCategories      = 3
	defaultCategoryPageSize   = 10
	defaultCommentaryCacheTTL = 5 * time.Minute

	defaultOpenAIModel       = "gpt-4o-mini"
	defaultOpenAITemperature = 0.3
	defaultOpenAIMaxTokens   = 1500

	defaultJWTSecret     = "change-this-secret"
	defaultAdminPassword = "admin"
	defaultTokenDuration = 24 * time.Hour

	defaultHealthInterval = 60 * time.Second
	defaultMCPServerPort  = "8081"
)

// LoadDotEnv loads variables from a .env file in the working directory
// without overriding ones already set. A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults when
// values are not provided.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			RequestTimeout:  defaultRequestTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Providers: ProvidersConfig{
			MarketURL:         getEnv("MARKET_MCP_URL", defaultMarketURL),
			SentimentURL:      getEnv("SENTIMENT_MCP_URL", defaultSentimentURL),
			ClientName:        getEnv("MCP_CLIENT_NAME", defaultClientName),
			ClientVersion:     getEnv("MCP_CLIENT_VERSION", defaultClientVersion),
			RequestsPerSecond: defaultRequestsPerSecond,
			VsCurrency:        strings.ToLower(getEnv("VS_CURRENCY", defaultVsCurrency)),
		},
		Analysis: AnalysisConfig{
			Watchlist:          splitList(getEnv("WATCHLIST", defaultWatchlist)),
			MaxCategories:      defaultMaxCategories,
			CategoryPageSize:   defaultCategoryPageSize,
			CommentaryCacheTTL: defaultCommentaryCacheTTL,
		},
		OpenAI: OpenAIConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       getEnv("OPENAI_MODEL", defaultOpenAIModel),
			Temperature: defaultOpenAITemperature,
			MaxTokens:   defaultOpenAIMaxTokens,
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("ADMIN_JWT_SECRET", defaultJWTSecret),
			AdminPassword: getEnv("ADMIN_PASSWORD", defaultAdminPassword),
			TokenDuration: defaultTokenDuration,
		},
		Health: HealthConfig{
			Interval: defaultHealthInterval,
		},
		MCPServer: MCPServerConfig{
			Port: getEnv("MCP_SERVER_PORT", defaultMCPServerPort),
		},
	}

	seconds := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT_SECONDS", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT_SECONDS", &cfg.Server.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT_SECONDS", &cfg.Server.ShutdownTimeout},
		{"REQUEST_TIMEOUT_SECONDS", &cfg.Server.RequestTimeout},
		{"COMMENTARY_CACHE_TTL_SECONDS", &cfg.Analysis.CommentaryCacheTTL},
		{"HEALTH_CHECK_INTERVAL_SECONDS", &cfg.Health.Interval},
	}
	for _, s := range seconds {
		if v := os.Getenv(s.key); v != "" {
			d, err := parseSeconds(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", s.key, err)
			}
			*s.dst = d
		}
	}

	positiveInts := []struct {
		key string
		dst *int
	}{
		{"COMPARABLE_MAX_CATEGORIES", &cfg.Analysis.MaxCategories},
		{"COMPARABLE_CATEGORY_PAGE_SIZE", &cfg.Analysis.CategoryPageSize},
		{"OPENAI_MAX_TOKENS", &cfg.OpenAI.MaxTokens},
	}
	for _, p := range positiveInts {
		if v := os.Getenv(p.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return Config{}, fmt.Errorf("invalid %s: must be a positive integer", p.key)
			}
			*p.dst = n
		}
	}

	if v := os.Getenv("ADMIN_TOKEN_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("invalid ADMIN_TOKEN_HOURS: must be a positive integer")
		}
		cfg.Auth.TokenDuration = time.Duration(hours) * time.Hour
	}

	if v := os.Getenv("MCP_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("invalid MCP_REQUESTS_PER_SECOND: must be a non-negative number")
		}
		cfg.Providers.RequestsPerSecond = rps
	}

	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		temp, err := strconv.ParseFloat(v, 32)
		if err != nil || temp < 0 || temp > 2 {
			return Config{}, fmt.Errorf("invalid OPENAI_TEMPERATURE: must be between 0 and 2")
		}
		cfg.OpenAI.Temperature = float32(temp)
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if len(cfg.Analysis.Watchlist) == 0 {
		return Config{}, fmt.Errorf("invalid WATCHLIST: at least one coin id is required")
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
