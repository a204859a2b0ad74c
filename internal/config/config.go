package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotAPIURL       string
	SessionSecret   string
	ServerAddr      string
	RedisURL        string
	DatabaseURL     string
	LogLevel        slog.Level
	LogFile         string
	SessionTTL      time.Duration
	RefreshInterval time.Duration
	PollTick        time.Duration
	BotRetries      int
	BotRetryDelay   time.Duration
	RequestTimeout  time.Duration
	CookieSecure    bool
	// AuditRetentionDays enables the daily audit prune when positive.
	AuditRetentionDays int
	AuditMemorySize    int
	LoginRateLimit     int
	ActionRateLimit    int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		BotAPIURL:       strings.TrimRight(os.Getenv("BOT_API_URL"), "/"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		ServerAddr:      envOrDefault("SERVER_ADDR", ":8080"),
		RedisURL:        envOrDefault("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LogLevel:        parseLogLevel(os.Getenv("LOG_LEVEL")),
		LogFile:         os.Getenv("LOG_FILE"),
		SessionTTL:      durationOrDefault("SESSION_TTL", 24*time.Hour),
		RefreshInterval: durationOrDefault("REFRESH_INTERVAL", 60*time.Second),
		PollTick:        durationOrDefault("POLL_TICK", 10*time.Second),
		BotRetries:      intOrDefault("BOT_RETRIES", 3),
		BotRetryDelay:   durationOrDefault("BOT_RETRY_DELAY", 2*time.Second),
		RequestTimeout:  durationOrDefault("REQUEST_TIMEOUT", 10*time.Second),
		CookieSecure:    os.Getenv("ENV") == "production",

		AuditRetentionDays: intOrDefault("AUDIT_RETENTION_DAYS", 90),
		AuditMemorySize:    intOrDefault("AUDIT_MEMORY_SIZE", 500),
		LoginRateLimit:     intOrDefault("LOGIN_RATE_LIMIT", 5),
		ActionRateLimit:    intOrDefault("ACTION_RATE_LIMIT", 120),
	}

	var missing []string
	if cfg.BotAPIURL == "" {
		missing = append(missing, "BOT_API_URL")
	}
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		panic(fmt.Sprintf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func intOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
