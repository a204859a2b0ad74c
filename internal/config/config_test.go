package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_API_URL", "http://bot.local:5000/")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("BOT_RETRIES", "")
	t.Setenv("AUDIT_RETENTION_DAYS", "")
	t.Setenv("LOGIN_RATE_LIMIT", "")
	t.Setenv("ACTION_RATE_LIMIT", "")

	cfg := Load()

	if cfg.BotAPIURL != "http://bot.local:5000" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BotAPIURL)
	}
	if cfg.ServerAddr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.ServerAddr)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected 24h session TTL, got %v", cfg.SessionTTL)
	}
	if cfg.BotRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.BotRetries)
	}
	if cfg.AuditRetentionDays != 90 || cfg.LoginRateLimit != 5 || cfg.ActionRateLimit != 120 {
		t.Errorf("unexpected limits: retention=%d login=%d action=%d",
			cfg.AuditRetentionDays, cfg.LoginRateLimit, cfg.ActionRateLimit)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOT_API_URL", "http://bot")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("POLL_TICK", "not-a-duration")
	t.Setenv("BOT_RETRIES", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("expected 2h, got %v", cfg.SessionTTL)
	}
	if cfg.PollTick != 10*time.Second {
		t.Errorf("expected fallback poll tick, got %v", cfg.PollTick)
	}
	if cfg.BotRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.BotRetries)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("BOT_API_URL", "")
	t.Setenv("SESSION_SECRET", "")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for missing variables")
		}
		msg, _ := r.(string)
		if msg != "required environment variables not set: BOT_API_URL, SESSION_SECRET" {
			t.Errorf("unexpected panic message: %v", r)
		}
	}()
	Load()
}
