package models

import "time"

// Session is the server-side replacement for the browser's stored token,
// expiry and role.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Refresh interval bounds, in seconds.
const (
	MinRefreshInterval = 10
	MaxRefreshInterval = 3600
)

// Settings are the per-session dashboard preferences.
type Settings struct {
	AutoRefresh     bool `json:"auto_refresh" mapstructure:"auto_refresh"`
	Notifications   bool `json:"notifications" mapstructure:"notifications"`
	RefreshInterval int  `json:"refresh_interval" mapstructure:"refresh_interval"`
}

// DefaultSettings mirrors the dashboard's first-run preferences.
func DefaultSettings(interval time.Duration) Settings {
	return Settings{
		AutoRefresh:     true,
		Notifications:   true,
		RefreshInterval: int(interval / time.Second),
	}
}

// Interval returns the refresh interval clamped to the allowed bounds.
func (s Settings) Interval() time.Duration {
	n := s.RefreshInterval
	if n < MinRefreshInterval {
		n = MinRefreshInterval
	}
	if n > MaxRefreshInterval {
		n = MaxRefreshInterval
	}
	return time.Duration(n) * time.Second
}

// LoginResult is the bot's /api/auth/login response.
type LoginResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Role    string `json:"role"`
	Error   string `json:"error,omitempty"`
}

// Flash levels.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashError   = "error"
)

// Flash is a one-shot toast shown on the next render.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
