package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/redis"
)

// SessionService handles login, dashboard settings and toasts.
type SessionService struct {
	bot             *botapi.Client
	redis           *redis.Client
	ttl             time.Duration
	defaultInterval time.Duration
	now             func() time.Time
}

// NewSessionService creates a SessionService. ttl is the session lifetime and
// interval the refresh interval given to new sessions.
func NewSessionService(bot *botapi.Client, rc *redis.Client, ttl, interval time.Duration) *SessionService {
	return &SessionService{
		bot:             bot,
		redis:           rc,
		ttl:             ttl,
		defaultInterval: interval,
		now:             time.Now,
	}
}

// Login exchanges the PIN for a bot token and opens a session.
func (s *SessionService) Login(ctx context.Context, pin string) (*models.Session, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, BadRequest("PIN_REQUIRED", "enter your PIN")
	}

	res, err := s.bot.Login(ctx, pin)
	if errors.Is(err, botapi.ErrInvalidPIN) {
		return nil, Unauthorized("INVALID_PIN", "invalid PIN")
	}
	if err != nil {
		return nil, fromBot(err)
	}
	if permissions.ForRole(res.Role) == 0 {
		slog.Warn("login with unknown role", "role", res.Role)
		return nil, Forbidden("UNKNOWN_ROLE", "this PIN has no panel access")
	}

	now := s.now().UTC()
	sess := &models.Session{
		ID:        uuid.NewString(),
		Token:     res.Token,
		Role:      res.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.redis.SaveSession(ctx, sess); err != nil {
		slog.Error("saving session", "error", err)
		return nil, Internal("INTERNAL", "could not start a session")
	}
	if err := s.redis.SaveSettings(ctx, sess.ID, models.DefaultSettings(s.defaultInterval), s.ttl); err != nil {
		slog.Warn("saving default settings", "session", sess.ID, "error", err)
	}

	slog.Info("session started", "session", sess.ID, "role", sess.Role)
	return sess, nil
}

// Settings returns the session's dashboard settings, or the defaults.
func (s *SessionService) Settings(ctx context.Context, sess *models.Session) models.Settings {
	settings, found, err := s.redis.GetSettings(ctx, sess.ID)
	if err != nil {
		slog.Warn("loading settings", "session", sess.ID, "error", err)
	}
	if err != nil || !found {
		return models.DefaultSettings(s.defaultInterval)
	}
	return settings
}

// SaveSettings validates and stores the dashboard settings.
func (s *SessionService) SaveSettings(ctx context.Context, sess *models.Session, settings models.Settings) error {
	if settings.RefreshInterval < models.MinRefreshInterval || settings.RefreshInterval > models.MaxRefreshInterval {
		return BadRequest("INVALID_INTERVAL", "refresh interval must be between 10 and 3600 seconds")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return Unauthorized("SESSION_EXPIRED", "your session has expired, please log in again")
	}
	if err := s.redis.SaveSettings(ctx, sess.ID, settings, ttl); err != nil {
		slog.Error("saving settings", "session", sess.ID, "error", err)
		return Internal("INTERNAL", "could not save settings")
	}
	return nil
}

// Flash queues a toast for the session's next render.
func (s *SessionService) Flash(ctx context.Context, sessionID, level, message string) {
	if err := s.redis.PushFlash(ctx, sessionID, models.Flash{Level: level, Message: message}); err != nil {
		slog.Warn("queueing flash", "session", sessionID, "error", err)
	}
}

// Flashes returns and clears the queued toasts.
func (s *SessionService) Flashes(ctx context.Context, sessionID string) []models.Flash {
	flashes, err := s.redis.PopFlashes(ctx, sessionID)
	if err != nil {
		slog.Warn("reading flashes", "session", sessionID, "error", err)
		return nil
	}
	return flashes
}

// Lookup loads a session by id. Used by the live update hub.
func (s *SessionService) Lookup(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.redis.GetSession(ctx, id)
	if errors.Is(err, redis.ErrSessionNotFound) {
		return nil, Unauthorized("SESSION_EXPIRED", "your session has expired, please log in again")
	}
	if err != nil {
		return nil, Internal("INTERNAL", "could not load the session")
	}
	return sess, nil
}

// Logout drops the session and everything stored with it.
func (s *SessionService) Logout(ctx context.Context, id string) error {
	if err := s.redis.DeleteSession(ctx, id); err != nil {
		slog.Error("deleting session", "session", id, "error", err)
		return Internal("INTERNAL", "could not end the session")
	}
	return nil
}
