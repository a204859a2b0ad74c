package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/models"
)

const (
	// CookieName carries the signed session token.
	CookieName = "woush_session"
	// FragmentHeader names the fragment a form wants back instead of a page.
	FragmentHeader = "X-Panel-Fragment"
	// LoginPath is where unauthenticated browsers are sent.
	LoginPath = "/login"

	sessionKey = "session"
)

// SessionStore is the subset of the redis client the guard needs.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Guard checks the session cookie before protected handlers run and owns
// the logout path.
type Guard struct {
	tokens *TokenService
	store  SessionStore
	secure bool
	now    func() time.Time
}

// NewGuard creates a Guard. secure marks cookies Secure.
func NewGuard(tokens *TokenService, store SessionStore, secure bool) *Guard {
	return &Guard{tokens: tokens, store: store, secure: secure, now: time.Now}
}

// Middleware rejects requests without a live session. An expired session is
// logged out here, before any handler can reach the bot.
func (g *Guard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return g.deny(c)
			}

			ctx := c.Request().Context()
			claims, err := g.tokens.ValidateSessionToken(cookie.Value)
			if errors.Is(err, ErrTokenExpired) {
				return g.logout(c, claims.SessionID, "token expired")
			}
			if err != nil {
				return g.deny(c)
			}

			sess, err := g.store.GetSession(ctx, claims.SessionID)
			if err != nil {
				return g.deny(c)
			}
			if sess.Expired(g.now()) {
				return g.logout(c, sess.ID, "session expired")
			}

			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// Logout ends the current session and redirects to the login page.
func (g *Guard) Logout(c echo.Context) error {
	var id string
	if sess := GetSession(c); sess != nil {
		id = sess.ID
	}
	return g.logout(c, id, "logout")
}

func (g *Guard) logout(c echo.Context, sessionID, reason string) error {
	if sessionID != "" {
		if err := g.store.DeleteSession(c.Request().Context(), sessionID); err != nil {
			slog.Error("deleting session", "session", sessionID, "error", err)
		}
		slog.Info("session ended", "session", sessionID, "reason", reason)
	}
	return g.deny(c)
}

// deny clears the cookie and sends the browser to the login page. Fragment
// and websocket requests get a 401 with an HX-Redirect hint instead.
func (g *Guard) deny(c echo.Context) error {
	g.clearCookie(c)
	if IsFragment(c) {
		c.Response().Header().Set("HX-Redirect", LoginPath)
		return c.NoContent(http.StatusUnauthorized)
	}
	return c.Redirect(http.StatusSeeOther, LoginPath)
}

// IssueCookie sets the session cookie for a fresh login.
func (g *Guard) IssueCookie(c echo.Context, sess *models.Session) error {
	token, err := g.tokens.GenerateSessionToken(sess.ID, sess.Role, sess.ExpiresAt)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (g *Guard) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSession returns the session the guard attached, or nil.
func GetSession(c echo.Context) *models.Session {
	sess, _ := c.Get(sessionKey).(*models.Session)
	return sess
}

// SetSession attaches a session to the context.
func SetSession(c echo.Context, sess *models.Session) {
	c.Set(sessionKey, sess)
}

// IsFragment reports whether the request wants a partial response.
func IsFragment(c echo.Context) bool {
	r := c.Request()
	if r.Header.Get(FragmentHeader) != "" || r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
