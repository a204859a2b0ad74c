package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/auth"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
)

// AuthHandler handles login, logout and the session settings page.
type AuthHandler struct {
	views    *Views
	sessions *service.SessionService
	guard    *auth.Guard
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(views *Views, sessions *service.SessionService, guard *auth.Guard) *AuthHandler {
	return &AuthHandler{views: views, sessions: sessions, guard: guard}
}

type loginRequest struct {
	PIN string `form:"pin"`
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return h.loginPage(c, http.StatusOK, "")
}

// Login handles POST /login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return h.loginPage(c, http.StatusBadRequest, "invalid request")
	}

	sess, err := h.sessions.Login(c.Request().Context(), req.PIN)
	if err != nil {
		status, _, msg := mapServiceError(err)
		return h.loginPage(c, status, msg)
	}
	if err := h.guard.IssueCookie(c, sess); err != nil {
		slog.Error("issuing session cookie", "session", sess.ID, "error", err)
		return h.loginPage(c, http.StatusInternalServerError, "could not start a session")
	}
	return c.Redirect(http.StatusSeeOther, permissions.HomePath(sess.Role))
}

// LoginLimited answers a login attempt over the rate limit.
func (h *AuthHandler) LoginLimited(c echo.Context) error {
	return h.loginPage(c, http.StatusTooManyRequests, "too many login attempts, wait a minute and try again")
}

func (h *AuthHandler) loginPage(c echo.Context, status int, msg string) error {
	return c.Render(status, "login", &render.Page{Title: "Login", Data: render.LoginView{Error: msg}})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	return h.guard.Logout(c)
}

// Home handles GET / by sending the role to its landing page.
func (h *AuthHandler) Home(c echo.Context) error {
	sess := auth.GetSession(c)
	if sess == nil {
		return c.Redirect(http.StatusSeeOther, auth.LoginPath)
	}
	return c.Redirect(http.StatusSeeOther, permissions.HomePath(sess.Role))
}

// Settings handles GET /settings.
func (h *AuthHandler) Settings(c echo.Context) error {
	return h.views.show(c, "settings", "Settings", "settings", func(r *request) (any, error) {
		return render.SettingsView{
			Settings: r.state.Settings,
			Min:      models.MinRefreshInterval,
			Max:      models.MaxRefreshInterval,
		}, nil
	})
}

// SaveSettings handles POST /settings.
func (h *AuthHandler) SaveSettings(c echo.Context) error {
	return h.views.act(c, action{
		back: "/settings",
		run: func(r *request) (string, error) {
			interval, err := formInt(c, "refresh_interval", r.state.Settings.RefreshInterval)
			if err != nil {
				return "", err
			}
			settings := models.Settings{
				AutoRefresh:     formBool(c, "auto_refresh"),
				Notifications:   formBool(c, "notifications"),
				RefreshInterval: interval,
			}
			if err := h.sessions.SaveSettings(r.ctx, r.session(), settings); err != nil {
				return "", err
			}
			r.state.Settings = settings
			return "Settings saved", nil
		},
	})
}
