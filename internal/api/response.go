package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/auth"
	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
	"github.com/WoushouW/woushBOT/internal/snowflake"
	"github.com/WoushouW/woushBOT/internal/state"
)

// Response headers read by panel.js.
const (
	ConfirmHeader = "X-Panel-Confirm"
	ToastsHeader  = "X-Panel-Toasts"
	TargetHeader  = "X-Panel-Target"
)

// Views builds pages and answers form posts for every handler.
type Views struct {
	sessions *service.SessionService
	state    *state.Refresher
	guilds   *service.GuildService
	guard    *auth.Guard
	renderer *render.Renderer
}

// NewViews creates the shared view helpers.
func NewViews(sessions *service.SessionService, st *state.Refresher, guilds *service.GuildService, guard *auth.Guard, renderer *render.Renderer) *Views {
	return &Views{sessions: sessions, state: st, guilds: guilds, guard: guard, renderer: renderer}
}

// request is what a handler works with: the loaded state and the actor.
type request struct {
	c     echo.Context
	ctx   context.Context
	state *state.AppState
	actor service.Actor
}

func (r *request) session() *models.Session { return r.state.Session }

func (v *Views) load(c echo.Context) (*request, error) {
	sess := auth.GetSession(c)
	if sess == nil {
		return nil, service.Unauthorized("SESSION_EXPIRED", "your session has expired, please log in again")
	}
	ctx := c.Request().Context()
	st, err := v.state.Load(ctx, sess, v.sessions.Settings(ctx, sess))
	if err != nil {
		slog.Error("loading session state", "session", sess.ID, "error", err)
		return nil, service.Internal("INTERNAL", "could not load the session state")
	}
	return &request{
		c:     c,
		ctx:   ctx,
		state: st,
		actor: service.Actor{Session: sess, GuildID: st.GuildID},
	}, nil
}

// page builds a full page: nav guild list and pending toasts included.
func (v *Views) page(r *request, title, nav string, data any) (*render.Page, error) {
	p := v.fragmentPage(r, data)
	p.Title = title
	p.Nav = nav

	guilds, err := v.guilds.Guilds(r.ctx, r.actor)
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return nil, err
	case err != nil:
		slog.Warn("loading guild list", "session", r.session().ID, "error", err)
	}
	p.Guilds = guilds
	p.Flashes = v.sessions.Flashes(r.ctx, r.session().ID)
	return p, nil
}

func (v *Views) fragmentPage(r *request, data any) *render.Page {
	return &render.Page{
		Session:  r.state.Session,
		GuildID:  r.state.GuildID,
		Settings: r.state.Settings,
		Data:     data,
	}
}

// show loads a page's data and renders it. Failures render the error page,
// except an expired bot token which ends the session.
func (v *Views) show(c echo.Context, name, title, nav string, load func(r *request) (any, error)) error {
	r, err := v.load(c)
	if err != nil {
		return v.fail(c, err)
	}
	data, err := load(r)
	if err != nil {
		return v.failPage(c, r, title, nav, err)
	}
	p, err := v.page(r, title, nav, data)
	if err != nil {
		return v.fail(c, err)
	}
	return c.Render(http.StatusOK, name, p)
}

// showGuild is show for pages that need a selected guild. Without one the
// page renders empty and its template asks for a server.
func (v *Views) showGuild(c echo.Context, name, title, nav string, empty any, load func(r *request) (any, error)) error {
	return v.show(c, name, title, nav, func(r *request) (any, error) {
		if !r.state.HasGuild() {
			return empty, nil
		}
		return load(r)
	})
}

func (v *Views) failPage(c echo.Context, r *request, title, nav string, err error) error {
	status, _, msg := mapServiceError(err)
	if status == http.StatusUnauthorized {
		return v.guard.Logout(c)
	}
	p, perr := v.page(r, title, nav, render.ErrorView{Message: msg, Retry: c.Request().URL.String()})
	if perr != nil {
		return v.fail(c, perr)
	}
	return c.Render(status, "error", p)
}

// fail answers a request that could not get as far as a page.
func (v *Views) fail(c echo.Context, err error) error {
	status, _, msg := mapServiceError(err)
	if status == http.StatusUnauthorized {
		return v.guard.Logout(c)
	}
	if auth.IsFragment(c) {
		v.setToasts(c, models.Flash{Level: models.FlashError, Message: msg})
		return c.NoContent(status)
	}
	return c.Render(status, "error", &render.Page{Title: "Error", Session: auth.GetSession(c), Data: render.ErrorView{Message: msg}})
}

// action is one form post: run performs it and returns the success toast,
// refresh reloads the fragment it changed. confirm, when set, gates run
// behind confirmed=yes.
type action struct {
	back    string
	confirm *render.Confirm
	run     func(r *request) (string, error)
	refresh func(r *request) (string, any, error)
}

// act runs a form action. Fragment requests get the re-rendered fragment and
// the toast in a header; other requests get a flash and a redirect to back.
func (v *Views) act(c echo.Context, a action) error {
	r, err := v.load(c)
	if err != nil {
		return v.fail(c, err)
	}

	if a.confirm != nil && c.FormValue("confirmed") != "yes" {
		return v.askConfirm(c, r, *a.confirm)
	}

	msg, err := a.run(r)
	if err != nil {
		return v.actionFailed(c, r, a.back, err)
	}

	if !auth.IsFragment(c) {
		v.sessions.Flash(r.ctx, r.session().ID, models.FlashSuccess, msg)
		return c.Redirect(http.StatusSeeOther, a.back)
	}

	v.setToasts(c, models.Flash{Level: models.FlashSuccess, Message: msg})
	if a.refresh == nil {
		return c.NoContent(http.StatusOK)
	}
	name, data, err := a.refresh(r)
	if err != nil {
		// The action went through; only the re-render failed.
		slog.Warn("re-rendering after action", "path", c.Path(), "error", err)
		if errors.Is(err, service.ErrUnauthorized) {
			return v.guard.Logout(c)
		}
		return c.NoContent(http.StatusOK)
	}
	html, err := v.renderer.Fragment(name, v.fragmentPage(r, data))
	if err != nil {
		slog.Error("rendering fragment", "fragment", name, "error", err)
		return c.NoContent(http.StatusOK)
	}
	c.Response().Header().Set(TargetHeader, name)
	return c.HTML(http.StatusOK, html)
}

// actionFailed reports a failed action. Validation problems are warnings,
// everything else an error; the page keeps its previous render.
func (v *Views) actionFailed(c echo.Context, r *request, back string, err error) error {
	status, code, msg := mapServiceError(err)
	if status == http.StatusUnauthorized {
		return v.guard.Logout(c)
	}
	level := models.FlashError
	if service.IsValidation(err) {
		level = models.FlashWarning
	}
	slog.Info("action failed", "path", c.Path(), "session", r.session().ID, "code", code, "error", err)

	if auth.IsFragment(c) {
		v.setToasts(c, models.Flash{Level: level, Message: msg})
		return c.NoContent(status)
	}
	v.sessions.Flash(r.ctx, r.session().ID, level, msg)
	return c.Redirect(http.StatusSeeOther, back)
}

// askConfirm shows the confirmation dialog instead of running the action.
// Nothing reaches the bot until the dialog is submitted.
func (v *Views) askConfirm(c echo.Context, r *request, dlg render.Confirm) error {
	dlg.Action = c.Request().URL.Path
	dlg.Fragment = c.Request().Header.Get(auth.FragmentHeader)
	if dlg.CancelURL == "" {
		dlg.CancelURL = backTo(c, "/dashboard")
	}
	dlg.Fields = map[string]string{}
	if form, err := c.FormParams(); err == nil {
		for k, vals := range form {
			if k == "confirmed" || len(vals) == 0 {
				continue
			}
			dlg.Fields[k] = vals[0]
		}
	}

	if auth.IsFragment(c) {
		html, err := v.renderer.Fragment("confirm_dialog", v.fragmentPage(r, dlg))
		if err != nil {
			return v.fail(c, err)
		}
		c.Response().Header().Set(ConfirmHeader, "1")
		return c.HTML(http.StatusOK, html)
	}
	p, err := v.page(r, dlg.Title, "", dlg)
	if err != nil {
		return v.fail(c, err)
	}
	return c.Render(http.StatusOK, "confirm", p)
}

func (v *Views) setToasts(c echo.Context, flashes ...models.Flash) {
	html, err := v.renderer.Fragment("toasts", &render.Page{Flashes: flashes})
	if err != nil {
		slog.Error("rendering toasts", "error", err)
		return
	}
	c.Response().Header().Set(ToastsHeader, url.PathEscape(html))
}

// HTTPError renders echo errors (unknown routes, permission middleware) in
// the panel's own pages.
func (v *Views) HTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "something went wrong"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	} else {
		slog.Error("unhandled error", "path", c.Path(), "error", err)
	}

	if auth.IsFragment(c) {
		v.setToasts(c, models.Flash{Level: models.FlashError, Message: msg})
		_ = c.NoContent(status)
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	page := &render.Page{Title: http.StatusText(status), Session: auth.GetSession(c), Data: render.ErrorView{Message: msg}}
	if rerr := c.Render(status, "error", page); rerr != nil {
		slog.Error("rendering error page", "error", rerr)
		_ = c.String(status, msg)
	}
}

// mapServiceError turns an error into a status, a code and a message that
// is safe to show.
func mapServiceError(err error) (int, string, string) {
	var se *service.ServiceError
	if errors.As(err, &se) {
		switch {
		case errors.Is(err, service.ErrBadRequest):
			return http.StatusBadRequest, se.Code, se.Message
		case errors.Is(err, service.ErrUnauthorized):
			return http.StatusUnauthorized, se.Code, se.Message
		case errors.Is(err, service.ErrForbidden):
			return http.StatusForbidden, se.Code, se.Message
		case errors.Is(err, service.ErrNotFound):
			return http.StatusNotFound, se.Code, se.Message
		case errors.Is(err, service.ErrConflict):
			return http.StatusConflict, se.Code, se.Message
		case errors.Is(err, service.ErrUnavailable):
			return http.StatusServiceUnavailable, se.Code, se.Message
		}
		return http.StatusInternalServerError, se.Code, se.Message
	}

	// Raw bot and refresher errors reach here from the dashboard.
	switch {
	case errors.Is(err, state.ErrNoGuildSelected):
		return http.StatusBadRequest, "NO_GUILD", "select a server first"
	case errors.Is(err, state.ErrSuperseded):
		return http.StatusConflict, "SUPERSEDED", "the selected server changed, reload the page"
	case errors.Is(err, botapi.ErrUnauthorized):
		return http.StatusUnauthorized, "SESSION_EXPIRED", "your session has expired, please log in again"
	case errors.Is(err, botapi.ErrBotNotReady):
		return http.StatusServiceUnavailable, "BOT_NOT_READY", "the bot is still starting, try again in a moment"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "BOT_TIMEOUT", "the bot did not answer in time"
	}
	var apiErr *botapi.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway, "BOT_ERROR", apiErr.Message
	}
	return http.StatusInternalServerError, "INTERNAL", "something went wrong"
}

// ---------------------------------------------------------------------------
// Form helpers
// ---------------------------------------------------------------------------

// formID parses a required snowflake form or query value.
func formID(c echo.Context, name string) (snowflake.ID, error) {
	id, err := snowflake.ParseOptional(c.FormValue(name))
	if err != nil {
		return 0, service.BadRequest("INVALID_ID", "invalid "+strings.ReplaceAll(name, "_", " "))
	}
	return id, nil
}

// paramID parses a snowflake path parameter.
func paramID(c echo.Context, name string) (snowflake.ID, error) {
	id, err := snowflake.Parse(c.Param(name))
	if err != nil {
		return 0, service.BadRequest("INVALID_ID", "invalid "+name)
	}
	return id, nil
}

// formInt parses an integer form value, def when empty.
func formInt(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.FormValue(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, service.BadRequest("INVALID_NUMBER", strings.ReplaceAll(name, "_", " ")+" must be a number")
	}
	return n, nil
}

// formBool reads a checkbox.
func formBool(c echo.Context, name string) bool {
	switch strings.ToLower(c.FormValue(name)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// backTo returns the same-site Referer path, or fallback.
func backTo(c echo.Context, fallback string) string {
	ref := c.Request().Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Request().Host) || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	if u.Path == auth.LoginPath {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

func roleOf(c echo.Context) string {
	if sess := auth.GetSession(c); sess != nil {
		return sess.Role
	}
	return ""
}
