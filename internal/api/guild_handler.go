package api

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
	"github.com/WoushouW/woushBOT/internal/state"
)

// GuildHandler serves the dashboard and the guild selection.
type GuildHandler struct {
	views  *Views
	guilds *service.GuildService
	feeds  *service.FeedService
	state  *state.Refresher
}

// NewGuildHandler creates a GuildHandler.
func NewGuildHandler(views *Views, guilds *service.GuildService, feeds *service.FeedService, st *state.Refresher) *GuildHandler {
	return &GuildHandler{views: views, guilds: guilds, feeds: feeds, state: st}
}

// Dashboard handles GET /dashboard.
func (h *GuildHandler) Dashboard(c echo.Context) error {
	return h.views.showGuild(c, "dashboard", "Dashboard", "dashboard", &render.DashboardView{}, func(r *request) (any, error) {
		snap, err := h.state.Current(r.ctx, r.state)
		if err != nil {
			return nil, err
		}
		view := &render.DashboardView{Bot: snap.Bot, Stats: snap.Stats, FetchedAt: snap.FetchedAt}
		if snap.Guild != nil {
			view.Guild = &snap.Guild.Guild
		}
		// The feed is secondary; the overview still renders without it.
		if recent, err := h.feeds.Activity(r.ctx, r.actor, "all", service.RecentActivityLimit); err == nil {
			view.Recent = recent
		}
		return view, nil
	})
}

// SelectGuild handles POST /guild/select.
func (h *GuildHandler) SelectGuild(c echo.Context) error {
	return h.views.act(c, action{
		back: backTo(c, "/dashboard"),
		run: func(r *request) (string, error) {
			id, err := formID(c, "guild_id")
			if err != nil {
				return "", err
			}
			if id.IsZero() {
				return "", service.BadRequest("NO_GUILD", "select a server first")
			}
			guild, err := h.guilds.Guild(r.ctx, r.actor, id)
			if err != nil {
				return "", err
			}
			if _, err := h.state.Select(r.ctx, r.session(), id); err != nil {
				return "", service.Internal("INTERNAL", "could not save the selected server")
			}
			return fmt.Sprintf("Switched to %s", guild.Name), nil
		},
	})
}

// Refresh handles POST /refresh: it drops the cached snapshot and fetches a
// new one.
func (h *GuildHandler) Refresh(c echo.Context) error {
	return h.views.act(c, action{
		back: backTo(c, permissions.HomePath(roleOf(c))),
		run: func(r *request) (string, error) {
			if !r.state.HasGuild() {
				return "", service.BadRequest("NO_GUILD", "select a server first")
			}
			if err := h.state.Invalidate(r.ctx, r.session()); err != nil {
				return "", service.Internal("INTERNAL", "could not refresh")
			}
			if _, err := h.state.Refresh(r.ctx, r.session()); err != nil {
				return "", err
			}
			return "Data refreshed", nil
		},
	})
}
