package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
)

// ModerationHandler serves the moderation page and its member actions.
type ModerationHandler struct {
	views      *Views
	moderation *service.ModerationService
	guilds     *service.GuildService
	channels   *service.ChannelService
	now        func() time.Time
}

// NewModerationHandler creates a ModerationHandler.
func NewModerationHandler(views *Views, moderation *service.ModerationService, guilds *service.GuildService, channels *service.ChannelService) *ModerationHandler {
	return &ModerationHandler{views: views, moderation: moderation, guilds: guilds, channels: channels, now: time.Now}
}

type moderationRequest struct {
	Reason     string `form:"reason"`
	Duration   int    `form:"duration"`
	DeleteDays int    `form:"delete_days"`
}

func bindModeration(c echo.Context) (service.ActionInput, error) {
	var req moderationRequest
	if err := c.Bind(&req); err != nil {
		return service.ActionInput{}, service.BadRequest("INVALID_BODY", "invalid form")
	}
	userID, err := formID(c, "user_id")
	if err != nil {
		return service.ActionInput{}, err
	}
	logChannelID, err := formID(c, "log_channel_id")
	if err != nil {
		return service.ActionInput{}, err
	}
	return service.ActionInput{
		UserID:       userID,
		Reason:       req.Reason,
		LogChannelID: logChannelID,
		Duration:     req.Duration,
		DeleteDays:   req.DeleteDays,
	}, nil
}

// Moderation handles GET /moderation?tab=.
func (h *ModerationHandler) Moderation(c echo.Context) error {
	tab := render.ValidTab(c.QueryParam("tab"))
	return h.views.showGuild(c, "moderation", "Moderation", "moderation", &render.ModerationView{Tab: tab}, func(r *request) (any, error) {
		view, err := h.punishments(r, tab)
		if err != nil {
			return nil, err
		}
		// The form pickers and the history are secondary to the lists.
		if view.History, err = h.moderation.History(r.ctx, r.actor, service.HistoryLimit); err != nil {
			slog.Warn("loading moderation history", "error", err)
		}
		if view.Members, err = h.guilds.Members(r.ctx, r.actor, ""); err != nil {
			slog.Warn("loading member picker", "error", err)
		}
		channels, err := h.channels.Channels(r.ctx, r.actor)
		if err != nil {
			slog.Warn("loading log channel picker", "error", err)
		}
		view.Channels = models.FilterChannels(channels, models.ChannelTypeText)
		return view, nil
	})
}

func (h *ModerationHandler) punishments(r *request, tab string) (*render.ModerationView, error) {
	p, err := h.moderation.Punishments(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	return &render.ModerationView{
		Tab:      tab,
		Mutes:    p.MuteList(),
		Bans:     p.BanList(),
		Warnings: p.WarningList(),
		Now:      h.now(),
	}, nil
}

func (h *ModerationHandler) refresh(c echo.Context, fallback string) func(r *request) (string, any, error) {
	return func(r *request) (string, any, error) {
		tab := fallback
		if t := c.FormValue("tab"); t != "" {
			tab = render.ValidTab(t)
		}
		view, err := h.punishments(r, tab)
		return "punishments", view, err
	}
}

func moderationPath(tab string) string {
	return "/moderation?tab=" + tab
}

// Mute handles POST /moderation/mute.
func (h *ModerationHandler) Mute(c echo.Context) error {
	return h.views.act(c, action{
		back: moderationPath(render.TabMutes),
		run: func(r *request) (string, error) {
			in, err := bindModeration(c)
			if err != nil {
				return "", err
			}
			if err := h.moderation.Mute(r.ctx, r.actor, in); err != nil {
				return "", err
			}
			return fmt.Sprintf("Member muted for %s", time.Duration(in.Duration)*time.Second), nil
		},
		refresh: h.refresh(c, render.TabMutes),
	})
}

// Unmute handles POST /moderation/unmute.
func (h *ModerationHandler) Unmute(c echo.Context) error {
	return h.views.act(c, action{
		back: moderationPath(render.TabMutes),
		confirm: &render.Confirm{
			Title:   "Unmute member",
			Message: "Lift this member's timeout now?",
			Label:   "Unmute",
		},
		run: func(r *request) (string, error) {
			in, err := bindModeration(c)
			if err != nil {
				return "", err
			}
			if err := h.moderation.Unmute(r.ctx, r.actor, in); err != nil {
				return "", err
			}
			return "Member unmuted", nil
		},
		refresh: h.refresh(c, render.TabMutes),
	})
}

// Warn handles POST /moderation/warn.
func (h *ModerationHandler) Warn(c echo.Context) error {
	return h.views.act(c, action{
		back: moderationPath(render.TabWarnings),
		run: func(r *request) (string, error) {
			in, err := bindModeration(c)
			if err != nil {
				return "", err
			}
			res, err := h.moderation.Warn(r.ctx, r.actor, in)
			if err != nil {
				return "", err
			}
			if res.AutoBanned {
				return fmt.Sprintf("Member reached %d warnings and was banned", res.Warnings), nil
			}
			return fmt.Sprintf("Warning issued (%d/%d)", res.Warnings, models.AutoBanWarnings), nil
		},
		refresh: h.refresh(c, render.TabWarnings),
	})
}

// ClearWarnings handles POST /moderation/clear-warnings.
func (h *ModerationHandler) ClearWarnings(c echo.Context) error {
	return h.views.act(c, action{
		back: moderationPath(render.TabWarnings),
		confirm: &render.Confirm{
			Title:   "Clear warnings",
			Message: "Remove every warning of this member?",
			Label:   "Clear warnings",
		},
		run: func(r *request) (string, error) {
			userID, err := formID(c, "user_id")
			if err != nil {
				return "", err
			}
			if err := h.moderation.ClearWarnings(r.ctx, r.actor, userID); err != nil {
				return "", err
			}
			return "Warnings cleared", nil
		},
		refresh: h.refresh(c, render.TabWarnings),
	})
}

// Kick handles POST /moderation/kick.
func (h *ModerationHandler) Kick(c echo.Context) error {
	return h.views.act(c, action{
		back: moderationPath(render.TabMutes),
		confirm: &render.Confirm{
			Title:   "Kick member",
			Message: "Remove this member from the server? They can rejoin with an invite.",
			Label:   "Kick",
		},
		run: func(r *request) (string, error) {
			in, err := bindModeration(c)
			if err != nil {
				return "", err
			}
			if err := h.moderation.Kick(r.ctx, r.actor, in); err != nil {
				return "", err
			}
			return "Member kicked", nil
		},
		refresh: h.refresh(c, render.TabMutes),
	})
}

// Ban handles POST /moderation/ban.
func (h *ModerationHandler) Ban(c echo.Context) error {
	return h.views.act(c, action{
		back: moderationPath(render.TabBans),
		confirm: &render.Confirm{
			Title:   "Ban member",
			Message: "Ban this member from the server? They cannot rejoin until unbanned.",
			Label:   "Ban",
		},
		run: func(r *request) (string, error) {
			in, err := bindModeration(c)
			if err != nil {
				return "", err
			}
			if err := h.moderation.Ban(r.ctx, r.actor, in); err != nil {
				return "", err
			}
			return "Member banned", nil
		},
		refresh: h.refresh(c, render.TabBans),
	})
}

// Unban handles POST /moderation/unban.
func (h *ModerationHandler) Unban(c echo.Context) error {
	return h.views.act(c, action{
		back: moderationPath(render.TabBans),
		confirm: &render.Confirm{
			Title:   "Unban user",
			Message: "Lift this ban? The user will be able to rejoin.",
			Label:   "Unban",
		},
		run: func(r *request) (string, error) {
			userID, err := formID(c, "user_id")
			if err != nil {
				return "", err
			}
			if err := h.moderation.Unban(r.ctx, r.actor, userID); err != nil {
				return "", err
			}
			return "User unbanned", nil
		},
		refresh: h.refresh(c, render.TabBans),
	})
}
