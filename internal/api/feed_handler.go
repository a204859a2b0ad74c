package api

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/database"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
)

// Leaderboard windows offered on the stats page.
var statsPeriods = []string{"7", "30", "90", "all"}

const statsTop = 50

// FeedHandler serves the activity feed, the leaderboard, the suspicious
// message review and the panel audit log.
type FeedHandler struct {
	views    *Views
	feeds    *service.FeedService
	channels *service.ChannelService
	audit    *service.AuditService
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(views *Views, feeds *service.FeedService, channels *service.ChannelService, audit *service.AuditService) *FeedHandler {
	return &FeedHandler{views: views, feeds: feeds, channels: channels, audit: audit}
}

// Activity handles GET /activity?filter=.
func (h *FeedHandler) Activity(c echo.Context) error {
	filter := c.QueryParam("filter")
	if !models.ValidActivityFilter(filter) {
		filter = "all"
	}
	return h.views.show(c, "activity", "Activity", "activity", func(r *request) (any, error) {
		items, err := h.feeds.Activity(r.ctx, r.actor, filter, service.ActivityFeedLimit)
		if err != nil {
			return nil, err
		}
		return render.ActivityView{Filter: filter, Filters: models.ActivityFilters, Items: items}, nil
	})
}

// ActivityStats handles GET /activity/stats?period=.
func (h *FeedHandler) ActivityStats(c echo.Context) error {
	period := service.NormalizePeriod(c.QueryParam("period"))
	empty := render.StatsView{Period: period, Periods: statsPeriods}
	return h.views.showGuild(c, "activity_stats", "Leaderboard", "activity", empty, func(r *request) (any, error) {
		stats, err := h.feeds.ActivityStats(r.ctx, r.actor, period, statsTop)
		if err != nil {
			return nil, err
		}
		return render.StatsView{Period: stats.Period, Periods: statsPeriods, Users: stats.Users}, nil
	})
}

// Suspicious handles GET /suspicious.
func (h *FeedHandler) Suspicious(c echo.Context) error {
	return h.views.showGuild(c, "suspicious", "Suspicious messages", "suspicious", &render.SuspiciousView{}, func(r *request) (any, error) {
		view, err := h.suspiciousConfig(r)
		if err != nil {
			return nil, err
		}
		if view.Messages, err = h.feeds.SuspiciousMessages(r.ctx, r.actor); err != nil {
			return nil, err
		}
		return view, nil
	})
}

func (h *FeedHandler) suspiciousConfig(r *request) (*render.SuspiciousView, error) {
	cfg, err := h.feeds.SuspiciousConfig(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	channels, err := h.channels.Channels(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	return &render.SuspiciousView{Config: cfg, Channels: models.FilterChannels(channels, models.ChannelTypeText)}, nil
}

func (h *FeedHandler) refreshSuspicious(r *request) (string, any, error) {
	view, err := h.suspiciousConfig(r)
	return "suspicious_config", view, err
}

// AddTrigger handles POST /suspicious/triggers/add.
func (h *FeedHandler) AddTrigger(c echo.Context) error {
	return h.views.act(c, action{
		back: "/suspicious",
		run: func(r *request) (string, error) {
			word := c.FormValue("trigger")
			if err := h.feeds.AddTrigger(r.ctx, r.actor, word); err != nil {
				return "", err
			}
			return fmt.Sprintf("Trigger %q added", strings.TrimSpace(word)), nil
		},
		refresh: h.refreshSuspicious,
	})
}

// RemoveTrigger handles POST /suspicious/triggers/remove.
func (h *FeedHandler) RemoveTrigger(c echo.Context) error {
	return h.views.act(c, action{
		back: "/suspicious",
		run: func(r *request) (string, error) {
			word := c.FormValue("trigger")
			if err := h.feeds.RemoveTrigger(r.ctx, r.actor, word); err != nil {
				return "", err
			}
			return fmt.Sprintf("Trigger %q removed", strings.TrimSpace(word)), nil
		},
		refresh: h.refreshSuspicious,
	})
}

// AddExcludedChannel handles POST /suspicious/channels/add.
func (h *FeedHandler) AddExcludedChannel(c echo.Context) error {
	return h.views.act(c, action{
		back: "/suspicious",
		run: func(r *request) (string, error) {
			channelID, err := formID(c, "channel_id")
			if err != nil {
				return "", err
			}
			if err := h.feeds.AddExcludedChannel(r.ctx, r.actor, channelID); err != nil {
				return "", err
			}
			return "Channel excluded from the filter", nil
		},
		refresh: h.refreshSuspicious,
	})
}

// RemoveExcludedChannel handles POST /suspicious/channels/remove.
func (h *FeedHandler) RemoveExcludedChannel(c echo.Context) error {
	return h.views.act(c, action{
		back: "/suspicious",
		run: func(r *request) (string, error) {
			channelID, err := formID(c, "channel_id")
			if err != nil {
				return "", err
			}
			if err := h.feeds.RemoveExcludedChannel(r.ctx, r.actor, channelID); err != nil {
				return "", err
			}
			return "Channel is filtered again", nil
		},
		refresh: h.refreshSuspicious,
	})
}

// Audit handles GET /audit?action=&offset=.
func (h *FeedHandler) Audit(c echo.Context) error {
	filter := strings.TrimSpace(c.QueryParam("action"))
	return h.views.show(c, "audit", "Panel audit", "audit", func(r *request) (any, error) {
		offset, err := formInt(c, "offset", 0)
		if err != nil {
			return nil, err
		}
		if offset < 0 {
			offset = 0
		}
		page, err := h.audit.List(r.ctx, r.actor, filter, database.DefaultAuditLimit, offset)
		if err != nil {
			return nil, err
		}
		return render.AuditView{
			Entries: page.Entries,
			Total:   page.Total,
			Action:  filter,
			Offset:  page.Filter.Offset,
			Limit:   database.DefaultAuditLimit,
		}, nil
	})
}
