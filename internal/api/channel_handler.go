package api

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
)

// ChannelHandler serves the channel tree.
type ChannelHandler struct {
	views    *Views
	channels *service.ChannelService
}

// NewChannelHandler creates a ChannelHandler.
func NewChannelHandler(views *Views, channels *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{views: views, channels: channels}
}

// ListChannels handles GET /channels.
func (h *ChannelHandler) ListChannels(c echo.Context) error {
	return h.views.showGuild(c, "channels", "Channels", "channels", render.ChannelsView{}, h.load)
}

func (h *ChannelHandler) load(r *request) (any, error) {
	channels, err := h.channels.Channels(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	return render.ChannelsView{Tree: models.BuildChannelTree(channels)}, nil
}

func (h *ChannelHandler) refresh(r *request) (string, any, error) {
	view, err := h.load(r)
	return "channel_list", view, err
}

type createChannelRequest struct {
	Name  string `form:"name"`
	Type  string `form:"type"`
	Topic string `form:"topic"`
}

// CreateChannel handles POST /channels.
func (h *ChannelHandler) CreateChannel(c echo.Context) error {
	return h.views.act(c, action{
		back: "/channels",
		run: func(r *request) (string, error) {
			var req createChannelRequest
			if err := c.Bind(&req); err != nil {
				return "", service.BadRequest("INVALID_BODY", "invalid form")
			}
			_, err := h.channels.CreateChannel(r.ctx, r.actor, service.CreateChannelInput{
				Name:  req.Name,
				Type:  req.Type,
				Topic: req.Topic,
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Channel %s created", req.Name), nil
		},
		refresh: h.refresh,
	})
}

// DeleteChannel handles POST /channels/:id/delete.
func (h *ChannelHandler) DeleteChannel(c echo.Context) error {
	return h.views.act(c, action{
		back: "/channels",
		confirm: &render.Confirm{
			Title:   "Delete channel",
			Message: "Delete this channel and all of its messages? This cannot be undone.",
			Label:   "Delete channel",
		},
		run: func(r *request) (string, error) {
			channelID, err := paramID(c, "id")
			if err != nil {
				return "", err
			}
			if err := h.channels.DeleteChannel(r.ctx, r.actor, channelID); err != nil {
				return "", err
			}
			return "Channel deleted", nil
		},
		refresh: h.refresh,
	})
}
