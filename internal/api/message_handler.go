package api

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// MessageHandler serves the message browser, sending and bulk deletion.
type MessageHandler struct {
	views    *Views
	channels *service.ChannelService
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(views *Views, channels *service.ChannelService) *MessageHandler {
	return &MessageHandler{views: views, channels: channels}
}

// ListMessages handles GET /messages?channel_id=&limit=.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	empty := render.MessagesView{Limit: botapi.DefaultMessageBatch}
	return h.views.showGuild(c, "messages", "Messages", "messages", empty, func(r *request) (any, error) {
		channelID, err := formID(c, "channel_id")
		if err != nil {
			return nil, err
		}
		limit, err := formInt(c, "limit", botapi.DefaultMessageBatch)
		if err != nil {
			return nil, err
		}
		return h.load(r, channelID, limit)
	})
}

func (h *MessageHandler) load(r *request, channelID snowflake.ID, limit int) (*render.MessagesView, error) {
	channels, err := h.channels.Channels(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	view := &render.MessagesView{
		Channels:  models.FilterChannels(channels, models.ChannelTypeText),
		ChannelID: channelID,
		Limit:     clampLimit(limit),
	}
	if channelID.IsZero() {
		return view, nil
	}
	view.Messages, err = h.channels.Messages(r.ctx, r.actor, channelID, view.Limit)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (h *MessageHandler) refresh(c echo.Context) func(r *request) (string, any, error) {
	return func(r *request) (string, any, error) {
		channelID, _ := formID(c, "channel_id")
		view, err := h.load(r, channelID, botapi.DefaultMessageBatch)
		return "message_list", view, err
	}
}

func clampLimit(n int) int {
	if n <= 0 {
		return botapi.DefaultMessageBatch
	}
	if n > botapi.MaxMessageBatch {
		return botapi.MaxMessageBatch
	}
	return n
}

type sendMessageRequest struct {
	Content          string `form:"content"`
	EmbedTitle       string `form:"embed_title"`
	EmbedDescription string `form:"embed_description"`
	EmbedColor       string `form:"embed_color"`
	EmbedFooter      string `form:"embed_footer"`
}

// SendMessage handles POST /messages/send.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	return h.views.act(c, action{
		back: messagesPath(c),
		run: func(r *request) (string, error) {
			channelID, err := formID(c, "channel_id")
			if err != nil {
				return "", err
			}
			var req sendMessageRequest
			if err := c.Bind(&req); err != nil {
				return "", service.BadRequest("INVALID_BODY", "invalid form")
			}
			_, err = h.channels.SendMessage(r.ctx, r.actor, channelID, service.SendMessageInput{
				Content:          req.Content,
				EmbedTitle:       req.EmbedTitle,
				EmbedDescription: req.EmbedDescription,
				EmbedColor:       req.EmbedColor,
				EmbedFooter:      req.EmbedFooter,
			})
			if err != nil {
				return "", err
			}
			return "Message sent", nil
		},
		refresh: h.refresh(c),
	})
}

// BulkDelete handles POST /messages/bulk-delete.
func (h *MessageHandler) BulkDelete(c echo.Context) error {
	return h.views.act(c, action{
		back: messagesPath(c),
		confirm: &render.Confirm{
			Title:   "Delete messages",
			Message: "Delete the most recent messages of this channel? Deleted messages cannot be restored.",
			Label:   "Delete messages",
		},
		run: func(r *request) (string, error) {
			channelID, err := formID(c, "channel_id")
			if err != nil {
				return "", err
			}
			limit, err := formInt(c, "limit", 0)
			if err != nil {
				return "", err
			}
			n, err := h.channels.BulkDelete(r.ctx, r.actor, channelID, limit)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d message%s deleted", n, plural(n)), nil
		},
		refresh: h.refresh(c),
	})
}

func messagesPath(c echo.Context) string {
	if id := c.FormValue("channel_id"); id != "" {
		if _, err := strconv.ParseInt(id, 10, 64); err == nil {
			return "/messages?channel_id=" + id
		}
	}
	return "/messages"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
