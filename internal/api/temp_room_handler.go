package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
)

// TempRoomHandler serves the temporary voice rooms page.
type TempRoomHandler struct {
	views    *Views
	rooms    *service.TempRoomService
	channels *service.ChannelService
	now      func() time.Time
}

// NewTempRoomHandler creates a TempRoomHandler.
func NewTempRoomHandler(views *Views, rooms *service.TempRoomService, channels *service.ChannelService) *TempRoomHandler {
	return &TempRoomHandler{views: views, rooms: rooms, channels: channels, now: time.Now}
}

// ListTempRooms handles GET /temp-rooms?channel_id=. The channel is where
// room requests are posted; its recent messages are listed for picking.
func (h *TempRoomHandler) ListTempRooms(c echo.Context) error {
	return h.views.showGuild(c, "temp_rooms", "Temp rooms", "temp-rooms", &render.TempRoomsView{}, func(r *request) (any, error) {
		channelID, err := formID(c, "channel_id")
		if err != nil {
			return nil, err
		}
		view, err := h.active(r)
		if err != nil {
			return nil, err
		}
		channels, err := h.channels.Channels(r.ctx, r.actor)
		if err != nil {
			return nil, err
		}
		view.Channels = models.FilterChannels(channels, models.ChannelTypeText)
		view.ChannelID = channelID
		if !channelID.IsZero() {
			if view.Messages, err = h.rooms.RequestMessages(r.ctx, r.actor, channelID, botapi.DefaultMessageBatch); err != nil {
				return nil, err
			}
		}
		return view, nil
	})
}

func (h *TempRoomHandler) active(r *request) (*render.TempRoomsView, error) {
	rooms, err := h.rooms.List(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	return &render.TempRoomsView{Rooms: rooms, Now: h.now()}, nil
}

func (h *TempRoomHandler) refresh(r *request) (string, any, error) {
	view, err := h.active(r)
	return "temp_room_list", view, err
}

type createTempRoomRequest struct {
	RoomName    string `form:"room_name"`
	Duration    int    `form:"duration"`
	UserLimit   int    `form:"user_limit"`
	MessageText string `form:"message_text"`
}

// CreateTempRoom handles POST /temp-rooms.
func (h *TempRoomHandler) CreateTempRoom(c echo.Context) error {
	back := "/temp-rooms"
	if id := c.FormValue("channel_id"); id != "" {
		back += "?channel_id=" + id
	}
	return h.views.act(c, action{
		back: back,
		run: func(r *request) (string, error) {
			var req createTempRoomRequest
			if err := c.Bind(&req); err != nil {
				return "", service.BadRequest("INVALID_BODY", "duration and user limit must be numbers")
			}
			in := models.TempRoomRequest{
				RoomName:        req.RoomName,
				DurationMinutes: req.Duration,
				UserLimit:       req.UserLimit,
				MessageText:     req.MessageText,
			}
			var err error
			if in.ChannelID, err = formID(c, "channel_id"); err != nil {
				return "", err
			}
			if in.MessageID, err = formID(c, "message_id"); err != nil {
				return "", err
			}
			if in.UserID, err = formID(c, "user_id"); err != nil {
				return "", err
			}
			created, err := h.rooms.Create(r.ctx, r.actor, in)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Room %s created for %d minutes", created.RoomName, in.DurationMinutes), nil
		},
		refresh: h.refresh,
	})
}

// DeleteTempRoom handles POST /temp-rooms/:id/delete.
func (h *TempRoomHandler) DeleteTempRoom(c echo.Context) error {
	return h.views.act(c, action{
		back: "/temp-rooms",
		confirm: &render.Confirm{
			Title:   "Delete room",
			Message: "Close this room now? Everyone in it is disconnected.",
			Label:   "Delete room",
		},
		run: func(r *request) (string, error) {
			channelID, err := paramID(c, "id")
			if err != nil {
				return "", err
			}
			if err := h.rooms.Delete(r.ctx, r.actor, channelID); err != nil {
				return "", err
			}
			return "Room deleted", nil
		},
		refresh: h.refresh,
	})
}
