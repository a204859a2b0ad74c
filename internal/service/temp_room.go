package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// TempRoomService provisions and removes temporary voice rooms.
type TempRoomService struct {
	bot   *botapi.Client
	audit *AuditService
}

// NewTempRoomService creates a TempRoomService.
func NewTempRoomService(bot *botapi.Client, audit *AuditService) *TempRoomService {
	return &TempRoomService{bot: bot, audit: audit}
}

// List returns the active rooms, soonest expiry first.
func (s *TempRoomService) List(ctx context.Context, a Actor) ([]models.TempRoom, error) {
	if err := requireGuild(a, permissions.PermManageTempRooms); err != nil {
		return nil, err
	}
	rooms, err := botFor(s.bot, a).TempRooms(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	if rooms == nil {
		rooms = []models.TempRoom{}
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].ExpiresAt.Before(rooms[j].ExpiresAt.Time)
	})
	return rooms, nil
}

// ValidateTempRoom checks a create request against the bot's bounds.
func ValidateTempRoom(req *models.TempRoomRequest) error {
	req.RoomName = strings.TrimSpace(req.RoomName)
	if req.RoomName == "" {
		return BadRequest("NAME_REQUIRED", "enter a room name")
	}
	if utf8.RuneCountInString(req.RoomName) > models.TempRoomNameMax {
		return BadRequest("NAME_TOO_LONG", fmt.Sprintf("room name must be at most %d characters", models.TempRoomNameMax))
	}
	if req.DurationMinutes < models.TempRoomDurationMin || req.DurationMinutes > models.TempRoomDurationMax {
		return BadRequest("INVALID_DURATION", fmt.Sprintf("duration must be between %d and %d minutes",
			models.TempRoomDurationMin, models.TempRoomDurationMax))
	}
	if req.UserLimit < models.TempRoomLimitMin || req.UserLimit > models.TempRoomLimitMax {
		return BadRequest("INVALID_LIMIT", fmt.Sprintf("user limit must be between %d and %d",
			models.TempRoomLimitMin, models.TempRoomLimitMax))
	}
	if req.MessageID.IsZero() || req.UserID.IsZero() || req.ChannelID.IsZero() {
		return BadRequest("MESSAGE_REQUIRED", "pick the request message from the list")
	}
	return nil
}

// Create provisions a room for the author of the chosen request message.
func (s *TempRoomService) Create(ctx context.Context, a Actor, req models.TempRoomRequest) (*models.TempRoomCreated, error) {
	if err := requireGuild(a, permissions.PermManageTempRooms); err != nil {
		return nil, err
	}
	if err := ValidateTempRoom(&req); err != nil {
		return nil, err
	}
	created, err := botFor(s.bot, a).CreateTempRoom(ctx, a.GuildID, req)
	if err != nil {
		return nil, fromBot(err)
	}
	s.audit.Record(ctx, a, "temp_room.create", created.ChannelID.String(),
		fmt.Sprintf("%s for %s, %d min, %d users", req.RoomName, req.UserID, req.DurationMinutes, req.UserLimit))
	return created, nil
}

// Delete removes a room before it expires.
func (s *TempRoomService) Delete(ctx context.Context, a Actor, channelID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermManageTempRooms); err != nil {
		return err
	}
	if channelID.IsZero() {
		return BadRequest("INVALID_ROOM", "choose a room")
	}
	if err := botFor(s.bot, a).DeleteTempRoom(ctx, a.GuildID, channelID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "temp_room.delete", channelID.String(), "")
	return nil
}

// RequestMessages returns recent messages of the request channel so the room
// manager can pick whose room to create.
func (s *TempRoomService) RequestMessages(ctx context.Context, a Actor, channelID snowflake.ID, limit int) ([]models.Message, error) {
	if err := requireGuild(a, permissions.PermManageTempRooms); err != nil {
		return nil, err
	}
	if channelID.IsZero() {
		return nil, BadRequest("INVALID_CHANNEL", "choose a channel")
	}
	msgs, err := botFor(s.bot, a).ChannelMessages(ctx, channelID, limit)
	if err != nil {
		return nil, fromBot(err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}
