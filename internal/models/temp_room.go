package models

import (
	"time"

	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// Temp room bounds enforced by the bot.
const (
	TempRoomNameMax     = 30
	TempRoomDurationMin = 1
	TempRoomDurationMax = 90
	TempRoomLimitMin    = 1
	TempRoomLimitMax    = 50
)

type TempRoom struct {
	ChannelID snowflake.ID `json:"channel_id"`
	RoomName  string       `json:"room_name"`
	FullName  string       `json:"full_name"`
	OwnerID   snowflake.ID `json:"owner_id"`
	OwnerName string       `json:"owner_name"`
	RoleID    snowflake.ID `json:"role_id"`
	Duration  int          `json:"duration"`
	UserLimit int          `json:"user_limit"`
	CreatedAt Timestamp    `json:"created_at"`
	ExpiresAt Timestamp    `json:"expires_at"`
	GuildID   snowflake.ID `json:"guild_id"`
	GuildName string       `json:"guild_name"`
}

// Remaining is the time left until expiry at now, never negative.
func (r TempRoom) Remaining(now time.Time) time.Duration {
	if r.ExpiresAt.IsZero() {
		return 0
	}
	d := r.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// TempRoomRequest is the create payload.
type TempRoomRequest struct {
	RoomName        string       `json:"room_name"`
	DurationMinutes int          `json:"duration_minutes"`
	UserLimit       int          `json:"user_limit"`
	MessageID       snowflake.ID `json:"message_id"`
	UserID          snowflake.ID `json:"user_id"`
	ChannelID       snowflake.ID `json:"channel_id"`
	MessageText     string       `json:"message_text"`
}

// TempRoomCreated is returned after a room is provisioned.
type TempRoomCreated struct {
	ChannelID snowflake.ID `json:"channel_id"`
	RoleID    snowflake.ID `json:"role_id"`
	RoomName  string       `json:"room_name"`
}
