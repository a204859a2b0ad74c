package botapi

import (
	"context"
	"fmt"

	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// TimeoutRequest mutes a member. Duration is in seconds.
type TimeoutRequest struct {
	Duration     int           `json:"duration"`
	Reason       string        `json:"reason,omitempty"`
	LogChannelID *snowflake.ID `json:"log_channel_id,omitempty"`
}

// ActionRequest is the body of kick, warn and untimeout.
type ActionRequest struct {
	Reason       string        `json:"reason,omitempty"`
	LogChannelID *snowflake.ID `json:"log_channel_id,omitempty"`
}

type BanRequest struct {
	Reason            string        `json:"reason,omitempty"`
	DeleteMessageDays int           `json:"delete_message_days"`
	LogChannelID      *snowflake.ID `json:"log_channel_id,omitempty"`
}

// LogChannel returns nil for the zero ID so the field is omitted.
func LogChannel(id snowflake.ID) *snowflake.ID {
	if id.IsZero() {
		return nil
	}
	return &id
}

func memberPath(guildID, userID snowflake.ID, action string) string {
	return fmt.Sprintf("/api/guilds/%s/members/%s/%s", guildID, userID, action)
}

func (c *Client) Timeout(ctx context.Context, guildID, userID snowflake.ID, req TimeoutRequest) error {
	return c.post(ctx, memberPath(guildID, userID, "timeout"), req, nil)
}

func (c *Client) Untimeout(ctx context.Context, guildID, userID snowflake.ID, req ActionRequest) error {
	return c.post(ctx, memberPath(guildID, userID, "untimeout"), req, nil)
}

func (c *Client) Kick(ctx context.Context, guildID, userID snowflake.ID, req ActionRequest) error {
	return c.post(ctx, memberPath(guildID, userID, "kick"), req, nil)
}

func (c *Client) Ban(ctx context.Context, guildID, userID snowflake.ID, req BanRequest) error {
	return c.post(ctx, memberPath(guildID, userID, "ban"), req, nil)
}

func (c *Client) Unban(ctx context.Context, guildID, userID snowflake.ID) error {
	return c.delete(ctx, fmt.Sprintf("/api/guilds/%s/bans/%s", guildID, userID))
}

// Warn adds a warning. The bot bans automatically at models.AutoBanWarnings.
func (c *Client) Warn(ctx context.Context, guildID, userID snowflake.ID, req ActionRequest) (*models.WarnResult, error) {
	var res models.WarnResult
	if err := c.post(ctx, memberPath(guildID, userID, "warn"), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) MemberWarnings(ctx context.Context, guildID, userID snowflake.ID) (int, error) {
	var res models.WarningCount
	if err := c.get(ctx, memberPath(guildID, userID, "warnings"), nil, &res); err != nil {
		return 0, err
	}
	return res.Warnings, nil
}

func (c *Client) ClearWarnings(ctx context.Context, guildID, userID snowflake.ID) error {
	return c.delete(ctx, memberPath(guildID, userID, "warnings"))
}

func (c *Client) Punishments(ctx context.Context, guildID snowflake.ID) (*models.Punishments, error) {
	var p models.Punishments
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/punishments", guildID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
