package botapi

import (
	"context"
	"fmt"

	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

func (c *Client) ReactionRoles(ctx context.Context, guildID snowflake.ID) (map[snowflake.ID]models.ReactionRole, error) {
	rr := map[snowflake.ID]models.ReactionRole{}
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/reaction-roles", guildID), nil, &rr); err != nil {
		return nil, err
	}
	return rr, nil
}

// ReactionRoleRequest posts a new role-picker message.
type ReactionRoleRequest struct {
	ChannelID snowflake.ID             `json:"channel_id"`
	Message   string                   `json:"message"`
	Reactions []models.ReactionBinding `json:"reactions"`
}

func (c *Client) CreateReactionRole(ctx context.Context, guildID snowflake.ID, req ReactionRoleRequest) (snowflake.ID, error) {
	var res models.CreatedMessage
	if err := c.post(ctx, fmt.Sprintf("/api/guilds/%s/reaction-roles", guildID), req, &res); err != nil {
		return 0, err
	}
	return res.MessageID, nil
}

type updateReactionsRequest struct {
	Reactions []models.ReactionBinding `json:"reactions"`
}

func (c *Client) UpdateReactionRole(ctx context.Context, messageID snowflake.ID, reactions []models.ReactionBinding) error {
	return c.put(ctx, fmt.Sprintf("/api/reaction-roles/%s", messageID), updateReactionsRequest{Reactions: reactions}, nil)
}

func (c *Client) DeleteReactionRole(ctx context.Context, messageID snowflake.ID) error {
	return c.delete(ctx, fmt.Sprintf("/api/reaction-roles/%s", messageID))
}

func (c *Client) Welcomes(ctx context.Context, guildID snowflake.ID) (map[snowflake.ID]models.Welcome, error) {
	w := map[snowflake.ID]models.Welcome{}
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/welcomes", guildID), nil, &w); err != nil {
		return nil, err
	}
	return w, nil
}

// WelcomeRequest attaches a welcome action to a reaction-role message.
type WelcomeRequest struct {
	MessageID       snowflake.ID `json:"message_id"`
	TargetChannelID snowflake.ID `json:"target_channel_id"`
	WelcomeMessage  string       `json:"welcome_message,omitempty"`
}

func (c *Client) CreateWelcome(ctx context.Context, guildID snowflake.ID, req WelcomeRequest) error {
	return c.post(ctx, fmt.Sprintf("/api/guilds/%s/welcomes", guildID), req, nil)
}

func (c *Client) DeleteWelcome(ctx context.Context, messageID snowflake.ID) error {
	return c.delete(ctx, fmt.Sprintf("/api/welcomes/%s", messageID))
}

func (c *Client) TempRooms(ctx context.Context, guildID snowflake.ID) ([]models.TempRoom, error) {
	var rooms []models.TempRoom
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/temp-rooms", guildID), nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) CreateTempRoom(ctx context.Context, guildID snowflake.ID, req models.TempRoomRequest) (*models.TempRoomCreated, error) {
	var res models.TempRoomCreated
	if err := c.post(ctx, fmt.Sprintf("/api/guilds/%s/temp-rooms", guildID), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) DeleteTempRoom(ctx context.Context, guildID, channelID snowflake.ID) error {
	return c.delete(ctx, fmt.Sprintf("/api/guilds/%s/temp-rooms/%s", guildID, channelID))
}
