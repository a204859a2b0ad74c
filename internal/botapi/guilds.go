package botapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

type loginRequest struct {
	PIN string `json:"pin"`
}

// Login exchanges a PIN for a bearer token and role. It never sends a token.
func (c *Client) Login(ctx context.Context, pin string) (*models.LoginResult, error) {
	anon := c.As("")
	var res models.LoginResult
	err := anon.post(ctx, "/api/auth/login", loginRequest{PIN: pin}, &res)
	if errors.Is(err, ErrUnauthorized) {
		return nil, ErrInvalidPIN
	}
	if err != nil {
		return nil, err
	}
	if !res.Success || res.Token == "" {
		return nil, ErrInvalidPIN
	}
	return &res, nil
}

func (c *Client) BotInfo(ctx context.Context) (*models.BotInfo, error) {
	var info models.BotInfo
	if err := c.get(ctx, "/api/bot/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) Guilds(ctx context.Context) ([]models.Guild, error) {
	var guilds []models.Guild
	if err := c.get(ctx, "/api/guilds", nil, &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

// Guild fetches one guild. Bots that only serve the list endpoint are
// handled by scanning it.
func (c *Client) Guild(ctx context.Context, id snowflake.ID) (*models.Guild, error) {
	var g models.Guild
	err := c.get(ctx, fmt.Sprintf("/api/guilds/%s", id), nil, &g)
	if err == nil && !g.ID.IsZero() {
		return &g, nil
	}
	if err != nil && !IsNotFound(err) {
		return nil, err
	}

	guilds, err := c.Guilds(ctx)
	if err != nil {
		return nil, err
	}
	for i := range guilds {
		if guilds[i].ID == id {
			return &guilds[i], nil
		}
	}
	return nil, &APIError{Status: 404, Message: "guild not found"}
}

func (c *Client) GuildFull(ctx context.Context, id snowflake.ID) (*models.GuildFull, error) {
	var full models.GuildFull
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/full", id), nil, &full); err != nil {
		return nil, err
	}
	return &full, nil
}

func (c *Client) Members(ctx context.Context, guildID snowflake.ID) ([]models.Member, error) {
	var members []models.Member
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/members", guildID), nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) MemberInfo(ctx context.Context, guildID, userID snowflake.ID) (*models.MemberInfo, error) {
	var info models.MemberInfo
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/members/%s/info", guildID, userID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) AddMemberRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error {
	return c.put(ctx, fmt.Sprintf("/api/guilds/%s/members/%s/roles/%s", guildID, userID, roleID), nil, nil)
}

func (c *Client) RemoveMemberRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error {
	return c.delete(ctx, fmt.Sprintf("/api/guilds/%s/members/%s/roles/%s", guildID, userID, roleID))
}

func (c *Client) Channels(ctx context.Context, guildID snowflake.ID) ([]models.Channel, error) {
	var channels []models.Channel
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/channels", guildID), nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// CreateChannelRequest is the body of POST /api/guilds/:id/channels.
type CreateChannelRequest struct {
	Name  string             `json:"name"`
	Type  models.ChannelType `json:"type"`
	Topic string             `json:"topic,omitempty"`
}

type createdID struct {
	ID snowflake.ID `json:"id"`
}

func (c *Client) CreateChannel(ctx context.Context, guildID snowflake.ID, req CreateChannelRequest) (snowflake.ID, error) {
	var res createdID
	if err := c.post(ctx, fmt.Sprintf("/api/guilds/%s/channels", guildID), req, &res); err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (c *Client) DeleteChannel(ctx context.Context, channelID snowflake.ID) error {
	return c.delete(ctx, fmt.Sprintf("/api/channels/%s", channelID))
}

func (c *Client) Roles(ctx context.Context, guildID snowflake.ID) ([]models.Role, error) {
	var roles []models.Role
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/roles", guildID), nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (c *Client) DeleteRole(ctx context.Context, roleID snowflake.ID) error {
	return c.delete(ctx, fmt.Sprintf("/api/roles/%s", roleID))
}
