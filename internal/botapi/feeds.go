package botapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

func (c *Client) Activity(ctx context.Context, filter string, limit int) ([]models.Activity, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("type", filter)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var items []models.Activity
	if err := c.get(ctx, "/api/activity", q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) ModerationHistory(ctx context.Context, limit int) ([]models.ModerationAction, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var items []models.ModerationAction
	if err := c.get(ctx, "/api/moderation/history", q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ActivityStats returns per-user counts. period is a day count or "all".
func (c *Client) ActivityStats(ctx context.Context, guildID snowflake.ID, period string) (*models.ActivityStats, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	var stats models.ActivityStats
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/activity-stats", guildID), q, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func suspiciousPath(guildID snowflake.ID) string {
	return fmt.Sprintf("/api/guilds/%s/suspicious-config", guildID)
}

func (c *Client) SuspiciousConfig(ctx context.Context, guildID snowflake.ID) (*models.SuspiciousConfig, error) {
	var cfg models.SuspiciousConfig
	if err := c.get(ctx, suspiciousPath(guildID), nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type triggerRequest struct {
	Word string `json:"word"`
}

func (c *Client) AddTrigger(ctx context.Context, guildID snowflake.ID, word string) error {
	return c.post(ctx, suspiciousPath(guildID)+"/triggers", triggerRequest{Word: word}, nil)
}

func (c *Client) RemoveTrigger(ctx context.Context, guildID snowflake.ID, word string) error {
	return c.delete(ctx, suspiciousPath(guildID)+"/triggers/"+url.PathEscape(word))
}

type excludedChannelRequest struct {
	ChannelID snowflake.ID `json:"channel_id"`
}

func (c *Client) AddExcludedChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	return c.post(ctx, suspiciousPath(guildID)+"/excluded-channels", excludedChannelRequest{ChannelID: channelID}, nil)
}

func (c *Client) RemoveExcludedChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	return c.delete(ctx, fmt.Sprintf("%s/excluded-channels/%s", suspiciousPath(guildID), channelID))
}

func (c *Client) SuspiciousMessages(ctx context.Context, guildID snowflake.ID) ([]models.SuspiciousMessage, error) {
	var msgs []models.SuspiciousMessage
	if err := c.get(ctx, fmt.Sprintf("/api/guilds/%s/suspicious-messages", guildID), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
