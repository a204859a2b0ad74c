package botapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// Message batch sizes: the bot's default history page and its hard cap.
const (
	DefaultMessageBatch = 20
	MaxMessageBatch     = 100
)

func (c *Client) ChannelMessages(ctx context.Context, channelID snowflake.ID, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageBatch
	}
	if limit > MaxMessageBatch {
		limit = MaxMessageBatch
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	var msgs []models.Message
	if err := c.get(ctx, fmt.Sprintf("/api/channels/%s/messages", channelID), q, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessageRequest carries either plain content or an embed.
type SendMessageRequest struct {
	Content string                  `json:"content,omitempty"`
	Embed   *discordgo.MessageEmbed `json:"embed,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, channelID snowflake.ID, req SendMessageRequest) (snowflake.ID, error) {
	var res createdID
	if err := c.post(ctx, fmt.Sprintf("/api/channels/%s/messages", channelID), req, &res); err != nil {
		return 0, err
	}
	return res.ID, nil
}

type bulkDeleteRequest struct {
	Limit int `json:"limit"`
}

type bulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// BulkDelete purges the latest limit messages and returns how many went.
func (c *Client) BulkDelete(ctx context.Context, channelID snowflake.ID, limit int) (int, error) {
	var res bulkDeleteResponse
	if err := c.post(ctx, fmt.Sprintf("/api/channels/%s/messages/bulk-delete", channelID), bulkDeleteRequest{Limit: limit}, &res); err != nil {
		return 0, err
	}
	return res.Deleted, nil
}
