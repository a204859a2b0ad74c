package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// Discord message limits.
const (
	maxContentLength     = 2000
	maxEmbedTitle        = 256
	maxEmbedDescription  = 4096
	maxChannelNameLength = 100
)

// ChannelService handles channels and their messages.
type ChannelService struct {
	bot   *botapi.Client
	audit *AuditService
}

// NewChannelService creates a ChannelService.
func NewChannelService(bot *botapi.Client, audit *AuditService) *ChannelService {
	return &ChannelService{bot: bot, audit: audit}
}

// Channels returns the guild's channels in position order.
func (s *ChannelService) Channels(ctx context.Context, a Actor) ([]models.Channel, error) {
	if err := requireGuild(a, permissions.PermReadChannels); err != nil {
		return nil, err
	}
	channels, err := botFor(s.bot, a).Channels(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	return channels, nil
}

// CreateChannelInput is the create channel form.
type CreateChannelInput struct {
	Name  string
	Type  string
	Topic string
}

// CreateChannel validates the form and creates the channel.
func (s *ChannelService) CreateChannel(ctx context.Context, a Actor, in CreateChannelInput) (snowflake.ID, error) {
	if err := requireGuild(a, permissions.PermManageChannels); err != nil {
		return 0, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, BadRequest("NAME_REQUIRED", "channel name is required")
	}
	if utf8.RuneCountInString(name) > maxChannelNameLength {
		return 0, BadRequest("NAME_TOO_LONG", "channel name must be at most 100 characters")
	}
	code, err := strconv.Atoi(strings.TrimSpace(in.Type))
	if err != nil || !models.ChannelType(code).Valid() {
		return 0, BadRequest("INVALID_TYPE", "channel type must be text, voice or category")
	}

	req := botapi.CreateChannelRequest{Name: name, Type: models.ChannelType(code)}
	if req.Type == models.ChannelTypeText {
		req.Topic = strings.TrimSpace(in.Topic)
	}
	id, err := botFor(s.bot, a).CreateChannel(ctx, a.GuildID, req)
	if err != nil {
		return 0, fromBot(err)
	}
	s.audit.Record(ctx, a, "channel.create", id.String(), fmt.Sprintf("%s (%s)", name, req.Type.Label()))
	return id, nil
}

// DeleteChannel deletes a channel.
func (s *ChannelService) DeleteChannel(ctx context.Context, a Actor, channelID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermManageChannels); err != nil {
		return err
	}
	if channelID.IsZero() {
		return BadRequest("INVALID_CHANNEL", "choose a channel")
	}
	if err := botFor(s.bot, a).DeleteChannel(ctx, channelID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "channel.delete", channelID.String(), "")
	return nil
}

// Messages returns the latest messages of a channel.
func (s *ChannelService) Messages(ctx context.Context, a Actor, channelID snowflake.ID, limit int) ([]models.Message, error) {
	if err := requireGuild(a, permissions.PermReadChannels); err != nil {
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

// SendMessageInput is the send message form. When any embed field is set the
// message is sent as an embed.
type SendMessageInput struct {
	Content          string
	EmbedTitle       string
	EmbedDescription string
	EmbedColor       string
	EmbedFooter      string
}

func (in SendMessageInput) embed() (*discordgo.MessageEmbed, error) {
	title := strings.TrimSpace(in.EmbedTitle)
	desc := strings.TrimSpace(in.EmbedDescription)
	if title == "" && desc == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(title) > maxEmbedTitle {
		return nil, BadRequest("EMBED_TITLE_TOO_LONG", "embed title must be at most 256 characters")
	}
	if utf8.RuneCountInString(desc) > maxEmbedDescription {
		return nil, BadRequest("EMBED_TOO_LONG", "embed description must be at most 4096 characters")
	}
	e := &discordgo.MessageEmbed{Title: title, Description: desc}
	if c := strings.TrimPrefix(strings.TrimSpace(in.EmbedColor), "#"); c != "" {
		n, err := strconv.ParseInt(c, 16, 32)
		if err != nil || n < 0 || n > 0xFFFFFF {
			return nil, BadRequest("INVALID_COLOR", "embed colour must be a hex value like #5865F2")
		}
		e.Color = int(n)
	}
	if f := strings.TrimSpace(in.EmbedFooter); f != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: f}
	}
	return e, nil
}

// SendMessage posts a plain or embed message to a channel.
func (s *ChannelService) SendMessage(ctx context.Context, a Actor, channelID snowflake.ID, in SendMessageInput) (snowflake.ID, error) {
	if err := requireGuild(a, permissions.PermManageMessages); err != nil {
		return 0, err
	}
	if channelID.IsZero() {
		return 0, BadRequest("INVALID_CHANNEL", "choose a channel")
	}
	embed, err := in.embed()
	if err != nil {
		return 0, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" && embed == nil {
		return 0, BadRequest("MESSAGE_REQUIRED", "write a message")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return 0, BadRequest("MESSAGE_TOO_LONG", "message must be at most 2000 characters")
	}

	id, err := botFor(s.bot, a).SendMessage(ctx, channelID, botapi.SendMessageRequest{Content: content, Embed: embed})
	if err != nil {
		return 0, fromBot(err)
	}
	kind := "text"
	if embed != nil {
		kind = "embed"
	}
	s.audit.Record(ctx, a, "message.send", channelID.String(), kind)
	return id, nil
}

// BulkDelete removes the last limit messages of a channel.
func (s *ChannelService) BulkDelete(ctx context.Context, a Actor, channelID snowflake.ID, limit int) (int, error) {
	if err := requireGuild(a, permissions.PermManageMessages); err != nil {
		return 0, err
	}
	if channelID.IsZero() {
		return 0, BadRequest("INVALID_CHANNEL", "choose a channel")
	}
	if limit < 1 || limit > botapi.MaxMessageBatch {
		return 0, BadRequest("INVALID_LIMIT", "number of messages must be between 1 and 100")
	}
	deleted, err := botFor(s.bot, a).BulkDelete(ctx, channelID, limit)
	if err != nil {
		return 0, fromBot(err)
	}
	s.audit.Record(ctx, a, "message.bulk_delete", channelID.String(), fmt.Sprintf("%d deleted", deleted))
	return deleted, nil
}
