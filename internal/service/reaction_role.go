package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// ReactionRoleService manages role-picker messages and the welcome actions
// attached to them.
type ReactionRoleService struct {
	bot   *botapi.Client
	audit *AuditService
}

// NewReactionRoleService creates a ReactionRoleService.
func NewReactionRoleService(bot *botapi.Client, audit *AuditService) *ReactionRoleService {
	return &ReactionRoleService{bot: bot, audit: audit}
}

// List returns the guild's reaction role messages, newest first.
func (s *ReactionRoleService) List(ctx context.Context, a Actor) ([]models.ReactionRole, error) {
	if err := requireGuild(a, permissions.PermManageReactionRoles); err != nil {
		return nil, err
	}
	rr, err := botFor(s.bot, a).ReactionRoles(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	return models.ReactionRoleList(rr), nil
}

// Bindings keeps the complete emoji/role rows of a form. Rows with only one
// of the two filled are dropped.
func Bindings(emojis []string, roles []snowflake.ID) []models.ReactionBinding {
	var out []models.ReactionBinding
	for i, e := range emojis {
		e = strings.TrimSpace(e)
		if e == "" || i >= len(roles) || roles[i].IsZero() {
			continue
		}
		out = append(out, models.ReactionBinding{Emoji: e, RoleID: roles[i]})
	}
	return out
}

// ReactionRoleInput is the create reaction role form.
type ReactionRoleInput struct {
	ChannelID snowflake.ID
	Message   string
	Reactions []models.ReactionBinding
}

// Create posts a role-picker message.
func (s *ReactionRoleService) Create(ctx context.Context, a Actor, in ReactionRoleInput) (snowflake.ID, error) {
	if err := requireGuild(a, permissions.PermManageReactionRoles); err != nil {
		return 0, err
	}
	if in.ChannelID.IsZero() {
		return 0, BadRequest("CHANNEL_REQUIRED", "choose a channel")
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return 0, BadRequest("MESSAGE_REQUIRED", "write the message text")
	}
	if len(in.Reactions) == 0 {
		return 0, BadRequest("REACTIONS_REQUIRED", "add at least one emoji and role")
	}
	if err := uniqueEmojis(in.Reactions); err != nil {
		return 0, err
	}

	req := botapi.ReactionRoleRequest{ChannelID: in.ChannelID, Message: msg, Reactions: in.Reactions}
	id, err := botFor(s.bot, a).CreateReactionRole(ctx, a.GuildID, req)
	if err != nil {
		return 0, fromBot(err)
	}
	s.audit.Record(ctx, a, "reaction_role.create", id.String(), fmt.Sprintf("%d reactions", len(in.Reactions)))
	return id, nil
}

// Update replaces the bindings of an existing message.
func (s *ReactionRoleService) Update(ctx context.Context, a Actor, messageID snowflake.ID, reactions []models.ReactionBinding) error {
	if err := requireGuild(a, permissions.PermManageReactionRoles); err != nil {
		return err
	}
	if messageID.IsZero() {
		return BadRequest("INVALID_MESSAGE", "choose a reaction role message")
	}
	if len(reactions) == 0 {
		return BadRequest("REACTIONS_REQUIRED", "add at least one emoji and role")
	}
	if err := uniqueEmojis(reactions); err != nil {
		return err
	}
	if err := botFor(s.bot, a).UpdateReactionRole(ctx, messageID, reactions); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "reaction_role.update", messageID.String(), fmt.Sprintf("%d reactions", len(reactions)))
	return nil
}

// Delete removes a reaction role message configuration.
func (s *ReactionRoleService) Delete(ctx context.Context, a Actor, messageID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermManageReactionRoles); err != nil {
		return err
	}
	if messageID.IsZero() {
		return BadRequest("INVALID_MESSAGE", "choose a reaction role message")
	}
	if err := botFor(s.bot, a).DeleteReactionRole(ctx, messageID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "reaction_role.delete", messageID.String(), "")
	return nil
}

func uniqueEmojis(reactions []models.ReactionBinding) error {
	seen := make(map[string]bool, len(reactions))
	for _, r := range reactions {
		if seen[r.Emoji] {
			return BadRequest("DUPLICATE_EMOJI", fmt.Sprintf("emoji %s is used twice", r.Emoji))
		}
		seen[r.Emoji] = true
	}
	return nil
}

// Welcomes returns the welcome actions, newest first.
func (s *ReactionRoleService) Welcomes(ctx context.Context, a Actor) ([]models.Welcome, error) {
	if err := requireGuild(a, permissions.PermManageWelcomes); err != nil {
		return nil, err
	}
	w, err := botFor(s.bot, a).Welcomes(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	return models.WelcomeList(w), nil
}

// WelcomeInput is the create welcome form.
type WelcomeInput struct {
	MessageID       snowflake.ID
	TargetChannelID snowflake.ID
	Message         string
}

// CreateWelcome attaches a welcome action to a reaction role message.
func (s *ReactionRoleService) CreateWelcome(ctx context.Context, a Actor, in WelcomeInput) error {
	if err := requireGuild(a, permissions.PermManageWelcomes); err != nil {
		return err
	}
	if in.MessageID.IsZero() {
		return BadRequest("MESSAGE_REQUIRED", "choose a reaction role message")
	}
	if in.TargetChannelID.IsZero() {
		return BadRequest("CHANNEL_REQUIRED", "choose the channel to greet in")
	}
	req := botapi.WelcomeRequest{
		MessageID:       in.MessageID,
		TargetChannelID: in.TargetChannelID,
		WelcomeMessage:  strings.TrimSpace(in.Message),
	}
	if err := botFor(s.bot, a).CreateWelcome(ctx, a.GuildID, req); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "welcome.create", in.MessageID.String(), "target "+in.TargetChannelID.String())
	return nil
}

// DeleteWelcome removes a welcome action.
func (s *ReactionRoleService) DeleteWelcome(ctx context.Context, a Actor, messageID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermManageWelcomes); err != nil {
		return err
	}
	if messageID.IsZero() {
		return BadRequest("INVALID_MESSAGE", "choose a welcome action")
	}
	if err := botFor(s.bot, a).DeleteWelcome(ctx, messageID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "welcome.delete", messageID.String(), "")
	return nil
}
