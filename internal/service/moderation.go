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

const (
	// maxTimeoutSeconds is Discord's 28 day communication timeout cap.
	maxTimeoutSeconds = 28 * 24 * 60 * 60
	maxDeleteDays     = 7
	maxReasonLength   = 512
)

// ModerationService issues moderation actions through the bot.
type ModerationService struct {
	bot   *botapi.Client
	audit *AuditService
}

// NewModerationService creates a ModerationService.
func NewModerationService(bot *botapi.Client, audit *AuditService) *ModerationService {
	return &ModerationService{bot: bot, audit: audit}
}

// ActionInput is shared by every member action form.
type ActionInput struct {
	UserID       snowflake.ID
	Reason       string
	LogChannelID snowflake.ID
	// Duration is the mute length in seconds.
	Duration int
	// DeleteDays is how many days of messages a ban removes.
	DeleteDays int
}

func (in ActionInput) reason() (string, error) {
	r := strings.TrimSpace(in.Reason)
	if len(r) > maxReasonLength {
		return "", BadRequest("REASON_TOO_LONG", "reason must be at most 512 characters")
	}
	return r, nil
}

func requireUser(id snowflake.ID) error {
	if id.IsZero() {
		return BadRequest("USER_REQUIRED", "choose a member")
	}
	return nil
}

// Mute times a member out for in.Duration seconds.
func (s *ModerationService) Mute(ctx context.Context, a Actor, in ActionInput) error {
	if err := requireGuild(a, permissions.PermModerate); err != nil {
		return err
	}
	if err := requireUser(in.UserID); err != nil {
		return err
	}
	if in.Duration <= 0 {
		return BadRequest("DURATION_REQUIRED", "choose a mute duration")
	}
	if in.Duration > maxTimeoutSeconds {
		return BadRequest("DURATION_TOO_LONG", "mute duration can be at most 28 days")
	}
	reason, err := in.reason()
	if err != nil {
		return err
	}

	req := botapi.TimeoutRequest{Duration: in.Duration, Reason: reason, LogChannelID: botapi.LogChannel(in.LogChannelID)}
	if err := botFor(s.bot, a).Timeout(ctx, a.GuildID, in.UserID, req); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "member.mute", in.UserID.String(), fmt.Sprintf("%ds: %s", in.Duration, reason))
	return nil
}

// Unmute lifts a timeout.
func (s *ModerationService) Unmute(ctx context.Context, a Actor, in ActionInput) error {
	if err := requireGuild(a, permissions.PermModerate); err != nil {
		return err
	}
	if err := requireUser(in.UserID); err != nil {
		return err
	}
	reason, err := in.reason()
	if err != nil {
		return err
	}
	req := botapi.ActionRequest{Reason: reason, LogChannelID: botapi.LogChannel(in.LogChannelID)}
	if err := botFor(s.bot, a).Untimeout(ctx, a.GuildID, in.UserID, req); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "member.unmute", in.UserID.String(), reason)
	return nil
}

// Kick removes a member from the guild.
func (s *ModerationService) Kick(ctx context.Context, a Actor, in ActionInput) error {
	if err := requireGuild(a, permissions.PermModerate); err != nil {
		return err
	}
	if err := requireUser(in.UserID); err != nil {
		return err
	}
	reason, err := in.reason()
	if err != nil {
		return err
	}
	req := botapi.ActionRequest{Reason: reason, LogChannelID: botapi.LogChannel(in.LogChannelID)}
	if err := botFor(s.bot, a).Kick(ctx, a.GuildID, in.UserID, req); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "member.kick", in.UserID.String(), reason)
	return nil
}

// Ban bans a member and optionally removes their recent messages.
func (s *ModerationService) Ban(ctx context.Context, a Actor, in ActionInput) error {
	if err := requireGuild(a, permissions.PermModerate); err != nil {
		return err
	}
	if err := requireUser(in.UserID); err != nil {
		return err
	}
	if in.DeleteDays < 0 || in.DeleteDays > maxDeleteDays {
		return BadRequest("INVALID_DELETE_DAYS", "message deletion must be between 0 and 7 days")
	}
	reason, err := in.reason()
	if err != nil {
		return err
	}
	req := botapi.BanRequest{Reason: reason, DeleteMessageDays: in.DeleteDays, LogChannelID: botapi.LogChannel(in.LogChannelID)}
	if err := botFor(s.bot, a).Ban(ctx, a.GuildID, in.UserID, req); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "member.ban", in.UserID.String(), reason)
	return nil
}

// Unban lifts a ban.
func (s *ModerationService) Unban(ctx context.Context, a Actor, userID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermModerate); err != nil {
		return err
	}
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := botFor(s.bot, a).Unban(ctx, a.GuildID, userID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "member.unban", userID.String(), "")
	return nil
}

// Warn adds a warning. The bot bans the member once they reach the limit.
func (s *ModerationService) Warn(ctx context.Context, a Actor, in ActionInput) (*models.WarnResult, error) {
	if err := requireGuild(a, permissions.PermModerate); err != nil {
		return nil, err
	}
	if err := requireUser(in.UserID); err != nil {
		return nil, err
	}
	reason, err := in.reason()
	if err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, BadRequest("REASON_REQUIRED", "a warning needs a reason")
	}
	req := botapi.ActionRequest{Reason: reason, LogChannelID: botapi.LogChannel(in.LogChannelID)}
	res, err := botFor(s.bot, a).Warn(ctx, a.GuildID, in.UserID, req)
	if err != nil {
		return nil, fromBot(err)
	}
	detail := fmt.Sprintf("%d/%d: %s", res.Warnings, models.AutoBanWarnings, reason)
	if res.AutoBanned {
		detail += " (auto-banned)"
	}
	s.audit.Record(ctx, a, "member.warn", in.UserID.String(), detail)
	return res, nil
}

// Warnings returns a member's current warning count.
func (s *ModerationService) Warnings(ctx context.Context, a Actor, userID snowflake.ID) (int, error) {
	if err := requireGuild(a, permissions.PermModerate); err != nil {
		return 0, err
	}
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	n, err := botFor(s.bot, a).MemberWarnings(ctx, a.GuildID, userID)
	if err != nil {
		return 0, fromBot(err)
	}
	return n, nil
}

// ClearWarnings resets a member's warnings.
func (s *ModerationService) ClearWarnings(ctx context.Context, a Actor, userID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermModerate); err != nil {
		return err
	}
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := botFor(s.bot, a).ClearWarnings(ctx, a.GuildID, userID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "member.clear_warnings", userID.String(), "")
	return nil
}

// Punishments returns the active mutes, bans and warnings of the guild.
func (s *ModerationService) Punishments(ctx context.Context, a Actor) (*models.Punishments, error) {
	if err := requireGuild(a, permissions.PermModerate); err != nil {
		return nil, err
	}
	p, err := botFor(s.bot, a).Punishments(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	return p, nil
}

// History returns recent moderation actions across guilds.
func (s *ModerationService) History(ctx context.Context, a Actor, limit int) ([]models.ModerationAction, error) {
	if err := require(a, permissions.PermModerate); err != nil {
		return nil, err
	}
	actions, err := botFor(s.bot, a).ModerationHistory(ctx, limit)
	if err != nil {
		return nil, fromBot(err)
	}
	if actions == nil {
		actions = []models.ModerationAction{}
	}
	return actions, nil
}
