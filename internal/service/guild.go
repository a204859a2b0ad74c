package service

import (
	"context"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// GuildService lists the bot's guilds and the members and roles of one.
type GuildService struct {
	bot   *botapi.Client
	audit *AuditService
}

// NewGuildService creates a GuildService.
func NewGuildService(bot *botapi.Client, audit *AuditService) *GuildService {
	return &GuildService{bot: bot, audit: audit}
}

// Guilds returns every guild the bot is in.
func (s *GuildService) Guilds(ctx context.Context, a Actor) ([]models.Guild, error) {
	if err := require(a, permissions.PermReadChannels); err != nil {
		return nil, err
	}
	guilds, err := botFor(s.bot, a).Guilds(ctx)
	if err != nil {
		return nil, fromBot(err)
	}
	if guilds == nil {
		guilds = []models.Guild{}
	}
	return guilds, nil
}

// Guild checks that the bot serves id and returns it.
func (s *GuildService) Guild(ctx context.Context, a Actor, id snowflake.ID) (*models.Guild, error) {
	if err := require(a, permissions.PermReadChannels); err != nil {
		return nil, err
	}
	if id.IsZero() {
		return nil, BadRequest("INVALID_GUILD", "choose a server")
	}
	g, err := botFor(s.bot, a).Guild(ctx, id)
	if err != nil {
		return nil, fromBot(err)
	}
	return g, nil
}

// Full returns the guild with members, channels and roles.
func (s *GuildService) Full(ctx context.Context, a Actor) (*models.GuildFull, error) {
	if err := requireGuild(a, permissions.PermReadChannels); err != nil {
		return nil, err
	}
	full, err := botFor(s.bot, a).GuildFull(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	return full, nil
}

// Members returns the guild's members matching query, sorted by name.
func (s *GuildService) Members(ctx context.Context, a Actor, query string) ([]models.Member, error) {
	if err := requireGuild(a, permissions.PermViewDashboard); err != nil {
		return nil, err
	}
	members, err := botFor(s.bot, a).Members(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	return models.FilterMembers(members, query), nil
}

// MemberDetail is the member page: profile, roles, history and warnings.
type MemberDetail struct {
	Member   models.Member
	Info     *models.MemberInfo
	Roles    []models.Role
	Assigned []models.Role
}

// Member loads one member with moderation info and role assignments.
func (s *GuildService) Member(ctx context.Context, a Actor, userID snowflake.ID) (*MemberDetail, error) {
	if err := requireGuild(a, permissions.PermViewDashboard); err != nil {
		return nil, err
	}
	if userID.IsZero() {
		return nil, BadRequest("INVALID_USER", "choose a member")
	}
	bot := botFor(s.bot, a)

	full, err := bot.GuildFull(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	member, ok := full.MemberByID(userID)
	if !ok {
		return nil, NotFound("MEMBER_NOT_FOUND", "member not found")
	}

	info, err := bot.MemberInfo(ctx, a.GuildID, userID)
	if err != nil && !botapi.IsNotFound(err) {
		return nil, fromBot(err)
	}
	if info == nil {
		info = &models.MemberInfo{}
	}

	detail := &MemberDetail{Member: member, Info: info, Roles: models.SortRoles(full.Roles)}
	for _, r := range detail.Roles {
		if member.HasRole(r.ID) {
			detail.Assigned = append(detail.Assigned, r)
		}
	}
	return detail, nil
}

// AssignRole gives a member a role.
func (s *GuildService) AssignRole(ctx context.Context, a Actor, userID, roleID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermManageRoles); err != nil {
		return err
	}
	if userID.IsZero() || roleID.IsZero() {
		return BadRequest("INVALID_INPUT", "choose a member and a role")
	}
	if err := botFor(s.bot, a).AddMemberRole(ctx, a.GuildID, userID, roleID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "member.role_add", userID.String(), "role "+roleID.String())
	return nil
}

// RemoveRole takes a role from a member.
func (s *GuildService) RemoveRole(ctx context.Context, a Actor, userID, roleID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermManageRoles); err != nil {
		return err
	}
	if userID.IsZero() || roleID.IsZero() {
		return BadRequest("INVALID_INPUT", "choose a member and a role")
	}
	if err := botFor(s.bot, a).RemoveMemberRole(ctx, a.GuildID, userID, roleID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "member.role_remove", userID.String(), "role "+roleID.String())
	return nil
}

// Roles returns the guild's roles, highest first.
func (s *GuildService) Roles(ctx context.Context, a Actor) ([]models.Role, error) {
	if err := requireGuild(a, permissions.PermReadChannels); err != nil {
		return nil, err
	}
	roles, err := botFor(s.bot, a).Roles(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	return models.SortRoles(roles), nil
}

// DeleteRole deletes a role.
func (s *GuildService) DeleteRole(ctx context.Context, a Actor, roleID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermManageRoles); err != nil {
		return err
	}
	if roleID.IsZero() {
		return BadRequest("INVALID_ROLE", "choose a role")
	}
	if err := botFor(s.bot, a).DeleteRole(ctx, roleID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "role.delete", roleID.String(), "")
	return nil
}
