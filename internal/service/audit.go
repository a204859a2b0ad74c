package service

import (
	"context"
	"log/slog"

	"github.com/WoushouW/woushBOT/internal/database"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/permissions"
)

// AuditService records panel actions and lists them.
type AuditService struct {
	repo database.AuditRepository
}

// NewAuditService creates an AuditService.
func NewAuditService(repo database.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record stores one successful action. Failures are logged, never returned:
// the bot has already applied the change.
func (s *AuditService) Record(ctx context.Context, a Actor, action, target, detail string) {
	if s == nil || s.repo == nil || a.Session == nil {
		return
	}
	entry := &models.AuditEntry{
		SessionID: a.Session.ID,
		Role:      a.Session.Role,
		GuildID:   int64(a.GuildID),
		Action:    action,
		TargetID:  target,
		Detail:    detail,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		slog.Error("recording audit entry", "action", action, "target", target, "error", err)
	}
}

// AuditPage is one page of the audit listing.
type AuditPage struct {
	Entries []models.AuditEntry
	Total   int
	Filter  database.AuditFilter
}

// List returns audit entries for the actor's guild, or all guilds when none
// is selected.
func (s *AuditService) List(ctx context.Context, a Actor, action string, limit, offset int) (*AuditPage, error) {
	if err := require(a, permissions.PermViewAudit); err != nil {
		return nil, err
	}
	f := database.AuditFilter{GuildID: int64(a.GuildID), Action: action, Limit: limit, Offset: offset}

	entries, err := s.repo.List(ctx, f)
	if err != nil {
		slog.Error("listing audit entries", "error", err)
		return nil, Internal("INTERNAL", "could not load the audit log")
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		slog.Error("counting audit entries", "error", err)
		return nil, Internal("INTERNAL", "could not load the audit log")
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return &AuditPage{Entries: entries, Total: total, Filter: f}, nil
}

// Prune drops entries older than days. Used by the scheduled cleanup.
func (s *AuditService) Prune(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	return s.repo.DeleteOlderThan(ctx, days)
}
