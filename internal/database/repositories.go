package database

import (
	"context"

	"github.com/WoushouW/woushBOT/internal/models"
)

// AuditFilter narrows an audit listing. Zero fields match everything.
type AuditFilter struct {
	GuildID int64
	Action  string
	Limit   int
	Offset  int
}

type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, error)
	Count(ctx context.Context, filter AuditFilter) (int, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}
