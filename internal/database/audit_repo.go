package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WoushouW/woushBOT/internal/models"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200
)

type auditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) Create(ctx context.Context, e *models.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO audit_log (session_id, role, guild_id, action, target_id, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		e.SessionID, e.Role, e.GuildID, e.Action, e.TargetID, e.Detail, e.CreatedAt,
	).Scan(&e.ID)
}

func (r *auditRepo) List(ctx context.Context, f AuditFilter) ([]models.AuditEntry, error) {
	where, args := f.where()
	limit, offset := f.page()
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT id, session_id, role, guild_id, action, target_id, detail, created_at
		 FROM audit_log %s
		 ORDER BY created_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.Role, &e.GuildID, &e.Action, &e.TargetID, &e.Detail, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *auditRepo) Count(ctx context.Context, f AuditFilter) (int, error) {
	where, args := f.where()
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_log "+where, args...).Scan(&n)
	return n, err
}

func (r *auditRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM audit_log WHERE created_at < NOW() - make_interval(days => $1)`, days)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (f AuditFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.GuildID != 0 {
		args = append(args, f.GuildID)
		conds = append(conds, fmt.Sprintf("guild_id = $%d", len(args)))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (f AuditFilter) page() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// MemoryAuditRepository keeps entries in process. It backs the panel when no
// database is configured, so the audit page still shows this run's actions.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []models.AuditEntry
	nextID  int64
	max     int
}

func NewMemoryAuditRepository(max int) *MemoryAuditRepository {
	if max <= 0 {
		max = MaxAuditLimit
	}
	return &MemoryAuditRepository{max: max}
}

func (m *MemoryAuditRepository) Create(_ context.Context, e *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.nextID++
	e.ID = m.nextID
	m.entries = append(m.entries, *e)
	if len(m.entries) > m.max {
		m.entries = m.entries[len(m.entries)-m.max:]
	}
	return nil
}

func (m *MemoryAuditRepository) List(_ context.Context, f AuditFilter) ([]models.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := m.matching(f)
	limit, offset := f.page()
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m *MemoryAuditRepository) Count(_ context.Context, f AuditFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matching(f)), nil
}

func (m *MemoryAuditRepository) DeleteOlderThan(_ context.Context, days int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, -days)
	kept := m.entries[:0]
	var removed int64
	for _, e := range m.entries {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

// matching returns filtered entries, newest first.
func (m *MemoryAuditRepository) matching(f AuditFilter) []models.AuditEntry {
	var out []models.AuditEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if f.GuildID != 0 && e.GuildID != f.GuildID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		out = append(out, e)
	}
	return out
}
