package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/firm-service/internal/domain"
)

// AuditFilter narrows trail queries.
type AuditFilter struct {
	GuildID  string
	ActorID  *string
	TargetID *string
	Action   *string
	Limit    int
	Offset   int
}

// AuditLogRepository stores the append-only audit trail.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	FindByFilters(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error)
}

type auditLogRepository struct {
	db Querier
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(db Querier) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO audit_log (guild_id, action, actor_id, target_id, before_state, after_state, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.GuildID,
		entry.Action,
		entry.ActorID,
		entry.TargetID,
		entry.Before,
		entry.After,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditLogRepository) FindByFilters(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error) {
	conditions := []string{"guild_id=$1"}
	args := []any{filter.GuildID}
	idx := 2

	if filter.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("actor_id=$%d", idx))
		args = append(args, *filter.ActorID)
		idx++
	}
	if filter.TargetID != nil {
		conditions = append(conditions, fmt.Sprintf("target_id=$%d", idx))
		args = append(args, *filter.TargetID)
		idx++
	}
	if filter.Action != nil {
		conditions = append(conditions, fmt.Sprintf("action=$%d", idx))
		args = append(args, *filter.Action)
		idx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
        SELECT id, guild_id, action, actor_id, target_id, before_state, after_state, metadata, created_at
        FROM audit_log WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		strings.Join(conditions, " AND "), limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.GuildID,
			&entry.Action,
			&entry.ActorID,
			&entry.TargetID,
			&entry.Before,
			&entry.After,
			&entry.Metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
