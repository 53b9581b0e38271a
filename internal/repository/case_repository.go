package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/firm-service/internal/domain"
)

// CaseFilter captures case search parameters.
type CaseFilter struct {
	GuildID     string
	ClientID    *string
	LawyerID    *string
	Statuses    []domain.CaseStatus
	Priorities  []domain.CasePriority
	SearchTerm  *string
	OpenedFrom  *time.Time
	OpenedTo    *time.Time
	Limit       int
	Offset      int
}

// CaseRepository encapsulates case persistence.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	Update(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	GetByCaseNumber(ctx context.Context, guildID, caseNumber string) (*domain.Case, error)
	FindByClient(ctx context.Context, guildID, clientID string) ([]domain.Case, error)
	FindByLawyer(ctx context.Context, guildID, lawyerID string) ([]domain.Case, error)
	ListWithFilter(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
}

type caseRepository struct {
	db Querier
}

// NewCaseRepository instantiates repository.
func NewCaseRepository(db Querier) CaseRepository {
	return &caseRepository{db: db}
}

const caseColumns = `id, guild_id, case_number, client_id, client_username, title, description,
               status, priority, lead_attorney_id, assigned_lawyer_ids, channel_id,
               result, result_notes, closed_at, closed_by, documents, notes, opened_at, updated_at`

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	const query = `
        INSERT INTO cases (guild_id, case_number, client_id, client_username, title, description,
            status, priority, lead_attorney_id, assigned_lawyer_ids, channel_id, documents, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, opened_at, updated_at`
	return r.db.QueryRow(ctx, query,
		c.GuildID,
		c.CaseNumber,
		c.ClientID,
		c.ClientUsername,
		c.Title,
		c.Description,
		c.Status,
		c.Priority,
		c.LeadAttorneyID,
		c.AssignedLawyerIDs,
		c.ChannelID,
		c.Documents,
		c.Notes,
	).Scan(&c.ID, &c.OpenedAt, &c.UpdatedAt)
}

func (r *caseRepository) Update(ctx context.Context, c *domain.Case) error {
	const query = `
        UPDATE cases SET title=$1, description=$2, status=$3, priority=$4, lead_attorney_id=$5,
            assigned_lawyer_ids=$6, channel_id=$7, result=$8, result_notes=$9, closed_at=$10,
            closed_by=$11, documents=$12, notes=$13, updated_at=NOW()
        WHERE id=$14
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		c.Title,
		c.Description,
		c.Status,
		c.Priority,
		c.LeadAttorneyID,
		c.AssignedLawyerIDs,
		c.ChannelID,
		c.Result,
		c.ResultNotes,
		c.ClosedAt,
		c.ClosedBy,
		c.Documents,
		c.Notes,
		c.ID,
	).Scan(&c.UpdatedAt)
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id=$1`, caseColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *caseRepository) GetByCaseNumber(ctx context.Context, guildID, caseNumber string) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE guild_id=$1 AND case_number=$2`, caseColumns)
	return r.fetchSingle(ctx, query, guildID, caseNumber)
}

func (r *caseRepository) FindByClient(ctx context.Context, guildID, clientID string) ([]domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE guild_id=$1 AND client_id=$2 ORDER BY opened_at ASC`, caseColumns)
	return r.fetchMany(ctx, query, guildID, clientID)
}

// FindByLawyer returns the cases a lawyer is assigned to, earliest accepted
// first. Reassignment flows rely on this ordering as the tie-break when a
// lawyer holds multiple active cases.
func (r *caseRepository) FindByLawyer(ctx context.Context, guildID, lawyerID string) ([]domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE guild_id=$1 AND $2 = ANY(assigned_lawyer_ids) ORDER BY opened_at ASC`, caseColumns)
	return r.fetchMany(ctx, query, guildID, lawyerID)
}

func (r *caseRepository) ListWithFilter(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	conditions := []string{"guild_id=$1"}
	args := []any{filter.GuildID}
	idx := 2

	if filter.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id=$%d", idx))
		args = append(args, *filter.ClientID)
		idx++
	}
	if filter.LawyerID != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(assigned_lawyer_ids)", idx))
		args = append(args, *filter.LawyerID)
		idx++
	}
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", idx))
		args = append(args, filter.Statuses)
		idx++
	}
	if len(filter.Priorities) > 0 {
		conditions = append(conditions, fmt.Sprintf("priority = ANY($%d)", idx))
		args = append(args, filter.Priorities)
		idx++
	}
	if filter.SearchTerm != nil {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR case_number ILIKE $%d)", idx, idx))
		args = append(args, "%"+*filter.SearchTerm+"%")
		idx++
	}
	if filter.OpenedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("opened_at >= $%d", idx))
		args = append(args, *filter.OpenedFrom)
		idx++
	}
	if filter.OpenedTo != nil {
		conditions = append(conditions, fmt.Sprintf("opened_at <= $%d", idx))
		args = append(args, *filter.OpenedTo)
		idx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM cases WHERE %s ORDER BY opened_at DESC LIMIT %d OFFSET %d`,
		caseColumns, strings.Join(conditions, " AND "), limit, filter.Offset)
	return r.fetchMany(ctx, query, args...)
}

func (r *caseRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Case, error) {
	var c domain.Case
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.GuildID,
		&c.CaseNumber,
		&c.ClientID,
		&c.ClientUsername,
		&c.Title,
		&c.Description,
		&c.Status,
		&c.Priority,
		&c.LeadAttorneyID,
		&c.AssignedLawyerIDs,
		&c.ChannelID,
		&c.Result,
		&c.ResultNotes,
		&c.ClosedAt,
		&c.ClosedBy,
		&c.Documents,
		&c.Notes,
		&c.OpenedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) fetchMany(ctx context.Context, query string, args ...any) ([]domain.Case, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Case
	for rows.Next() {
		var c domain.Case
		if err := rows.Scan(
			&c.ID,
			&c.GuildID,
			&c.CaseNumber,
			&c.ClientID,
			&c.ClientUsername,
			&c.Title,
			&c.Description,
			&c.Status,
			&c.Priority,
			&c.LeadAttorneyID,
			&c.AssignedLawyerIDs,
			&c.ChannelID,
			&c.Result,
			&c.ResultNotes,
			&c.ClosedAt,
			&c.ClosedBy,
			&c.Documents,
			&c.Notes,
			&c.OpenedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
