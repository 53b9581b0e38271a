package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/firm-service/internal/domain"
)

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffMember) error
	Update(ctx context.Context, staff *domain.StaffMember) error
	GetByID(ctx context.Context, id string) (*domain.StaffMember, error)
	FindActiveByUser(ctx context.Context, guildID, userID string) (*domain.StaffMember, error)
	FindActiveByRobloxUsername(ctx context.Context, guildID, username string) (*domain.StaffMember, error)
	CountActiveByRole(ctx context.Context, guildID string, role domain.StaffRole) (int, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	GuildID string
	Role    *domain.StaffRole
	Status  *domain.StaffStatus
	Limit   int
	Offset  int
}

type staffRepository struct {
	db Querier
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(db Querier) StaffRepository {
	return &staffRepository{db: db}
}

const staffColumns = `id, guild_id, user_id, roblox_username, role, status, hired_at, hired_by, promotion_history, updated_at`

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        INSERT INTO staff_members (guild_id, user_id, roblox_username, role, status, hired_at, hired_by, promotion_history)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, updated_at`

	return r.db.QueryRow(ctx, query,
		staff.GuildID,
		staff.UserID,
		staff.RobloxUsername,
		staff.Role,
		staff.Status,
		staff.HiredAt,
		staff.HiredBy,
		staff.PromotionHistory,
	).Scan(&staff.ID, &staff.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        UPDATE staff_members SET roblox_username=$1, role=$2, status=$3, promotion_history=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		staff.RobloxUsername,
		staff.Role,
		staff.Status,
		staff.PromotionHistory,
		staff.ID,
	).Scan(&staff.UpdatedAt)
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_members WHERE id=$1`, staffColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *staffRepository) FindActiveByUser(ctx context.Context, guildID, userID string) (*domain.StaffMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_members WHERE guild_id=$1 AND user_id=$2 AND status=$3`, staffColumns)
	return r.fetchSingle(ctx, query, guildID, userID, domain.StaffStatusActive)
}

func (r *staffRepository) FindActiveByRobloxUsername(ctx context.Context, guildID, username string) (*domain.StaffMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_members WHERE guild_id=$1 AND LOWER(roblox_username)=LOWER($2) AND status=$3`, staffColumns)
	return r.fetchSingle(ctx, query, guildID, username, domain.StaffStatusActive)
}

func (r *staffRepository) CountActiveByRole(ctx context.Context, guildID string, role domain.StaffRole) (int, error) {
	const query = `SELECT COUNT(*) FROM staff_members WHERE guild_id=$1 AND role=$2 AND status=$3`
	var count int
	err := r.db.QueryRow(ctx, query, guildID, role, domain.StaffStatusActive).Scan(&count)
	return count, err
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	conditions := []string{"guild_id=$1"}
	args := []any{filter.GuildID}
	idx := 2

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role=$%d", idx))
		args = append(args, *filter.Role)
		idx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status=$%d", idx))
		args = append(args, *filter.Status)
		idx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM staff_members WHERE %s ORDER BY hired_at ASC LIMIT %d OFFSET %d`,
		staffColumns, strings.Join(conditions, " AND "), limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffMember
	for rows.Next() {
		var staff domain.StaffMember
		if err := rows.Scan(
			&staff.ID,
			&staff.GuildID,
			&staff.UserID,
			&staff.RobloxUsername,
			&staff.Role,
			&staff.Status,
			&staff.HiredAt,
			&staff.HiredBy,
			&staff.PromotionHistory,
			&staff.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}

func (r *staffRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.StaffMember, error) {
	var staff domain.StaffMember
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&staff.ID,
		&staff.GuildID,
		&staff.UserID,
		&staff.RobloxUsername,
		&staff.Role,
		&staff.Status,
		&staff.HiredAt,
		&staff.HiredBy,
		&staff.PromotionHistory,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}
