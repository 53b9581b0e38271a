package repository

import (
	"context"

	"github.com/spec-kit/firm-service/internal/domain"
)

// CaseCounterRepository issues case sequence numbers. IncrementAndGet is the
// one place a read-modify-write would race, so it is a single SQL statement.
type CaseCounterRepository interface {
	IncrementAndGet(ctx context.Context, guildID string, year int) (int, error)
	Current(ctx context.Context, guildID string, year int) (*domain.CaseCounter, error)
}

type caseCounterRepository struct {
	db Querier
}

// NewCaseCounterRepository instantiates repository.
func NewCaseCounterRepository(db Querier) CaseCounterRepository {
	return &caseCounterRepository{db: db}
}

// IncrementAndGet atomically bumps the per-guild, per-year counter and
// returns the new value. Concurrent callers each receive a distinct,
// gap-free sequence number; the upsert is atomic on the Postgres side.
func (r *caseCounterRepository) IncrementAndGet(ctx context.Context, guildID string, year int) (int, error) {
	const query = `
        INSERT INTO case_counters (guild_id, year, count)
        VALUES ($1,$2,1)
        ON CONFLICT (guild_id, year)
        DO UPDATE SET count = case_counters.count + 1
        RETURNING count`
	var count int
	err := r.db.QueryRow(ctx, query, guildID, year).Scan(&count)
	return count, err
}

func (r *caseCounterRepository) Current(ctx context.Context, guildID string, year int) (*domain.CaseCounter, error) {
	const query = `SELECT guild_id, year, count FROM case_counters WHERE guild_id=$1 AND year=$2`
	var counter domain.CaseCounter
	if err := r.db.QueryRow(ctx, query, guildID, year).Scan(&counter.GuildID, &counter.Year, &counter.Count); err != nil {
		return nil, err
	}
	return &counter, nil
}
