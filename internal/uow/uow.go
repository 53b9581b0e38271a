package uow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/firm-service/internal/repository"
)

// UnitOfWork scopes a sequence of repository writes to one store
// transaction: either every write becomes visible at Commit, or none after
// Rollback. Repository handles obtained from it are transaction-bound.
type UnitOfWork interface {
	ID() string
	Staff() repository.StaffRepository
	Cases() repository.CaseRepository
	Counters() repository.CaseCounterRepository
	Audit() repository.AuditLogRepository
	GuildConfigs() repository.GuildConfigRepository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory begins units of work. Services depend on this interface so tests
// can substitute an in-memory implementation.
type Factory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// Manager is the pgx-backed Factory.
type Manager struct {
	pool *pgxpool.Pool
}

// NewManager builds a Factory over a pgx pool.
func NewManager(pool *pgxpool.Pool) *Manager {
	return &Manager{pool: pool}
}

// Begin opens a read-committed transaction. Nothing has happened yet if this
// fails, so no compensation is owed.
func (m *Manager) Begin(ctx context.Context) (UnitOfWork, error) {
	if m.pool == nil {
		return nil, errors.New("uow: no database pool configured")
	}
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, err
	}
	return &pgxUnitOfWork{id: uuid.NewString(), tx: tx}, nil
}

type pgxUnitOfWork struct {
	id       string
	tx       pgx.Tx
	finished bool
}

func (u *pgxUnitOfWork) ID() string { return u.id }

func (u *pgxUnitOfWork) Staff() repository.StaffRepository {
	return repository.NewStaffRepository(u.tx)
}

func (u *pgxUnitOfWork) Cases() repository.CaseRepository {
	return repository.NewCaseRepository(u.tx)
}

func (u *pgxUnitOfWork) Counters() repository.CaseCounterRepository {
	return repository.NewCaseCounterRepository(u.tx)
}

func (u *pgxUnitOfWork) Audit() repository.AuditLogRepository {
	return repository.NewAuditLogRepository(u.tx)
}

func (u *pgxUnitOfWork) GuildConfigs() repository.GuildConfigRepository {
	return repository.NewGuildConfigRepository(u.tx)
}

func (u *pgxUnitOfWork) Commit(ctx context.Context) error {
	if u.finished {
		return errors.New("uow: transaction already finished")
	}
	u.finished = true
	return u.tx.Commit(ctx)
}

func (u *pgxUnitOfWork) Rollback(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
