package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/firm-service/internal/repository"
)

type fakeUnitOfWork struct {
	id         string
	rolledBack bool
	committed  bool
	rollErr    error
}

func (f *fakeUnitOfWork) ID() string { return f.id }

func (f *fakeUnitOfWork) Staff() repository.StaffRepository              { return nil }
func (f *fakeUnitOfWork) Cases() repository.CaseRepository               { return nil }
func (f *fakeUnitOfWork) Counters() repository.CaseCounterRepository     { return nil }
func (f *fakeUnitOfWork) Audit() repository.AuditLogRepository           { return nil }
func (f *fakeUnitOfWork) GuildConfigs() repository.GuildConfigRepository { return nil }

func (f *fakeUnitOfWork) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeUnitOfWork) Rollback(context.Context) error {
	f.rolledBack = true
	return f.rollErr
}

func TestPerformRollback_RunsCompensationsInRegistrationOrder(t *testing.T) {
	s := NewRollbackService(zap.NewNop())
	u := &fakeUnitOfWork{id: "tx-1"}

	var order []string
	for _, id := range []string{"c1", "c2", "c3"} {
		id := id
		s.Register("tx-1", Compensation{ID: id, Kind: "revoke_role", Execute: func(context.Context) error {
			// rollback must precede every compensation
			require.True(t, u.rolledBack)
			order = append(order, id)
			return nil
		}})
	}

	result := s.PerformRollback(context.Background(), u)
	require.True(t, result.Success)
	require.Equal(t, []string{"c1", "c2", "c3"}, order)
	require.Equal(t, []string{"c1", "c2", "c3"}, result.CompensationsRun)
	require.Empty(t, result.CompensationsFailed)
	require.Zero(t, s.PendingCount("tx-1"))
}

func TestPerformRollback_FailingCompensationDoesNotStopOthers(t *testing.T) {
	s := NewRollbackService(zap.NewNop())
	u := &fakeUnitOfWork{id: "tx-2"}

	ran := 0
	s.Register("tx-2", Compensation{ID: "c1", Execute: func(context.Context) error {
		return errors.New("external system unavailable")
	}})
	s.Register("tx-2", Compensation{ID: "c2", Execute: func(context.Context) error {
		ran++
		return nil
	}})

	result := s.PerformRollback(context.Background(), u)
	require.Equal(t, 1, ran)
	require.Equal(t, []string{"c1"}, result.CompensationsFailed)
	require.Equal(t, []string{"c2"}, result.CompensationsRun)
}

func TestPerformRollback_IsolatedPerTransaction(t *testing.T) {
	s := NewRollbackService(zap.NewNop())

	otherRan := false
	s.Register("tx-a", Compensation{ID: "ca", Execute: func(context.Context) error { return nil }})
	s.Register("tx-b", Compensation{ID: "cb", Execute: func(context.Context) error {
		otherRan = true
		return nil
	}})

	s.PerformRollback(context.Background(), &fakeUnitOfWork{id: "tx-a"})
	require.False(t, otherRan)
	require.Equal(t, 1, s.PendingCount("tx-b"))
}

func TestClearTransaction_DiscardsRegistrations(t *testing.T) {
	s := NewRollbackService(zap.NewNop())

	ran := false
	s.Register("tx-3", Compensation{ID: "c1", Execute: func(context.Context) error {
		ran = true
		return nil
	}})
	s.ClearTransaction("tx-3")

	result := s.PerformRollback(context.Background(), &fakeUnitOfWork{id: "tx-3"})
	require.False(t, ran)
	require.Empty(t, result.CompensationsRun)
}

func TestPerformRollback_ReportsRollbackFailure(t *testing.T) {
	s := NewRollbackService(zap.NewNop())
	u := &fakeUnitOfWork{id: "tx-4", rollErr: errors.New("connection lost")}

	executed := false
	s.Register("tx-4", Compensation{ID: "c1", Execute: func(context.Context) error {
		executed = true
		return nil
	}})

	result := s.PerformRollback(context.Background(), u)
	require.False(t, result.Success)
	// compensations still run best-effort
	require.True(t, executed)
}
