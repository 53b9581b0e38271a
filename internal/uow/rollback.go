package uow

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Compensation undoes a side effect performed outside the transactional
// store, such as revoking an externally granted role. Compensations run only
// when their transaction rolls back.
type Compensation struct {
	ID      string
	Kind    string
	Execute func(ctx context.Context) error
}

// RollbackResult reports what a rollback did.
type RollbackResult struct {
	Success             bool
	CompensationsRun    []string
	CompensationsFailed []string
}

// RollbackService tracks compensations per transaction and drives the
// rollback path: store rollback first, then compensations in registration
// order, best effort.
type RollbackService struct {
	mu     sync.Mutex
	logger *zap.Logger
	byTx   map[string][]Compensation
}

// NewRollbackService builds the service.
func NewRollbackService(logger *zap.Logger) *RollbackService {
	return &RollbackService{
		logger: logger,
		byTx:   make(map[string][]Compensation),
	}
}

// Register records a compensation for the transaction. Order of registration
// is order of execution.
func (s *RollbackService) Register(txID string, c Compensation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byTx[txID] = append(s.byTx[txID], c)
}

// ClearTransaction discards registrations after a successful commit.
func (s *RollbackService) ClearTransaction(txID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byTx, txID)
}

// PerformRollback rolls the unit of work back, then executes every
// registered compensation for it. A failing compensation is logged and does
// not stop the remaining ones.
func (s *RollbackService) PerformRollback(ctx context.Context, u UnitOfWork) RollbackResult {
	result := RollbackResult{Success: true}

	if err := u.Rollback(ctx); err != nil {
		result.Success = false
		s.logger.Error("transaction rollback failed",
			zap.String("tx_id", u.ID()),
			zap.Error(err),
		)
	}

	s.mu.Lock()
	compensations := s.byTx[u.ID()]
	delete(s.byTx, u.ID())
	s.mu.Unlock()

	for _, c := range compensations {
		if err := c.Execute(ctx); err != nil {
			result.CompensationsFailed = append(result.CompensationsFailed, c.ID)
			s.logger.Error("compensation failed",
				zap.String("tx_id", u.ID()),
				zap.String("compensation_id", c.ID),
				zap.String("kind", c.Kind),
				zap.Error(err),
			)
			continue
		}
		result.CompensationsRun = append(result.CompensationsRun, c.ID)
		s.logger.Info("compensation executed",
			zap.String("tx_id", u.ID()),
			zap.String("compensation_id", c.ID),
			zap.String("kind", c.Kind),
		)
	}
	return result
}

// PendingCount reports how many compensations are registered for the
// transaction.
func (s *RollbackService) PendingCount(txID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byTx[txID])
}
