package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/firm-service/internal/observability"
	"github.com/spec-kit/firm-service/internal/uow"
	apperrors "github.com/spec-kit/firm-service/pkg/util/errorutil"
)

// txRunner drives the shared transaction discipline of the lifecycle
// services: begin, run, and on any failure roll back and execute registered
// compensations. Every code path ends in Commit or Rollback.
type txRunner struct {
	uow      uow.Factory
	rollback *uow.RollbackService
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// withUnitOfWork wraps fn in a transaction. Typed business failures
// (DomainError other than INTERNAL_ERROR) propagate as-is after rollback;
// anything else is logged with full context and surfaced as a generic
// internal failure.
func (r *txRunner) withUnitOfWork(ctx context.Context, operation, guildID string, fn func(ctx context.Context, u uow.UnitOfWork) error) error {
	started := time.Now()

	u, err := r.uow.Begin(ctx)
	if err != nil {
		// nothing has happened yet; no compensation owed
		r.metrics.RecordOperation(operation, guildID, false, time.Since(started))
		r.logger.Error("begin transaction failed",
			zap.String("operation", operation),
			zap.String("guild_id", guildID),
			zap.Error(err),
		)
		return apperrors.NewInternalError(err)
	}

	if err := fn(ctx, u); err != nil {
		r.rollback.PerformRollback(ctx, u)
		r.metrics.RecordRollback(operation, guildID)
		r.metrics.RecordOperation(operation, guildID, false, time.Since(started))

		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code != "INTERNAL_ERROR" {
			return err
		}
		r.logger.Error("operation failed",
			zap.String("operation", operation),
			zap.String("guild_id", guildID),
			zap.String("tx_id", u.ID()),
			zap.Error(err),
		)
		return apperrors.NewInternalError(err)
	}

	if err := u.Commit(ctx); err != nil {
		r.rollback.PerformRollback(ctx, u)
		r.metrics.RecordRollback(operation, guildID)
		r.metrics.RecordOperation(operation, guildID, false, time.Since(started))
		r.logger.Error("commit failed",
			zap.String("operation", operation),
			zap.String("guild_id", guildID),
			zap.String("tx_id", u.ID()),
			zap.Error(err),
		)
		return apperrors.NewInternalError(err)
	}

	r.rollback.ClearTransaction(u.ID())
	r.metrics.RecordOperation(operation, guildID, true, time.Since(started))
	return nil
}
