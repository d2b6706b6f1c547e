package sync

import (
	"context"
	"fmt"
	"log/slog"

	"moment/internal/domain"
	"moment/internal/domain/models"
	"moment/internal/domain/repositories"
)

// Orchestrator sequences one sync cycle: push through the reconciler, then
// pull through the delta engine, returning a new watermark. Requests are
// independent; nothing is retained between calls.
type Orchestrator struct {
	reconciler *Reconciler
	delta      *DeltaEngine
	txManager  repositories.TransactionManager
	clock      repositories.Clock
	logger     *slog.Logger
}

// NewOrchestrator creates the request-level sync coordinator. The clock
// must be the same one that stamps writes in the stores.
func NewOrchestrator(
	reconciler *Reconciler,
	delta *DeltaEngine,
	txManager repositories.TransactionManager,
	clock repositories.Clock,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		reconciler: reconciler,
		delta:      delta,
		txManager:  txManager,
		clock:      clock,
		logger:     logger,
	}
}

// Sync applies the push payload, captures the new watermark, and computes
// the pull delta against the client's previous watermark.
//
// The watermark is read after the push commits and immediately before the
// pull. Capturing it at request start would miss writes from the user's
// other devices that commit while this request runs; capturing it here
// guarantees the returned watermark covers everything just written.
func (o *Orchestrator) Sync(ctx context.Context, userID string, req *models.SyncRequest) (*models.SyncResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	// The push runs in one transaction. Rejected records are skipped
	// before any statement runs for them, so they never poison the
	// accepted ones.
	var results *models.ResultSet
	err := o.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var applyErr error
		results, applyErr = o.reconciler.Apply(txCtx, userID, &req.Changes)
		return applyErr
	})
	if err != nil {
		return nil, err
	}

	serverNow, err := o.clock.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	changes, err := o.delta.Pull(ctx, userID, req.LastSyncedAt)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("sync cycle completed",
		"user_id", userID,
		"watermark", serverNow,
		"initial", req.LastSyncedAt == nil,
	)

	return &models.SyncResponse{
		LastSyncedAt: serverNow,
		Changes:      *changes,
		Results:      *results,
	}, nil
}
