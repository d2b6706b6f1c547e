package memory

import (
	"context"

	"moment/internal/domain/repositories"
)

// TxManager satisfies repositories.TransactionManager for the in-memory
// stores, which commit every write immediately. It exists so the
// orchestrator wires up identically against memory and postgres.
type TxManager struct{}

// NewTxManager creates a no-op transaction manager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

// ExecTx runs fn directly; there is nothing to begin or commit.
func (*TxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
