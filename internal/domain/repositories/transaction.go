package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions. The orchestrator runs
// each push batch inside one transaction: rejected records are skipped at
// the application level (no statement fails), so accepted ones still
// commit, and the watermark read after ExecTx returns is guaranteed to
// cover everything the batch wrote.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
