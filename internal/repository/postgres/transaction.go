package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"moment/internal/domain/repositories"
)

// TransactionManager implements repositories.TransactionManager on a pgx
// pool.
type TransactionManager struct {
	pool *pgxpool.Pool
}

// NewTransactionManager creates a new transaction manager.
func NewTransactionManager(pool *pgxpool.Pool) repositories.TransactionManager {
	return &TransactionManager{pool: pool}
}

// ExecTx executes fn within a transaction. The transaction travels through
// the context so repositories join it via GetExecutor.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Rollback after commit is a safe no-op (ErrTxClosed).
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			slog.Warn("transaction rollback failed", "error", err)
		}
	}()

	if err := fn(repositories.SetTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// SystemClock reads the database server's clock, which is the clock that
// stamps every write. Watermarks must come from here, not from the app
// host, or skew between the two could hide changes from a pull.
type SystemClock struct {
	pool *pgxpool.Pool
}

// NewSystemClock creates a Clock backed by the database.
func NewSystemClock(pool *pgxpool.Pool) repositories.Clock {
	return &SystemClock{pool: pool}
}

// Now returns the database server's current time.
func (c *SystemClock) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	executor := GetExecutor(ctx, c.pool)
	if err := executor.QueryRow(ctx, `SELECT clock_timestamp()`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("read server clock: %w", err)
	}
	return now.UTC(), nil
}
