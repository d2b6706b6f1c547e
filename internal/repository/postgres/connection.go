package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"moment/internal/domain/repositories"
)

// RepositoryConfig holds the shared dependencies of the postgres
// repositories.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds environment-prefixed table names.
type TableNames struct {
	Notes       string
	Tags        string
	TodoItems   string
	NoteImages  string
	UserDevices string
	AIStats     string
}

// NewTableNames creates table names with the given prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Notes:       prefix + "notes",
		Tags:        prefix + "tags",
		TodoItems:   prefix + "todo_items",
		NoteImages:  prefix + "note_images",
		UserDevices: prefix + "user_devices",
		AIStats:     prefix + "user_ai_stats",
	}
}

// CreateConnectionPool creates a pgx connection pool.
//
// Supabase's transaction pooler (port 6543) does not support prepared
// statements, so when that port is detected the pool switches to
// QueryExecModeCacheDescribe, which keeps the extended protocol without
// creating named prepared statements. An explicit default_query_exec_mode
// in the connection string takes precedence.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction from the context when one is open,
// otherwise the pool. Repositories call this so they transparently join an
// ambient transaction.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
