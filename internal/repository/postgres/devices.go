package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"moment/internal/domain/repositories"
)

// PostgresDeviceRepository stores per-device push tokens.
type PostgresDeviceRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDeviceRepository creates a new device repository.
func NewDeviceRepository(config *RepositoryConfig) repositories.DeviceRepository {
	return &PostgresDeviceRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// RegisterToken upserts a (user, token) pair. Re-registering is a no-op.
func (r *PostgresDeviceRepository) RegisterToken(ctx context.Context, userID, fcmToken string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, fcm_token, created_at)
		VALUES ($1, $2, clock_timestamp())
		ON CONFLICT (user_id, fcm_token) DO NOTHING
	`, r.tables.UserDevices)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, userID, fcmToken); err != nil {
		return fmt.Errorf("register device token: %w", err)
	}
	return nil
}

// PostgresAIStatsRepository tracks per-user AI usage counters.
type PostgresAIStatsRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAIStatsRepository creates a new AI stats repository.
func NewAIStatsRepository(config *RepositoryConfig) repositories.AIStatsRepository {
	return &PostgresAIStatsRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// IncrementSummarizeCount bumps the user's summarize counter.
func (r *PostgresAIStatsRepository) IncrementSummarizeCount(ctx context.Context, userID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (user_id, summarize_count, updated_at)
		VALUES ($1, 1, clock_timestamp())
		ON CONFLICT (user_id) DO UPDATE SET
			summarize_count = %[1]s.summarize_count + 1,
			updated_at = clock_timestamp()
	`, r.tables.AIStats)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("increment summarize count: %w", err)
	}
	return nil
}
