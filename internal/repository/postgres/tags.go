package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"moment/internal/domain"
	"moment/internal/domain/models"
	"moment/internal/domain/repositories"
)

// TagStore implements EntityStore for tags. Same timestamp and ownership
// discipline as NoteStore.
type TagStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTagStore creates the postgres-backed tag store.
func NewTagStore(config *RepositoryConfig) repositories.EntityStore[*models.Tag] {
	return &TagStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const tagColumns = `id, user_id, name, created_at, updated_at, deleted_at`

func scanTag(row interface{ Scan(...interface{}) error }) (*models.Tag, error) {
	var t models.Tag
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TagStore) Get(ctx context.Context, userID, id string) (*models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, tagColumns, s.tables.Tags)

	executor := GetExecutor(ctx, s.pool)
	tag, err := scanTag(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

func (s *TagStore) Upsert(ctx context.Context, userID string, tag *models.Tag) (*models.Tag, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (id, user_id, name, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, clock_timestamp(), clock_timestamp(), NULL)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			deleted_at = NULL,
			updated_at = GREATEST(clock_timestamp(), %[1]s.updated_at + interval '1 microsecond')
		WHERE %[1]s.user_id = EXCLUDED.user_id
		RETURNING %[2]s
	`, s.tables.Tags, tagColumns)

	executor := GetExecutor(ctx, s.pool)
	stored, err := scanTag(executor.QueryRow(ctx, query, tag.ID, userID, tag.Name))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("tag %s: %w", tag.ID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("upsert tag: %w", err)
	}
	return stored, nil
}

func (s *TagStore) SoftDelete(ctx context.Context, userID, id string) error {
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET deleted_at = clock_timestamp(),
			updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, s.tables.Tags)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, id, userID); err != nil {
		return fmt.Errorf("soft delete tag: %w", err)
	}
	return nil
}

func (s *TagStore) ListChangedSince(ctx context.Context, userID string, since *time.Time) ([]*models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
	`, tagColumns, s.tables.Tags)
	args := []interface{}{userID}

	if since != nil {
		query += ` AND updated_at > $2`
		args = append(args, *since)
	}
	query += ` ORDER BY updated_at`

	executor := GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list changed tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list changed tags: %w", err)
	}
	return tags, nil
}
