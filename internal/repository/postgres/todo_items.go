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

// TodoItemStore implements EntityStore for todo items. A todo's note_id is
// not validated against the notes table here: todos survive their note's
// tombstone (no cascade) so a delete-then-recreate of the note keeps them
// intact.
type TodoItemStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTodoItemStore creates the postgres-backed todo item store.
func NewTodoItemStore(config *RepositoryConfig) repositories.EntityStore[*models.TodoItem] {
	return &TodoItemStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const todoColumns = `id, user_id, note_id, text, is_completed, line_index, deadline, created_at, updated_at, deleted_at`

func scanTodoItem(row interface{ Scan(...interface{}) error }) (*models.TodoItem, error) {
	var item models.TodoItem
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.NoteID,
		&item.Text,
		&item.IsCompleted,
		&item.LineIndex,
		&item.Deadline,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *TodoItemStore) Get(ctx context.Context, userID, id string) (*models.TodoItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, todoColumns, s.tables.TodoItems)

	executor := GetExecutor(ctx, s.pool)
	item, err := scanTodoItem(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("todo item %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get todo item: %w", err)
	}
	return item, nil
}

func (s *TodoItemStore) Upsert(ctx context.Context, userID string, item *models.TodoItem) (*models.TodoItem, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (id, user_id, note_id, text, is_completed, line_index, deadline, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, clock_timestamp(), clock_timestamp(), NULL)
		ON CONFLICT (id) DO UPDATE SET
			note_id = EXCLUDED.note_id,
			text = EXCLUDED.text,
			is_completed = EXCLUDED.is_completed,
			line_index = EXCLUDED.line_index,
			deadline = EXCLUDED.deadline,
			deleted_at = NULL,
			updated_at = GREATEST(clock_timestamp(), %[1]s.updated_at + interval '1 microsecond')
		WHERE %[1]s.user_id = EXCLUDED.user_id
		RETURNING %[2]s
	`, s.tables.TodoItems, todoColumns)

	executor := GetExecutor(ctx, s.pool)
	stored, err := scanTodoItem(executor.QueryRow(ctx, query,
		item.ID,
		userID,
		item.NoteID,
		item.Text,
		item.IsCompleted,
		item.LineIndex,
		item.Deadline,
	))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("todo item %s: %w", item.ID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("upsert todo item: %w", err)
	}
	return stored, nil
}

func (s *TodoItemStore) SoftDelete(ctx context.Context, userID, id string) error {
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET deleted_at = clock_timestamp(),
			updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, s.tables.TodoItems)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, id, userID); err != nil {
		return fmt.Errorf("soft delete todo item: %w", err)
	}
	return nil
}

func (s *TodoItemStore) ListChangedSince(ctx context.Context, userID string, since *time.Time) ([]*models.TodoItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
	`, todoColumns, s.tables.TodoItems)
	args := []interface{}{userID}

	if since != nil {
		query += ` AND updated_at > $2`
		args = append(args, *since)
	}
	query += ` ORDER BY updated_at`

	executor := GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list changed todo items: %w", err)
	}
	defer rows.Close()

	var items []*models.TodoItem
	for rows.Next() {
		item, err := scanTodoItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list changed todo items: %w", err)
	}
	return items, nil
}
