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

// NoteImageStore implements EntityStore for note images. remote_url is an
// opaque blob-store key; sync never dereferences it.
type NoteImageStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewNoteImageStore creates the postgres-backed note image store.
func NewNoteImageStore(config *RepositoryConfig) repositories.EntityStore[*models.NoteImage] {
	return &NoteImageStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const noteImageColumns = `id, user_id, note_id, remote_url, local_filename, created_at, updated_at, deleted_at`

func scanNoteImage(row interface{ Scan(...interface{}) error }) (*models.NoteImage, error) {
	var img models.NoteImage
	err := row.Scan(
		&img.ID,
		&img.UserID,
		&img.NoteID,
		&img.RemoteURL,
		&img.LocalFilename,
		&img.CreatedAt,
		&img.UpdatedAt,
		&img.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (s *NoteImageStore) Get(ctx context.Context, userID, id string) (*models.NoteImage, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, noteImageColumns, s.tables.NoteImages)

	executor := GetExecutor(ctx, s.pool)
	img, err := scanNoteImage(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("note image %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get note image: %w", err)
	}
	return img, nil
}

func (s *NoteImageStore) Upsert(ctx context.Context, userID string, img *models.NoteImage) (*models.NoteImage, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (id, user_id, note_id, remote_url, local_filename, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, clock_timestamp(), clock_timestamp(), NULL)
		ON CONFLICT (id) DO UPDATE SET
			note_id = EXCLUDED.note_id,
			remote_url = EXCLUDED.remote_url,
			local_filename = EXCLUDED.local_filename,
			deleted_at = NULL,
			updated_at = GREATEST(clock_timestamp(), %[1]s.updated_at + interval '1 microsecond')
		WHERE %[1]s.user_id = EXCLUDED.user_id
		RETURNING %[2]s
	`, s.tables.NoteImages, noteImageColumns)

	executor := GetExecutor(ctx, s.pool)
	stored, err := scanNoteImage(executor.QueryRow(ctx, query,
		img.ID,
		userID,
		img.NoteID,
		img.RemoteURL,
		img.LocalFilename,
	))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("note image %s: %w", img.ID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("upsert note image: %w", err)
	}
	return stored, nil
}

func (s *NoteImageStore) SoftDelete(ctx context.Context, userID, id string) error {
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET deleted_at = clock_timestamp(),
			updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, s.tables.NoteImages)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, id, userID); err != nil {
		return fmt.Errorf("soft delete note image: %w", err)
	}
	return nil
}

func (s *NoteImageStore) ListChangedSince(ctx context.Context, userID string, since *time.Time) ([]*models.NoteImage, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
	`, noteImageColumns, s.tables.NoteImages)
	args := []interface{}{userID}

	if since != nil {
		query += ` AND updated_at > $2`
		args = append(args, *since)
	}
	query += ` ORDER BY updated_at`

	executor := GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list changed note images: %w", err)
	}
	defer rows.Close()

	var images []*models.NoteImage
	for rows.Next() {
		img, err := scanNoteImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list changed note images: %w", err)
	}
	return images, nil
}
