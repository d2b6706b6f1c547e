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

// NoteStore implements EntityStore for notes.
//
// Writes re-stamp updated_at with GREATEST(clock_timestamp(), previous + 1
// microsecond) so timestamps are strictly increasing per row even when two
// writes land in the same clock tick; the strict > watermark comparison in
// delta pulls depends on that. Ownership is enforced inside the upsert's
// conflict clause: an id held by another user updates zero rows and
// surfaces as domain.ErrNotFound.
type NoteStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewNoteStore creates the postgres-backed note store.
func NewNoteStore(config *RepositoryConfig) repositories.EntityStore[*models.Note] {
	return &NoteStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const noteColumns = `id, user_id, title, content, is_favorite, transcript, transcript_segments, audio_url, parent_note_id, created_at, updated_at, deleted_at`

func scanNote(row interface{ Scan(...interface{}) error }) (*models.Note, error) {
	var n models.Note
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Content,
		&n.IsFavorite,
		&n.Transcript,
		&n.TranscriptSegments,
		&n.AudioURL,
		&n.ParentNoteID,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Get returns the live note, excluding tombstones.
func (s *NoteStore) Get(ctx context.Context, userID, id string) (*models.Note, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, noteColumns, s.tables.Notes)

	executor := GetExecutor(ctx, s.pool)
	note, err := scanNote(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// Upsert inserts or replaces the note, clearing any tombstone.
func (s *NoteStore) Upsert(ctx context.Context, userID string, note *models.Note) (*models.Note, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (id, user_id, title, content, is_favorite, transcript, transcript_segments, audio_url, parent_note_id, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, clock_timestamp(), clock_timestamp(), NULL)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			is_favorite = EXCLUDED.is_favorite,
			transcript = EXCLUDED.transcript,
			transcript_segments = EXCLUDED.transcript_segments,
			audio_url = EXCLUDED.audio_url,
			parent_note_id = EXCLUDED.parent_note_id,
			deleted_at = NULL,
			updated_at = GREATEST(clock_timestamp(), %[1]s.updated_at + interval '1 microsecond')
		WHERE %[1]s.user_id = EXCLUDED.user_id
		RETURNING %[2]s
	`, s.tables.Notes, noteColumns)

	executor := GetExecutor(ctx, s.pool)
	stored, err := scanNote(executor.QueryRow(ctx, query,
		note.ID,
		userID,
		note.Title,
		note.Content,
		note.IsFavorite,
		note.Transcript,
		note.TranscriptSegments,
		note.AudioURL,
		note.ParentNoteID,
	))
	if err != nil {
		if IsPgNoRowsError(err) {
			// Conflict row belongs to someone else.
			return nil, fmt.Errorf("note %s: %w", note.ID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("upsert note: %w", err)
	}
	return stored, nil
}

// SoftDelete tombstones the note. Absent or already-deleted ids are a no-op.
func (s *NoteStore) SoftDelete(ctx context.Context, userID, id string) error {
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET deleted_at = clock_timestamp(),
			updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, s.tables.Notes)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, id, userID); err != nil {
		return fmt.Errorf("soft delete note: %w", err)
	}
	return nil
}

// ListChangedSince returns notes changed after the watermark, tombstones
// included.
func (s *NoteStore) ListChangedSince(ctx context.Context, userID string, since *time.Time) ([]*models.Note, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
	`, noteColumns, s.tables.Notes)
	args := []interface{}{userID}

	if since != nil {
		query += ` AND updated_at > $2`
		args = append(args, *since)
	}
	query += ` ORDER BY updated_at`

	executor := GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list changed notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list changed notes: %w", err)
	}
	return notes, nil
}
