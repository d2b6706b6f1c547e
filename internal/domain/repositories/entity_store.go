package repositories

import (
	"context"
	"time"

	"moment/internal/domain/models"
)

// EntityStore is the durable storage contract shared by all synced entity
// types. Every operation is scoped by userID; touching an id owned by
// another user fails with domain.ErrNotFound so existence never leaks.
type EntityStore[T models.Syncable] interface {
	// Get returns the live (non-tombstoned) record, or domain.ErrNotFound.
	Get(ctx context.Context, userID, id string) (T, error)

	// Upsert inserts or replaces the record, re-stamping updated_at with
	// the store clock (client timestamps are never trusted). Upserting a
	// tombstoned id revives it: deleted_at clears and fields are replaced.
	// The returned record carries the server-assigned timestamps.
	Upsert(ctx context.Context, userID string, entity T) (T, error)

	// SoftDelete tombstones the record and advances updated_at so the
	// delete propagates through delta pulls. Deleting an already-deleted
	// or absent id is a no-op.
	SoftDelete(ctx context.Context, userID, id string) error

	// ListChangedSince returns the user's records with updated_at strictly
	// after the watermark, tombstones included, ordered by updated_at.
	// A nil watermark returns everything.
	ListChangedSince(ctx context.Context, userID string, since *time.Time) ([]T, error)
}

// Stores bundles the four entity stores the sync core operates on.
type Stores struct {
	Notes      EntityStore[*models.Note]
	Tags       EntityStore[*models.Tag]
	TodoItems  EntityStore[*models.TodoItem]
	NoteImages EntityStore[*models.NoteImage]
}

// Clock exposes the store's notion of current time. Sync watermarks must
// come from the same clock that stamps writes, so the orchestrator reads it
// here rather than calling time.Now directly.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}
