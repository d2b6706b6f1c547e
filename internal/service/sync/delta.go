package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moment/internal/domain"
	"moment/internal/domain/models"
	"moment/internal/domain/repositories"
)

// DeltaEngine computes the server-side changes visible to a client since a
// watermark. It holds no state beyond the current request.
type DeltaEngine struct {
	stores repositories.Stores
	logger *slog.Logger
}

// NewDeltaEngine creates a delta engine over the given stores.
func NewDeltaEngine(stores repositories.Stores, logger *slog.Logger) *DeltaEngine {
	return &DeltaEngine{stores: stores, logger: logger}
}

// Pull returns the per-entity-type delta since the watermark. A nil
// watermark means initial sync: every live record comes back as created
// and tombstones are omitted, since a device with nothing local has
// nothing to delete.
func (e *DeltaEngine) Pull(ctx context.Context, userID string, since *time.Time) (*models.ChangeSet, error) {
	notes, err := pullChanges(ctx, e.stores.Notes, userID, since)
	if err != nil {
		return nil, err
	}
	tags, err := pullChanges(ctx, e.stores.Tags, userID, since)
	if err != nil {
		return nil, err
	}
	todoItems, err := pullChanges(ctx, e.stores.TodoItems, userID, since)
	if err != nil {
		return nil, err
	}
	noteImages, err := pullChanges(ctx, e.stores.NoteImages, userID, since)
	if err != nil {
		return nil, err
	}

	return &models.ChangeSet{
		Notes:      notes,
		Tags:       tags,
		TodoItems:  todoItems,
		NoteImages: noteImages,
	}, nil
}

// pullChanges classifies one entity type's records against the watermark:
// tombstones report as deleted (id only); live records created after the
// watermark as created; the rest as updated. The split lets clients apply
// the payload without first-seen bookkeeping of their own.
//
// The watermark comparison is strict > (done in the store) so a record
// stamped exactly at the watermark is never re-sent.
func pullChanges[T models.Syncable](
	ctx context.Context,
	store repositories.EntityStore[T],
	userID string,
	since *time.Time,
) (*models.Changes[T], error) {
	records, err := store.ListChangedSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	ch := &models.Changes[T]{
		Created: []T{},
		Updated: []T{},
		Deleted: []string{},
	}
	for _, rec := range records {
		base := rec.Base()
		switch {
		case base.DeletedAt != nil:
			if since != nil {
				ch.Deleted = append(ch.Deleted, base.ID)
			}
		case since == nil || base.CreatedAt.After(*since):
			ch.Created = append(ch.Created, rec)
		default:
			ch.Updated = append(ch.Updated, rec)
		}
	}
	return ch, nil
}
