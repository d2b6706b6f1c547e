package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moment/internal/domain"
	"moment/internal/domain/models"
	"moment/internal/domain/repositories"
)

// Reconciler applies an inbound push batch against the entity stores.
//
// Conflict policy is last-write-wins by server clock: pushed field content
// is trusted, pushed timestamps are not, and the store re-stamps every
// accepted write. A late-arriving push from a stale device therefore
// overwrites a newer one; that is the documented tradeoff of this protocol.
//
// A malformed record fails alone. Only an unreachable store fails the whole
// request, and that error wraps domain.ErrUnavailable so the caller knows
// the request is safe to retry with the same watermark.
//
// Todo items whose note is tombstoned are left orphaned-but-visible rather
// than cascade-deleted: the client owns the note/todo presentation, and a
// delete-then-recreate of the note (same id, which the protocol allows)
// would otherwise have to resurrect cascaded rows.
type Reconciler struct {
	stores repositories.Stores
	logger *slog.Logger
}

// NewReconciler creates a reconciler over the given stores.
func NewReconciler(stores repositories.Stores, logger *slog.Logger) *Reconciler {
	return &Reconciler{stores: stores, logger: logger}
}

// Apply processes the batch and reports the per-record outcome per entity
// type. Notes go first so parents exist before dependent rows.
func (r *Reconciler) Apply(ctx context.Context, userID string, changes *models.ChangeSet) (*models.ResultSet, error) {
	results := &models.ResultSet{}

	resolver := newParentResolver(r.stores.Notes, changes.Notes)
	var err error
	results.Notes, err = r.applyNotes(ctx, userID, changes.Notes, resolver)
	if err != nil {
		return nil, err
	}

	results.Tags, err = applyChanges(ctx, r.stores.Tags, userID, changes.Tags, func(_ context.Context, t *models.Tag) error {
		return validateTag(t)
	})
	if err != nil {
		return nil, err
	}

	results.TodoItems, err = applyChanges(ctx, r.stores.TodoItems, userID, changes.TodoItems, func(_ context.Context, i *models.TodoItem) error {
		return validateTodoItem(i)
	})
	if err != nil {
		return nil, err
	}

	results.NoteImages, err = applyChanges(ctx, r.stores.NoteImages, userID, changes.NoteImages, func(_ context.Context, img *models.NoteImage) error {
		return validateNoteImage(img)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("push applied",
		"user_id", userID,
		"notes_applied", len(results.Notes.Applied),
		"notes_rejected", len(results.Notes.Rejected),
		"tags_applied", len(results.Tags.Applied),
		"todo_items_applied", len(results.TodoItems.Applied),
		"note_images_applied", len(results.NoteImages.Applied),
	)
	return results, nil
}

// applyNotes is the note-shaped variant of applyChanges: deletes still run
// first, but upserts are ordered so an in-batch parent is written before its
// children, and every accepted write is reported back to the resolver. A
// child whose claimed root neither exists in the store nor was accepted
// earlier in the batch is rejected with it.
func (r *Reconciler) applyNotes(ctx context.Context, userID string, ch *models.Changes[*models.Note], resolver *parentResolver) (models.ApplyResult, error) {
	var res models.ApplyResult
	if ch == nil {
		return res, nil
	}

	for _, id := range ch.Deleted {
		if id == "" {
			continue
		}
		// Idempotent: double deletes and unknown ids are not errors.
		if err := r.stores.Notes.SoftDelete(ctx, userID, id); err != nil {
			return res, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		res.Applied = append(res.Applied, id)
	}

	upserts := make([]*models.Note, 0, len(ch.Created)+len(ch.Updated))
	upserts = append(upserts, ch.Created...)
	upserts = append(upserts, ch.Updated...)

	for _, note := range resolver.orderUpserts(upserts) {
		id := note.Base().ID
		err := validateNote(note)
		if err == nil {
			err = resolver.normalize(ctx, userID, note)
		}
		if err != nil {
			if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
				res.Rejected = append(res.Rejected, models.RejectedRecord{ID: id, Reason: err.Error()})
				continue
			}
			return res, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		if _, err := r.stores.Notes.Upsert(ctx, userID, note); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The id exists but belongs to another user; reported
				// exactly like a missing record.
				res.Rejected = append(res.Rejected, models.RejectedRecord{ID: id, Reason: err.Error()})
				continue
			}
			return res, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		resolver.markApplied(id)
		res.Applied = append(res.Applied, id)
	}
	return res, nil
}

// applyChanges runs one entity type's batch: deletes first, then creates,
// then updates, so a delete-then-recreate of the same id within one batch
// deterministically lands as the recreate.
func applyChanges[T models.Syncable](
	ctx context.Context,
	store repositories.EntityStore[T],
	userID string,
	ch *models.Changes[T],
	prep func(context.Context, T) error,
) (models.ApplyResult, error) {
	var res models.ApplyResult
	if ch == nil {
		return res, nil
	}

	for _, id := range ch.Deleted {
		if id == "" {
			continue
		}
		// Idempotent: double deletes and unknown ids are not errors.
		if err := store.SoftDelete(ctx, userID, id); err != nil {
			return res, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		res.Applied = append(res.Applied, id)
	}

	upserts := make([]T, 0, len(ch.Created)+len(ch.Updated))
	upserts = append(upserts, ch.Created...)
	upserts = append(upserts, ch.Updated...)

	for _, entity := range upserts {
		id := entity.Base().ID
		if err := prep(ctx, entity); err != nil {
			if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
				res.Rejected = append(res.Rejected, models.RejectedRecord{ID: id, Reason: err.Error()})
				continue
			}
			return res, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		if _, err := store.Upsert(ctx, userID, entity); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The id exists but belongs to another user; reported
				// exactly like a missing record.
				res.Rejected = append(res.Rejected, models.RejectedRecord{ID: id, Reason: err.Error()})
				continue
			}
			return res, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		res.Applied = append(res.Applied, id)
	}
	return res, nil
}
