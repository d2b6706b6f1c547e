package sync

import (
	"context"
	"errors"
	"fmt"

	"moment/internal/domain"
	"moment/internal/domain/models"
	"moment/internal/domain/repositories"
)

// maxParentDepth bounds the root-ancestor traversal. The store invariant
// keeps persisted chains at most one level deep, so two hops reach the root
// of any stored chain plus one un-normalized in-batch link.
const maxParentDepth = 2

// parentResolver rewrites a candidate note's parent_note_id to the root of
// its follow-up chain before the note is persisted. It consults the current
// batch's working set before the store so that a chain pushed within one
// batch resolves no matter the order of its records. A batch-mate only
// counts as a real root once its own write has been accepted; until then
// the store has the final word, so a note never lands pointing at a record
// that was itself rejected.
//
// An absent, foreign, or tombstoned parent rejects the write with a
// validation error rather than silently dropping the link. Cycles are
// structurally impossible once records pass through here, but the input is
// unnormalized and possibly adversarial, so the resolver rejects them
// instead of looping.
type parentResolver struct {
	notes   repositories.EntityStore[*models.Note]
	pending map[string]*models.Note
	applied map[string]bool
}

func newParentResolver(notes repositories.EntityStore[*models.Note], batch *models.Changes[*models.Note]) *parentResolver {
	pending := make(map[string]*models.Note)
	if batch != nil {
		for _, n := range batch.Created {
			if n != nil && n.ID != "" {
				pending[n.ID] = n
			}
		}
		for _, n := range batch.Updated {
			if n != nil && n.ID != "" {
				pending[n.ID] = n
			}
		}
	}
	return &parentResolver{notes: notes, pending: pending, applied: make(map[string]bool)}
}

// markApplied records that a batch-mate's write was accepted, so later
// notes in the same batch may resolve their root through it.
func (r *parentResolver) markApplied(id string) {
	r.applied[id] = true
}

// orderUpserts sorts the batch so a note is written after its in-batch
// parent. Records stuck in a cycle keep their original order; normalize
// rejects them anyway.
func (r *parentResolver) orderUpserts(notes []*models.Note) []*models.Note {
	ordered := make([]*models.Note, 0, len(notes))
	placed := make(map[string]bool, len(notes))
	remaining := notes
	for len(remaining) > 0 {
		var deferred []*models.Note
		for _, n := range remaining {
			if n != nil && n.ParentNoteID != nil && *n.ParentNoteID != "" && *n.ParentNoteID != n.ID {
				if _, inBatch := r.pending[*n.ParentNoteID]; inBatch && !placed[*n.ParentNoteID] {
					deferred = append(deferred, n)
					continue
				}
			}
			ordered = append(ordered, n)
			if n != nil {
				placed[n.ID] = true
			}
		}
		if len(deferred) == len(remaining) {
			ordered = append(ordered, deferred...)
			break
		}
		remaining = deferred
	}
	return ordered
}

// normalize resolves note.ParentNoteID in place.
func (r *parentResolver) normalize(ctx context.Context, userID string, note *models.Note) error {
	if note.ParentNoteID == nil || *note.ParentNoteID == "" {
		note.ParentNoteID = nil
		return nil
	}
	if *note.ParentNoteID == note.ID {
		return fmt.Errorf("%w: note %s references itself as parent", domain.ErrValidation, note.ID)
	}

	seen := map[string]bool{note.ID: true}
	current := *note.ParentNoteID
	for hop := 0; hop < maxParentDepth; hop++ {
		if seen[current] {
			return fmt.Errorf("%w: parent chain of note %s contains a cycle", domain.ErrValidation, note.ID)
		}
		seen[current] = true

		parent, fromBatch, err := r.lookup(ctx, userID, current)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: parent note %s does not exist", domain.ErrValidation, current)
			}
			return err
		}
		if parent.ParentNoteID == nil || *parent.ParentNoteID == "" {
			// A batch-mate vouched for by the working set alone is not
			// enough: unless its write already went through, the root must
			// exist in the store in its own right.
			if fromBatch && !r.applied[current] {
				if _, err := r.notes.Get(ctx, userID, current); err != nil {
					if errors.Is(err, domain.ErrNotFound) {
						return fmt.Errorf("%w: parent note %s does not exist", domain.ErrValidation, current)
					}
					return err
				}
			}
			root := current
			note.ParentNoteID = &root
			return nil
		}
		current = *parent.ParentNoteID
	}
	return fmt.Errorf("%w: parent chain of note %s exceeds depth %d", domain.ErrValidation, note.ID, maxParentDepth)
}

func (r *parentResolver) lookup(ctx context.Context, userID, id string) (*models.Note, bool, error) {
	if n, ok := r.pending[id]; ok {
		return n, true, nil
	}
	n, err := r.notes.Get(ctx, userID, id)
	return n, false, err
}
