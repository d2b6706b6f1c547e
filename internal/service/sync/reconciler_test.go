package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"moment/internal/domain"
	"moment/internal/domain/models"
)

func TestApplyPartialFailure(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	r := NewReconciler(stores, testLogger())

	// One well-formed note and one self-parenting note in the same batch.
	results, err := r.Apply(ctx, "user-1", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{Created: []*models.Note{
			{SyncBase: models.SyncBase{ID: "good"}, Title: "keep me"},
			{SyncBase: models.SyncBase{ID: "bad"}, ParentNoteID: strPtr("bad")},
		}},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if got := results.Notes.Applied; len(got) != 1 || got[0] != "good" {
		t.Errorf("applied = %v, want [good]", got)
	}
	if got := results.Notes.Rejected; len(got) != 1 || got[0].ID != "bad" {
		t.Fatalf("rejected = %v, want one entry for bad", got)
	}
	if results.Notes.Rejected[0].Reason == "" {
		t.Error("rejected record carries no reason")
	}

	if _, err := stores.Notes.Get(ctx, "user-1", "good"); err != nil {
		t.Errorf("good note not persisted: %v", err)
	}
	if _, err := stores.Notes.Get(ctx, "user-1", "bad"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("bad note persisted, Get err = %v", err)
	}
}

func TestApplyValidationRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		changes models.ChangeSet
		result  func(rs *models.ResultSet) models.ApplyResult
	}{
		{
			name: "note without id",
			changes: models.ChangeSet{Notes: &models.Changes[*models.Note]{
				Created: []*models.Note{{Title: "anonymous"}},
			}},
			result: func(rs *models.ResultSet) models.ApplyResult { return rs.Notes },
		},
		{
			name: "tag without name",
			changes: models.ChangeSet{Tags: &models.Changes[*models.Tag]{
				Created: []*models.Tag{{SyncBase: models.SyncBase{ID: "t1"}}},
			}},
			result: func(rs *models.ResultSet) models.ApplyResult { return rs.Tags },
		},
		{
			name: "todo item without note id",
			changes: models.ChangeSet{TodoItems: &models.Changes[*models.TodoItem]{
				Created: []*models.TodoItem{{SyncBase: models.SyncBase{ID: "i1"}, Text: "loose"}},
			}},
			result: func(rs *models.ResultSet) models.ApplyResult { return rs.TodoItems },
		},
		{
			name: "image without note id",
			changes: models.ChangeSet{NoteImages: &models.Changes[*models.NoteImage]{
				Created: []*models.NoteImage{{SyncBase: models.SyncBase{ID: "img1"}}},
			}},
			result: func(rs *models.ResultSet) models.ApplyResult { return rs.NoteImages },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores, _ := newTestStores()
			r := NewReconciler(stores, testLogger())

			results, err := r.Apply(ctx, "user-1", &tt.changes)
			if err != nil {
				t.Fatalf("Apply() error: %v", err)
			}
			res := tt.result(results)
			if len(res.Applied) != 0 {
				t.Errorf("applied = %v, want none", res.Applied)
			}
			if len(res.Rejected) != 1 {
				t.Fatalf("rejected = %v, want one entry", res.Rejected)
			}
		})
	}
}

func TestApplyDeleteThenRecreateSameBatch(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	r := NewReconciler(stores, testLogger())

	if _, err := r.Apply(ctx, "user-1", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{Created: []*models.Note{
			{SyncBase: models.SyncBase{ID: "n1"}, Title: "first life"},
		}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Delete and recreate of the same id in one batch: deletes run first,
	// so the recreate wins.
	results, err := r.Apply(ctx, "user-1", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{
			Created: []*models.Note{{SyncBase: models.SyncBase{ID: "n1"}, Title: "second life"}},
			Deleted: []string{"n1"},
		},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(results.Notes.Applied) != 2 {
		t.Errorf("applied = %v, want delete and recreate", results.Notes.Applied)
	}

	got, err := stores.Notes.Get(ctx, "user-1", "n1")
	if err != nil {
		t.Fatalf("note should be live after recreate: %v", err)
	}
	if got.Title != "second life" {
		t.Errorf("title = %q, want %q", got.Title, "second life")
	}
	if got.DeletedAt != nil {
		t.Error("recreated note still tombstoned")
	}
}

func TestApplyDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	r := NewReconciler(stores, testLogger())

	for i := 0; i < 2; i++ {
		results, err := r.Apply(ctx, "user-1", &models.ChangeSet{
			Notes: &models.Changes[*models.Note]{Deleted: []string{"never-existed"}},
		})
		if err != nil {
			t.Fatalf("Apply() round %d error: %v", i, err)
		}
		if len(results.Notes.Rejected) != 0 {
			t.Errorf("round %d rejected = %v, want none", i, results.Notes.Rejected)
		}
	}
}

func TestApplyServerStampsTimestamps(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	r := NewReconciler(stores, testLogger())

	// Client-supplied timestamps must not survive the write.
	claimed := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := r.Apply(ctx, "user-1", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{Created: []*models.Note{
			{SyncBase: models.SyncBase{ID: "n1", CreatedAt: claimed, UpdatedAt: claimed}, Title: "v1"},
		}},
	}); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	first, err := stores.Notes.Get(ctx, "user-1", "n1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.UpdatedAt.Equal(claimed) || first.CreatedAt.Equal(claimed) {
		t.Fatal("store trusted client-supplied timestamps")
	}

	if _, err := r.Apply(ctx, "user-1", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{Updated: []*models.Note{
			{SyncBase: models.SyncBase{ID: "n1"}, Title: "v2"},
		}},
	}); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	second, err := stores.Notes.Get(ctx, "user-1", "n1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updated_at %v not after %v", second.UpdatedAt, first.UpdatedAt)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed across update: %v vs %v", second.CreatedAt, first.CreatedAt)
	}
}

func TestApplyCrossUserIsolation(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	r := NewReconciler(stores, testLogger())

	if _, err := r.Apply(ctx, "alice", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{Created: []*models.Note{
			{SyncBase: models.SyncBase{ID: "shared-id"}, Title: "alice's note"},
		}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	results, err := r.Apply(ctx, "mallory", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{Updated: []*models.Note{
			{SyncBase: models.SyncBase{ID: "shared-id"}, Title: "overwritten"},
		}},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(results.Notes.Rejected) != 1 || results.Notes.Rejected[0].ID != "shared-id" {
		t.Fatalf("rejected = %v, want shared-id", results.Notes.Rejected)
	}

	got, err := stores.Notes.Get(ctx, "alice", "shared-id")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "alice's note" {
		t.Errorf("title = %q, foreign write leaked through", got.Title)
	}

	// A foreign delete must not tombstone the record either.
	if _, err := r.Apply(ctx, "mallory", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{Deleted: []string{"shared-id"}},
	}); err != nil {
		t.Fatalf("foreign delete: %v", err)
	}
	if _, err := stores.Notes.Get(ctx, "alice", "shared-id"); err != nil {
		t.Errorf("alice's note gone after foreign delete: %v", err)
	}
}

func TestApplyParentViaRejectedBatchMate(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	r := NewReconciler(stores, testLogger())

	if _, err := r.Apply(ctx, "victim", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{Created: []*models.Note{
			{SyncBase: models.SyncBase{ID: "b"}, Title: "victim's note"},
		}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// The batch vouches for b as a parent, but b's own write is rejected
	// because the id belongs to someone else. The child has to fall with
	// it; persisting a.parent_note_id = b would leave a link to a record
	// the user does not own.
	results, err := r.Apply(ctx, "attacker", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{
			Created: []*models.Note{{SyncBase: models.SyncBase{ID: "a"}, ParentNoteID: strPtr("b")}},
			Updated: []*models.Note{{SyncBase: models.SyncBase{ID: "b"}, Title: "grabbed"}},
		},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(results.Notes.Applied) != 0 {
		t.Errorf("applied = %v, want none", results.Notes.Applied)
	}
	if len(results.Notes.Rejected) != 2 {
		t.Fatalf("rejected = %v, want both records", results.Notes.Rejected)
	}
	if _, err := stores.Notes.Get(ctx, "attacker", "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("child persisted despite rejected parent, Get err = %v", err)
	}

	got, err := stores.Notes.Get(ctx, "victim", "b")
	if err != nil {
		t.Fatalf("get victim's note: %v", err)
	}
	if got.Title != "victim's note" {
		t.Errorf("title = %q, foreign write leaked through", got.Title)
	}
}

func TestApplyInBatchParentChainAnyOrder(t *testing.T) {
	ctx := context.Background()

	child := func() *models.Note {
		return &models.Note{SyncBase: models.SyncBase{ID: "a"}, ParentNoteID: strPtr("b")}
	}
	middle := func() *models.Note {
		return &models.Note{SyncBase: models.SyncBase{ID: "b"}, ParentNoteID: strPtr("c")}
	}
	root := func() *models.Note {
		return &models.Note{SyncBase: models.SyncBase{ID: "c"}}
	}

	orders := map[string][]*models.Note{
		"child first": {child(), middle(), root()},
		"root first":  {root(), middle(), child()},
	}

	for name, batch := range orders {
		t.Run(name, func(t *testing.T) {
			stores, _ := newTestStores()
			r := NewReconciler(stores, testLogger())

			results, err := r.Apply(ctx, "user-1", &models.ChangeSet{
				Notes: &models.Changes[*models.Note]{Created: batch},
			})
			if err != nil {
				t.Fatalf("Apply() error: %v", err)
			}
			if len(results.Notes.Rejected) != 0 {
				t.Fatalf("rejected = %v, want none", results.Notes.Rejected)
			}

			got, err := stores.Notes.Get(ctx, "user-1", "a")
			if err != nil {
				t.Fatalf("get a: %v", err)
			}
			if got.ParentNoteID == nil || *got.ParentNoteID != "c" {
				t.Errorf("a.parent = %v, want c", got.ParentNoteID)
			}

			gotMiddle, err := stores.Notes.Get(ctx, "user-1", "b")
			if err != nil {
				t.Fatalf("get b: %v", err)
			}
			if gotMiddle.ParentNoteID == nil || *gotMiddle.ParentNoteID != "c" {
				t.Errorf("b.parent = %v, want c", gotMiddle.ParentNoteID)
			}
		})
	}
}

func TestApplyTodoDeadlineRoundTrip(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	r := NewReconciler(stores, testLogger())

	deadline := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	if _, err := r.Apply(ctx, "user-1", &models.ChangeSet{
		TodoItems: &models.Changes[*models.TodoItem]{Created: []*models.TodoItem{
			{SyncBase: models.SyncBase{ID: "i1"}, NoteID: "n1", Text: "file taxes", Deadline: &deadline},
		}},
	}); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	got, err := stores.TodoItems.Get(ctx, "user-1", "i1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("deadline = %v, want %v", got.Deadline, deadline)
	}
}

func TestApplyNoteTombstoneLeavesTodosVisible(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	r := NewReconciler(stores, testLogger())

	if _, err := r.Apply(ctx, "user-1", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{Created: []*models.Note{
			{SyncBase: models.SyncBase{ID: "n1"}, Title: "shopping"},
		}},
		TodoItems: &models.Changes[*models.TodoItem]{Created: []*models.TodoItem{
			{SyncBase: models.SyncBase{ID: "i1"}, NoteID: "n1", Text: "milk"},
		}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := r.Apply(ctx, "user-1", &models.ChangeSet{
		Notes: &models.Changes[*models.Note]{Deleted: []string{"n1"}},
	}); err != nil {
		t.Fatalf("delete note: %v", err)
	}

	// The todo stays live; the client decides how to present orphans.
	if _, err := stores.TodoItems.Get(ctx, "user-1", "i1"); err != nil {
		t.Errorf("todo cascaded away with its note: %v", err)
	}
}
