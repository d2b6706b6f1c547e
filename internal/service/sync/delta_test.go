package sync

import (
	"context"
	"testing"

	"moment/internal/domain/models"
)

func TestPullInitialSync(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	e := NewDeltaEngine(stores, testLogger())

	seedNote(t, stores.Notes, "user-1", "live", nil)
	seedNote(t, stores.Notes, "user-1", "gone", nil)
	if err := stores.Notes.SoftDelete(ctx, "user-1", "gone"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := stores.Tags.Upsert(ctx, "user-1", &models.Tag{SyncBase: models.SyncBase{ID: "t1"}, Name: "work"}); err != nil {
		t.Fatalf("seed tag: %v", err)
	}

	changes, err := e.Pull(ctx, "user-1", nil)
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}

	if got := changes.Notes.Created; len(got) != 1 || got[0].ID != "live" {
		t.Errorf("notes created = %v, want [live]", ids(got))
	}
	// A device with nothing local has nothing to delete.
	if got := changes.Notes.Deleted; len(got) != 0 {
		t.Errorf("notes deleted = %v, want none on initial sync", got)
	}
	if got := changes.Notes.Updated; len(got) != 0 {
		t.Errorf("notes updated = %v, want none on initial sync", ids(got))
	}
	if got := changes.Tags.Created; len(got) != 1 || got[0].ID != "t1" {
		t.Errorf("tags created = %v, want [t1]", ids(got))
	}

	// All four types present even when empty, so clients need no nil checks.
	if changes.TodoItems == nil || changes.NoteImages == nil {
		t.Error("pull omitted an entity type")
	}
	if changes.TodoItems.Created == nil || changes.TodoItems.Updated == nil || changes.TodoItems.Deleted == nil {
		t.Error("pull returned nil slices instead of empty ones")
	}
}

func TestPullClassifiesAgainstWatermark(t *testing.T) {
	ctx := context.Background()
	stores, clock := newTestStores()
	e := NewDeltaEngine(stores, testLogger())

	seedNote(t, stores.Notes, "user-1", "old-untouched", nil)
	oldChanged := seedNote(t, stores.Notes, "user-1", "old-changed", nil)
	seedNote(t, stores.Notes, "user-1", "old-deleted", nil)

	watermark, err := clock.Now(ctx)
	if err != nil {
		t.Fatalf("clock: %v", err)
	}

	oldChanged.Title = "revised"
	if _, err := stores.Notes.Upsert(ctx, "user-1", oldChanged); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := stores.Notes.SoftDelete(ctx, "user-1", "old-deleted"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seedNote(t, stores.Notes, "user-1", "brand-new", nil)

	changes, err := e.Pull(ctx, "user-1", &watermark)
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}

	if got := ids(changes.Notes.Created); len(got) != 1 || got[0] != "brand-new" {
		t.Errorf("created = %v, want [brand-new]", got)
	}
	if got := ids(changes.Notes.Updated); len(got) != 1 || got[0] != "old-changed" {
		t.Errorf("updated = %v, want [old-changed]", got)
	}
	if got := changes.Notes.Deleted; len(got) != 1 || got[0] != "old-deleted" {
		t.Errorf("deleted = %v, want [old-deleted]", got)
	}
}

func TestPullWatermarkBoundaryIsStrict(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	e := NewDeltaEngine(stores, testLogger())

	saved := seedNote(t, stores.Notes, "user-1", "n1", nil)

	// A watermark equal to the record's stamp must not re-send it.
	changes, err := e.Pull(ctx, "user-1", &saved.UpdatedAt)
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if !changes.Notes.IsEmpty() {
		t.Errorf("record re-sent at exact watermark: created=%v updated=%v deleted=%v",
			ids(changes.Notes.Created), ids(changes.Notes.Updated), changes.Notes.Deleted)
	}
}

func TestPullDoesNotLeakOtherUsers(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()
	e := NewDeltaEngine(stores, testLogger())

	seedNote(t, stores.Notes, "alice", "a1", nil)
	seedNote(t, stores.Notes, "bob", "b1", nil)

	changes, err := e.Pull(ctx, "alice", nil)
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if got := ids(changes.Notes.Created); len(got) != 1 || got[0] != "a1" {
		t.Errorf("created = %v, want [a1]", got)
	}
}

func TestPullTombstoneNeverReportsContent(t *testing.T) {
	ctx := context.Background()
	stores, clock := newTestStores()
	e := NewDeltaEngine(stores, testLogger())

	watermark, err := clock.Now(ctx)
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	seedNote(t, stores.Notes, "user-1", "n1", nil)
	if err := stores.Notes.SoftDelete(ctx, "user-1", "n1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Created after the watermark but already tombstoned: deleted only,
	// never also created or updated.
	changes, err := e.Pull(ctx, "user-1", &watermark)
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if got := changes.Notes.Deleted; len(got) != 1 || got[0] != "n1" {
		t.Errorf("deleted = %v, want [n1]", got)
	}
	if len(changes.Notes.Created) != 0 || len(changes.Notes.Updated) != 0 {
		t.Errorf("tombstone leaked as created=%v updated=%v",
			ids(changes.Notes.Created), ids(changes.Notes.Updated))
	}
}

func ids[T models.Syncable](records []T) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Base().ID)
	}
	return out
}
