package models

import "time"

// Changes groups one entity type's delta in either direction: full records
// for creates and updates, bare ids for deletes.
type Changes[T Syncable] struct {
	Created []T      `json:"created"`
	Updated []T      `json:"updated"`
	Deleted []string `json:"deleted"`
}

// IsEmpty reports whether the change set carries nothing.
func (c *Changes[T]) IsEmpty() bool {
	return c == nil || (len(c.Created) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0)
}

// ChangeSet is the per-entity-type delta envelope used on the wire in both
// directions. Absent types are nil on the way in; the server always fills
// all four on the way out.
type ChangeSet struct {
	Notes      *Changes[*Note]      `json:"notes,omitempty"`
	Tags       *Changes[*Tag]       `json:"tags,omitempty"`
	TodoItems  *Changes[*TodoItem]  `json:"todo_items,omitempty"`
	NoteImages *Changes[*NoteImage] `json:"note_images,omitempty"`
}

// SyncRequest is the combined push+pull payload of POST /sync. A nil
// LastSyncedAt means initial sync.
type SyncRequest struct {
	LastSyncedAt *time.Time `json:"last_synced_at"`
	Changes      ChangeSet  `json:"changes"`
}

// SyncResponse returns the server-side delta since the client's watermark,
// the new watermark, and the per-record outcome of the push.
type SyncResponse struct {
	LastSyncedAt time.Time `json:"last_synced_at"`
	Changes      ChangeSet `json:"changes"`
	Results      ResultSet `json:"results"`
}

// RejectedRecord reports one pushed record that failed, with the reason.
// The rest of the batch commits regardless.
type RejectedRecord struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ApplyResult is the push outcome for one entity type.
type ApplyResult struct {
	Applied  []string         `json:"applied,omitempty"`
	Rejected []RejectedRecord `json:"rejected,omitempty"`
}

// ResultSet groups push outcomes per entity type.
type ResultSet struct {
	Notes      ApplyResult `json:"notes"`
	Tags       ApplyResult `json:"tags"`
	TodoItems  ApplyResult `json:"todo_items"`
	NoteImages ApplyResult `json:"note_images"`
}
