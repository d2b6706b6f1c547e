package models

import "time"

// SyncBase carries the fields shared by every synced entity. Timestamps are
// server-assigned: the store re-stamps updated_at on every accepted write
// and never trusts client-supplied values. A non-nil DeletedAt marks a
// tombstone, which is kept forever so late-syncing devices learn about the
// delete.
type SyncBase struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Base exposes the shared fields; having the one method on the embedded
// struct lets generic store and sync code operate on any entity type.
func (b *SyncBase) Base() *SyncBase { return b }

// Syncable is implemented by every entity through its embedded SyncBase.
type Syncable interface {
	Base() *SyncBase
}

// Note is a captured voice or text note. ParentNoteID, when set, always
// stores the root ancestor of a follow-up chain, so stored chains never
// nest more than one level deep.
type Note struct {
	SyncBase
	Title              string  `json:"title"`
	Content            string  `json:"content"`
	IsFavorite         bool    `json:"is_favorite"`
	Transcript         string  `json:"transcript"`
	TranscriptSegments string  `json:"transcript_segments"`
	AudioURL           *string `json:"audio_url,omitempty"`
	ParentNoteID       *string `json:"parent_note_id,omitempty"`
}

// Tag is a user-defined label.
type Tag struct {
	SyncBase
	Name string `json:"name"`
}

// TodoItem is a checklist line extracted from a note. Deadline round-trips
// through sync unchanged.
type TodoItem struct {
	SyncBase
	NoteID      string     `json:"note_id"`
	Text        string     `json:"text"`
	IsCompleted bool       `json:"is_completed"`
	LineIndex   int        `json:"line_index"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// NoteImage references an uploaded image attached to a note. RemoteURL is
// an opaque blob-store key; the server never dereferences it during sync.
type NoteImage struct {
	SyncBase
	NoteID        string `json:"note_id"`
	RemoteURL     string `json:"remote_url"`
	LocalFilename string `json:"local_filename"`
}
