package memory

import (
	"time"

	"moment/internal/domain/models"
)

// Entity constructors with deep-copying clone functions. Pointer fields
// must be copied so a stored record never shares memory with a caller's.

// NewNoteStore creates an in-memory note store.
func NewNoteStore(clock *Clock) *Store[*models.Note] {
	return NewStore(clock, cloneNote)
}

// NewTagStore creates an in-memory tag store.
func NewTagStore(clock *Clock) *Store[*models.Tag] {
	return NewStore(clock, cloneTag)
}

// NewTodoItemStore creates an in-memory todo item store.
func NewTodoItemStore(clock *Clock) *Store[*models.TodoItem] {
	return NewStore(clock, cloneTodoItem)
}

// NewNoteImageStore creates an in-memory note image store.
func NewNoteImageStore(clock *Clock) *Store[*models.NoteImage] {
	return NewStore(clock, cloneNoteImage)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneNote(n *models.Note) *models.Note {
	c := *n
	c.DeletedAt = copyTime(n.DeletedAt)
	c.AudioURL = copyString(n.AudioURL)
	c.ParentNoteID = copyString(n.ParentNoteID)
	return &c
}

func cloneTag(t *models.Tag) *models.Tag {
	c := *t
	c.DeletedAt = copyTime(t.DeletedAt)
	return &c
}

func cloneTodoItem(i *models.TodoItem) *models.TodoItem {
	c := *i
	c.DeletedAt = copyTime(i.DeletedAt)
	c.Deadline = copyTime(i.Deadline)
	return &c
}

func cloneNoteImage(img *models.NoteImage) *models.NoteImage {
	c := *img
	c.DeletedAt = copyTime(img.DeletedAt)
	return &c
}
