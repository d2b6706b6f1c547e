package sync

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"moment/internal/domain"
	"moment/internal/domain/models"
)

// Field validation for pushed records. Failures are scoped to the record:
// the reconciler reports them per id and commits the rest of the batch.

func validateNote(n *models.Note) error {
	err := validation.ValidateStruct(n,
		validation.Field(&n.ID, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateTag(t *models.Tag) error {
	err := validation.ValidateStruct(t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Name, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateTodoItem(i *models.TodoItem) error {
	err := validation.ValidateStruct(i,
		validation.Field(&i.ID, validation.Required),
		validation.Field(&i.NoteID, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateNoteImage(img *models.NoteImage) error {
	err := validation.ValidateStruct(img,
		validation.Field(&img.ID, validation.Required),
		validation.Field(&img.NoteID, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
