package entity

import (
	"context"
	"time"

	"saldo/internal/core/apperror"
)

// Document is the base shape for business documents. Kind-specific fields and
// the status lifecycle live in the domain documents package; this base carries
// only what every document shares.
type Document struct {
	BaseDocument

	// Number is the human-readable reference, assigned at confirmation
	// (unique within tenant+kind, used as the journal reference string)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// Validate implements Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// IsBackdated checks if the document date is in the past.
func (d *Document) IsBackdated() bool {
	return d.Date.Before(time.Now().UTC().Truncate(24 * time.Hour))
}
