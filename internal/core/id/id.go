// Package id defines the identifier type shared by every persisted entity.
// Identifiers are UUIDv7: time-ordered, so primary-key order follows
// creation order and B-tree pages stay warm.
package id

import (
	"github.com/google/uuid"
)

// ID aliases uuid.UUID so repositories can pass ids straight to pgx.
type ID = uuid.UUID

// New returns a fresh UUIDv7. The rare entropy failure falls back to V4
// rather than surfacing an error at every call site.
func New() ID {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v7
}

// Parse validates and converts a string form.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse is for constants and tests only.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero identifier.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether id is the zero identifier.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
