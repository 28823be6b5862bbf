// Package audit records the transition history of documents: who ran
// which transition, when, and what the outcome was.
package audit

import (
	"context"
	"time"

	"saldo/internal/core/id"
)

// Entry is one recorded document transition.
type Entry struct {
	ID         id.ID     `db:"id" json:"id"`
	TenantID   id.ID     `db:"tenant_id" json:"tenantId"`
	DocumentID id.ID     `db:"document_id" json:"documentId"`
	Kind       string    `db:"kind" json:"kind"`
	Number     string    `db:"number" json:"number,omitempty"`
	Intent     string    `db:"intent" json:"intent"`
	Status     string    `db:"status" json:"status"`
	Attempt    int       `db:"attempt" json:"attempt"`
	UserID     string    `db:"user_id" json:"userId,omitempty"`
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`

	// Snapshot is the serialized transition event. The storage layer
	// compresses it on write and decompresses on read.
	Snapshot []byte `db:"snapshot" json:"-"`
}

// Repository defines audit trail persistence. Entries are append-only.
type Repository interface {
	// Insert persists one entry.
	Insert(ctx context.Context, entry *Entry) error

	// ListByDocument retrieves a document's history, oldest first.
	ListByDocument(ctx context.Context, documentID id.ID, limit int) ([]*Entry, error)

	// ListRecent retrieves the tenant's newest entries.
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
}
