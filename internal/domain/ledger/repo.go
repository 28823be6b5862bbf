package ledger

import (
	"context"

	"saldo/internal/core/id"
	"saldo/internal/domain"
)

// AccountRepository defines the interface for Account persistence.
type AccountRepository interface {
	domain.CatalogRepository[*Account]

	// Referenced reports whether any journal line posts to the account.
	Referenced(ctx context.Context, accountID id.ID) (bool, error)
}

// Repository defines the interface for journal line persistence.
// Lines are append-only; there is no update or delete.
type Repository interface {
	// InsertLines persists one posting group. All lines share a reference,
	// document and attempt; the set is written as a whole.
	InsertLines(ctx context.Context, lines []*JournalLine) error

	// ExistsForAttempt reports whether the (document, attempt) pair has
	// already posted.
	ExistsForAttempt(ctx context.Context, documentID id.ID, attempt int) (bool, error)

	// ExistsForDocument reports whether any lines exist for the document.
	ExistsForDocument(ctx context.Context, documentID id.ID) (bool, error)

	// ListByReference retrieves all lines sharing a reference, in creation order.
	ListByReference(ctx context.Context, reference string) ([]*JournalLine, error)

	// ListByDocument retrieves all lines for a document, in creation order.
	ListByDocument(ctx context.Context, documentID id.ID) ([]*JournalLine, error)
}
