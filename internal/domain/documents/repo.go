package documents

import (
	"context"
	"time"

	"saldo/internal/core/id"
	"saldo/internal/domain"
)

// Repository defines operations for documents of every kind.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, docID id.ID) (*Document, error)
	GetByNumber(ctx context.Context, kind Kind, number string) (*Document, error)
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]DocumentLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []DocumentLine) error
	UpdateLineFulfillment(ctx context.Context, line *DocumentLine) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error)

	// GetForUpdate acquires the exclusive row lock that serializes
	// transitions for one document. A lock wait beyond the configured
	// timeout surfaces as a retryable concurrency conflict.
	GetForUpdate(ctx context.Context, docID id.ID) (*Document, error)
}

// ListFilter for filtering documents.
type ListFilter struct {
	domain.ListFilter

	// Document-specific filters
	Kind           *Kind
	Status         *Status
	CounterpartyID *id.ID
	StoreID        *id.ID
	DateFrom       *time.Time
	DateTo         *time.Time
}
