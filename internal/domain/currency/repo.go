package currency

import (
	"context"
	"time"

	"saldo/internal/core/id"
	"saldo/internal/domain"
)

// Repository defines the interface for Currency persistence.
type Repository interface {
	domain.CatalogRepository[*Currency]

	// FindByISOCode retrieves currency by ISO code (unique within tenant).
	FindByISOCode(ctx context.Context, isoCode string) (*Currency, error)

	// GetForUpdate retrieves currency with row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Currency, error)

	// GetBase retrieves the tenant's base currency, or apperror
	// NOT_FOUND when none is flagged.
	GetBase(ctx context.Context) (*Currency, error)

	// ClearBase clears the base flag on all currencies (before setting new base).
	ClearBase(ctx context.Context) error
}

// RateRepository defines the interface for exchange rate history.
type RateRepository interface {
	// Insert appends a rate quotation.
	Insert(ctx context.Context, rate *ExchangeRate) error

	// Latest retrieves the newest quotation with effective_date <= asOf.
	// Returns apperror NOT_FOUND when no quotation qualifies.
	Latest(ctx context.Context, currencyID id.ID, asOf time.Time) (*ExchangeRate, error)

	// ListForCurrency retrieves the quotation history, newest first.
	ListForCurrency(ctx context.Context, currencyID id.ID, limit int) ([]*ExchangeRate, error)
}
