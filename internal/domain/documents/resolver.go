package documents

import (
	"context"
	"fmt"

	"saldo/internal/core/id"
	"saldo/internal/domain/currency"
)

// CurrencyResolver determines the currency for a new document.
type CurrencyResolver struct {
	currencies currency.Repository
}

// NewCurrencyResolver creates a new CurrencyResolver.
func NewCurrencyResolver(currencies currency.Repository) *CurrencyResolver {
	return &CurrencyResolver{currencies: currencies}
}

// Resolve returns the explicit currency when one is given, otherwise
// the tenant's base currency.
func (r *CurrencyResolver) Resolve(ctx context.Context, explicitCurrencyID id.ID) (id.ID, error) {
	if !id.IsNil(explicitCurrencyID) {
		return explicitCurrencyID, nil
	}

	base, err := r.currencies.GetBase(ctx)
	if err != nil {
		return id.Nil(), fmt.Errorf("resolve document currency: %w", err)
	}
	return base.ID, nil
}
