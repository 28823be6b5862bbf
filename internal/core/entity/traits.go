package entity

import (
	"context"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
)

// CurrencyAware is a trait for entities with a currency dimension,
// composed into documents that carry foreign-currency amounts.
type CurrencyAware struct {
	// CurrencyID is the document currency
	CurrencyID id.ID `db:"currency_id" json:"currencyId"`
}

// ValidateCurrency ensures a currency is set.
func (c *CurrencyAware) ValidateCurrency(ctx context.Context) error {
	if id.IsNil(c.CurrencyID) {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currencyId")
	}
	return nil
}

// GetCurrencyID returns the currency id.
func (c *CurrencyAware) GetCurrencyID() id.ID {
	return c.CurrencyID
}
