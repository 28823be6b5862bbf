package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/core/types"
)

// Converter resolves exchange rates and computes base-currency equivalents.
//
// Resolution rule: the tenant's base currency is always 1 and needs no
// quotation; any other currency takes the latest quotation effective on or
// before the requested date. Equivalent computation shares one rounding
// path (types.RoundAmount) with the ledger, so posted groups balance in
// base currency exactly when they balance in document currency.
type Converter struct {
	currencies Repository
	rates      RateRepository
}

// NewConverter creates a converter over the currency catalog and rate history.
func NewConverter(currencies Repository, rates RateRepository) *Converter {
	return &Converter{
		currencies: currencies,
		rates:      rates,
	}
}

// Resolve returns the exchange rate for the currency effective at asOf.
func (c *Converter) Resolve(ctx context.Context, currencyID id.ID, asOf time.Time) (decimal.Decimal, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return decimal.Decimal{}, apperror.NewTenantScopeMissing()
	}

	curr, err := c.currencies.GetByID(ctx, currencyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return decimal.Decimal{}, apperror.NewCurrencyNotFound(currencyID.String(), asOf.Format("2006-01-02"))
		}
		return decimal.Decimal{}, err
	}

	if curr.IsBase || (curr.ISOCode != nil && *curr.ISOCode == scope.BaseCurrency) {
		return decimal.NewFromInt(1), nil
	}

	quote, err := c.rates.Latest(ctx, currencyID, asOf)
	if err != nil {
		if apperror.IsNotFound(err) {
			return decimal.Decimal{}, apperror.NewCurrencyNotFound(displayCode(curr), asOf.Format("2006-01-02"))
		}
		return decimal.Decimal{}, err
	}

	return quote.Rate, nil
}

// Equivalent converts a document-currency amount to base currency.
// Must be the only conversion path: LedgerPoster relies on identical
// rounding to keep Σdebit == Σcredit in equivalents.
func (c *Converter) Equivalent(amount, rate decimal.Decimal) decimal.Decimal {
	return types.RoundAmount(amount.Mul(rate))
}

func displayCode(curr *Currency) string {
	if curr.ISOCode != nil && *curr.ISOCode != "" {
		return *curr.ISOCode
	}
	return curr.Code
}
