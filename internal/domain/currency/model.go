// Package currency provides the Currency catalog and exchange rate resolution.
// Every document-currency amount is also expressed in the tenant's base
// currency via a resolved rate, so ledger groups balance in both.
package currency

import (
	"context"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
)

// Currency represents a monetary unit.
type Currency struct {
	entity.Catalog

	// ISOCode is the ISO 4217 alphabetic code (e.g., "USD", "EUR", "RUB")
	ISOCode *string `db:"iso_code" json:"isoCode"`

	// ISONumericCode is the ISO 4217 numeric code (e.g., 840, 978, 643)
	ISONumericCode *string `db:"iso_numeric_code" json:"isoNumericCode,omitempty"`

	// Symbol is the currency symbol (e.g., "$", "€", "₽")
	Symbol *string `db:"symbol" json:"symbol"`

	// DecimalPlaces is the number of decimal places
	DecimalPlaces int `db:"decimal_places" json:"decimalPlaces"`

	// IsBase indicates if this is the tenant's base (accounting) currency
	IsBase bool `db:"is_base" json:"isBase"`

	// Country is the primary country for this currency
	Country *string `db:"country" json:"country,omitempty"`
}

// NewCurrency creates a new Currency with required fields.
func NewCurrency(tenantID id.ID, code, name string, isoCode, symbol *string) *Currency {
	return &Currency{
		Catalog:       entity.NewCatalog(tenantID, code, name),
		ISOCode:       isoCode,
		Symbol:        symbol,
		DecimalPlaces: 2,
	}
}

// Validate implements entity.Validatable interface.
func (c *Currency) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	// ISO code is required and must be 3 uppercase letters
	if !isValidISOCode(c.ISOCode) {
		return apperror.NewValidation("ISO code must be 3 uppercase letters").
			WithDetail("field", "isoCode").
			WithDetail("value", c.ISOCode)
	}

	// Symbol is required
	if c.Symbol == nil || *c.Symbol == "" {
		return apperror.NewValidation("symbol is required").
			WithDetail("field", "symbol")
	}

	// Decimal places must be non-negative
	if c.DecimalPlaces < 0 || c.DecimalPlaces > 8 {
		return apperror.NewValidation("decimal places must be between 0 and 8").
			WithDetail("field", "decimalPlaces")
	}

	return nil
}

// Format formats an amount according to currency settings.
func (c *Currency) Format(amount decimal.Decimal) string {
	rounded := amount.Round(int32(c.DecimalPlaces))
	formatted := rounded.StringFixed(int32(c.DecimalPlaces))
	return formatted + *c.Symbol
}

// ExchangeRate is one dated rate quotation for a currency against the
// tenant's base currency. Rates form an append-only history; resolution
// picks the latest quotation effective on or before the requested date.
type ExchangeRate struct {
	ID            id.ID           `db:"id" json:"id"`
	TenantID      id.ID           `db:"tenant_id" json:"tenantId"`
	CurrencyID    id.ID           `db:"currency_id" json:"currencyId"`
	Rate          decimal.Decimal `db:"rate" json:"rate"`
	EffectiveDate time.Time       `db:"effective_date" json:"effectiveDate"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// NewExchangeRate creates a rate quotation effective from the given date.
func NewExchangeRate(tenantID, currencyID id.ID, rate decimal.Decimal, effectiveDate time.Time) *ExchangeRate {
	return &ExchangeRate{
		ID:            id.New(),
		TenantID:      tenantID,
		CurrencyID:    currencyID,
		Rate:          rate,
		EffectiveDate: effectiveDate,
		CreatedAt:     time.Now().UTC(),
	}
}

// Validate implements entity.Validatable interface.
func (r *ExchangeRate) Validate(ctx context.Context) error {
	if id.IsNil(r.CurrencyID) {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currencyId")
	}
	if !r.Rate.IsPositive() {
		return apperror.NewValidation("exchange rate must be positive").
			WithDetail("field", "rate").
			WithDetail("value", r.Rate.String())
	}
	if r.EffectiveDate.IsZero() {
		return apperror.NewValidation("effective date is required").
			WithDetail("field", "effectiveDate")
	}
	return nil
}

// --- Validation Helpers ---

func isValidISOCode(code *string) bool {
	if code == nil {
		return false
	}
	return regexp.MustCompile(`^[A-Z]{3}$`).MatchString(*code)
}
