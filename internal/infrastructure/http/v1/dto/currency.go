package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/domain/currency"
)

// --- Request DTOs ---

// CreateCurrencyRequest is the request body for creating a currency.
type CreateCurrencyRequest struct {
	Code           string            `json:"code"`
	Name           string            `json:"name" binding:"required"`
	ISOCode        *string           `json:"isoCode" binding:"required"`
	ISONumericCode *string           `json:"isoNumericCode"`
	Symbol         *string           `json:"symbol" binding:"required"`
	DecimalPlaces  *int              `json:"decimalPlaces"`
	Country        *string           `json:"country"`
	Attributes     entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity. The repository stamps the owning
// tenant from the request scope.
func (r *CreateCurrencyRequest) ToEntity() *currency.Currency {
	item := currency.NewCurrency(id.Nil(), r.Code, r.Name, r.ISOCode, r.Symbol)
	item.ISONumericCode = r.ISONumericCode
	if r.DecimalPlaces != nil {
		item.DecimalPlaces = *r.DecimalPlaces
	}
	item.Country = r.Country
	item.Attributes = r.Attributes
	return item
}

// UpdateCurrencyRequest is the request body for updating a currency.
// The base flag belongs to tenant settings and is not editable here.
type UpdateCurrencyRequest struct {
	Code           string            `json:"code"`
	Name           string            `json:"name" binding:"required"`
	ISOCode        *string           `json:"isoCode" binding:"required"`
	ISONumericCode *string           `json:"isoNumericCode"`
	Symbol         *string           `json:"symbol" binding:"required"`
	DecimalPlaces  *int              `json:"decimalPlaces"`
	Country        *string           `json:"country"`
	Attributes     entity.Attributes `json:"attributes"`
	Version        int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateCurrencyRequest) ApplyTo(item *currency.Currency) {
	item.Code = r.Code
	item.Name = r.Name
	item.ISOCode = r.ISOCode
	item.ISONumericCode = r.ISONumericCode
	item.Symbol = r.Symbol
	if r.DecimalPlaces != nil {
		item.DecimalPlaces = *r.DecimalPlaces
	}
	item.Country = r.Country
	item.Attributes = r.Attributes
	item.Version = r.Version
}

// SetRateRequest records a new exchange rate quotation for a currency.
type SetRateRequest struct {
	Rate          decimal.Decimal `json:"rate" binding:"required"`
	EffectiveDate time.Time       `json:"effectiveDate" binding:"required"`
}

// --- Response DTOs ---

// CurrencyResponse is the response body for a currency.
type CurrencyResponse struct {
	ID             string            `json:"id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	ISOCode        *string           `json:"isoCode"`
	ISONumericCode *string           `json:"isoNumericCode,omitempty"`
	Symbol         *string           `json:"symbol"`
	DecimalPlaces  int               `json:"decimalPlaces"`
	IsBase         bool              `json:"isBase"`
	Country        *string           `json:"country,omitempty"`
	DeletionMark   bool              `json:"deletionMark"`
	Version        int               `json:"version"`
	Attributes     entity.Attributes `json:"attributes,omitempty"`
}

// FromCurrency creates response DTO from domain entity.
func FromCurrency(item *currency.Currency) *CurrencyResponse {
	return &CurrencyResponse{
		ID:             item.ID.String(),
		Code:           item.Code,
		Name:           item.Name,
		ISOCode:        item.ISOCode,
		ISONumericCode: item.ISONumericCode,
		Symbol:         item.Symbol,
		DecimalPlaces:  item.DecimalPlaces,
		IsBase:         item.IsBase,
		Country:        item.Country,
		DeletionMark:   item.DeletionMark,
		Version:        item.Version,
		Attributes:     item.Attributes,
	}
}

// ExchangeRateResponse is the response body for one rate quotation.
type ExchangeRateResponse struct {
	ID            string          `json:"id"`
	CurrencyID    string          `json:"currencyId"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effectiveDate"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// FromExchangeRate creates response DTO from a rate quotation.
func FromExchangeRate(rate *currency.ExchangeRate) *ExchangeRateResponse {
	return &ExchangeRateResponse{
		ID:            rate.ID.String(),
		CurrencyID:    rate.CurrencyID.String(),
		Rate:          rate.Rate,
		EffectiveDate: rate.EffectiveDate,
		CreatedAt:     rate.CreatedAt,
	}
}

// FromExchangeRates maps a rate history to response DTOs.
func FromExchangeRates(rates []*currency.ExchangeRate) []*ExchangeRateResponse {
	out := make([]*ExchangeRateResponse, 0, len(rates))
	for _, rate := range rates {
		out = append(out, FromExchangeRate(rate))
	}
	return out
}
