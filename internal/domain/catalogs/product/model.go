// Package product provides the product catalog: the items document
// lines order, receive and sell.
package product

import (
	"context"
	"regexp"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/core/types"
)

var digitsOnlyRE = regexp.MustCompile(`^\d+$`)

// Type classifies a product for stock purposes.
type Type string

const (
	TypeGoods    Type = "goods"
	TypeMaterial Type = "material"
	TypeService  Type = "service"
)

// Product represents an item a document line can reference.
type Product struct {
	entity.Catalog

	// Type defines the stock category
	Type Type `db:"type" json:"type"`

	// SKU is the stock keeping unit, unique within the tenant
	SKU *string `db:"sku" json:"sku,omitempty"`

	// Barcode is the scannable code (EAN-13 and friends)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// Unit is the unit of measure quantities are kept in
	Unit string `db:"unit" json:"unit"`

	// DefaultPrice pre-fills new document lines. Zero means no default.
	DefaultPrice types.Money `db:"default_price" json:"defaultPrice"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a Product with required fields.
func NewProduct(tenantID id.ID, code, name string, productType Type) *Product {
	return &Product{
		Catalog:      entity.NewCatalog(tenantID, code, name),
		Type:         productType,
		Unit:         "pcs",
		DefaultPrice: types.Zero(),
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidType(p.Type) {
		return apperror.NewValidation("invalid product type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}

	if p.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	if p.DefaultPrice.IsNegative() {
		return apperror.NewValidation("default price cannot be negative").
			WithDetail("field", "defaultPrice")
	}

	if p.Barcode != nil && *p.Barcode != "" && !digitsOnlyRE.MatchString(*p.Barcode) {
		return apperror.NewValidation("barcode must contain digits only").
			WithDetail("field", "barcode")
	}

	return nil
}

// IsPhysical reports whether the product occupies stock. Services are
// priced on lines but never move a position.
func (p *Product) IsPhysical() bool {
	return p.Type != TypeService
}

func isValidType(t Type) bool {
	switch t {
	case TypeGoods, TypeMaterial, TypeService:
		return true
	}
	return false
}
