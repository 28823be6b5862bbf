// Package counterparty provides the counterparty catalog: the business
// partners documents settle against (customers, suppliers, or both).
package counterparty

import (
	"context"
	"regexp"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
)

// Pre-compiled regex patterns for validation
var (
	digitsOnlyRE = regexp.MustCompile(`^\d+$`)
	emailRE      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Type defines which side of a trade the counterparty sits on.
type Type string

const (
	TypeCustomer Type = "customer"
	TypeSupplier Type = "supplier"
	TypeBoth     Type = "both"
)

// Counterparty represents a business partner.
type Counterparty struct {
	entity.Catalog

	// Type defines whether this is a customer, supplier, or both
	Type Type `db:"type" json:"type"`

	// FullName is the official registered name
	FullName *string `db:"full_name" json:"fullName,omitempty"`

	// TaxID is the tax identification number, unique within the tenant
	TaxID *string `db:"tax_id" json:"taxId,omitempty"`

	// RegistrationNumber is the state registration number
	RegistrationNumber *string `db:"registration_number" json:"registrationNumber,omitempty"`

	// Address is the registered address
	Address *string `db:"address" json:"address,omitempty"`

	// Phone is the primary contact phone
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Email is the primary contact email
	Email *string `db:"email" json:"email,omitempty"`

	// ContactPerson is the primary contact name
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`

	// Comment is a free-form note
	Comment *string `db:"comment" json:"comment,omitempty"`
}

// NewCounterparty creates a Counterparty with required fields.
func NewCounterparty(tenantID id.ID, code, name string, cpType Type) *Counterparty {
	return &Counterparty{
		Catalog: entity.NewCatalog(tenantID, code, name),
		Type:    cpType,
	}
}

// Validate implements entity.Validatable.
func (c *Counterparty) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidType(c.Type) {
		return apperror.NewValidation("invalid counterparty type").
			WithDetail("field", "type").
			WithDetail("value", string(c.Type))
	}

	if c.TaxID != nil && *c.TaxID != "" && !digitsOnlyRE.MatchString(*c.TaxID) {
		return apperror.NewValidation("tax id must contain only digits").
			WithDetail("field", "taxId")
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

// IsCustomer reports whether the counterparty buys from us.
func (c *Counterparty) IsCustomer() bool {
	return c.Type == TypeCustomer || c.Type == TypeBoth
}

// IsSupplier reports whether the counterparty sells to us.
func (c *Counterparty) IsSupplier() bool {
	return c.Type == TypeSupplier || c.Type == TypeBoth
}

func isValidType(t Type) bool {
	switch t {
	case TypeCustomer, TypeSupplier, TypeBoth:
		return true
	}
	return false
}
