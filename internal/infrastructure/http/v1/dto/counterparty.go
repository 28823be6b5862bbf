package dto

import (
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/domain/catalogs/counterparty"
)

// --- Request DTOs ---

// CreateCounterpartyRequest is the request body for creating a counterparty.
type CreateCounterpartyRequest struct {
	Code               string            `json:"code"`
	Name               string            `json:"name" binding:"required"`
	Type               counterparty.Type `json:"type" binding:"required"`
	FullName           *string           `json:"fullName"`
	TaxID              *string           `json:"taxId"`
	RegistrationNumber *string           `json:"registrationNumber"`
	Address            *string           `json:"address"`
	Phone              *string           `json:"phone"`
	Email              *string           `json:"email"`
	ContactPerson      *string           `json:"contactPerson"`
	Comment            *string           `json:"comment"`
	Attributes         entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity. The repository stamps the owning
// tenant from the request scope.
func (r *CreateCounterpartyRequest) ToEntity() *counterparty.Counterparty {
	item := counterparty.NewCounterparty(id.Nil(), r.Code, r.Name, r.Type)
	item.FullName = r.FullName
	item.TaxID = r.TaxID
	item.RegistrationNumber = r.RegistrationNumber
	item.Address = r.Address
	item.Phone = r.Phone
	item.Email = r.Email
	item.ContactPerson = r.ContactPerson
	item.Comment = r.Comment
	item.Attributes = r.Attributes
	return item
}

// UpdateCounterpartyRequest is the request body for updating a counterparty.
type UpdateCounterpartyRequest struct {
	Code               string            `json:"code"`
	Name               string            `json:"name" binding:"required"`
	Type               counterparty.Type `json:"type" binding:"required"`
	FullName           *string           `json:"fullName"`
	TaxID              *string           `json:"taxId"`
	RegistrationNumber *string           `json:"registrationNumber"`
	Address            *string           `json:"address"`
	Phone              *string           `json:"phone"`
	Email              *string           `json:"email"`
	ContactPerson      *string           `json:"contactPerson"`
	Comment            *string           `json:"comment"`
	Attributes         entity.Attributes `json:"attributes"`
	Version            int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateCounterpartyRequest) ApplyTo(item *counterparty.Counterparty) {
	item.Code = r.Code
	item.Name = r.Name
	item.Type = r.Type
	item.FullName = r.FullName
	item.TaxID = r.TaxID
	item.RegistrationNumber = r.RegistrationNumber
	item.Address = r.Address
	item.Phone = r.Phone
	item.Email = r.Email
	item.ContactPerson = r.ContactPerson
	item.Comment = r.Comment
	item.Attributes = r.Attributes
	item.Version = r.Version
}

// --- Response DTOs ---

// CounterpartyResponse is the response body for a counterparty.
type CounterpartyResponse struct {
	ID                 string            `json:"id"`
	Code               string            `json:"code"`
	Name               string            `json:"name"`
	Type               counterparty.Type `json:"type"`
	FullName           *string           `json:"fullName,omitempty"`
	TaxID              *string           `json:"taxId,omitempty"`
	RegistrationNumber *string           `json:"registrationNumber,omitempty"`
	Address            *string           `json:"address,omitempty"`
	Phone              *string           `json:"phone,omitempty"`
	Email              *string           `json:"email,omitempty"`
	ContactPerson      *string           `json:"contactPerson,omitempty"`
	Comment            *string           `json:"comment,omitempty"`
	DeletionMark       bool              `json:"deletionMark"`
	Version            int               `json:"version"`
	Attributes         entity.Attributes `json:"attributes,omitempty"`
}

// FromCounterparty creates response DTO from domain entity.
func FromCounterparty(item *counterparty.Counterparty) *CounterpartyResponse {
	return &CounterpartyResponse{
		ID:                 item.ID.String(),
		Code:               item.Code,
		Name:               item.Name,
		Type:               item.Type,
		FullName:           item.FullName,
		TaxID:              item.TaxID,
		RegistrationNumber: item.RegistrationNumber,
		Address:            item.Address,
		Phone:              item.Phone,
		Email:              item.Email,
		ContactPerson:      item.ContactPerson,
		Comment:            item.Comment,
		DeletionMark:       item.DeletionMark,
		Version:            item.Version,
		Attributes:         item.Attributes,
	}
}
