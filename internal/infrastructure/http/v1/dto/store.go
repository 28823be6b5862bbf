package dto

import (
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/domain/catalogs/store"
)

// --- Request DTOs ---

// CreateStoreRequest is the request body for creating a store.
type CreateStoreRequest struct {
	Code        string            `json:"code"`
	Name        string            `json:"name" binding:"required"`
	Type        store.Type        `json:"type" binding:"required"`
	Address     *string           `json:"address"`
	IsActive    *bool             `json:"isActive"`
	Description *string           `json:"description"`
	Attributes  entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity. The repository stamps the owning
// tenant from the request scope.
func (r *CreateStoreRequest) ToEntity() *store.Store {
	item := store.NewStore(id.Nil(), r.Code, r.Name, r.Type)
	item.Address = r.Address
	if r.IsActive != nil {
		item.IsActive = *r.IsActive
	}
	item.Description = r.Description
	item.Attributes = r.Attributes
	return item
}

// UpdateStoreRequest is the request body for updating a store.
// The default flag is managed through the set-default operation, not here.
type UpdateStoreRequest struct {
	Code        string            `json:"code"`
	Name        string            `json:"name" binding:"required"`
	Type        store.Type        `json:"type" binding:"required"`
	Address     *string           `json:"address"`
	IsActive    *bool             `json:"isActive"`
	Description *string           `json:"description"`
	Attributes  entity.Attributes `json:"attributes"`
	Version     int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateStoreRequest) ApplyTo(item *store.Store) {
	item.Code = r.Code
	item.Name = r.Name
	item.Type = r.Type
	item.Address = r.Address
	if r.IsActive != nil {
		item.IsActive = *r.IsActive
	}
	item.Description = r.Description
	item.Attributes = r.Attributes
	item.Version = r.Version
}

// --- Response DTOs ---

// StoreResponse is the response body for a store.
type StoreResponse struct {
	ID           string            `json:"id"`
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	Type         store.Type        `json:"type"`
	Address      *string           `json:"address,omitempty"`
	IsActive     bool              `json:"isActive"`
	IsDefault    bool              `json:"isDefault"`
	Description  *string           `json:"description,omitempty"`
	DeletionMark bool              `json:"deletionMark"`
	Version      int               `json:"version"`
	Attributes   entity.Attributes `json:"attributes,omitempty"`
}

// FromStore creates response DTO from domain entity.
func FromStore(item *store.Store) *StoreResponse {
	return &StoreResponse{
		ID:           item.ID.String(),
		Code:         item.Code,
		Name:         item.Name,
		Type:         item.Type,
		Address:      item.Address,
		IsActive:     item.IsActive,
		IsDefault:    item.IsDefault,
		Description:  item.Description,
		DeletionMark: item.DeletionMark,
		Version:      item.Version,
		Attributes:   item.Attributes,
	}
}
