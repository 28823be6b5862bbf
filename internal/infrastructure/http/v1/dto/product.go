package dto

import (
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/core/types"
	"saldo/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Code         string            `json:"code"`
	Name         string            `json:"name" binding:"required"`
	Type         product.Type      `json:"type" binding:"required"`
	SKU          *string           `json:"sku"`
	Barcode      *string           `json:"barcode"`
	Unit         string            `json:"unit"`
	DefaultPrice types.Money       `json:"defaultPrice"`
	Description  *string           `json:"description"`
	Attributes   entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity. The repository stamps the owning
// tenant from the request scope.
func (r *CreateProductRequest) ToEntity() *product.Product {
	item := product.NewProduct(id.Nil(), r.Code, r.Name, r.Type)
	item.SKU = r.SKU
	item.Barcode = r.Barcode
	if r.Unit != "" {
		item.Unit = r.Unit
	}
	if !r.DefaultPrice.IsZero() {
		item.DefaultPrice = r.DefaultPrice
	}
	item.Description = r.Description
	item.Attributes = r.Attributes
	return item
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Code         string            `json:"code"`
	Name         string            `json:"name" binding:"required"`
	Type         product.Type      `json:"type" binding:"required"`
	SKU          *string           `json:"sku"`
	Barcode      *string           `json:"barcode"`
	Unit         string            `json:"unit"`
	DefaultPrice types.Money       `json:"defaultPrice"`
	Description  *string           `json:"description"`
	Attributes   entity.Attributes `json:"attributes"`
	Version      int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(item *product.Product) {
	item.Code = r.Code
	item.Name = r.Name
	item.Type = r.Type
	item.SKU = r.SKU
	item.Barcode = r.Barcode
	item.Unit = r.Unit
	item.DefaultPrice = r.DefaultPrice
	item.Description = r.Description
	item.Attributes = r.Attributes
	item.Version = r.Version
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID           string            `json:"id"`
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	Type         product.Type      `json:"type"`
	SKU          *string           `json:"sku,omitempty"`
	Barcode      *string           `json:"barcode,omitempty"`
	Unit         string            `json:"unit"`
	DefaultPrice types.Money       `json:"defaultPrice"`
	Description  *string           `json:"description,omitempty"`
	DeletionMark bool              `json:"deletionMark"`
	Version      int               `json:"version"`
	Attributes   entity.Attributes `json:"attributes,omitempty"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(item *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:           item.ID.String(),
		Code:         item.Code,
		Name:         item.Name,
		Type:         item.Type,
		SKU:          item.SKU,
		Barcode:      item.Barcode,
		Unit:         item.Unit,
		DefaultPrice: item.DefaultPrice,
		Description:  item.Description,
		DeletionMark: item.DeletionMark,
		Version:      item.Version,
		Attributes:   item.Attributes,
	}
}
