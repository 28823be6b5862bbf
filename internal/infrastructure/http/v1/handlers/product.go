package handlers

import (
	"github.com/gin-gonic/gin"

	"saldo/internal/core/apperror"
	"saldo/internal/domain/catalogs/product"
	"saldo/internal/infrastructure/http/v1/dto"
)

// ProductHandler extends the generic catalog handler with SKU and
// barcode lookups.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler wires the generic CRUD surface plus product lookups.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	config := CatalogHandlerConfig[
		*product.Product,
		dto.CreateProductRequest,
		dto.UpdateProductRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "product",

		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(item *product.Product) any {
			return dto.FromProduct(item)
		},
	}

	return &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// FindBySKU handles GET /products/by-sku/:sku.
func (h *ProductHandler) FindBySKU(c *gin.Context) {
	sku := c.Param("sku")
	if sku == "" {
		h.Error(c, apperror.NewValidation("sku is required"))
		return
	}

	item, err := h.service.FindBySKU(c.Request.Context(), sku)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(item))
}

// FindByBarcode handles GET /products/by-barcode/:barcode.
func (h *ProductHandler) FindByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	if barcode == "" {
		h.Error(c, apperror.NewValidation("barcode is required"))
		return
	}

	item, err := h.service.FindByBarcode(c.Request.Context(), barcode)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(item))
}
