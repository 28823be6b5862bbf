package handlers

import (
	"github.com/gin-gonic/gin"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/domain/inventory"
	"saldo/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves the stock read surface: positions and the
// movement history. Positions change only through document transitions;
// there is no write endpoint here.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates an inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetPositions handles GET /inventory/positions. Requires a storeId or a
// productId filter; both narrows to the single position.
func (h *InventoryHandler) GetPositions(c *gin.Context) {
	ctx := c.Request.Context()

	var storeID, productID *id.ID
	if raw := c.Query("storeId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid storeId format"))
			return
		}
		storeID = &parsed
	}
	if raw := c.Query("productId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		productID = &parsed
	}

	switch {
	case storeID != nil && productID != nil:
		pos, err := h.service.Position(ctx, *productID, *storeID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.FromPosition(pos))
	case storeID != nil:
		positions, err := h.service.StorePositions(ctx, *storeID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.FromPositions(positions))
	case productID != nil:
		positions, err := h.service.ProductPositions(ctx, *productID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.FromPositions(positions))
	default:
		h.Error(c, apperror.NewValidation("storeId or productId filter is required"))
	}
}

// GetStockCard handles GET /inventory/movements. Returns the movement
// history for one (product, store) pair, newest first.
func (h *InventoryHandler) GetStockCard(c *gin.Context) {
	productID, err := id.Parse(c.Query("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}
	storeID, err := id.Parse(c.Query("storeId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid storeId format"))
		return
	}
	limit := h.ParseIntQuery(c, "limit", 100)

	movements, err := h.service.StockCard(c.Request.Context(), productID, storeID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovements(movements))
}

// GetDocumentMovements handles GET /inventory/movements/by-document/:id.
// Returns every movement a document has recorded across attempts.
func (h *InventoryHandler) GetDocumentMovements(c *gin.Context) {
	documentID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	movements, err := h.service.DocumentMovements(c.Request.Context(), documentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovements(movements))
}
