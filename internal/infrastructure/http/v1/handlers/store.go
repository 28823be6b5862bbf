package handlers

import (
	"github.com/gin-gonic/gin"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/domain/catalogs/store"
	"saldo/internal/infrastructure/http/v1/dto"
)

// StoreHandler extends the generic catalog handler with the default-store
// operations.
type StoreHandler struct {
	*CatalogHandler[*store.Store, dto.CreateStoreRequest, dto.UpdateStoreRequest]
	service *store.Service
}

// NewStoreHandler wires the generic CRUD surface plus default handling.
func NewStoreHandler(base *BaseHandler, service *store.Service) *StoreHandler {
	config := CatalogHandlerConfig[
		*store.Store,
		dto.CreateStoreRequest,
		dto.UpdateStoreRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "store",

		MapCreateDTO: func(req dto.CreateStoreRequest) *store.Store {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateStoreRequest, existing *store.Store) *store.Store {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(item *store.Store) any {
			return dto.FromStore(item)
		},
	}

	return &StoreHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// GetDefault handles GET /stores/default.
func (h *StoreHandler) GetDefault(c *gin.Context) {
	item, err := h.service.GetDefault(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStore(item))
}

// SetDefault handles POST /stores/:id/default. Moves the default flag to
// the given store; the previous default loses it in the same transaction.
func (h *StoreHandler) SetDefault(c *gin.Context) {
	storeID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.SetDefault(c.Request.Context(), storeID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "default store updated")
}
