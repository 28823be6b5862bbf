package handlers

import (
	"github.com/gin-gonic/gin"

	"saldo/internal/core/apperror"
	"saldo/internal/domain/catalogs/counterparty"
	"saldo/internal/infrastructure/http/v1/dto"
)

// CounterpartyHandler extends the generic catalog handler with the tax id
// lookup.
type CounterpartyHandler struct {
	*CatalogHandler[*counterparty.Counterparty, dto.CreateCounterpartyRequest, dto.UpdateCounterpartyRequest]
	service *counterparty.Service
}

// NewCounterpartyHandler wires the generic CRUD surface plus lookups.
func NewCounterpartyHandler(base *BaseHandler, service *counterparty.Service) *CounterpartyHandler {
	config := CatalogHandlerConfig[
		*counterparty.Counterparty,
		dto.CreateCounterpartyRequest,
		dto.UpdateCounterpartyRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "counterparty",

		MapCreateDTO: func(req dto.CreateCounterpartyRequest) *counterparty.Counterparty {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateCounterpartyRequest, existing *counterparty.Counterparty) *counterparty.Counterparty {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(item *counterparty.Counterparty) any {
			return dto.FromCounterparty(item)
		},
	}

	return &CounterpartyHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// FindByTaxID handles GET /counterparties/by-tax-id/:taxId.
func (h *CounterpartyHandler) FindByTaxID(c *gin.Context) {
	taxID := c.Param("taxId")
	if taxID == "" {
		h.Error(c, apperror.NewValidation("tax id is required"))
		return
	}

	item, err := h.service.FindByTaxID(c.Request.Context(), taxID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCounterparty(item))
}
