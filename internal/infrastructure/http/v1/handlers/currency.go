package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/domain/currency"
	"saldo/internal/infrastructure/http/v1/dto"
)

// CurrencyHandler extends the generic catalog handler with ISO lookup and
// the exchange rate history.
type CurrencyHandler struct {
	*CatalogHandler[*currency.Currency, dto.CreateCurrencyRequest, dto.UpdateCurrencyRequest]
	service *currency.Service
}

// NewCurrencyHandler wires the generic CRUD surface plus rate endpoints.
func NewCurrencyHandler(base *BaseHandler, service *currency.Service) *CurrencyHandler {
	config := CatalogHandlerConfig[
		*currency.Currency,
		dto.CreateCurrencyRequest,
		dto.UpdateCurrencyRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "currency",

		MapCreateDTO: func(req dto.CreateCurrencyRequest) *currency.Currency {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateCurrencyRequest, existing *currency.Currency) *currency.Currency {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(item *currency.Currency) any {
			return dto.FromCurrency(item)
		},
	}

	return &CurrencyHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// FindByISOCode handles GET /currencies/by-iso/:iso.
func (h *CurrencyHandler) FindByISOCode(c *gin.Context) {
	iso := c.Param("iso")
	if iso == "" {
		h.Error(c, apperror.NewValidation("iso code is required"))
		return
	}

	item, err := h.service.FindByISOCode(c.Request.Context(), iso)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCurrency(item))
}

// SetRate handles POST /currencies/:id/rates. Appends one quotation to
// the rate history; existing quotations are never edited.
func (h *CurrencyHandler) SetRate(c *gin.Context) {
	currencyID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetRateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rate, err := h.service.SetRate(c.Request.Context(), currencyID, req.Rate, req.EffectiveDate)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.FromExchangeRate(rate)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", resp)
	c.JSON(http.StatusCreated, resp)
}

// RateHistory handles GET /currencies/:id/rates.
func (h *CurrencyHandler) RateHistory(c *gin.Context) {
	currencyID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)

	rates, err := h.service.RateHistory(c.Request.Context(), currencyID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromExchangeRates(rates))
}
