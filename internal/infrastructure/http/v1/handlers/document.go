package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/domain"
	"saldo/internal/domain/catalogs/store"
	"saldo/internal/domain/documents"
	"saldo/internal/domain/posting"
	"saldo/internal/infrastructure/http/v1/dto"
)

// DocumentHandler serves one document kind. All kinds share the handler
// code; the router mounts one instance per kind under its own prefix.
// Draft CRUD goes through the document service, transitions through the
// posting engine.
type DocumentHandler struct {
	*BaseHandler
	kind       documents.Kind
	service    *documents.Service
	engine     *posting.Engine
	currencies *documents.CurrencyResolver
	stores     *store.Service
}

// NewDocumentHandler creates a handler bound to a document kind.
func NewDocumentHandler(
	base *BaseHandler,
	kind documents.Kind,
	service *documents.Service,
	engine *posting.Engine,
	currencies *documents.CurrencyResolver,
	stores *store.Service,
) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: base,
		kind:        kind,
		service:     service,
		engine:      engine,
		currencies:  currencies,
		stores:      stores,
	}
}

// List handles GET /{kind}. The kind filter is pre-bound; status,
// references and the date window come from query params.
func (h *DocumentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := documents.ListFilter{
		ListFilter: domain.DefaultListFilter(),
		Kind:       &h.kind,
	}
	filter.OrderBy = "date"
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if raw := c.Query("status"); raw != "" {
		status := documents.Status(raw)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("unknown document status").
				WithDetail("value", raw))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("counterpartyId"); raw != "" {
		cpID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid counterpartyId format"))
			return
		}
		filter.CounterpartyID = &cpID
	}
	if raw := c.Query("storeId"); raw != "" {
		storeID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid storeId format"))
			return
		}
		filter.StoreID = &storeID
	}
	if raw := c.Query("dateFrom"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateFrom format (RFC3339 expected)"))
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("dateTo"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateTo format (RFC3339 expected)"))
			return
		}
		filter.DateTo = &to
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.DocumentResponse, 0, len(result.Items))
	for _, doc := range result.Items {
		items = append(items, dto.FromDocument(doc))
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /{kind}/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.FromDocument(doc))
}

// Create handles POST /{kind}. Creates a draft: no number, no ledger or
// stock effect. Currency defaults to the tenant base; stock-moving kinds
// get the default store when none is given.
func (h *DocumentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToEntity(h.kind)
	if err != nil {
		h.Error(c, err)
		return
	}

	if doc.CurrencyID, err = h.currencies.Resolve(ctx, doc.CurrencyID); err != nil {
		h.Error(c, err)
		return
	}

	if h.kind.MovesStock() && id.IsNil(doc.StoreID) {
		def, derr := h.stores.GetDefault(ctx)
		switch {
		case derr == nil:
			doc.StoreID = def.ID
		case apperror.IsNotFound(derr):
			// No default configured; validation reports the missing store.
		default:
			h.Error(c, derr)
			return
		}
	}

	if err := h.service.CreateDraft(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromDocument(doc)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Update handles PUT /{kind}/:id. Drafts only.
func (h *DocumentHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}

	var req dto.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := req.ApplyTo(doc); err != nil {
		h.Error(c, err)
		return
	}

	var err error
	if doc.CurrencyID, err = h.currencies.Resolve(ctx, doc.CurrencyID); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.UpdateDraft(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromDocument(doc)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /{kind}/:id. Drafts only; confirmed documents
// are cancelled, not deleted.
func (h *DocumentHandler) Delete(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Confirm handles POST /{kind}/:id/confirm. Assigns the document number
// and freezes lines.
func (h *DocumentHandler) Confirm(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	result, err := h.engine.Confirm(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.transitionResponse(c, result)
}

// Receive handles POST /{kind}/:id/receive. Applies per-line fulfillment
// deltas; an empty body fulfills every line to its ordered quantity.
func (h *DocumentHandler) Receive(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	// An absent body is the "fulfill everything" shorthand.
	var req dto.ReceiveRequest
	if c.Request.ContentLength > 0 {
		if !h.BindJSON(c, &req) {
			return
		}
	}

	deltas, err := req.ToDeltas()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.engine.Receive(c.Request.Context(), docID, deltas, &posting.ReceiveOptions{Strict: req.Strict})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.transitionResponse(c, result)
}

// Pay handles POST /{kind}/:id/pay. Records a payment against the
// document balance.
func (h *DocumentHandler) Pay(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.PayRequest
	if !h.BindJSON(c, &req) {
		return
	}

	payment, err := req.ToPayment()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.engine.RecordPayment(c.Request.Context(), docID, payment)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.transitionResponse(c, result)
}

// Cancel handles POST /{kind}/:id/cancel. Drafts cancel silently;
// confirmed documents post reversing entries for everything fulfilled.
func (h *DocumentHandler) Cancel(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	result, err := h.engine.Cancel(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.transitionResponse(c, result)
}

func (h *DocumentHandler) loadDocument(c *gin.Context) (*documents.Document, bool) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return nil, false
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	// Mounted under a kind prefix; a document of another kind is not
	// visible here.
	if doc.Kind != h.kind {
		h.Error(c, apperror.NewNotFound("document", docID.String()))
		return nil, false
	}
	return doc, true
}

func (h *DocumentHandler) transitionResponse(c *gin.Context, result *posting.Result) {
	response := dto.FromTransitionResult(result)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}
