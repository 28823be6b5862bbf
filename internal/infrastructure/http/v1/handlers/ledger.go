package handlers

import (
	"github.com/gin-gonic/gin"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/domain/ledger"
	"saldo/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves the journal read surface. Lines are append-only;
// there is no write endpoint here — posting happens through document
// transitions.
type LedgerHandler struct {
	*BaseHandler
	lines ledger.Repository
}

// NewLedgerHandler creates a ledger handler.
func NewLedgerHandler(base *BaseHandler, lines ledger.Repository) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: base,
		lines:       lines,
	}
}

// ListByDocument handles GET /ledger/journal/by-document/:id. Returns
// every line the document has posted across all attempts, including
// reversals.
func (h *LedgerHandler) ListByDocument(c *gin.Context) {
	documentID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	lines, err := h.lines.ListByDocument(c.Request.Context(), documentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromJournalLines(lines))
}

// ListByReference handles GET /ledger/journal/by-reference/:reference.
func (h *LedgerHandler) ListByReference(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		h.Error(c, apperror.NewValidation("reference is required"))
		return
	}

	lines, err := h.lines.ListByReference(c.Request.Context(), reference)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromJournalLines(lines))
}
