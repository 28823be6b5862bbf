package handlers

import (
	"github.com/gin-gonic/gin"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/domain/audit"
	"saldo/internal/infrastructure/http/v1/dto"
)

// AuditHandler serves the transition audit trail. Entries are append-only
// records written after each committed transition.
type AuditHandler struct {
	*BaseHandler
	repo audit.Repository
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(base *BaseHandler, repo audit.Repository) *AuditHandler {
	return &AuditHandler{
		BaseHandler: base,
		repo:        repo,
	}
}

// ListByDocument handles GET /audit/by-document/:id. Returns the
// document's transition history, oldest first.
func (h *AuditHandler) ListByDocument(c *gin.Context) {
	documentID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}
	limit := h.ParseIntQuery(c, "limit", 100)

	entries, err := h.repo.ListByDocument(c.Request.Context(), documentID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAuditEntries(entries))
}

// ListRecent handles GET /audit/recent. Returns the tenant's newest
// entries across all documents.
func (h *AuditHandler) ListRecent(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAuditEntries(entries))
}
