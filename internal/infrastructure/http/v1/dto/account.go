package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/domain/ledger"
)

// --- Request DTOs ---

// CreateAccountRequest is the request body for creating a chart-of-accounts
// node.
type CreateAccountRequest struct {
	Code       string             `json:"code" binding:"required"`
	Name       string             `json:"name" binding:"required"`
	Type       ledger.AccountType `json:"type" binding:"required"`
	Attributes entity.Attributes  `json:"attributes"`
}

// ToEntity converts DTO to domain entity. The natural balance side is
// derived from the account type; the repository stamps the owning tenant.
func (r *CreateAccountRequest) ToEntity() *ledger.Account {
	item := ledger.NewAccount(id.Nil(), r.Code, r.Name, r.Type)
	item.Attributes = r.Attributes
	return item
}

// UpdateAccountRequest is the request body for updating an account.
// The account type is immutable once created; only naming changes.
type UpdateAccountRequest struct {
	Code       string            `json:"code" binding:"required"`
	Name       string            `json:"name" binding:"required"`
	Attributes entity.Attributes `json:"attributes"`
	Version    int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateAccountRequest) ApplyTo(item *ledger.Account) {
	item.Code = r.Code
	item.Name = r.Name
	item.Attributes = r.Attributes
	item.Version = r.Version
}

// --- Response DTOs ---

// AccountResponse is the response body for an account.
type AccountResponse struct {
	ID           string             `json:"id"`
	Code         string             `json:"code"`
	Name         string             `json:"name"`
	Type         ledger.AccountType `json:"type"`
	NaturalSide  ledger.Side        `json:"naturalSide"`
	DeletionMark bool               `json:"deletionMark"`
	Version      int                `json:"version"`
	Attributes   entity.Attributes  `json:"attributes,omitempty"`
}

// FromAccount creates response DTO from domain entity.
func FromAccount(item *ledger.Account) *AccountResponse {
	return &AccountResponse{
		ID:           item.ID.String(),
		Code:         item.Code,
		Name:         item.Name,
		Type:         item.Type,
		NaturalSide:  item.NaturalSide,
		DeletionMark: item.DeletionMark,
		Version:      item.Version,
		Attributes:   item.Attributes,
	}
}

// JournalLineResponse is the response body for one posted journal line.
type JournalLineResponse struct {
	ID         string          `json:"id"`
	Reference  string          `json:"reference"`
	DocumentID string          `json:"documentId"`
	Attempt    int             `json:"attempt"`
	AccountID  string          `json:"accountId"`
	Side       ledger.Side     `json:"side"`
	Amount     decimal.Decimal `json:"amount"`
	Rate       decimal.Decimal `json:"rate"`
	Equivalent decimal.Decimal `json:"equivalent"`
	Date       time.Time       `json:"date"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// FromJournalLine creates response DTO from a posted line.
func FromJournalLine(line *ledger.JournalLine) *JournalLineResponse {
	return &JournalLineResponse{
		ID:         line.ID.String(),
		Reference:  line.Reference,
		DocumentID: line.DocumentID.String(),
		Attempt:    line.Attempt,
		AccountID:  line.AccountID.String(),
		Side:       line.Side,
		Amount:     line.Amount,
		Rate:       line.Rate,
		Equivalent: line.Equivalent,
		Date:       line.Date,
		CreatedAt:  line.CreatedAt,
	}
}

// FromJournalLines maps posted lines to response DTOs.
func FromJournalLines(lines []*ledger.JournalLine) []*JournalLineResponse {
	out := make([]*JournalLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, FromJournalLine(line))
	}
	return out
}
