package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/core/types"
	"saldo/internal/domain/documents"
	"saldo/internal/domain/posting"
)

// --- Request DTOs ---

// DocumentLineRequest is one line of a draft document.
type DocumentLineRequest struct {
	ProductID string                  `json:"productId" binding:"required"`
	Direction documents.LineDirection `json:"direction"`
	Ordered   types.Quantity          `json:"ordered" binding:"required"`
	UnitPrice types.Money             `json:"unitPrice"`
}

// CreateDocumentRequest is the request body for creating a draft document.
// Kind is part of the URL, not the body; totals are always recomputed
// from lines server-side.
type CreateDocumentRequest struct {
	Date           time.Time             `json:"date"`
	StoreID        *string               `json:"storeId"`
	CounterpartyID *string               `json:"counterpartyId"`
	CurrencyID     string                `json:"currencyId"`
	ExchangeRate   decimal.Decimal       `json:"exchangeRate"`
	Total          types.Money           `json:"total"`
	Comment        string                `json:"comment"`
	Lines          []DocumentLineRequest `json:"lines"`
	Attributes     entity.Attributes     `json:"attributes"`
}

// ToEntity converts DTO to a draft document of the given kind. Reference
// ids are parsed here; referential checks happen in the domain layer.
func (r *CreateDocumentRequest) ToEntity(kind documents.Kind) (*documents.Document, error) {
	doc := documents.NewDocument(id.Nil(), kind, r.Date)
	if doc.Date.IsZero() {
		doc.Date = time.Now().UTC()
	}
	doc.Comment = r.Comment
	doc.ExchangeRate = r.ExchangeRate
	doc.Attributes = r.Attributes

	var err error
	if doc.CurrencyID, err = parseOptionalID(&r.CurrencyID, "currencyId"); err != nil {
		return nil, err
	}
	if doc.StoreID, err = parseOptionalID(r.StoreID, "storeId"); err != nil {
		return nil, err
	}
	if doc.CounterpartyID, err = parseOptionalID(r.CounterpartyID, "counterpartyId"); err != nil {
		return nil, err
	}

	for _, lr := range r.Lines {
		productID, perr := id.Parse(lr.ProductID)
		if perr != nil {
			return nil, invalidIDError("lines.productId", lr.ProductID)
		}
		line := doc.AddLine(productID, lr.Ordered, lr.UnitPrice)
		if lr.Direction != "" {
			line.Direction = lr.Direction
		}
	}

	// Cash receipts have no lines; the amount lives on the header.
	if kind == documents.KindCashReceipt && len(r.Lines) == 0 {
		doc.Total = r.Total
	}
	return doc, nil
}

// UpdateDocumentRequest is the request body for updating a draft.
// Lines replace the stored table part wholesale.
type UpdateDocumentRequest struct {
	Date           time.Time             `json:"date"`
	StoreID        *string               `json:"storeId"`
	CounterpartyID *string               `json:"counterpartyId"`
	CurrencyID     string                `json:"currencyId"`
	ExchangeRate   decimal.Decimal       `json:"exchangeRate"`
	Total          types.Money           `json:"total"`
	Comment        string                `json:"comment"`
	Lines          []DocumentLineRequest `json:"lines"`
	Attributes     entity.Attributes     `json:"attributes"`
	Version        int                   `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to an existing draft.
func (r *UpdateDocumentRequest) ApplyTo(doc *documents.Document) error {
	if !r.Date.IsZero() {
		doc.Date = r.Date
	}
	doc.Comment = r.Comment
	doc.ExchangeRate = r.ExchangeRate
	doc.Attributes = r.Attributes
	doc.Version = r.Version

	var err error
	if doc.CurrencyID, err = parseOptionalID(&r.CurrencyID, "currencyId"); err != nil {
		return err
	}
	if doc.StoreID, err = parseOptionalID(r.StoreID, "storeId"); err != nil {
		return err
	}
	if doc.CounterpartyID, err = parseOptionalID(r.CounterpartyID, "counterpartyId"); err != nil {
		return err
	}

	doc.Lines = doc.Lines[:0]
	for _, lr := range r.Lines {
		productID, perr := id.Parse(lr.ProductID)
		if perr != nil {
			return invalidIDError("lines.productId", lr.ProductID)
		}
		line := doc.AddLine(productID, lr.Ordered, lr.UnitPrice)
		if lr.Direction != "" {
			line.Direction = lr.Direction
		}
	}
	if doc.Kind == documents.KindCashReceipt && len(r.Lines) == 0 {
		doc.Total = r.Total
	}
	return nil
}

// ReceiveLineRequest is one per-line fulfillment step.
type ReceiveLineRequest struct {
	LineID   string         `json:"lineId" binding:"required"`
	Quantity types.Quantity `json:"quantity" binding:"required"`
	UnitCost types.Money    `json:"unitCost"`
}

// ReceiveRequest is the request body for the receive transition. Empty
// lines means "fulfill every line to its ordered quantity".
type ReceiveRequest struct {
	Lines  []ReceiveLineRequest `json:"lines"`
	Strict *bool                `json:"strict"`
}

// ToDeltas converts the request lines to fulfillment deltas.
func (r *ReceiveRequest) ToDeltas() ([]documents.LineDelta, error) {
	deltas := make([]documents.LineDelta, 0, len(r.Lines))
	for _, lr := range r.Lines {
		lineID, err := id.Parse(lr.LineID)
		if err != nil {
			return nil, invalidIDError("lines.lineId", lr.LineID)
		}
		deltas = append(deltas, documents.LineDelta{
			LineID:   lineID,
			Quantity: lr.Quantity,
			UnitCost: lr.UnitCost,
		})
	}
	return deltas, nil
}

// PayRequest is the request body for recording a payment.
type PayRequest struct {
	Amount               types.Money `json:"amount" binding:"required"`
	CurrencyID           *string     `json:"currencyId"`
	Date                 time.Time   `json:"date"`
	PaymentAccountID     *string     `json:"paymentAccountId"`
	CounterpartAccountID *string     `json:"counterpartAccountId"`
}

// ToPayment converts the request to a posting payment.
func (r *PayRequest) ToPayment() (posting.PaymentRequest, error) {
	payment := posting.PaymentRequest{
		Amount: r.Amount,
		Date:   r.Date,
	}
	var err error
	if payment.CurrencyID, err = parseOptionalID(r.CurrencyID, "currencyId"); err != nil {
		return payment, err
	}
	if payment.PaymentAccountID, err = parseOptionalID(r.PaymentAccountID, "paymentAccountId"); err != nil {
		return payment, err
	}
	if payment.CounterpartAccountID, err = parseOptionalID(r.CounterpartAccountID, "counterpartAccountId"); err != nil {
		return payment, err
	}
	return payment, nil
}

// --- Response DTOs ---

// DocumentLineResponse is the response body for one document line.
type DocumentLineResponse struct {
	LineID    string                  `json:"lineId"`
	LineNo    int                     `json:"lineNo"`
	ProductID string                  `json:"productId"`
	Direction documents.LineDirection `json:"direction"`
	Ordered   types.Quantity          `json:"ordered"`
	Fulfilled types.Quantity          `json:"fulfilled"`
	Remaining types.Quantity          `json:"remaining"`
	UnitPrice types.Money             `json:"unitPrice"`
	Amount    types.Money             `json:"amount"`
}

// DocumentResponse is the response body for a document.
type DocumentResponse struct {
	ID             string                 `json:"id"`
	Kind           documents.Kind         `json:"kind"`
	Status         documents.Status       `json:"status"`
	Number         string                 `json:"number,omitempty"`
	Date           time.Time              `json:"date"`
	StoreID        string                 `json:"storeId,omitempty"`
	CounterpartyID string                 `json:"counterpartyId,omitempty"`
	CurrencyID     string                 `json:"currencyId"`
	ExchangeRate   decimal.Decimal        `json:"exchangeRate"`
	Total          types.Money            `json:"total"`
	PaidTotal      types.Money            `json:"paidTotal"`
	Balance        types.Money            `json:"balance"`
	Attempt        int                    `json:"attempt"`
	Comment        string                 `json:"comment,omitempty"`
	Lines          []DocumentLineResponse `json:"lines"`
	DeletionMark   bool                   `json:"deletionMark"`
	Version        int                    `json:"version"`
	Attributes     entity.Attributes      `json:"attributes,omitempty"`
	CreatedAt      time.Time              `json:"createdAt,omitzero"`
	UpdatedAt      time.Time              `json:"updatedAt,omitzero"`
}

// FromDocument creates response DTO from domain entity.
func FromDocument(doc *documents.Document) *DocumentResponse {
	resp := &DocumentResponse{
		ID:           doc.ID.String(),
		Kind:         doc.Kind,
		Status:       doc.Status,
		Number:       doc.Number,
		Date:         doc.Date,
		CurrencyID:   doc.CurrencyID.String(),
		ExchangeRate: doc.ExchangeRate,
		Total:        doc.Total,
		PaidTotal:    doc.PaidTotal,
		Balance:      doc.Balance(),
		Attempt:      doc.Attempt,
		Comment:      doc.Comment,
		Lines:        make([]DocumentLineResponse, 0, len(doc.Lines)),
		DeletionMark: doc.DeletionMark,
		Version:      doc.Version,
		Attributes:   doc.Attributes,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if !id.IsNil(doc.StoreID) {
		resp.StoreID = doc.StoreID.String()
	}
	if !id.IsNil(doc.CounterpartyID) {
		resp.CounterpartyID = doc.CounterpartyID.String()
	}
	for i := range doc.Lines {
		line := &doc.Lines[i]
		resp.Lines = append(resp.Lines, DocumentLineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Direction: line.Direction,
			Ordered:   line.Ordered,
			Fulfilled: line.Fulfilled,
			Remaining: line.Remaining(),
			UnitPrice: line.UnitPrice,
			Amount:    line.Amount,
		})
	}
	return resp
}

// LineOutcomeResponse reports what one fulfillment delta did.
type LineOutcomeResponse struct {
	LineID    string         `json:"lineId"`
	Requested types.Quantity `json:"requested"`
	Applied   types.Quantity `json:"applied"`
	Capped    bool           `json:"capped"`
	Fulfilled types.Quantity `json:"fulfilled"`
	Clamped   bool           `json:"clamped,omitempty"`
	ClampedBy types.Quantity `json:"clampedBy,omitempty"`
}

// TransitionResponse is the response body for an executed transition.
type TransitionResponse struct {
	Document *DocumentResponse      `json:"document"`
	Lines    []LineOutcomeResponse  `json:"lines,omitempty"`
	Journal  []*JournalLineResponse `json:"journal,omitempty"`
}

// FromTransitionResult creates response DTO from a posting result.
func FromTransitionResult(result *posting.Result) *TransitionResponse {
	resp := &TransitionResponse{
		Document: FromDocument(result.Document),
		Journal:  FromJournalLines(result.Journal),
	}
	for _, outcome := range result.Lines {
		resp.Lines = append(resp.Lines, LineOutcomeResponse{
			LineID:    outcome.LineID.String(),
			Requested: outcome.Requested,
			Applied:   outcome.Applied,
			Capped:    outcome.Capped,
			Fulfilled: outcome.Fulfilled,
			Clamped:   outcome.Clamped,
			ClampedBy: outcome.ClampedBy,
		})
	}
	return resp
}

// --- Helpers ---

func parseOptionalID(raw *string, field string) (id.ID, error) {
	if raw == nil || *raw == "" {
		return id.Nil(), nil
	}
	parsed, err := id.Parse(*raw)
	if err != nil {
		return id.Nil(), invalidIDError(field, *raw)
	}
	return parsed, nil
}
