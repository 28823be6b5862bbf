// Package documents provides the document model shared by every kind:
// one tagged-variant Document with a kind discriminant, a common line
// shape, and the status lifecycle. Purchase orders, sales invoices,
// stock adjustments, physical inventories and cash receipts differ only
// in which transitions they accept and which movements they produce,
// never in their stored shape.
package documents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/core/types"
)

// Kind discriminates document variants.
type Kind string

const (
	KindPurchaseOrder     Kind = "purchase_order"
	KindSalesInvoice      Kind = "sales_invoice"
	KindStockAdjustment   Kind = "stock_adjustment"
	KindPhysicalInventory Kind = "physical_inventory"
	KindCashReceipt       Kind = "cash_receipt"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	switch k {
	case KindPurchaseOrder, KindSalesInvoice, KindStockAdjustment,
		KindPhysicalInventory, KindCashReceipt:
		return true
	}
	return false
}

// MovesStock reports whether documents of this kind drive inventory.
func (k Kind) MovesStock() bool {
	return k != KindCashReceipt
}

// Payable reports whether documents of this kind carry a paid balance.
func (k Kind) Payable() bool {
	switch k {
	case KindPurchaseOrder, KindSalesInvoice, KindCashReceipt:
		return true
	}
	return false
}

// NumberPrefix returns the numerator prefix for the kind.
func (k Kind) NumberPrefix() string {
	switch k {
	case KindPurchaseOrder:
		return "PO"
	case KindSalesInvoice:
		return "SI"
	case KindStockAdjustment:
		return "SA"
	case KindPhysicalInventory:
		return "PI"
	case KindCashReceipt:
		return "CR"
	default:
		return "DOC"
	}
}

// LineDirection fixes which way a line moves stock. For most kinds the
// direction follows the kind; stock adjustments carry it per line so one
// document can both add and remove.
type LineDirection string

const (
	DirectionIn  LineDirection = "in"
	DirectionOut LineDirection = "out"
)

// Valid reports whether the direction is known.
func (d LineDirection) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Document is the shared document shape. Lines are mutable only in
// draft; confirmation freezes the ordered quantities and prices, and
// every later change goes through fulfillment.
type Document struct {
	entity.Document

	Kind   Kind   `db:"kind" json:"kind"`
	Status Status `db:"status" json:"status"`

	// StoreID locates stock effects. Unset for cash receipts.
	StoreID id.ID `db:"store_id" json:"storeId,omitempty"`

	// CounterpartyID is the supplier, customer or payer.
	CounterpartyID id.ID `db:"counterparty_id" json:"counterpartyId"`

	// CurrencyID with an optional fixed ExchangeRate. A zero rate means
	// "resolve from the rate history at transition time".
	CurrencyID   id.ID           `db:"currency_id" json:"currencyId"`
	ExchangeRate decimal.Decimal `db:"exchange_rate" json:"exchangeRate"`

	// Total is recomputed from lines; PaidTotal advances with payments.
	Total     types.Money `db:"total" json:"total"`
	PaidTotal types.Money `db:"paid_total" json:"paidTotal"`

	// Attempt counts posting attempts. Each successful ledger group is
	// tagged with the attempt that produced it.
	Attempt int `db:"attempt" json:"attempt"`

	// Table part
	Lines []DocumentLine `db:"-" json:"lines"`
}

// DocumentLine is the shared line shape.
type DocumentLine struct {
	LineID     id.ID `db:"line_id" json:"lineId"`
	DocumentID id.ID `db:"document_id" json:"documentId"`
	TenantID   id.ID `db:"tenant_id" json:"-"`
	LineNo     int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// Direction of the stock effect. Derived from the kind for every
	// kind except stock adjustments.
	Direction LineDirection `db:"direction" json:"direction"`

	// Ordered is the target quantity; Fulfilled is the running progress
	// toward it. 0 <= Fulfilled <= Ordered always.
	Ordered   types.Quantity `db:"ordered" json:"ordered"`
	Fulfilled types.Quantity `db:"fulfilled" json:"fulfilled"`

	// UnitPrice is the purchase cost or sales price per unit.
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// Amount is Ordered x UnitPrice through the shared rounding path.
	Amount types.Money `db:"amount" json:"amount"`
}

// Remaining returns the unfulfilled quantity.
func (l *DocumentLine) Remaining() types.Quantity {
	return l.Ordered - l.Fulfilled
}

// Complete reports whether the line has reached its ordered quantity.
func (l *DocumentLine) Complete() bool {
	return l.Fulfilled >= l.Ordered
}

// NewDocument creates a draft document of the given kind.
func NewDocument(tenantID id.ID, kind Kind, date time.Time) *Document {
	doc := &Document{
		Document: entity.Document{
			BaseDocument: entity.NewBaseDocument(tenantID),
			Date:         date,
		},
		Kind:      kind,
		Status:    StatusDraft,
		Total:     types.Zero(),
		PaidTotal: types.Zero(),
		Lines:     make([]DocumentLine, 0),
	}
	return doc
}

// AddLine appends a line and recalculates totals. The direction defaults
// from the kind; stock adjustments must set it explicitly afterwards.
func (d *Document) AddLine(productID id.ID, ordered types.Quantity, unitPrice types.Money) *DocumentLine {
	line := DocumentLine{
		LineID:     id.New(),
		DocumentID: d.ID,
		TenantID:   d.TenantID,
		LineNo:     len(d.Lines) + 1,
		ProductID:  productID,
		Direction:  d.Kind.defaultDirection(),
		Ordered:    ordered,
		UnitPrice:  unitPrice,
		Amount:     types.RoundAmount(ordered.Decimal().Mul(unitPrice)),
	}
	d.Lines = append(d.Lines, line)
	d.RecalculateTotals()
	return &d.Lines[len(d.Lines)-1]
}

func (k Kind) defaultDirection() LineDirection {
	switch k {
	case KindSalesInvoice:
		return DirectionOut
	default:
		return DirectionIn
	}
}

// RecalculateTotals updates the document total from lines. Cash receipts
// carry their amount on the header; there are no lines to derive it from.
func (d *Document) RecalculateTotals() {
	if d.Kind == KindCashReceipt && len(d.Lines) == 0 {
		return
	}
	total := types.Zero()
	for i := range d.Lines {
		line := &d.Lines[i]
		line.Amount = types.RoundAmount(line.Ordered.Decimal().Mul(line.UnitPrice))
		total = total.Add(line.Amount)
	}
	d.Total = total
}

// Balance returns the unpaid remainder.
func (d *Document) Balance() types.Money {
	return d.Total.Sub(d.PaidTotal)
}

// CanModify reports whether header and lines may still change.
// Only drafts are editable; everything later goes through transitions.
func (d *Document) CanModify() error {
	if d.Status != StatusDraft {
		return apperror.NewInvalidTransition(string(d.Kind), string(d.Status), "modify")
	}
	return nil
}

// Validate implements entity.Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}
	if !d.Kind.Valid() {
		return apperror.NewValidation("unknown document kind").
			WithDetail("field", "kind").
			WithDetail("value", string(d.Kind))
	}
	if !d.Status.Valid() {
		return apperror.NewValidation("unknown document status").
			WithDetail("field", "status").
			WithDetail("value", string(d.Status))
	}
	if id.IsNil(d.CurrencyID) {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currencyId")
	}
	if d.ExchangeRate.IsNegative() {
		return apperror.NewValidation("exchange rate must not be negative").
			WithDetail("field", "exchangeRate")
	}
	if d.Kind.MovesStock() && id.IsNil(d.StoreID) {
		return apperror.NewValidation("store is required").
			WithDetail("field", "storeId")
	}
	if id.IsNil(d.CounterpartyID) && d.Kind != KindStockAdjustment && d.Kind != KindPhysicalInventory {
		return apperror.NewValidation("counterparty is required").
			WithDetail("field", "counterpartyId")
	}
	if d.Kind == KindCashReceipt && len(d.Lines) > 0 {
		return apperror.NewValidation("cash receipt carries its amount on the header, not lines").
			WithDetail("field", "lines")
	}

	for i := range d.Lines {
		if err := d.validateLine(i); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) validateLine(i int) error {
	line := &d.Lines[i]
	if id.IsNil(line.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "lines").
			WithDetail("lineNo", i+1)
	}
	if !line.Direction.Valid() {
		return apperror.NewValidation("unknown line direction").
			WithDetail("field", "lines").
			WithDetail("lineNo", i+1)
	}
	if line.Direction != d.Kind.defaultDirection() && d.Kind != KindStockAdjustment && d.Kind != KindPhysicalInventory {
		return apperror.NewValidation("line direction is fixed by the document kind").
			WithDetail("field", "lines").
			WithDetail("lineNo", i+1)
	}
	if !line.Ordered.IsPositive() {
		return apperror.NewValidation("ordered quantity must be positive").
			WithDetail("field", "lines").
			WithDetail("lineNo", i+1)
	}
	if line.Fulfilled.IsNegative() || line.Fulfilled > line.Ordered {
		return apperror.NewValidation("fulfilled quantity out of bounds").
			WithDetail("field", "lines").
			WithDetail("lineNo", i+1)
	}
	if line.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").
			WithDetail("field", "lines").
			WithDetail("lineNo", i+1)
	}
	return nil
}
