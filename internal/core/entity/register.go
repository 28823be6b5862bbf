// Package entity provides core domain entities.
package entity

import (
	"time"

	"saldo/internal/core/id"
	"saldo/internal/core/types"
)

// RecordType defines movement direction for accumulation rows.
type RecordType string

const (
	// RecordTypeReceipt increases a balance
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases a balance
	RecordTypeExpense RecordType = "expense"
)

// MovementBase contains the fields shared by all register movements.
// Movements are immutable: never updated, only deleted by recorder and
// recreated on a later posting attempt.
type MovementBase struct {
	// LineID is the unique identifier of this movement row (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// TenantID is the owning tenant
	TenantID id.ID `db:"tenant_id" json:"-"`

	// RecorderID is the document that created this movement
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderKind is the document kind (e.g. "purchase_order")
	RecorderKind string `db:"recorder_kind" json:"recorderKind"`

	// Attempt is the posting attempt that created this movement.
	// Enables cleanup: DELETE WHERE recorder_id = X AND attempt < Y.
	Attempt int `db:"attempt" json:"attempt"`

	// Period is the business date of the movement
	Period time.Time `db:"period" json:"period"`

	// RecordType: receipt or expense
	RecordType RecordType `db:"record_type" json:"recordType"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovementBase creates a movement base with a generated LineID.
func NewMovementBase(tenantID, recorderID id.ID, recorderKind string, attempt int, period time.Time, recordType RecordType) MovementBase {
	return MovementBase{
		LineID:       id.New(),
		TenantID:     tenantID,
		RecorderID:   recorderID,
		RecorderKind: recorderKind,
		Attempt:      attempt,
		Period:       period,
		RecordType:   recordType,
		CreatedAt:    time.Now().UTC(),
	}
}

// InventoryMovement is one applied stock delta: the append-only trace behind
// every position change.
type InventoryMovement struct {
	MovementBase

	// Dimensions
	StoreID   id.ID `db:"store_id" json:"storeId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// RecorderLineID points at the document line that produced the delta
	RecorderLineID id.ID `db:"recorder_line_id" json:"recorderLineId"`

	// Resources
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost is the inbound unit cost, or the average cost consumed on
	// an outbound movement
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// Value is quantity × unit cost at movement time (COGS sizing for
	// outbound movements)
	Value types.Money `db:"value" json:"value"`
}

// SignedQuantity returns the quantity with direction applied:
// receipt positive, expense negative.
func (m *InventoryMovement) SignedQuantity() types.Quantity {
	if m.RecordType == RecordTypeExpense {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// InventoryPosition is the running balance per (tenant, product, store):
// on-hand quantity plus weighted-average cost. Mutated only inside a locked
// posting transaction.
type InventoryPosition struct {
	TenantID  id.ID `db:"tenant_id" json:"-"`
	ProductID id.ID `db:"product_id" json:"productId"`
	StoreID   id.ID `db:"store_id" json:"storeId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	AvgCost  types.Money    `db:"avg_cost" json:"avgCost"`

	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Value returns the position's carrying value (quantity × average cost).
func (p *InventoryPosition) Value() types.Money {
	return types.RoundAmount(p.Quantity.Decimal().Mul(p.AvgCost))
}
