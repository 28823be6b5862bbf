package inventory

import (
	"context"
	"time"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/core/types"
	"saldo/pkg/logger"
)

// MovementInput describes one stock delta to apply. Quantity is signed:
// positive receives stock, negative consumes it. UnitCost is read only
// on inbound movements; outbound consumption is always priced at the
// position's current average cost.
type MovementInput struct {
	ProductID id.ID
	StoreID   id.ID
	Quantity  types.Quantity
	UnitCost  types.Money

	// Recorder identifies the document transition producing the delta.
	RecorderID     id.ID
	RecorderKind   string
	RecorderLineID id.ID
	Attempt        int
	Period         time.Time
}

// MovementResult reports what the updater applied.
type MovementResult struct {
	Movement *entity.InventoryMovement
	Position *entity.InventoryPosition

	// ConsumedValue is |quantity| x average cost for outbound movements,
	// used by the caller to size a COGS journal line. Zero on inbound.
	ConsumedValue types.Money

	// Clamped is set when the movement would have driven the position
	// below the floor and negative stock is not permitted. The position
	// is held at zero and the shortfall is reported, not failed.
	Clamped   bool
	ClampedBy types.Quantity
}

// Updater recomputes stock positions under weighted-average costing.
// It must run inside the caller's transaction with the position row
// locked, so concurrent documents for the same (product, store) pair
// serialize instead of losing updates.
type Updater struct {
	positions PositionRepository
	movements MovementRepository
}

// NewUpdater creates an updater over position and movement stores.
func NewUpdater(positions PositionRepository, movements MovementRepository) *Updater {
	return &Updater{
		positions: positions,
		movements: movements,
	}
}

// ApplyMovement applies one signed stock delta.
//
// Inbound (quantity > 0) recomputes the average:
//
//	newAvg = (oldQty x oldAvg + qty x unitCost) / (oldQty + qty)
//
// with the cost held at its prior value when the resulting quantity is
// zero. Outbound (quantity < 0) leaves the average untouched and prices
// the consumption at it.
func (u *Updater) ApplyMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, apperror.NewTenantScopeMissing()
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	pos, err := u.positions.GetForUpdate(ctx, in.ProductID, in.StoreID)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return nil, err
		}
		pos = &entity.InventoryPosition{
			TenantID:  scope.TenantID,
			ProductID: in.ProductID,
			StoreID:   in.StoreID,
			Quantity:  0,
			AvgCost:   types.Zero(),
		}
	}

	result := &MovementResult{Position: pos}
	oldQty := pos.Quantity
	newQty := oldQty + in.Quantity

	var movement *entity.InventoryMovement
	if in.Quantity > 0 {
		if newQty != 0 {
			totalCost := oldQty.Decimal().Mul(pos.AvgCost).
				Add(in.Quantity.Decimal().Mul(in.UnitCost))
			pos.AvgCost = types.RoundCost(totalCost.Div(newQty.Decimal()))
		}
		// newQty == 0: cost held at prior value, nothing to divide by

		movement = u.newMovement(scope.TenantID, in, entity.RecordTypeReceipt, in.Quantity, in.UnitCost)
	} else {
		consumed := in.Quantity.Abs()
		result.ConsumedValue = types.RoundAmount(consumed.Decimal().Mul(pos.AvgCost))

		if newQty < 0 && !scope.Settings.AllowNegativeStock {
			result.Clamped = true
			result.ClampedBy = -newQty
			newQty = 0
			logger.Warn(ctx, "inventory position clamped at floor",
				"product_id", in.ProductID,
				"store_id", in.StoreID,
				"requested", in.Quantity.String(),
				"shortfall", result.ClampedBy.String(),
				"recorder_id", in.RecorderID,
			)
		}

		movement = u.newMovement(scope.TenantID, in, entity.RecordTypeExpense, consumed, pos.AvgCost)
	}

	now := time.Now().UTC()
	pos.Quantity = newQty
	pos.LastMovementAt = now
	pos.UpdatedAt = now

	if err := u.movements.Insert(ctx, []*entity.InventoryMovement{movement}); err != nil {
		return nil, err
	}
	if err := u.positions.Upsert(ctx, pos); err != nil {
		return nil, err
	}

	result.Movement = movement
	return result, nil
}

func (u *Updater) newMovement(tenantID id.ID, in MovementInput, recordType entity.RecordType, quantity types.Quantity, unitCost types.Money) *entity.InventoryMovement {
	return &entity.InventoryMovement{
		MovementBase:   entity.NewMovementBase(tenantID, in.RecorderID, in.RecorderKind, in.Attempt, in.Period, recordType),
		StoreID:        in.StoreID,
		ProductID:      in.ProductID,
		RecorderLineID: in.RecorderLineID,
		Quantity:       quantity,
		UnitCost:       unitCost,
		Value:          types.RoundAmount(quantity.Decimal().Mul(unitCost)),
	}
}

func (in MovementInput) validate() error {
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation("movement product is required")
	}
	if id.IsNil(in.StoreID) {
		return apperror.NewValidation("movement store is required")
	}
	if in.Quantity == 0 {
		return apperror.NewValidation("movement quantity must not be zero").
			WithDetail("productId", in.ProductID.String())
	}
	if in.Quantity > 0 && in.UnitCost.IsNegative() {
		return apperror.NewValidation("inbound unit cost must not be negative").
			WithDetail("unitCost", in.UnitCost.String())
	}
	if id.IsNil(in.RecorderID) {
		return apperror.NewValidation("movement recorder is required")
	}
	if in.Period.IsZero() {
		return apperror.NewValidation("movement period is required")
	}
	return nil
}
