package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/core/types"
)

type posKey struct {
	product id.ID
	store   id.ID
}

type fakePositionRepo struct {
	byKey map[posKey]*entity.InventoryPosition
}

func newFakePositionRepo() *fakePositionRepo {
	return &fakePositionRepo{byKey: make(map[posKey]*entity.InventoryPosition)}
}

func (f *fakePositionRepo) Get(ctx context.Context, productID, storeID id.ID) (*entity.InventoryPosition, error) {
	pos, ok := f.byKey[posKey{productID, storeID}]
	if !ok {
		return nil, apperror.NewNotFound("inventory position", productID.String())
	}
	return pos, nil
}

func (f *fakePositionRepo) GetForUpdate(ctx context.Context, productID, storeID id.ID) (*entity.InventoryPosition, error) {
	return f.Get(ctx, productID, storeID)
}

func (f *fakePositionRepo) Upsert(ctx context.Context, position *entity.InventoryPosition) error {
	f.byKey[posKey{position.ProductID, position.StoreID}] = position
	return nil
}

func (f *fakePositionRepo) ListByStore(ctx context.Context, storeID id.ID) ([]*entity.InventoryPosition, error) {
	var out []*entity.InventoryPosition
	for k, p := range f.byKey {
		if k.store == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePositionRepo) ListByProduct(ctx context.Context, productID id.ID) ([]*entity.InventoryPosition, error) {
	var out []*entity.InventoryPosition
	for k, p := range f.byKey {
		if k.product == productID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeMovementRepo struct {
	movements []*entity.InventoryMovement
}

func (f *fakeMovementRepo) Insert(ctx context.Context, movements []*entity.InventoryMovement) error {
	f.movements = append(f.movements, movements...)
	return nil
}

func (f *fakeMovementRepo) ListByRecorder(ctx context.Context, recorderID id.ID) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	for _, m := range f.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovementRepo) ListByPosition(ctx context.Context, productID, storeID id.ID, limit int) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	for _, m := range f.movements {
		if m.ProductID == productID && m.StoreID == storeID {
			out = append(out, m)
		}
	}
	return out, nil
}

func scopedCtx(allowNegative bool) context.Context {
	return tenant.WithScope(context.Background(), tenant.Scope{
		TenantID:     id.New(),
		UserID:       id.New(),
		TenantCode:   "acme",
		BaseCurrency: "USD",
		Settings:     tenant.Settings{AllowNegativeStock: allowNegative},
	})
}

func movement(productID, storeID id.ID, qty string, cost string) MovementInput {
	return MovementInput{
		ProductID:    productID,
		StoreID:      storeID,
		Quantity:     types.MustQuantity(qty),
		UnitCost:     types.MustMoney(cost),
		RecorderID:   id.New(),
		RecorderKind: "purchase_order",
		Attempt:      1,
		Period:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestApplyMovement_InboundRecomputesAverage(t *testing.T) {
	positions := newFakePositionRepo()
	movements := &fakeMovementRepo{}
	updater := NewUpdater(positions, movements)
	ctx := scopedCtx(false)
	productID, storeID := id.New(), id.New()

	res, err := updater.ApplyMovement(ctx, movement(productID, storeID, "10", "10.00"))
	require.NoError(t, err)
	assert.Equal(t, "10.0000", res.Position.Quantity.String())
	assert.Equal(t, "10", res.Position.AvgCost.String())

	res, err = updater.ApplyMovement(ctx, movement(productID, storeID, "10", "20.00"))
	require.NoError(t, err)
	assert.Equal(t, "20.0000", res.Position.Quantity.String())
	assert.Equal(t, "15", res.Position.AvgCost.String(), "(10x10 + 10x20) / 20")

	require.Len(t, movements.movements, 2)
	assert.Equal(t, entity.RecordTypeReceipt, movements.movements[0].RecordType)
	assert.Equal(t, "200", movements.movements[1].Value.String())
}

func TestApplyMovement_OutboundKeepsAverage(t *testing.T) {
	positions := newFakePositionRepo()
	updater := NewUpdater(positions, &fakeMovementRepo{})
	ctx := scopedCtx(false)
	productID, storeID := id.New(), id.New()

	_, err := updater.ApplyMovement(ctx, movement(productID, storeID, "20", "15.00"))
	require.NoError(t, err)

	res, err := updater.ApplyMovement(ctx, movement(productID, storeID, "-8", "0"))
	require.NoError(t, err)
	assert.Equal(t, "12.0000", res.Position.Quantity.String())
	assert.Equal(t, "15", res.Position.AvgCost.String(), "outbound never moves the average")
	assert.Equal(t, "120", res.ConsumedValue.String(), "8 x 15.00 sizes the COGS line")
	assert.False(t, res.Clamped)
	assert.Equal(t, entity.RecordTypeExpense, res.Movement.RecordType)
	assert.Equal(t, "8.0000", res.Movement.Quantity.String())
}

func TestApplyMovement_ClampsAtFloor(t *testing.T) {
	positions := newFakePositionRepo()
	updater := NewUpdater(positions, &fakeMovementRepo{})
	ctx := scopedCtx(false)
	productID, storeID := id.New(), id.New()

	_, err := updater.ApplyMovement(ctx, movement(productID, storeID, "6", "10.00"))
	require.NoError(t, err)

	res, err := updater.ApplyMovement(ctx, movement(productID, storeID, "-10", "0"))
	require.NoError(t, err, "clamping is a signal, not a failure")
	assert.True(t, res.Clamped)
	assert.Equal(t, "4.0000", res.ClampedBy.String())
	assert.Equal(t, "0.0000", res.Position.Quantity.String())
	assert.Equal(t, "100", res.ConsumedValue.String(), "consumption prices the full requested quantity")
}

func TestApplyMovement_NegativeStockAllowed(t *testing.T) {
	positions := newFakePositionRepo()
	updater := NewUpdater(positions, &fakeMovementRepo{})
	ctx := scopedCtx(true)
	productID, storeID := id.New(), id.New()

	_, err := updater.ApplyMovement(ctx, movement(productID, storeID, "6", "10.00"))
	require.NoError(t, err)

	res, err := updater.ApplyMovement(ctx, movement(productID, storeID, "-10", "0"))
	require.NoError(t, err)
	assert.False(t, res.Clamped)
	assert.Equal(t, "-4.0000", res.Position.Quantity.String())
}

func TestApplyMovement_ZeroResultHoldsCost(t *testing.T) {
	// Negative stock permitted: a position at -10 receiving 10 lands on
	// zero quantity, and the average must stay put instead of dividing
	// by zero.
	positions := newFakePositionRepo()
	updater := NewUpdater(positions, &fakeMovementRepo{})
	ctx := scopedCtx(true)
	productID, storeID := id.New(), id.New()

	_, err := updater.ApplyMovement(ctx, movement(productID, storeID, "5", "12.00"))
	require.NoError(t, err)
	_, err = updater.ApplyMovement(ctx, movement(productID, storeID, "-15", "0"))
	require.NoError(t, err)

	res, err := updater.ApplyMovement(ctx, movement(productID, storeID, "10", "99.00"))
	require.NoError(t, err)
	assert.Equal(t, "0.0000", res.Position.Quantity.String())
	assert.Equal(t, "12", res.Position.AvgCost.String(), "cost held at prior value")
}

func TestApplyMovement_InputValidation(t *testing.T) {
	updater := NewUpdater(newFakePositionRepo(), &fakeMovementRepo{})
	ctx := scopedCtx(false)
	productID, storeID := id.New(), id.New()

	tests := []struct {
		name   string
		mutate func(*MovementInput)
	}{
		{"zero quantity", func(in *MovementInput) { in.Quantity = 0 }},
		{"missing product", func(in *MovementInput) { in.ProductID = id.Nil() }},
		{"missing store", func(in *MovementInput) { in.StoreID = id.Nil() }},
		{"missing recorder", func(in *MovementInput) { in.RecorderID = id.Nil() }},
		{"negative inbound cost", func(in *MovementInput) { in.UnitCost = types.MustMoney("-1") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := movement(productID, storeID, "5", "10.00")
			tt.mutate(&in)
			_, err := updater.ApplyMovement(ctx, in)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
}

func TestApplyMovement_RequiresScope(t *testing.T) {
	updater := NewUpdater(newFakePositionRepo(), &fakeMovementRepo{})

	_, err := updater.ApplyMovement(context.Background(), movement(id.New(), id.New(), "5", "10.00"))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeTenantScopeMissing))
}
