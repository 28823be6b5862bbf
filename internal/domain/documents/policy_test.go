package documents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/security"
	"saldo/internal/core/tenant"
	"saldo/internal/core/types"
)

func policyCtx(settings tenant.Settings) context.Context {
	return tenant.WithScope(context.Background(), tenant.Scope{
		TenantID:     id.New(),
		UserID:       id.New(),
		TenantCode:   "acme",
		BaseCurrency: "USD",
		Settings:     settings,
	})
}

func TestPolicyEngineDefaults(t *testing.T) {
	engine, err := NewPolicyEngine(nil)
	require.NoError(t, err)
	ctx := policyCtx(tenant.Settings{})

	t.Run("valid purchase order passes", func(t *testing.T) {
		doc := testDocument(KindPurchaseOrder)
		assert.NoError(t, engine.CheckConfirm(ctx, doc))
	})

	t.Run("empty purchase order is blocked", func(t *testing.T) {
		doc := testDocument(KindPurchaseOrder)
		doc.Lines = nil
		doc.RecalculateTotals()

		err := engine.CheckConfirm(ctx, doc)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodePolicyRule))
	})

	t.Run("purchase order without counterparty is blocked", func(t *testing.T) {
		doc := testDocument(KindPurchaseOrder)
		doc.CounterpartyID = id.Nil()

		err := engine.CheckConfirm(ctx, doc)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodePolicyRule))
	})

	t.Run("zero total cash receipt is blocked", func(t *testing.T) {
		doc := NewDocument(id.New(), KindCashReceipt, time.Now().UTC())
		doc.CurrencyID = id.New()
		doc.CounterpartyID = id.New()

		err := engine.CheckConfirm(ctx, doc)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodePolicyRule))
	})

	t.Run("adjustment needs only lines", func(t *testing.T) {
		doc := testDocument(KindStockAdjustment)
		assert.NoError(t, engine.CheckConfirm(ctx, doc))
	})
}

func TestPolicyEngineTenantOverride(t *testing.T) {
	engine, err := NewPolicyEngine(nil)
	require.NoError(t, err)

	ctx := policyCtx(tenant.Settings{
		PolicyRules: map[string]string{
			"purchase_order": `total >= 100.0`,
		},
	})

	small := testDocument(KindPurchaseOrder)
	small.Lines = nil
	small.AddLine(id.New(), types.MustQuantity("1"), types.MustMoney("50"))

	err = engine.CheckConfirm(ctx, small)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePolicyRule))

	large := testDocument(KindPurchaseOrder)
	large.Lines = nil
	large.AddLine(id.New(), types.MustQuantity("3"), types.MustMoney("50"))

	assert.NoError(t, engine.CheckConfirm(ctx, large))
}

func TestPolicyEngineBackdatedRule(t *testing.T) {
	engine, err := NewPolicyEngine(nil)
	require.NoError(t, err)

	ctx := policyCtx(tenant.Settings{
		PolicyRules: map[string]string{
			"sales_invoice": `!backdated`,
		},
	})

	doc := testDocument(KindSalesInvoice)
	doc.Date = time.Now().UTC().Add(-72 * time.Hour)

	err = engine.CheckConfirm(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePolicyRule))

	doc.Date = time.Now().UTC().Add(72 * time.Hour)
	assert.NoError(t, engine.CheckConfirm(ctx, doc))
}

func TestPolicyEngineBrokenOverrideFallsBack(t *testing.T) {
	engine, err := NewPolicyEngine(nil)
	require.NoError(t, err)

	ctx := policyCtx(tenant.Settings{
		PolicyRules: map[string]string{
			"purchase_order": `total >>> (`,
		},
	})

	// The built-in rule takes over when the override cannot compile.
	doc := testDocument(KindPurchaseOrder)
	assert.NoError(t, engine.CheckConfirm(ctx, doc))

	doc.Lines = nil
	doc.RecalculateTotals()
	err = engine.CheckConfirm(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePolicyRule))
}

func TestPolicyEngineFlagGate(t *testing.T) {
	flags := security.NewInMemoryFlags()
	engine, err := NewPolicyEngine(flags)
	require.NoError(t, err)
	ctx := policyCtx(tenant.Settings{})

	blocked := testDocument(KindPurchaseOrder)
	blocked.Lines = nil
	blocked.RecalculateTotals()

	// Flag off: the engine stands aside entirely.
	assert.NoError(t, engine.CheckConfirm(ctx, blocked))

	flags.SetFlag(security.FlagPolicyRules, true)
	err = engine.CheckConfirm(ctx, blocked)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePolicyRule))
}

func TestPolicyEngineNilIsNoop(t *testing.T) {
	var engine *PolicyEngine
	doc := testDocument(KindPurchaseOrder)
	doc.Lines = nil

	assert.NoError(t, engine.CheckConfirm(context.Background(), doc))
}
