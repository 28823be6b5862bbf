package documents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/types"
)

// testDocument builds a valid document of the given kind: one line for
// stock kinds, a header amount for cash receipts.
func testDocument(kind Kind) *Document {
	doc := NewDocument(id.New(), kind, time.Now().UTC())
	doc.CurrencyID = id.New()
	if kind.MovesStock() {
		doc.StoreID = id.New()
	}
	if kind != KindStockAdjustment && kind != KindPhysicalInventory {
		doc.CounterpartyID = id.New()
	}
	if kind == KindCashReceipt {
		doc.Total = types.MustMoney("250")
		return doc
	}
	doc.AddLine(id.New(), types.MustQuantity("10"), types.MustMoney("25"))
	return doc
}

func TestNewDocumentDefaults(t *testing.T) {
	tenantID := id.New()
	doc := NewDocument(tenantID, KindPurchaseOrder, time.Now().UTC())

	assert.Equal(t, StatusDraft, doc.Status)
	assert.Equal(t, tenantID, doc.TenantID)
	assert.Equal(t, 0, doc.Attempt)
	assert.True(t, doc.Total.IsZero())
	assert.True(t, doc.PaidTotal.IsZero())
	assert.Empty(t, doc.Lines)
	assert.False(t, id.IsNil(doc.ID))
}

func TestAddLineComputesAmount(t *testing.T) {
	doc := NewDocument(id.New(), KindPurchaseOrder, time.Now().UTC())

	line := doc.AddLine(id.New(), types.MustQuantity("3"), types.MustMoney("19.99"))

	assert.Equal(t, "59.97", line.Amount.String())
	assert.Equal(t, 1, line.LineNo)
	assert.Equal(t, DirectionIn, line.Direction)
	assert.Equal(t, "59.97", doc.Total.String())

	doc.AddLine(id.New(), types.MustQuantity("2"), types.MustMoney("0.105"))
	assert.Equal(t, "60.18", doc.Total.String()) // 59.97 + 0.21
	assert.Equal(t, 2, doc.Lines[1].LineNo)
}

func TestAddLineDirectionFollowsKind(t *testing.T) {
	issue := NewDocument(id.New(), KindSalesInvoice, time.Now().UTC())
	line := issue.AddLine(id.New(), types.MustQuantity("1"), types.MustMoney("10"))
	assert.Equal(t, DirectionOut, line.Direction)

	receipt := NewDocument(id.New(), KindPurchaseOrder, time.Now().UTC())
	line = receipt.AddLine(id.New(), types.MustQuantity("1"), types.MustMoney("10"))
	assert.Equal(t, DirectionIn, line.Direction)
}

func TestBalance(t *testing.T) {
	doc := testDocument(KindPurchaseOrder)
	doc.PaidTotal = types.MustMoney("100")

	assert.Equal(t, "150", doc.Balance().String()) // 250 - 100
}

func TestCanModify(t *testing.T) {
	doc := testDocument(KindPurchaseOrder)
	require.NoError(t, doc.CanModify())

	doc.Status = StatusConfirmed
	err := doc.CanModify()
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestLineRemainingAndComplete(t *testing.T) {
	line := DocumentLine{
		Ordered:   types.MustQuantity("100"),
		Fulfilled: types.MustQuantity("70"),
	}

	assert.Equal(t, types.MustQuantity("30"), line.Remaining())
	assert.False(t, line.Complete())

	line.Fulfilled = line.Ordered
	assert.True(t, line.Complete())
	assert.True(t, line.Remaining().IsZero())
}

func TestDocumentValidate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(d *Document)
		kind    Kind
		wantErr bool
	}{
		{
			name:   "valid purchase order",
			kind:   KindPurchaseOrder,
			mutate: func(d *Document) {},
		},
		{
			name:   "valid adjustment without counterparty",
			kind:   KindStockAdjustment,
			mutate: func(d *Document) {},
		},
		{
			name:    "unknown kind",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.Kind = Kind("memo") },
			wantErr: true,
		},
		{
			name:    "unknown status",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.Status = Status("posted") },
			wantErr: true,
		},
		{
			name:    "missing date",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.Date = time.Time{} },
			wantErr: true,
		},
		{
			name:    "missing currency",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.CurrencyID = id.Nil() },
			wantErr: true,
		},
		{
			name:    "negative exchange rate",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.ExchangeRate = types.MustMoney("-1") },
			wantErr: true,
		},
		{
			name:    "stock kind without store",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.StoreID = id.Nil() },
			wantErr: true,
		},
		{
			name:   "cash receipt without store",
			kind:   KindCashReceipt,
			mutate: func(d *Document) {},
		},
		{
			name: "cash receipt with lines",
			kind: KindCashReceipt,
			mutate: func(d *Document) {
				d.AddLine(id.New(), types.MustQuantity("1"), types.MustMoney("10"))
			},
			wantErr: true,
		},
		{
			name:    "missing counterparty",
			kind:    KindSalesInvoice,
			mutate:  func(d *Document) { d.CounterpartyID = id.Nil() },
			wantErr: true,
		},
		{
			name:    "line without product",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.Lines[0].ProductID = id.Nil() },
			wantErr: true,
		},
		{
			name:    "line direction against kind",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.Lines[0].Direction = DirectionOut },
			wantErr: true,
		},
		{
			name:   "adjustment line direction free",
			kind:   KindStockAdjustment,
			mutate: func(d *Document) { d.Lines[0].Direction = DirectionOut },
		},
		{
			name:    "zero ordered quantity",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.Lines[0].Ordered = 0 },
			wantErr: true,
		},
		{
			name:    "fulfilled beyond ordered",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.Lines[0].Fulfilled = d.Lines[0].Ordered + 1 },
			wantErr: true,
		},
		{
			name:    "negative unit price",
			kind:    KindPurchaseOrder,
			mutate:  func(d *Document) { d.Lines[0].UnitPrice = types.MustMoney("-5") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDocument(tt.kind)
			tt.mutate(doc)

			err := doc.Validate(ctx)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKindProperties(t *testing.T) {
	assert.True(t, KindPurchaseOrder.MovesStock())
	assert.False(t, KindCashReceipt.MovesStock())

	assert.True(t, KindSalesInvoice.Payable())
	assert.True(t, KindCashReceipt.Payable())
	assert.False(t, KindStockAdjustment.Payable())
	assert.False(t, KindPhysicalInventory.Payable())

	assert.Equal(t, "PO", KindPurchaseOrder.NumberPrefix())
	assert.Equal(t, "SI", KindSalesInvoice.NumberPrefix())
	assert.Equal(t, "SA", KindStockAdjustment.NumberPrefix())
	assert.Equal(t, "PI", KindPhysicalInventory.NumberPrefix())
	assert.Equal(t, "CR", KindCashReceipt.NumberPrefix())

	assert.False(t, Kind("memo").Valid())
}
