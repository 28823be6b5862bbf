package posting

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/core/types"
	"saldo/internal/domain/documents"
	"saldo/internal/domain/ledger"
)

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, got.Equal(types.MustMoney(want)), "want %s, got %s", want, got)
}

// requireLine finds the single journal line for an account and side.
func requireLine(t *testing.T, lines []*ledger.JournalLine, accountID id.ID, side ledger.Side) *ledger.JournalLine {
	t.Helper()
	for _, line := range lines {
		if line.AccountID == accountID && line.Side == side {
			return line
		}
	}
	require.FailNow(t, "journal line not found", "account %s side %s", accountID, side)
	return nil
}

func TestConfirmAssignsNumberAndFreezesRate(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.eur, lineSpec{product: h.productA, qty: "10", price: "25"})

	res, err := h.engine.Confirm(h.ctx(), doc.ID)
	require.NoError(t, err)

	assert.Equal(t, documents.StatusConfirmed, res.Document.Status)
	assert.Equal(t, "PO-2026-000001", res.Document.Number)
	assertMoney(t, "1.1", res.Document.ExchangeRate)

	stored := h.loadDoc(doc.ID)
	assert.Equal(t, documents.StatusConfirmed, stored.Status)
	assert.Equal(t, "PO-2026-000001", stored.Number)
}

func TestConfirmTwiceRejected(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "10", price: "25"})
	h.confirm(doc)

	_, err := h.engine.Confirm(h.ctx(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestConfirmEmptyDocumentRejected(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd)

	_, err := h.engine.Confirm(h.ctx(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestConfirmUnknownProductRejected(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: id.New(), qty: "1", price: "5"})

	_, err := h.engine.Confirm(h.ctx(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestConfirmWithoutQuotedRateRollsBack(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.gbp, lineSpec{product: h.productA, qty: "10", price: "25"})

	_, err := h.engine.Confirm(h.ctx(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCurrencyNotFound))

	stored := h.loadDoc(doc.ID)
	assert.Equal(t, documents.StatusDraft, stored.Status)
	assert.Empty(t, stored.Number)
}

func TestConfirmPolicyOverrideBlocks(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "10", price: "25"})

	ctx := h.ctxWith(tenant.Settings{PolicyRules: map[string]string{
		string(documents.KindPurchaseOrder): `total >= 1000.0`,
	}})
	_, err := h.engine.Confirm(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePolicyRule))

	assert.Equal(t, documents.StatusDraft, h.loadDoc(doc.ID).Status)
}

func TestReceiveFullPostsJournalAndStock(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.eur, lineSpec{product: h.productA, qty: "10", price: "25"})
	h.confirm(doc)

	res, err := h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, documents.StatusFulfilled, res.Document.Status)
	assert.Equal(t, 1, res.Document.Attempt)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, types.MustQuantity("10"), res.Lines[0].Applied)
	assert.False(t, res.Lines[0].Capped)

	// One balanced pair in document currency at the frozen rate.
	lines := h.journalFor(doc.ID)
	require.Len(t, lines, 2)
	dr := requireLine(t, lines, h.accountID("1310"), ledger.Debit)
	cr := requireLine(t, lines, h.accountID("2010"), ledger.Credit)
	for _, ln := range []*ledger.JournalLine{dr, cr} {
		assertMoney(t, "250", ln.Amount)
		assertMoney(t, "1.1", ln.Rate)
		assertMoney(t, "275", ln.Equivalent)
		assert.Equal(t, 1, ln.Attempt)
		assert.Equal(t, "PO-2026-000001", ln.Reference)
	}

	// Stock enters at the base-currency unit cost.
	pos := h.position(h.productA)
	require.NotNil(t, pos)
	assert.Equal(t, types.MustQuantity("10"), pos.Quantity)
	assertMoney(t, "27.5", pos.AvgCost)

	require.Len(t, h.store.movements, 1)
	assertMoney(t, "27.5", h.store.movements[0].UnitCost)
	assertMoney(t, "275", h.store.movements[0].Value)
}

func TestReceivePartialThenCapRemainder(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "100", price: "10"})
	h.confirm(doc)
	lineID := h.loadDoc(doc.ID).Lines[0].LineID

	res, err := h.engine.Receive(h.ctx(), doc.ID,
		[]documents.LineDelta{{LineID: lineID, Quantity: types.MustQuantity("70")}}, nil)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusPartiallyFulfilled, res.Document.Status)
	assert.Equal(t, types.MustQuantity("70"), res.Lines[0].Applied)

	// The second 70 caps at the remaining 30 in the default lenient mode.
	res, err = h.engine.Receive(h.ctx(), doc.ID,
		[]documents.LineDelta{{LineID: lineID, Quantity: types.MustQuantity("70")}}, nil)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusFulfilled, res.Document.Status)
	assert.Equal(t, 2, res.Document.Attempt)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, types.MustQuantity("30"), res.Lines[0].Applied)
	assert.True(t, res.Lines[0].Capped)
	assert.Equal(t, types.MustQuantity("100"), res.Lines[0].Fulfilled)

	pos := h.position(h.productA)
	require.NotNil(t, pos)
	assert.Equal(t, types.MustQuantity("100"), pos.Quantity)
	assert.Len(t, h.store.movements, 2)
}

func TestReceiveEmptyDeltasAppliesRemaining(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd,
		lineSpec{product: h.productA, qty: "100", price: "10"},
		lineSpec{product: h.productB, qty: "50", price: "20"})
	h.confirm(doc)
	lineA := h.loadDoc(doc.ID).Lines[0].LineID

	_, err := h.engine.Receive(h.ctx(), doc.ID,
		[]documents.LineDelta{{LineID: lineA, Quantity: types.MustQuantity("70")}}, nil)
	require.NoError(t, err)

	res, err := h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, documents.StatusFulfilled, res.Document.Status)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, types.MustQuantity("30"), res.Lines[0].Applied)
	assert.Equal(t, types.MustQuantity("50"), res.Lines[1].Applied)

	assert.Equal(t, types.MustQuantity("100"), h.position(h.productA).Quantity)
	assert.Equal(t, types.MustQuantity("50"), h.position(h.productB).Quantity)
}

func TestConcurrentReceivesSettleAtOrdered(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "100", price: "10"})
	h.confirm(doc)
	lineID := h.loadDoc(doc.ID).Lines[0].LineID

	var wg sync.WaitGroup
	results := make([]*Result, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.engine.Receive(h.ctx(), doc.ID,
				[]documents.LineDelta{{LineID: lineID, Quantity: types.MustQuantity("70")}}, nil)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// The document lock serializes the two receives: the second one sees
	// the first one's fulfillment and caps at the remainder.
	final := h.loadDoc(doc.ID)
	assert.Equal(t, documents.StatusFulfilled, final.Status)
	assert.Equal(t, types.MustQuantity("100"), final.Lines[0].Fulfilled)

	applied := results[0].Lines[0].Applied + results[1].Lines[0].Applied
	assert.Equal(t, types.MustQuantity("100"), applied)
	assert.NotEqual(t, results[0].Lines[0].Capped, results[1].Lines[0].Capped,
		"exactly one receive must cap")

	assert.Equal(t, types.MustQuantity("100"), h.position(h.productA).Quantity)
}

func TestReceiveStrictOverReceiptRollsBack(t *testing.T) {
	strictOn := true

	cases := []struct {
		name     string
		settings tenant.Settings
		opts     *ReceiveOptions
	}{
		{name: "per call override", opts: &ReceiveOptions{Strict: &strictOn}},
		{name: "tenant setting", settings: tenant.Settings{StrictOverReceipt: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			doc := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "100", price: "10"})
			h.confirm(doc)
			lineID := h.loadDoc(doc.ID).Lines[0].LineID

			_, err := h.engine.Receive(h.ctxWith(tc.settings), doc.ID,
				[]documents.LineDelta{{LineID: lineID, Quantity: types.MustQuantity("130")}}, tc.opts)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeOverReceipt))

			stored := h.loadDoc(doc.ID)
			assert.Equal(t, documents.StatusConfirmed, stored.Status)
			assert.Equal(t, 0, stored.Attempt)
			assert.True(t, stored.Lines[0].Fulfilled.IsZero())
			assert.Empty(t, h.journalFor(doc.ID))
			assert.Empty(t, h.store.movements)
			assert.Nil(t, h.position(h.productA))
		})
	}
}

func TestSalesIssueConsumesAverageCost(t *testing.T) {
	h := newHarness(t)
	h.seedPosition(h.productA, "10", "15")
	doc := h.newDoc(documents.KindSalesInvoice, h.usd, lineSpec{product: h.productA, qty: "8", price: "40"})
	h.confirm(doc)

	res, err := h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusFulfilled, res.Document.Status)

	// Cost legs in base currency, revenue legs in document currency.
	lines := h.journalFor(doc.ID)
	require.Len(t, lines, 4)
	assertMoney(t, "120", requireLine(t, lines, h.accountID("5010"), ledger.Debit).Amount)
	assertMoney(t, "120", requireLine(t, lines, h.accountID("1310"), ledger.Credit).Amount)
	assertMoney(t, "320", requireLine(t, lines, h.accountID("1210"), ledger.Debit).Amount)
	assertMoney(t, "320", requireLine(t, lines, h.accountID("4010"), ledger.Credit).Amount)

	pos := h.position(h.productA)
	assert.Equal(t, types.MustQuantity("2"), pos.Quantity)
	assertMoney(t, "15", pos.AvgCost)
}

func TestSalesIssueClampsAtStockFloor(t *testing.T) {
	h := newHarness(t)
	h.seedPosition(h.productA, "6", "10")
	doc := h.newDoc(documents.KindSalesInvoice, h.usd, lineSpec{product: h.productA, qty: "10", price: "30"})
	h.confirm(doc)

	res, err := h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.NoError(t, err)

	// Fulfillment runs at the requested quantity; only the stock movement
	// is trimmed to the floor.
	require.Len(t, res.Lines, 1)
	assert.Equal(t, types.MustQuantity("10"), res.Lines[0].Applied)
	assert.True(t, res.Lines[0].Clamped)
	assert.Equal(t, types.MustQuantity("4"), res.Lines[0].ClampedBy)

	pos := h.position(h.productA)
	assert.True(t, pos.Quantity.IsZero())

	// COGS prices the full requested consumption, not the trimmed one.
	lines := h.journalFor(doc.ID)
	assertMoney(t, "100", requireLine(t, lines, h.accountID("5010"), ledger.Debit).Amount)
	assertMoney(t, "300", requireLine(t, lines, h.accountID("1210"), ledger.Debit).Amount)
}

func TestSalesIssueNegativeStockAllowed(t *testing.T) {
	h := newHarness(t)
	h.seedPosition(h.productA, "6", "10")
	doc := h.newDoc(documents.KindSalesInvoice, h.usd, lineSpec{product: h.productA, qty: "10", price: "30"})
	h.confirm(doc)

	res, err := h.engine.Receive(h.ctxWith(tenant.Settings{AllowNegativeStock: true}), doc.ID, nil, nil)
	require.NoError(t, err)
	assert.False(t, res.Lines[0].Clamped)

	pos := h.position(h.productA)
	assert.Equal(t, types.MustQuantity("-4"), pos.Quantity)
}

func TestStockAdjustmentMixedDirections(t *testing.T) {
	h := newHarness(t)
	h.seedPosition(h.productA, "5", "20")
	doc := h.newDoc(documents.KindStockAdjustment, h.usd,
		lineSpec{product: h.productA, qty: "3", price: "0", direction: documents.DirectionOut},
		lineSpec{product: h.productB, qty: "5", price: "14", direction: documents.DirectionIn})
	h.confirm(doc)

	res, err := h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusFulfilled, res.Document.Status)

	assert.Equal(t, types.MustQuantity("2"), h.position(h.productA).Quantity)
	assert.Equal(t, types.MustQuantity("5"), h.position(h.productB).Quantity)
	assertMoney(t, "14", h.position(h.productB).AvgCost)

	// Write-up and write-down legs, all in base currency.
	lines := h.journalFor(doc.ID)
	require.Len(t, lines, 4)
	assertMoney(t, "70", requireLine(t, lines, h.accountID("1310"), ledger.Debit).Amount)
	assertMoney(t, "70", requireLine(t, lines, h.accountID("5020"), ledger.Credit).Amount)
	assertMoney(t, "60", requireLine(t, lines, h.accountID("5020"), ledger.Debit).Amount)
	assertMoney(t, "60", requireLine(t, lines, h.accountID("1310"), ledger.Credit).Amount)
	for _, ln := range lines {
		assertMoney(t, "1", ln.Rate)
	}
}

func TestPhysicalInventoryAppliesDeviations(t *testing.T) {
	h := newHarness(t)
	h.seedPosition(h.productA, "10", "15")
	h.seedPosition(h.productB, "5", "8")
	doc := h.newDoc(documents.KindPhysicalInventory, h.usd,
		lineSpec{product: h.productA, qty: "12", price: "0"},
		lineSpec{product: h.productB, qty: "3", price: "0"})
	h.confirm(doc)

	res, err := h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusFulfilled, res.Document.Status)

	// Counted quantities become the new book quantities.
	posA := h.position(h.productA)
	assert.Equal(t, types.MustQuantity("12"), posA.Quantity)
	assertMoney(t, "15", posA.AvgCost)
	posB := h.position(h.productB)
	assert.Equal(t, types.MustQuantity("3"), posB.Quantity)

	// Surplus of 2 at the current average, shortage of 2 at the average.
	lines := h.journalFor(doc.ID)
	require.Len(t, lines, 4)
	assertMoney(t, "30", requireLine(t, lines, h.accountID("1310"), ledger.Debit).Amount)
	assertMoney(t, "30", requireLine(t, lines, h.accountID("5020"), ledger.Credit).Amount)
	assertMoney(t, "16", requireLine(t, lines, h.accountID("5020"), ledger.Debit).Amount)
	assertMoney(t, "16", requireLine(t, lines, h.accountID("1310"), ledger.Credit).Amount)
}

func TestPhysicalInventoryZeroDeviationPostsNothing(t *testing.T) {
	h := newHarness(t)
	h.seedPosition(h.productA, "10", "15")
	doc := h.newDoc(documents.KindPhysicalInventory, h.usd,
		lineSpec{product: h.productA, qty: "10", price: "0"})
	h.confirm(doc)

	res, err := h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.NoError(t, err)

	// The sheet still completes, but nothing moves and nothing posts.
	assert.Equal(t, documents.StatusFulfilled, res.Document.Status)
	assert.Equal(t, 1, res.Document.Attempt)
	assert.Empty(t, h.journalFor(doc.ID))
	assert.Empty(t, h.store.movements)
	assert.Equal(t, types.MustQuantity("10"), h.position(h.productA).Quantity)
}

func TestPhysicalInventoryRejectsExplicitDeltas(t *testing.T) {
	h := newHarness(t)
	h.seedPosition(h.productA, "10", "15")
	doc := h.newDoc(documents.KindPhysicalInventory, h.usd,
		lineSpec{product: h.productA, qty: "12", price: "0"})
	h.confirm(doc)
	lineID := h.loadDoc(doc.ID).Lines[0].LineID

	_, err := h.engine.Receive(h.ctx(), doc.ID,
		[]documents.LineDelta{{LineID: lineID, Quantity: types.MustQuantity("2")}}, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestPaymentSettlesReceivable(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindSalesInvoice, h.usd, lineSpec{product: h.productA, qty: "10", price: "50"})
	h.confirm(doc)

	res, err := h.engine.RecordPayment(h.ctx(), doc.ID, PaymentRequest{Amount: types.MustMoney("500")})
	require.NoError(t, err)

	assertMoney(t, "500", res.Document.PaidTotal)
	assert.True(t, res.Document.Balance().IsZero())
	assert.Equal(t, 1, res.Document.Attempt)

	lines := h.journalFor(doc.ID)
	require.Len(t, lines, 2)
	dr := requireLine(t, lines, h.accountID("1010"), ledger.Debit)
	cr := requireLine(t, lines, h.accountID("1210"), ledger.Credit)
	assertMoney(t, "500", dr.Amount)
	assertMoney(t, "500", dr.Equivalent)
	assertMoney(t, "500", cr.Amount)
}

func TestPaymentDebitsPayableForPurchase(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.eur, lineSpec{product: h.productA, qty: "10", price: "25"})
	h.confirm(doc)

	res, err := h.engine.RecordPayment(h.ctx(), doc.ID, PaymentRequest{Amount: types.MustMoney("250")})
	require.NoError(t, err)
	assertMoney(t, "250", res.Document.PaidTotal)

	// Payment in the document currency reuses the frozen rate.
	lines := h.journalFor(doc.ID)
	require.Len(t, lines, 2)
	dr := requireLine(t, lines, h.accountID("2010"), ledger.Debit)
	cr := requireLine(t, lines, h.accountID("1010"), ledger.Credit)
	assertMoney(t, "275", dr.Equivalent)
	assertMoney(t, "275", cr.Equivalent)
}

func TestPaymentOverBalanceRejected(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindSalesInvoice, h.usd, lineSpec{product: h.productA, qty: "10", price: "50"})
	h.confirm(doc)

	_, err := h.engine.RecordPayment(h.ctx(), doc.ID, PaymentRequest{Amount: types.MustMoney("300")})
	require.NoError(t, err)

	_, err = h.engine.RecordPayment(h.ctx(), doc.ID, PaymentRequest{Amount: types.MustMoney("300")})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	assertMoney(t, "300", h.loadDoc(doc.ID).PaidTotal)
}

func TestCashReceiptLifecycle(t *testing.T) {
	h := newHarness(t)
	doc := documents.NewDocument(h.tenantID, documents.KindCashReceipt, h.today)
	doc.CurrencyID = h.usd
	doc.CounterpartyID = h.counterparty
	doc.Total = types.MustMoney("250")
	h.seed(doc)

	res, err := h.engine.Confirm(h.ctx(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "CR-2026-000001", res.Document.Number)

	// A cash receipt has no stock lines to receive.
	_, err = h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))

	res, err = h.engine.RecordPayment(h.ctx(), doc.ID, PaymentRequest{Amount: types.MustMoney("250")})
	require.NoError(t, err)
	assert.Equal(t, documents.StatusFulfilled, res.Document.Status)
	assertMoney(t, "250", res.Document.PaidTotal)

	lines := h.journalFor(doc.ID)
	require.Len(t, lines, 2)
	requireLine(t, lines, h.accountID("1010"), ledger.Debit)
	requireLine(t, lines, h.accountID("1210"), ledger.Credit)
}

func TestCancelBeforePosting(t *testing.T) {
	h := newHarness(t)

	draft := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "10", price: "25"})
	res, err := h.engine.Cancel(h.ctx(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusCancelled, res.Document.Status)

	confirmed := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "10", price: "25"})
	h.confirm(confirmed)
	res, err = h.engine.Cancel(h.ctx(), confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusCancelled, res.Document.Status)

	assert.Empty(t, h.store.journal)
	assert.Empty(t, h.store.movements)
}

func TestCancelBlockedAfterPosting(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindSalesInvoice, h.usd, lineSpec{product: h.productA, qty: "10", price: "50"})
	h.confirm(doc)

	_, err := h.engine.RecordPayment(h.ctx(), doc.ID, PaymentRequest{Amount: types.MustMoney("100")})
	require.NoError(t, err)

	_, err = h.engine.Cancel(h.ctx(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	assert.Equal(t, documents.StatusConfirmed, h.loadDoc(doc.ID).Status)
}

func TestPosterFailureRollsBackTransition(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "10", price: "25"})
	h.confirm(doc)

	h.journal.failInsert = true
	_, err := h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.Error(t, err)

	// The whole unit rolls back: fulfillment, stock and attempt.
	stored := h.loadDoc(doc.ID)
	assert.Equal(t, documents.StatusConfirmed, stored.Status)
	assert.Equal(t, 0, stored.Attempt)
	assert.True(t, stored.Lines[0].Fulfilled.IsZero())
	assert.Nil(t, h.position(h.productA))
	assert.Empty(t, h.store.movements)
	assert.Empty(t, h.store.journal)
}

func TestDuplicateAttemptRejected(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "10", price: "25"})
	h.confirm(doc)

	// A stale row for the same (document, attempt) pair already exists.
	h.store.journal = append(h.store.journal, &ledger.JournalLine{
		ID:         id.New(),
		TenantID:   h.tenantID,
		Reference:  doc.Number,
		DocumentID: doc.ID,
		Attempt:    1,
		AccountID:  h.accountID("1310"),
		Side:       ledger.Debit,
		Amount:     types.MustMoney("1"),
		Rate:       types.MustMoney("1"),
		Equivalent: types.MustMoney("1"),
	})

	_, err := h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicatePosting))

	stored := h.loadDoc(doc.ID)
	assert.Equal(t, 0, stored.Attempt)
	assert.True(t, stored.Lines[0].Fulfilled.IsZero())
}

func TestMissingScopeRejected(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "10", price: "25"})

	_, err := h.engine.Confirm(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeTenantScopeMissing))
}

func TestTransitionEventsEmitted(t *testing.T) {
	h := newHarness(t)
	doc := h.newDoc(documents.KindPurchaseOrder, h.usd, lineSpec{product: h.productA, qty: "10", price: "25"})
	h.confirm(doc)

	_, err := h.engine.Receive(h.ctx(), doc.ID, nil, nil)
	require.NoError(t, err)

	events := h.sink.all()
	require.Len(t, events, 2)

	assert.Equal(t, documents.IntentConfirm, events[0].Intent)
	assert.Equal(t, documents.StatusConfirmed, events[0].Status)
	assert.Equal(t, "PO-2026-000001", events[0].Number)

	assert.Equal(t, documents.IntentReceive, events[1].Intent)
	assert.Equal(t, documents.StatusFulfilled, events[1].Status)
	assert.Equal(t, 1, events[1].Attempt)
	assert.Equal(t, h.tenantID, events[1].TenantID)
	assert.False(t, events[1].OccurredAt.IsZero())
}
