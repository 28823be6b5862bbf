package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/apperror"
)

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusDraft, StatusConfirmed, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusFulfilled, false},
		{StatusDraft, StatusPartiallyFulfilled, false},

		{StatusConfirmed, StatusPartiallyFulfilled, true},
		{StatusConfirmed, StatusFulfilled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusDraft, false},

		{StatusPartiallyFulfilled, StatusPartiallyFulfilled, true},
		{StatusPartiallyFulfilled, StatusFulfilled, true},
		{StatusPartiallyFulfilled, StatusCancelled, false},
		{StatusPartiallyFulfilled, StatusDraft, false},

		{StatusFulfilled, StatusCancelled, false},
		{StatusFulfilled, StatusPartiallyFulfilled, false},
		{StatusCancelled, StatusDraft, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusDraft.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.False(t, StatusPartiallyFulfilled.Terminal())
	assert.True(t, StatusFulfilled.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestStateMachineAllowed(t *testing.T) {
	var sm StateMachine

	tests := []struct {
		name   string
		kind   Kind
		from   Status
		intent Intent
		want   bool
	}{
		{"confirm from draft", KindPurchaseOrder, StatusDraft, IntentConfirm, true},
		{"confirm from confirmed", KindPurchaseOrder, StatusConfirmed, IntentConfirm, false},
		{"confirm from cancelled", KindPurchaseOrder, StatusCancelled, IntentConfirm, false},

		{"receive after confirm", KindPurchaseOrder, StatusConfirmed, IntentReceive, true},
		{"receive keeps receiving", KindPurchaseOrder, StatusPartiallyFulfilled, IntentReceive, true},
		{"receive from draft", KindPurchaseOrder, StatusDraft, IntentReceive, false},
		{"receive when fulfilled", KindPurchaseOrder, StatusFulfilled, IntentReceive, false},
		{"receive on cash receipt", KindCashReceipt, StatusConfirmed, IntentReceive, false},
		{"receive on adjustment", KindStockAdjustment, StatusConfirmed, IntentReceive, true},

		{"pay confirmed invoice", KindSalesInvoice, StatusConfirmed, IntentPay, true},
		{"pay partially fulfilled", KindSalesInvoice, StatusPartiallyFulfilled, IntentPay, true},
		{"pay fulfilled invoice", KindSalesInvoice, StatusFulfilled, IntentPay, true},
		{"pay draft", KindSalesInvoice, StatusDraft, IntentPay, false},
		{"pay adjustment", KindStockAdjustment, StatusConfirmed, IntentPay, false},
		{"pay physical inventory", KindPhysicalInventory, StatusConfirmed, IntentPay, false},

		{"cancel draft", KindPurchaseOrder, StatusDraft, IntentCancel, true},
		{"cancel confirmed", KindPurchaseOrder, StatusConfirmed, IntentCancel, true},
		{"cancel partially fulfilled", KindPurchaseOrder, StatusPartiallyFulfilled, IntentCancel, false},
		{"cancel fulfilled", KindPurchaseOrder, StatusFulfilled, IntentCancel, false},
		{"cancel cancelled", KindPurchaseOrder, StatusCancelled, IntentCancel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sm.Allowed(tt.kind, tt.from, tt.intent))
		})
	}
}

func TestStateMachineCheck(t *testing.T) {
	var sm StateMachine

	doc := testDocument(KindPurchaseOrder)
	require.NoError(t, sm.Check(doc, IntentConfirm))

	err := sm.Check(doc, IntentReceive)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))

	err = sm.Check(doc, Intent("archive"))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	doc.Status = StatusFulfilled
	err = sm.Check(doc, IntentCancel)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}
