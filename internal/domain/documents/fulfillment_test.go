package documents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/types"
)

func TestTrackerApplyWithinRemaining(t *testing.T) {
	var tracker Tracker
	line := &DocumentLine{
		LineID:  id.New(),
		Ordered: types.MustQuantity("100"),
	}

	res, err := tracker.Apply(line, types.MustQuantity("70"), false)
	require.NoError(t, err)

	assert.Equal(t, types.MustQuantity("70"), res.Applied)
	assert.False(t, res.Capped)
	assert.Equal(t, types.MustQuantity("70"), res.NewFulfilled)
	assert.Equal(t, types.MustQuantity("70"), line.Fulfilled)
}

func TestTrackerApplyCapsAtRemaining(t *testing.T) {
	var tracker Tracker
	line := &DocumentLine{
		LineID:    id.New(),
		Ordered:   types.MustQuantity("100"),
		Fulfilled: types.MustQuantity("70"),
	}

	// Requesting 70 against 30 remaining lands exactly at the ordered cap.
	res, err := tracker.Apply(line, types.MustQuantity("70"), false)
	require.NoError(t, err)

	assert.Equal(t, types.MustQuantity("30"), res.Applied)
	assert.True(t, res.Capped)
	assert.Equal(t, types.MustQuantity("100"), res.NewFulfilled)
	assert.True(t, line.Complete())
}

func TestTrackerApplyExactRemaining(t *testing.T) {
	var tracker Tracker
	line := &DocumentLine{
		LineID:    id.New(),
		Ordered:   types.MustQuantity("100"),
		Fulfilled: types.MustQuantity("40"),
	}

	res, err := tracker.Apply(line, types.MustQuantity("60"), true)
	require.NoError(t, err)

	assert.Equal(t, types.MustQuantity("60"), res.Applied)
	assert.False(t, res.Capped)
	assert.True(t, line.Complete())
}

func TestTrackerApplyStrictRejectsOverReceipt(t *testing.T) {
	var tracker Tracker
	line := &DocumentLine{
		LineID:    id.New(),
		Ordered:   types.MustQuantity("100"),
		Fulfilled: types.MustQuantity("70"),
	}

	_, err := tracker.Apply(line, types.MustQuantity("70"), true)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeOverReceipt))

	// Rejected steps leave the line untouched.
	assert.Equal(t, types.MustQuantity("70"), line.Fulfilled)
}

func TestTrackerApplyRejectsNonPositive(t *testing.T) {
	var tracker Tracker
	line := &DocumentLine{
		LineID:  id.New(),
		Ordered: types.MustQuantity("100"),
	}

	for _, requested := range []types.Quantity{0, types.MustQuantity("-5")} {
		_, err := tracker.Apply(line, requested, false)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	}
	assert.True(t, line.Fulfilled.IsZero())
}

func TestTrackerApplyFractionalQuantities(t *testing.T) {
	var tracker Tracker
	line := &DocumentLine{
		LineID:  id.New(),
		Ordered: types.MustQuantity("2.5"),
	}

	res, err := tracker.Apply(line, types.MustQuantity("1.2500"), false)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("1.25"), res.Applied)

	res, err = tracker.Apply(line, types.MustQuantity("9"), false)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("1.25"), res.Applied)
	assert.True(t, res.Capped)
	assert.True(t, line.Complete())
}

func TestDeriveStatus(t *testing.T) {
	var tracker Tracker

	newDoc := func(fulfilled ...string) *Document {
		doc := NewDocument(id.New(), KindPurchaseOrder, time.Now().UTC())
		doc.Status = StatusConfirmed
		for _, f := range fulfilled {
			line := doc.AddLine(id.New(), types.MustQuantity("10"), types.MustMoney("5"))
			line.Fulfilled = types.MustQuantity(f)
		}
		return doc
	}

	t.Run("no lines keeps status", func(t *testing.T) {
		doc := newDoc()
		assert.Equal(t, StatusConfirmed, tracker.DeriveStatus(doc))
	})

	t.Run("untouched lines keep status", func(t *testing.T) {
		doc := newDoc("0", "0")
		assert.Equal(t, StatusConfirmed, tracker.DeriveStatus(doc))
	})

	t.Run("any progress is partial", func(t *testing.T) {
		doc := newDoc("4", "0")
		assert.Equal(t, StatusPartiallyFulfilled, tracker.DeriveStatus(doc))
	})

	t.Run("one complete line is partial", func(t *testing.T) {
		doc := newDoc("10", "0")
		assert.Equal(t, StatusPartiallyFulfilled, tracker.DeriveStatus(doc))
	})

	t.Run("all complete is fulfilled", func(t *testing.T) {
		doc := newDoc("10", "10")
		assert.Equal(t, StatusFulfilled, tracker.DeriveStatus(doc))
	})
}
