package documents

import (
	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/types"
)

// LineDelta is one requested fulfillment step against a line.
type LineDelta struct {
	LineID   id.ID          `json:"lineId"`
	Quantity types.Quantity `json:"quantity"`

	// UnitCost optionally reprices the delta (inbound receipts where the
	// actual cost differs from the ordered price). Zero means "use the
	// line's unit price".
	UnitCost types.Money `json:"unitCost"`
}

// ApplyResult reports what a fulfillment step actually did.
type ApplyResult struct {
	// Applied is the delta that landed on the line, never more than the
	// remaining quantity.
	Applied types.Quantity

	// Capped is set when the request exceeded the remaining quantity and
	// was trimmed instead of rejected.
	Capped bool

	// NewFulfilled is the line's fulfilled quantity after the step.
	NewFulfilled types.Quantity
}

// Tracker advances fulfilled quantities. It enforces the bound
// 0 <= fulfilled <= ordered on every step: requests beyond the remainder
// are capped by default, or rejected outright in strict mode. Fulfilled
// never decreases on this path; corrections are reversal documents.
type Tracker struct{}

// Apply advances one line by the requested delta.
func (Tracker) Apply(line *DocumentLine, requested types.Quantity, strict bool) (ApplyResult, error) {
	if !requested.IsPositive() {
		return ApplyResult{}, apperror.NewValidation("fulfillment delta must be positive").
			WithDetail("lineId", line.LineID.String()).
			WithDetail("requested", requested.String())
	}

	remaining := line.Remaining()
	applied := requested
	capped := false
	if requested > remaining {
		if strict {
			return ApplyResult{}, apperror.NewOverReceipt(line.LineID.String(), requested.String(), remaining.String())
		}
		applied = remaining
		capped = true
	}

	line.Fulfilled += applied
	return ApplyResult{
		Applied:      applied,
		Capped:       capped,
		NewFulfilled: line.Fulfilled,
	}, nil
}

// DeriveStatus computes the document status implied by its lines:
// fulfilled when every line is complete, partially_fulfilled when any
// line has progressed, otherwise the current status stands.
func (Tracker) DeriveStatus(doc *Document) Status {
	if len(doc.Lines) == 0 {
		return doc.Status
	}

	complete := 0
	progressed := false
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.Complete() {
			complete++
		}
		if line.Fulfilled.IsPositive() {
			progressed = true
		}
	}

	switch {
	case complete == len(doc.Lines):
		return StatusFulfilled
	case progressed || complete > 0:
		return StatusPartiallyFulfilled
	default:
		return doc.Status
	}
}
