package documents

import (
	"saldo/internal/core/apperror"
)

// Status is the document lifecycle state.
type Status string

const (
	StatusDraft              Status = "draft"
	StatusConfirmed          Status = "confirmed"
	StatusPartiallyFulfilled Status = "partially_fulfilled"
	StatusFulfilled          Status = "fulfilled"
	StatusCancelled          Status = "cancelled"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusPartiallyFulfilled, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the status accepts no further line mutation.
// Corrections to terminal documents are new reversal documents.
func (s Status) Terminal() bool {
	return s == StatusFulfilled || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusPartiallyFulfilled || target == StatusFulfilled || target == StatusCancelled
	case StatusPartiallyFulfilled:
		return target == StatusPartiallyFulfilled || target == StatusFulfilled
	case StatusFulfilled, StatusCancelled:
		return false
	}
	return false
}

// Intent is a requested document transition.
type Intent string

const (
	IntentConfirm Intent = "confirm"
	IntentReceive Intent = "receive"
	IntentPay     Intent = "pay"
	IntentCancel  Intent = "cancel"
)

// Valid reports whether the intent is known.
func (i Intent) Valid() bool {
	switch i {
	case IntentConfirm, IntentReceive, IntentPay, IntentCancel:
		return true
	}
	return false
}

// StateMachine answers whether an intent is legal for a document. The
// answer depends only on kind and status; side conditions (lines exist,
// no journal lines on cancel) are checked by the coordinator before any
// state is touched.
type StateMachine struct{}

// Allowed reports whether the intent may run from the current status.
func (StateMachine) Allowed(kind Kind, from Status, intent Intent) bool {
	switch intent {
	case IntentConfirm:
		return from == StatusDraft
	case IntentReceive:
		if !kind.MovesStock() {
			return false
		}
		return from == StatusConfirmed || from == StatusPartiallyFulfilled
	case IntentPay:
		if !kind.Payable() {
			return false
		}
		return from == StatusConfirmed || from == StatusPartiallyFulfilled || from == StatusFulfilled
	case IntentCancel:
		return from == StatusDraft || from == StatusConfirmed
	}
	return false
}

// Check returns an InvalidTransition error when the intent is not legal.
func (m StateMachine) Check(doc *Document, intent Intent) error {
	if !intent.Valid() {
		return apperror.NewValidation("unknown intent").
			WithDetail("intent", string(intent))
	}
	if !m.Allowed(doc.Kind, doc.Status, intent) {
		return apperror.NewInvalidTransition(string(doc.Kind), string(doc.Status), string(intent))
	}
	return nil
}
