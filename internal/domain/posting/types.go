// Package posting coordinates document transitions. One Execute call is
// one database transaction: lock the document, check the state machine,
// run the currency, fulfillment, valuation and ledger steps in that
// order, persist, commit. Any error rolls the whole unit back.
package posting

import (
	"time"

	"saldo/internal/core/id"
	"saldo/internal/core/types"
	"saldo/internal/domain/documents"
	"saldo/internal/domain/ledger"
)

// Payload carries intent-specific input for Execute.
type Payload struct {
	// Deltas are per-line fulfillment steps for receive. Empty means
	// "apply the full remaining quantity of every line".
	Deltas []documents.LineDelta

	// Payment is required for the pay intent.
	Payment *PaymentRequest

	// Strict overrides the tenant's over-receipt setting for this call.
	// Nil keeps the tenant default.
	Strict *bool
}

// PaymentRequest records a payment against a document.
type PaymentRequest struct {
	Amount types.Money `json:"amount"`

	// CurrencyID of the payment. Zero value means the document currency.
	CurrencyID id.ID `json:"currencyId,omitempty"`

	// Date of the payment. Zero value means the document date.
	Date time.Time `json:"date,omitempty"`

	// PaymentAccountID is the cash/bank account. Zero resolves the
	// tenant's cash role account.
	PaymentAccountID id.ID `json:"paymentAccountId,omitempty"`

	// CounterpartAccountID is the settled account. Zero resolves the
	// payable or receivable role account by document kind.
	CounterpartAccountID id.ID `json:"counterpartAccountId,omitempty"`
}

// LineOutcome reports what one fulfillment delta did.
type LineOutcome struct {
	LineID    id.ID          `json:"lineId"`
	Requested types.Quantity `json:"requested"`
	Applied   types.Quantity `json:"applied"`
	Capped    bool           `json:"capped"`
	Fulfilled types.Quantity `json:"fulfilled"`

	// Clamped is set when the stock position hit its floor and the
	// movement was trimmed. The ledger still prices the full consumption.
	Clamped   bool           `json:"clamped,omitempty"`
	ClampedBy types.Quantity `json:"clampedBy,omitempty"`
}

// Result is the outcome of one executed transition.
type Result struct {
	Document *documents.Document  `json:"document"`
	Lines    []LineOutcome        `json:"lines,omitempty"`
	Journal  []*ledger.JournalLine `json:"journal,omitempty"`
}

// TransitionEvent describes a committed transition for post-commit
// consumers (outbox, audit). Emitted after the transaction commits;
// sink failures are logged, never propagated.
type TransitionEvent struct {
	TenantID   id.ID             `json:"tenantId"`
	DocumentID id.ID             `json:"documentId"`
	Kind       documents.Kind    `json:"kind"`
	Number     string            `json:"number"`
	Intent     documents.Intent  `json:"intent"`
	Status     documents.Status  `json:"status"`
	Attempt    int               `json:"attempt"`
	UserID     string            `json:"userId,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}
