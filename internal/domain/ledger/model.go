// Package ledger provides the chart of accounts and balanced journal posting.
// JournalLines are grouped by a string reference; the group is the unit of
// correctness and must balance in both document currency and base currency.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
)

// AccountType classifies a chart-of-accounts node.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
)

// Valid reports whether the account type is known.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountIncome, AccountExpense:
		return true
	}
	return false
}

// Side is the posting side of a journal line.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

// Valid reports whether the side is known.
func (s Side) Valid() bool {
	return s == Debit || s == Credit
}

// Account is a chart-of-accounts node. Accounts referenced by journal
// lines are never hard-deleted, only marked.
type Account struct {
	entity.Catalog

	// Type classifies the account for reporting
	Type AccountType `db:"account_type" json:"type"`

	// NaturalSide is the side on which the account normally carries its balance
	NaturalSide Side `db:"natural_side" json:"naturalSide"`
}

// NewAccount creates an account with its natural balance side derived
// from the account type.
func NewAccount(tenantID id.ID, code, name string, accountType AccountType) *Account {
	return &Account{
		Catalog:     entity.NewCatalog(tenantID, code, name),
		Type:        accountType,
		NaturalSide: naturalSideFor(accountType),
	}
}

func naturalSideFor(t AccountType) Side {
	switch t {
	case AccountAsset, AccountExpense:
		return Debit
	default:
		return Credit
	}
}

// Validate implements entity.Validatable interface.
func (a *Account) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !a.Type.Valid() {
		return apperror.NewValidation("unknown account type").
			WithDetail("field", "type").
			WithDetail("value", string(a.Type))
	}
	if !a.NaturalSide.Valid() {
		return apperror.NewValidation("unknown natural balance side").
			WithDetail("field", "naturalSide").
			WithDetail("value", string(a.NaturalSide))
	}
	return nil
}

// JournalLine is one side of a balanced posting event. Lines are written
// only by the Poster and are immutable after creation; corrections are
// new reversing lines, never edits.
type JournalLine struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	// Reference names the posting group this line belongs to. The string
	// is not unique by itself; a document may post several groups under
	// one reference across attempts.
	Reference string `db:"reference" json:"reference"`

	// DocumentID and Attempt identify the posting event. One (document,
	// attempt) pair posts at most once.
	DocumentID id.ID `db:"document_id" json:"documentId"`
	Attempt    int   `db:"attempt" json:"attempt"`

	AccountID id.ID `db:"account_id" json:"accountId"`
	Side      Side  `db:"side" json:"side"`

	// Amount is in document currency; Equivalent is the base-currency
	// amount computed as Amount x Rate through the shared rounding path.
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Rate       decimal.Decimal `db:"rate" json:"rate"`
	Equivalent decimal.Decimal `db:"equivalent" json:"equivalent"`

	Date      time.Time `db:"transaction_date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// IsDebit reports whether the line posts on the debit side.
func (l *JournalLine) IsDebit() bool {
	return l.Side == Debit
}
