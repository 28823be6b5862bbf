package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/core/types"
)

// EntryLine is one requested line of a posting group.
type EntryLine struct {
	AccountID id.ID           `json:"accountId"`
	Side      Side            `json:"side"`
	Amount    decimal.Decimal `json:"amount"`
	Rate      decimal.Decimal `json:"rate"`
}

// PostingInput groups fields required to post one balanced group.
type PostingInput struct {
	Reference  string
	DocumentID id.ID
	Attempt    int
	Date       time.Time
	Lines      []EntryLine
}

// Validate ensures posting input meets minimum criteria.
func (in PostingInput) Validate() error {
	if in.Reference == "" {
		return apperror.NewValidation("posting reference is required")
	}
	if id.IsNil(in.DocumentID) {
		return apperror.NewValidation("posting document is required").
			WithDetail("reference", in.Reference)
	}
	if in.Attempt < 1 {
		return apperror.NewValidation("posting attempt must be >= 1").
			WithDetail("attempt", in.Attempt)
	}
	if in.Date.IsZero() {
		return apperror.NewValidation("posting date is required").
			WithDetail("reference", in.Reference)
	}
	if len(in.Lines) < 2 {
		return apperror.NewValidation("posting group needs at least two lines").
			WithDetail("reference", in.Reference).
			WithDetail("lines", len(in.Lines))
	}
	for idx, line := range in.Lines {
		if id.IsNil(line.AccountID) {
			return apperror.NewValidation(fmt.Sprintf("line %d missing account", idx))
		}
		if !line.Side.Valid() {
			return apperror.NewValidation(fmt.Sprintf("line %d has unknown side %q", idx, line.Side))
		}
		if !line.Amount.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("line %d amount must be positive", idx)).
				WithDetail("amount", line.Amount.String())
		}
		if !line.Rate.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("line %d rate must be positive", idx)).
				WithDetail("rate", line.Rate.String())
		}
	}
	return nil
}

// Poster writes balanced journal groups. It is the only writer of
// JournalLines; everything else reads.
type Poster struct {
	lines Repository
}

// NewPoster creates a poster over the journal line store.
func NewPoster(lines Repository) *Poster {
	return &Poster{lines: lines}
}

// Post validates, balances and persists one posting group. The group is
// all-or-nothing: an imbalance or duplicate fails the call with no writes.
// Callers run Post inside their transaction; the poster does not commit.
func (p *Poster) Post(ctx context.Context, in PostingInput) ([]*JournalLine, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, apperror.NewTenantScopeMissing()
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}

	exists, err := p.lines.ExistsForAttempt(ctx, in.DocumentID, in.Attempt)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewDuplicatePosting(in.DocumentID.String(), in.Attempt)
	}

	now := time.Now().UTC()
	lines := make([]*JournalLine, 0, len(in.Lines))
	var debit, credit, debitEq, creditEq decimal.Decimal
	for _, entry := range in.Lines {
		equivalent := types.RoundAmount(entry.Amount.Mul(entry.Rate))
		line := &JournalLine{
			ID:         id.New(),
			TenantID:   scope.TenantID,
			Reference:  in.Reference,
			DocumentID: in.DocumentID,
			Attempt:    in.Attempt,
			AccountID:  entry.AccountID,
			Side:       entry.Side,
			Amount:     entry.Amount,
			Rate:       entry.Rate,
			Equivalent: equivalent,
			Date:       in.Date,
			CreatedAt:  now,
		}
		if line.IsDebit() {
			debit = debit.Add(line.Amount)
			debitEq = debitEq.Add(line.Equivalent)
		} else {
			credit = credit.Add(line.Amount)
			creditEq = creditEq.Add(line.Equivalent)
		}
		lines = append(lines, line)
	}

	if debit.Sub(credit).Abs().GreaterThan(types.BalanceTolerance) {
		return nil, apperror.NewImbalancedLedger(in.Reference, debit.String(), credit.String())
	}
	if debitEq.Sub(creditEq).Abs().GreaterThan(types.BalanceTolerance) {
		return nil, apperror.NewImbalancedLedger(in.Reference, debitEq.String(), creditEq.String()).
			WithDetail("currency", "base")
	}

	if err := p.lines.InsertLines(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Reverse posts a mirror group for everything the document has posted so
// far: same accounts and amounts, sides swapped, under the next attempt.
// The original lines are never edited.
func (p *Poster) Reverse(ctx context.Context, documentID id.ID, reference string, attempt int, date time.Time) ([]*JournalLine, error) {
	prior, err := p.lines.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(prior) == 0 {
		return nil, apperror.NewValidation("document has no journal lines to reverse").
			WithDetail("documentId", documentID.String())
	}

	entries := make([]EntryLine, 0, len(prior))
	for _, line := range prior {
		side := Debit
		if line.IsDebit() {
			side = Credit
		}
		entries = append(entries, EntryLine{
			AccountID: line.AccountID,
			Side:      side,
			Amount:    line.Amount,
			Rate:      line.Rate,
		})
	}

	return p.Post(ctx, PostingInput{
		Reference:  reference,
		DocumentID: documentID,
		Attempt:    attempt,
		Date:       date,
		Lines:      entries,
	})
}
