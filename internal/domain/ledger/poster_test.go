package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
)

type fakeJournalRepo struct {
	lines   []*JournalLine
	inserts int
}

func (f *fakeJournalRepo) InsertLines(ctx context.Context, lines []*JournalLine) error {
	f.lines = append(f.lines, lines...)
	f.inserts++
	return nil
}

func (f *fakeJournalRepo) ExistsForAttempt(ctx context.Context, documentID id.ID, attempt int) (bool, error) {
	for _, l := range f.lines {
		if l.DocumentID == documentID && l.Attempt == attempt {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJournalRepo) ExistsForDocument(ctx context.Context, documentID id.ID) (bool, error) {
	for _, l := range f.lines {
		if l.DocumentID == documentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJournalRepo) ListByReference(ctx context.Context, reference string) ([]*JournalLine, error) {
	var out []*JournalLine
	for _, l := range f.lines {
		if l.Reference == reference {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeJournalRepo) ListByDocument(ctx context.Context, documentID id.ID) ([]*JournalLine, error) {
	var out []*JournalLine
	for _, l := range f.lines {
		if l.DocumentID == documentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func scopedCtx(tenantID id.ID) context.Context {
	return tenant.WithScope(context.Background(), tenant.Scope{
		TenantID:     tenantID,
		UserID:       id.New(),
		TenantCode:   "acme",
		BaseCurrency: "USD",
	})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func paymentInput(documentID id.ID, attempt int) PostingInput {
	return PostingInput{
		Reference:  "CR-2026-000042",
		DocumentID: documentID,
		Attempt:    attempt,
		Date:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines: []EntryLine{
			{AccountID: id.New(), Side: Debit, Amount: dec("500"), Rate: dec("1.0")},
			{AccountID: id.New(), Side: Credit, Amount: dec("500"), Rate: dec("1.0")},
		},
	}
}

func TestPosterPost_PaymentPair(t *testing.T) {
	tenantID := id.New()
	repo := &fakeJournalRepo{}
	poster := NewPoster(repo)

	lines, err := poster.Post(scopedCtx(tenantID), paymentInput(id.New(), 1))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, Debit, lines[0].Side)
	assert.Equal(t, Credit, lines[1].Side)
	for _, l := range lines {
		assert.Equal(t, tenantID, l.TenantID)
		assert.Equal(t, "CR-2026-000042", l.Reference)
		assert.Equal(t, "500", l.Equivalent.String())
	}
	assert.Equal(t, 1, repo.inserts)
}

func TestPosterPost_ImbalancedAmounts(t *testing.T) {
	repo := &fakeJournalRepo{}
	poster := NewPoster(repo)

	in := paymentInput(id.New(), 1)
	in.Lines[1].Amount = dec("499")

	_, err := poster.Post(scopedCtx(id.New()), in)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeImbalancedLedger))
	assert.Zero(t, repo.inserts, "imbalanced group must write nothing")
}

func TestPosterPost_ImbalancedEquivalents(t *testing.T) {
	// Amounts balance in document currency but the rates disagree, so the
	// base-currency sums drift apart. This signals an upstream rate bug.
	repo := &fakeJournalRepo{}
	poster := NewPoster(repo)

	in := paymentInput(id.New(), 1)
	in.Lines[0].Rate = dec("1.10")

	_, err := poster.Post(scopedCtx(id.New()), in)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeImbalancedLedger))
	assert.Zero(t, repo.inserts)
}

func TestPosterPost_WithinTolerance(t *testing.T) {
	// A one-cent drift from rounding is inside the fixed tolerance.
	repo := &fakeJournalRepo{}
	poster := NewPoster(repo)

	in := paymentInput(id.New(), 1)
	in.Lines[1].Amount = dec("499.99")

	_, err := poster.Post(scopedCtx(id.New()), in)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.inserts)
}

func TestPosterPost_DuplicateAttempt(t *testing.T) {
	repo := &fakeJournalRepo{}
	poster := NewPoster(repo)
	documentID := id.New()
	ctx := scopedCtx(id.New())

	_, err := poster.Post(ctx, paymentInput(documentID, 1))
	require.NoError(t, err)

	_, err = poster.Post(ctx, paymentInput(documentID, 1))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicatePosting))

	// The next attempt for the same document is fine.
	_, err = poster.Post(ctx, paymentInput(documentID, 2))
	require.NoError(t, err)
}

func TestPosterPost_InputValidation(t *testing.T) {
	poster := NewPoster(&fakeJournalRepo{})
	ctx := scopedCtx(id.New())

	tests := []struct {
		name   string
		mutate func(*PostingInput)
	}{
		{"missing reference", func(in *PostingInput) { in.Reference = "" }},
		{"single line", func(in *PostingInput) { in.Lines = in.Lines[:1] }},
		{"zero amount", func(in *PostingInput) { in.Lines[0].Amount = decimal.Zero }},
		{"negative amount", func(in *PostingInput) { in.Lines[0].Amount = dec("-5") }},
		{"zero rate", func(in *PostingInput) { in.Lines[0].Rate = decimal.Zero }},
		{"missing account", func(in *PostingInput) { in.Lines[0].AccountID = id.Nil() }},
		{"bad side", func(in *PostingInput) { in.Lines[0].Side = "both" }},
		{"zero attempt", func(in *PostingInput) { in.Attempt = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := paymentInput(id.New(), 1)
			tt.mutate(&in)
			_, err := poster.Post(ctx, in)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestPosterPost_RequiresScope(t *testing.T) {
	poster := NewPoster(&fakeJournalRepo{})

	_, err := poster.Post(context.Background(), paymentInput(id.New(), 1))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeTenantScopeMissing))
}

func TestPosterReverse_SwapsSides(t *testing.T) {
	repo := &fakeJournalRepo{}
	poster := NewPoster(repo)
	documentID := id.New()
	ctx := scopedCtx(id.New())

	original, err := poster.Post(ctx, paymentInput(documentID, 1))
	require.NoError(t, err)

	reversal, err := poster.Reverse(ctx, documentID, "CR-2026-000042", 2, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, reversal, 2)

	assert.Equal(t, Credit, reversal[0].Side)
	assert.Equal(t, Debit, reversal[1].Side)
	assert.Equal(t, original[0].AccountID, reversal[0].AccountID)
	assert.Equal(t, original[0].Amount.String(), reversal[0].Amount.String())
	assert.Equal(t, 2, reversal[0].Attempt)
}

func TestPosterReverse_NothingToReverse(t *testing.T) {
	poster := NewPoster(&fakeJournalRepo{})

	_, err := poster.Reverse(scopedCtx(id.New()), id.New(), "REF-1", 1, time.Now())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
