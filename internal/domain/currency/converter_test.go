package currency

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

// Fakes

type fakeCurrencyRepo struct {
	Repository // unimplemented methods panic
	byID       map[id.ID]*Currency
}

func (f *fakeCurrencyRepo) GetByID(ctx context.Context, currencyID id.ID) (*Currency, error) {
	curr, ok := f.byID[currencyID]
	if !ok {
		return nil, apperror.NewNotFound("currency", currencyID.String())
	}
	return curr, nil
}

type fakeRateRepo struct {
	quotes []*ExchangeRate
}

func (f *fakeRateRepo) Insert(ctx context.Context, rate *ExchangeRate) error {
	f.quotes = append(f.quotes, rate)
	return nil
}

func (f *fakeRateRepo) Latest(ctx context.Context, currencyID id.ID, asOf time.Time) (*ExchangeRate, error) {
	var best *ExchangeRate
	for _, q := range f.quotes {
		if q.CurrencyID != currencyID || q.EffectiveDate.After(asOf) {
			continue
		}
		if best == nil || q.EffectiveDate.After(best.EffectiveDate) {
			best = q
		}
	}
	if best == nil {
		return nil, apperror.NewNotFound("exchange rate", currencyID.String())
	}
	return best, nil
}

func (f *fakeRateRepo) ListForCurrency(ctx context.Context, currencyID id.ID, limit int) ([]*ExchangeRate, error) {
	var out []*ExchangeRate
	for _, q := range f.quotes {
		if q.CurrencyID == currencyID {
			out = append(out, q)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func scopedCtx(tenantID id.ID) context.Context {
	return tenant.WithScope(context.Background(), tenant.Scope{
		TenantID:     tenantID,
		UserID:       id.New(),
		TenantCode:   "acme",
		BaseCurrency: "USD",
	})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestConverterResolve_BaseCurrencyAlwaysOne(t *testing.T) {
	tenantID := id.New()
	usd := NewCurrency(tenantID, "USD", "US Dollar", strPtr("USD"), strPtr("$"))
	usd.IsBase = true

	currencies := &fakeCurrencyRepo{byID: map[id.ID]*Currency{usd.ID: usd}}
	conv := NewConverter(currencies, &fakeRateRepo{})

	rate, err := conv.Resolve(scopedCtx(tenantID), usd.ID, date(2026, 3, 15))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)), "base currency must resolve to 1 without a quotation")
}

func TestConverterResolve_MatchesScopeBaseWithoutFlag(t *testing.T) {
	// Tenant base is USD; the catalog row is not flagged but carries the ISO code.
	tenantID := id.New()
	usd := NewCurrency(tenantID, "USD", "US Dollar", strPtr("USD"), strPtr("$"))

	currencies := &fakeCurrencyRepo{byID: map[id.ID]*Currency{usd.ID: usd}}
	conv := NewConverter(currencies, &fakeRateRepo{})

	rate, err := conv.Resolve(scopedCtx(tenantID), usd.ID, date(2026, 3, 15))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}

func TestConverterResolve_PicksLatestQuotationOnOrBeforeDate(t *testing.T) {
	tenantID := id.New()
	eur := NewCurrency(tenantID, "EUR", "Euro", strPtr("EUR"), strPtr("€"))

	currencies := &fakeCurrencyRepo{byID: map[id.ID]*Currency{eur.ID: eur}}
	rates := &fakeRateRepo{quotes: []*ExchangeRate{
		NewExchangeRate(tenantID, eur.ID, decimal.RequireFromString("1.05"), date(2026, 1, 1)),
		NewExchangeRate(tenantID, eur.ID, decimal.RequireFromString("1.10"), date(2026, 2, 1)),
	}}
	conv := NewConverter(currencies, rates)
	ctx := scopedCtx(tenantID)

	rate, err := conv.Resolve(ctx, eur.ID, date(2026, 1, 15))
	require.NoError(t, err)
	assert.Equal(t, "1.05", rate.String())

	rate, err = conv.Resolve(ctx, eur.ID, date(2026, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, "1.1", rate.String(), "quotation effective on the exact date applies")

	rate, err = conv.Resolve(ctx, eur.ID, date(2026, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, "1.1", rate.String())
}

func TestConverterResolve_NoQuotationFails(t *testing.T) {
	tenantID := id.New()
	eur := NewCurrency(tenantID, "EUR", "Euro", strPtr("EUR"), strPtr("€"))

	currencies := &fakeCurrencyRepo{byID: map[id.ID]*Currency{eur.ID: eur}}
	rates := &fakeRateRepo{quotes: []*ExchangeRate{
		// Only a future quotation exists.
		NewExchangeRate(tenantID, eur.ID, decimal.RequireFromString("1.10"), date(2026, 2, 1)),
	}}
	conv := NewConverter(currencies, rates)

	_, err := conv.Resolve(scopedCtx(tenantID), eur.ID, date(2026, 1, 15))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCurrencyNotFound))
}

func TestConverterResolve_UnknownCurrencyFails(t *testing.T) {
	tenantID := id.New()
	conv := NewConverter(&fakeCurrencyRepo{byID: map[id.ID]*Currency{}}, &fakeRateRepo{})

	_, err := conv.Resolve(scopedCtx(tenantID), id.New(), date(2026, 1, 15))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCurrencyNotFound))
}

func TestConverterResolve_RequiresScope(t *testing.T) {
	conv := NewConverter(&fakeCurrencyRepo{byID: map[id.ID]*Currency{}}, &fakeRateRepo{})

	_, err := conv.Resolve(context.Background(), id.New(), date(2026, 1, 15))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeTenantScopeMissing))
}

func TestConverterEquivalent_RoundsHalfUp(t *testing.T) {
	conv := NewConverter(nil, nil)

	tests := []struct {
		amount string
		rate   string
		want   string
	}{
		{"500", "1", "500"},
		{"100", "1.05", "105"},
		{"333.33", "1.0001", "333.36"}, // 333.363333 rounds down
		{"100.005", "1", "100.01"},     // exact half rounds up
		{"0.125", "1", "0.13"},
		{"7.77", "0.5", "3.89"}, // 3.885 rounds up
	}

	for _, tt := range tests {
		got := conv.Equivalent(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.rate))
		assert.Equal(t, tt.want, got.String(), "equivalent(%s, %s)", tt.amount, tt.rate)
	}
}
