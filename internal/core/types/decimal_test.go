package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Quantity
		wantErr bool
	}{
		{name: "integer", in: "10", want: 100_000},
		{name: "decimal", in: "1.5", want: 15_000},
		{name: "four places", in: "0.0001", want: 1},
		{name: "leading plus", in: "+2.25", want: 22_500},
		{name: "negative", in: "-3.5", want: -35_000},
		{name: "bare fraction", in: ".5", want: 5_000},
		{name: "trailing dot", in: "7.", want: 70_000},
		{name: "whitespace trimmed", in: "  4.2  ", want: 42_000},
		{name: "trailing zeros beyond scale", in: "1.500000", want: 15_000},
		{name: "empty", in: "", wantErr: true},
		{name: "double decimal point", in: "1.0032.5", wantErr: true},
		{name: "letters", in: "12a.5", wantErr: true},
		{name: "exponent form", in: "1e3", wantErr: true},
		{name: "lone sign", in: "-", wantErr: true},
		{name: "lone dot", in: ".", wantErr: true},
		{name: "non-zero digits beyond scale", in: "0.00005", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuantity(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidQuantity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "1.5000", MustQuantity("1.5").String())
	assert.Equal(t, "-0.2500", MustQuantity("-0.25").String())
	assert.Equal(t, "0.0000", Quantity(0).String())
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`"12.75"`), &q))
	assert.Equal(t, MustQuantity("12.75"), q)

	require.NoError(t, json.Unmarshal([]byte(`3.5`), &q))
	assert.Equal(t, MustQuantity("3.5"), q)

	out, err := json.Marshal(MustQuantity("3.5"))
	require.NoError(t, err)
	assert.Equal(t, "3.5000", string(out))

	assert.Error(t, json.Unmarshal([]byte(`"1.0032.5"`), &q))
}

func TestQuantityDecimal(t *testing.T) {
	d := MustQuantity("2.5").Decimal()
	assert.True(t, d.Equal(MustMoney("2.5")))
}

func TestRoundAmount(t *testing.T) {
	assert.True(t, RoundAmount(MustMoney("10.005")).Equal(MustMoney("10.01")))
	assert.True(t, RoundAmount(MustMoney("10.004")).Equal(MustMoney("10.00")))
	assert.True(t, RoundAmount(MustMoney("500")).Equal(MustMoney("500")))
}
