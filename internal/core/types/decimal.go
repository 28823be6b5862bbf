// Package types provides the numeric types shared across the engine.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary value with full precision.
// decimal.Decimal keeps ledger arithmetic exact.
type Money = decimal.Decimal

// AmountScale is the number of decimal places every persisted amount and
// base-currency equivalent is rounded to.
const AmountScale int32 = 2

// NewMoneyFromString is the preferred constructor for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney parses a string constant, panicking on error. Constants and tests only.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns the zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundAmount rounds to AmountScale, half up. Engine amounts are
// non-negative (the journal side carries direction), so decimal's
// half-away-from-zero rounding is half-up here. Every equivalent
// computation must go through this one function.
func RoundAmount(m Money) Money {
	return m.Round(AmountScale)
}

// BalanceTolerance is the largest absolute difference at which two summed
// sides of a posting are still considered equal.
var BalanceTolerance = MustMoney("0.01")

// CostScale is the number of decimal places a weighted-average unit cost
// is carried at. Wider than AmountScale so repeated recomputation does
// not accumulate drift.
const CostScale int32 = 6

// RoundCost rounds a unit cost to CostScale, half up.
func RoundCost(m Money) Money {
	return m.Round(CostScale)
}

// ErrInvalidQuantity marks a numeric string the strict parser refused.
// Stored data has been observed with values like "1.0032.5"; those must
// surface as errors, never be reinterpreted.
var ErrInvalidQuantity = errors.New("invalid quantity")

// Quantity is a fixed-point quantity with 4 decimal places (scale = 1e4),
// stored as BIGINT. Integer arithmetic keeps fulfillment math exact.
type Quantity int64

const QuantityScale int64 = 10_000

const quantityFracDigits = 4

func NewQuantityFromInt64Scaled(v int64) Quantity { return Quantity(v) }

// NewQuantityFromInt builds a whole-unit quantity.
func NewQuantityFromInt(v int64) Quantity { return Quantity(v * QuantityScale) }

func (q Quantity) Int64Scaled() int64 { return int64(q) }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Neg() Quantity { return -q }

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// Decimal converts to decimal.Decimal for valuation math.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), -quantityFracDigits)
}

// String returns the canonical decimal form with 4 fractional digits.
func (q Quantity) String() string {
	neg := q < 0
	v := q
	if neg {
		v = -v
	}
	intPart := int64(v) / QuantityScale
	frac := int64(v) % QuantityScale
	if neg {
		return fmt.Sprintf("-%d.%04d", intPart, frac)
	}
	return fmt.Sprintf("%d.%04d", intPart, frac)
}

// MarshalJSON encodes Quantity as a JSON number, preserving 4 digits.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted string; both go
// through the strict parser.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseQuantity(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}

	parsed, err := ParseQuantity(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuantity canonicalizes a numeric string into a Quantity.
//
// Accepted form: optional leading sign, digits, at most one decimal point.
// Anything else — a second decimal point, letters, exponent notation,
// non-zero digits beyond the fourth decimal place — fails with
// ErrInvalidQuantity. This is the engine's numeric boundary: malformed
// values are rejected, never truncated into something plausible.
func ParseQuantity(s string) (Quantity, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidQuantity)
	}

	sign := int64(1)
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("%w: multiple decimal points in %q", ErrInvalidQuantity, raw)
	}

	intStr := parts[0]
	fracStr := ""
	if len(parts) == 2 {
		fracStr = parts[1]
	}
	if intStr == "" && fracStr == "" {
		return 0, fmt.Errorf("%w: no digits in %q", ErrInvalidQuantity, raw)
	}
	if !allDigits(intStr) || !allDigits(fracStr) {
		return 0, fmt.Errorf("%w: non-digit characters in %q", ErrInvalidQuantity, raw)
	}

	if len(fracStr) > quantityFracDigits {
		if strings.TrimRight(fracStr[quantityFracDigits:], "0") != "" {
			return 0, fmt.Errorf("%w: %q exceeds scale of %d decimal places", ErrInvalidQuantity, raw, quantityFracDigits)
		}
		fracStr = fracStr[:quantityFracDigits]
	}
	for len(fracStr) < quantityFracDigits {
		fracStr += "0"
	}

	if intStr == "" {
		intStr = "0"
	}
	intPart, err := strconv.ParseInt(intStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: integer part of %q: %v", ErrInvalidQuantity, raw, err)
	}
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: fractional part of %q: %v", ErrInvalidQuantity, raw, err)
	}

	return Quantity(sign * (intPart*QuantityScale + frac)), nil
}

// MustQuantity parses a string constant, panicking on error. Tests only.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
