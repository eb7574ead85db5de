// Package types provides common value types shared across the ledger.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantity is a fixed-point stock quantity with 4 decimal places (scale = 1e4).
//
// Rationale:
// - Matches Postgres NUMERIC(15,4) semantics without floating point errors
// - Easy to store as BIGINT in DB (scaled integer)
// - JSON remains a number with up to 4 decimals
type Quantity int64

const QuantityScale int64 = 10_000

var scaleDec = decimal.NewFromInt(QuantityScale)

// NewQuantityFromInt creates a Quantity from a whole number of units.
func NewQuantityFromInt(v int64) Quantity { return Quantity(v * QuantityScale) }

// NewQuantityFromInt64Scaled wraps an already-scaled integer (DB round-trip).
func NewQuantityFromInt64Scaled(v int64) Quantity { return Quantity(v) }

// NewQuantityFromDecimal truncates d to 4 fractional digits.
func NewQuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity(d.Mul(scaleDec).Truncate(0).IntPart())
}

// ParseQuantity parses a decimal string into fixed-point form.
// Digits beyond the fourth are truncated, not rounded, matching how
// the store truncates incoming values.
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	return NewQuantityFromDecimal(d.Truncate(4)), nil
}

// MustQuantity parses a quantity string, panics on error. Tests and constants only.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) Int64Scaled() int64 { return int64(q) }

// Decimal returns the exact decimal value.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), -4)
}

func (q Quantity) IsZero() bool     { return q == 0 }
func (q Quantity) IsPositive() bool { return q > 0 }
func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Neg() Quantity { return -q }

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

func (q Quantity) Add(other Quantity) Quantity { return q + other }
func (q Quantity) Sub(other Quantity) Quantity { return q - other }

// MulInt multiplies by a whole-unit count. Exact for integral operands.
func (q Quantity) MulInt(n int64) Quantity { return Quantity(int64(q) * n) }

// Mul multiplies two quantities, truncating the result to 4 digits.
// Goes through decimal to avoid int64 overflow on the intermediate product.
func (q Quantity) Mul(other Quantity) Quantity {
	return NewQuantityFromDecimal(q.Decimal().Mul(other.Decimal()).Truncate(4))
}

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	return q.Decimal().StringFixed(4)
}

// MarshalJSON encodes Quantity as a JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
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
