package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want Quantity
	}{
		{"0", 0},
		{"1", 10_000},
		{"-2.5", -25_000},
		{"0.0001", 1},
		{"123.4567", 1_234_567},
		// truncated, not rounded
		{"1.99999", 19_999},
		{"-1.99999", -19_999},
	}
	for _, tc := range cases {
		got, err := ParseQuantity(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseQuantity("not a number")
	assert.Error(t, err)
}

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "0.0000", Quantity(0).String())
	assert.Equal(t, "1.5000", MustQuantity("1.5").String())
	assert.Equal(t, "-0.2500", MustQuantity("-0.25").String())
}

func TestQuantityMul(t *testing.T) {
	assert.Equal(t, MustQuantity("6"), MustQuantity("2").Mul(MustQuantity("3")))
	assert.Equal(t, MustQuantity("1.5"), MustQuantity("0.5").Mul(MustQuantity("3")))
	// product truncated to 4 digits
	assert.Equal(t, MustQuantity("0.0001"), MustQuantity("0.01").Mul(MustQuantity("0.0199")))
}

func TestQuantityMulIntExactForIntegralData(t *testing.T) {
	assert.Equal(t, NewQuantityFromInt(12), NewQuantityFromInt(4).MulInt(3))
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	type payload struct {
		Qty Quantity `json:"qty"`
	}

	out, err := json.Marshal(payload{Qty: MustQuantity("2.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty":2.5000}`, string(out))

	var fromNumber payload
	require.NoError(t, json.Unmarshal([]byte(`{"qty": 3.25}`), &fromNumber))
	assert.Equal(t, MustQuantity("3.25"), fromNumber.Qty)

	var fromString payload
	require.NoError(t, json.Unmarshal([]byte(`{"qty": "-7.1"}`), &fromString))
	assert.Equal(t, MustQuantity("-7.1"), fromString.Qty)

	var fromNull payload
	require.NoError(t, json.Unmarshal([]byte(`{"qty": null}`), &fromNull))
	assert.True(t, fromNull.Qty.IsZero())
}

func TestQuantitySignHelpers(t *testing.T) {
	q := MustQuantity("-4")
	assert.True(t, q.IsNegative())
	assert.Equal(t, MustQuantity("4"), q.Neg())
	assert.Equal(t, MustQuantity("4"), q.Abs())
	assert.Equal(t, MustQuantity("-1"), q.Add(MustQuantity("3")))
	assert.Equal(t, MustQuantity("-7"), q.Sub(MustQuantity("3")))
}
