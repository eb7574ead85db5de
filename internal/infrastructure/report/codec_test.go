package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kardex/internal/core/types"
)

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := NewJSONCodec()

	in := []byte(`[
		{"row": 2, "itemCode": "A1", "expected": 10, "actual": 4.5},
		{"row": 3, "itemCode": "B2", "expected": "3.25", "actual": 0}
	]`)

	report, err := codec.Decode(in)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "A1", report.Rows[0].ItemCode)
	assert.Equal(t, types.MustQuantity("4.5"), report.Rows[0].Actual)
	assert.Equal(t, types.MustQuantity("3.25"), report.Rows[1].Expected)

	report.Rows[0].Actual = report.Rows[0].Expected
	out, err := codec.Encode(report)
	require.NoError(t, err)

	decoded, err := codec.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, report.Rows, decoded.Rows)
}

func TestJSONCodecRejectsMalformedInput(t *testing.T) {
	_, err := NewJSONCodec().Decode([]byte(`{"not": "an array"}`))
	assert.Error(t, err)
}
