// Package report codecs the consumption report exchanged with the
// remote file store. The upstream system exports the workbook as JSON
// rows; workbook parsing itself stays outside the ledger.
package report

import (
	"encoding/json"
	"fmt"

	"kardex/internal/core/types"
	"kardex/internal/domain/documents/adjustment"
)

type jsonRow struct {
	Row      int            `json:"row"`
	ItemCode string         `json:"itemCode"`
	Expected types.Quantity `json:"expected"`
	Actual   types.Quantity `json:"actual"`
}

// JSONCodec reads and writes the consumption report as a JSON array of
// rows.
type JSONCodec struct{}

// NewJSONCodec creates a JSON report codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Decode parses the report bytes.
func (JSONCodec) Decode(data []byte) (*adjustment.ConsumptionReport, error) {
	var rows []jsonRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode consumption report: %w", err)
	}

	report := &adjustment.ConsumptionReport{Rows: make([]adjustment.ConsumptionRow, len(rows))}
	for i, r := range rows {
		report.Rows[i] = adjustment.ConsumptionRow{
			Row:      r.Row,
			ItemCode: r.ItemCode,
			Expected: r.Expected,
			Actual:   r.Actual,
		}
	}
	return report, nil
}

// Encode serializes the report back to bytes.
func (JSONCodec) Encode(report *adjustment.ConsumptionReport) ([]byte, error) {
	rows := make([]jsonRow, len(report.Rows))
	for i, r := range report.Rows {
		rows[i] = jsonRow{
			Row:      r.Row,
			ItemCode: r.ItemCode,
			Expected: r.Expected,
			Actual:   r.Actual,
		}
	}

	out, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode consumption report: %w", err)
	}
	return out, nil
}

var _ adjustment.ReportCodec = (*JSONCodec)(nil)
