// Package production provides bill-of-materials formulas and the
// production orders that consume them. A formula is flat: one output
// item, a list of input items with per-unit quantities, no nesting.
package production

import (
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// Formula is the bill of materials of one output item.
type Formula struct {
	ID             id.ID     `db:"id" json:"id"`
	OutputItemID   id.ID     `db:"output_item_id" json:"outputItemId"`
	OutputItemCode string    `db:"output_item_code" json:"outputItemCode"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`

	Lines []FormulaLine `db:"-" json:"lines"`
}

// FormulaLine is one input of a formula.
type FormulaLine struct {
	ItemID      id.ID  `db:"item_id" json:"itemId"`
	ItemCode    string `db:"item_code" json:"itemCode"`
	Description string `db:"description" json:"description"`

	// PerUnit is the quantity consumed per produced unit, always positive.
	PerUnit types.Quantity `db:"per_unit" json:"perUnit"`
}

// FormulaLineInput is one raw input line of a create/replace request.
type FormulaLineInput struct {
	ItemCode string         `json:"itemCode"`
	PerUnit  types.Quantity `json:"perUnit"`
}
