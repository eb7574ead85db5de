package production

import (
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// DocumentType identifies production orders in the audit trail.
const DocumentType = "production_order"

// Order is a posted production order: inputs consumed at the source
// warehouse's default location, output credited at the destination's.
type Order struct {
	entity.Document

	OutputItemID      id.ID          `db:"output_item_id" json:"outputItemId"`
	OutputItemCode    string         `db:"output_item_code" json:"outputItemCode"`
	OutputDescription string         `db:"output_description" json:"outputDescription"`
	Quantity          types.Quantity `db:"quantity" json:"quantity"`

	SourceWarehouseID id.ID `db:"source_warehouse_id" json:"sourceWarehouseId"`
	SourceLocationID  id.ID `db:"source_location_id" json:"sourceLocationId"`
	DestWarehouseID   id.ID `db:"dest_warehouse_id" json:"destWarehouseId"`
	DestLocationID    id.ID `db:"dest_location_id" json:"destLocationId"`

	Lines []OrderLine `db:"-" json:"lines"`
}

// OrderLine records one consumed input.
type OrderLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ItemID      id.ID  `db:"item_id" json:"itemId"`
	ItemCode    string `db:"item_code" json:"itemCode"`
	Description string `db:"description" json:"description"`

	// Consumed is the quantity actually taken: per-unit × order quantity.
	Consumed types.Quantity `db:"consumed" json:"consumed"`
}

// OrderRequest is the input for posting a production order.
type OrderRequest struct {
	OutputCode        string         `json:"outputCode"`
	SourceWarehouseID id.ID          `json:"sourceWarehouseId"`
	DestWarehouseID   id.ID          `json:"destWarehouseId"`
	Quantity          types.Quantity `json:"quantity"`
	Comment           string         `json:"comment,omitempty"`
}
