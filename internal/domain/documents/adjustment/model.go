// Package adjustment provides stock adjustment documents (ajustes).
// An adjustment corrects on-hand quantities with signed deltas at one
// location of one warehouse.
package adjustment

import (
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/documents"
)

// DocumentType identifies adjustments in the audit trail.
const DocumentType = "adjustment"

// Adjustment is a posted stock adjustment.
type Adjustment struct {
	entity.Document

	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// WarehouseName is snapshotted at posting time so the document
	// reads the same even if the warehouse is later renamed.
	WarehouseName string `db:"warehouse_name" json:"warehouseName"`

	// LocationID is the resolved location all deltas were applied at.
	LocationID id.ID `db:"location_id" json:"locationId"`

	// Reason is the free-text motive ("rotura", "recuento", ...).
	Reason string `db:"reason" json:"reason,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one consolidated adjustment delta.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ItemID   id.ID  `db:"item_id" json:"itemId"`
	ItemCode string `db:"item_code" json:"itemCode"`

	// Description is snapshotted from the item directory.
	Description string `db:"description" json:"description"`

	// Quantity is the signed delta.
	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// CreateRequest is the input for posting an adjustment.
type CreateRequest struct {
	WarehouseID id.ID `json:"warehouseId"`

	// LocationID optionally pins the location; when nil the
	// warehouse's default location is resolved.
	LocationID *id.ID `json:"locationId,omitempty"`

	Reason  string `json:"reason,omitempty"`
	Comment string `json:"comment,omitempty"`

	Lines []documents.LineInput `json:"lines"`
}
