// Package transfer provides stock transfer documents (traspasos).
// A transfer moves quantities from one (warehouse, location) to
// another; the two ends may share a warehouse but never both
// warehouse and location.
package transfer

import (
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/documents"
)

// DocumentType identifies transfers in the audit trail.
const DocumentType = "transfer"

// Transfer is a posted stock transfer.
type Transfer struct {
	entity.Document

	SourceWarehouseID id.ID `db:"source_warehouse_id" json:"sourceWarehouseId"`
	SourceLocationID  id.ID `db:"source_location_id" json:"sourceLocationId"`
	DestWarehouseID   id.ID `db:"dest_warehouse_id" json:"destWarehouseId"`
	DestLocationID    id.ID `db:"dest_location_id" json:"destLocationId"`

	// Source and Dest are "Warehouse - Location" display snapshots
	// taken at posting time.
	Source string `db:"source" json:"source"`
	Dest   string `db:"dest" json:"dest"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one consolidated transferred quantity, always positive.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ItemID      id.ID          `db:"item_id" json:"itemId"`
	ItemCode    string         `db:"item_code" json:"itemCode"`
	Description string         `db:"description" json:"description"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
}

// CreateRequest is the input for posting a transfer.
type CreateRequest struct {
	SourceWarehouseID id.ID `json:"sourceWarehouseId"`
	DestWarehouseID   id.ID `json:"destWarehouseId"`

	// SourceLocationID / DestLocationID optionally pin the locations;
	// when nil each warehouse's default location is resolved.
	SourceLocationID *id.ID `json:"sourceLocationId,omitempty"`
	DestLocationID   *id.ID `json:"destLocationId,omitempty"`

	Comment string `json:"comment,omitempty"`

	Lines []documents.LineInput `json:"lines"`
}
