// Package delivery provides delivery note documents (albaranes).
// Unlike the other document types the number is assigned by the
// remitente and arrives with the request; the ledger only enforces its
// uniqueness.
package delivery

import (
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// DocumentType identifies delivery notes in the audit trail.
const DocumentType = "delivery_note"

// Direction of a delivery note.
type Direction string

const (
	// DirectionIn receives goods into the warehouse.
	DirectionIn Direction = "ENTRADA"

	// DirectionOut ships goods out of the warehouse.
	DirectionOut Direction = "SALIDA"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// StatusConfirmed is the only status a posted note can have; notes are
// confirmed atomically with their balance deltas.
const StatusConfirmed = "CONFIRMADO"

// Note is a posted delivery note.
type Note struct {
	entity.Base

	// ExternalNumber is the caller-supplied unique document number.
	ExternalNumber string `db:"external_number" json:"externalNumber"`

	Direction Direction `db:"direction" json:"direction"`

	WarehouseID   id.ID  `db:"warehouse_id" json:"warehouseId"`
	WarehouseName string `db:"warehouse_name" json:"warehouseName"`

	Actor       string `db:"actor" json:"actor"`
	Observation string `db:"observation" json:"observation,omitempty"`
	Status      string `db:"status" json:"status"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one delivered quantity at one location of the note's warehouse.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ItemID      id.ID  `db:"item_id" json:"itemId"`
	ItemCode    string `db:"item_code" json:"itemCode"`
	Description string `db:"description" json:"description"`

	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	LocationID id.ID          `db:"location_id" json:"locationId"`
}

// CreateRequest is the input for posting a delivery note. The
// warehouse may be given by id or by name; id wins when both are set.
type CreateRequest struct {
	Number    string    `json:"number"`
	Direction Direction `json:"direction"`

	WarehouseID   *id.ID `json:"warehouseId,omitempty"`
	WarehouseName string `json:"warehouseName,omitempty"`

	Observation string `json:"observation,omitempty"`

	Lines []LineInput `json:"lines"`
}

// LineInput is one raw request line. LocationID is optional; the
// warehouse default is resolved per line when absent.
type LineInput struct {
	ItemCode   string         `json:"itemCode"`
	Quantity   types.Quantity `json:"quantity"`
	LocationID *id.ID         `json:"locationId,omitempty"`
}
