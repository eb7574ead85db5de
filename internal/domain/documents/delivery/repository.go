package delivery

import (
	"context"
	"time"

	"kardex/internal/core/id"
)

// Repository defines persistence for delivery notes.
//
// Create must be backed by a unique index on the external number so a
// race that slips past GetByNumberForUpdate still cannot commit twice;
// implementations map the unique violation to DUPLICATE_DOCUMENT.
type Repository interface {
	Create(ctx context.Context, doc *Note) error
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	GetByID(ctx context.Context, docID id.ID) (*Note, error)

	// GetByNumberForUpdate retrieves a note by external number with a
	// row lock, (nil, nil) when free.
	GetByNumberForUpdate(ctx context.Context, number string) (*Note, error)

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)

	List(ctx context.Context, filter ListFilter) ([]*Note, int, error)
}

// ListFilter narrows delivery note listings.
type ListFilter struct {
	WarehouseID *id.ID
	Direction   *Direction
	DateFrom    *time.Time
	DateTo      *time.Time
	Limit       int
	Offset      int
}
