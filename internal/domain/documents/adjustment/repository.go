package adjustment

import (
	"context"
	"time"

	"kardex/internal/core/id"
)

// Repository defines persistence for adjustment documents.
type Repository interface {
	Create(ctx context.Context, doc *Adjustment) error
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	GetByID(ctx context.Context, docID id.ID) (*Adjustment, error)
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)

	List(ctx context.Context, filter ListFilter) ([]*Adjustment, int, error)
}

// ListFilter narrows adjustment listings.
type ListFilter struct {
	WarehouseID *id.ID
	DateFrom    *time.Time
	DateTo      *time.Time
	Limit       int
	Offset      int
}
