package transfer

import (
	"context"
	"time"

	"kardex/internal/core/id"
)

// Repository defines persistence for transfer documents.
type Repository interface {
	Create(ctx context.Context, doc *Transfer) error
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	GetByID(ctx context.Context, docID id.ID) (*Transfer, error)
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)

	List(ctx context.Context, filter ListFilter) ([]*Transfer, int, error)
}

// ListFilter narrows transfer listings. WarehouseID matches either end.
type ListFilter struct {
	WarehouseID *id.ID
	DateFrom    *time.Time
	DateTo      *time.Time
	Limit       int
	Offset      int
}
