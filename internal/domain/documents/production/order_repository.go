package production

import (
	"context"
	"time"

	"kardex/internal/core/id"
)

// OrderRepository defines persistence for production orders.
type OrderRepository interface {
	Create(ctx context.Context, doc *Order) error
	SaveLines(ctx context.Context, docID id.ID, lines []OrderLine) error

	GetByID(ctx context.Context, docID id.ID) (*Order, error)
	GetLines(ctx context.Context, docID id.ID) ([]OrderLine, error)

	List(ctx context.Context, filter OrderListFilter) ([]*Order, int, error)
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	OutputItemID *id.ID
	WarehouseID  *id.ID
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}
