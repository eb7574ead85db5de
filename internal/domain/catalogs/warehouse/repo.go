package warehouse

import (
	"context"

	"kardex/internal/core/id"
)

// Repository defines warehouse directory lookups.
// Methods return (nil, nil) when no row matches.
type Repository interface {
	// GetByID retrieves a warehouse by id.
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)

	// GetByName retrieves a warehouse by normalized name.
	GetByName(ctx context.Context, name string) (*Warehouse, error)

	// GetForUpdate retrieves a warehouse with a row lock. Postings lock
	// the warehouse first so concurrent documents over the same
	// warehouse serialize in a stable order.
	GetForUpdate(ctx context.Context, warehouseID id.ID) (*Warehouse, error)

	// GetByNameForUpdate is GetForUpdate keyed by normalized name.
	GetByNameForUpdate(ctx context.Context, name string) (*Warehouse, error)
}
