package location

import (
	"context"

	"kardex/internal/core/id"
)

// Repository defines location lookups within a warehouse.
// Methods return (nil, nil) when no row matches.
type Repository interface {
	// GetByID retrieves a location by id, regardless of warehouse.
	GetByID(ctx context.Context, locationID id.ID) (*Location, error)

	// GetDefault retrieves the default-flagged active location of a
	// warehouse.
	GetDefault(ctx context.Context, warehouseID id.ID) (*Location, error)

	// GetByName retrieves an active location by normalized name within
	// a warehouse.
	GetByName(ctx context.Context, warehouseID id.ID, name string) (*Location, error)

	// ListActive returns the active locations of a warehouse ordered
	// by id, oldest first.
	ListActive(ctx context.Context, warehouseID id.ID) ([]*Location, error)
}
