package location

import (
	"context"
	"fmt"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
)

// Resolver picks the location a document line acts on.
//
// An explicit location must exist, be active and belong to the stated
// warehouse. Without one the warehouse's default location is used,
// falling back to the GENERAL naming convention and finally to the
// oldest active location.
type Resolver struct {
	repo Repository
}

// NewResolver creates a location resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the effective location for a document line.
// warehouseName is only used in error messages.
func (r *Resolver) Resolve(ctx context.Context, warehouseID id.ID, warehouseName string, explicitID *id.ID) (*Location, error) {
	if explicitID != nil && !id.IsNil(*explicitID) {
		return r.resolveExplicit(ctx, warehouseID, *explicitID)
	}
	return r.ResolveDefault(ctx, warehouseID, warehouseName)
}

func (r *Resolver) resolveExplicit(ctx context.Context, warehouseID, locationID id.ID) (*Location, error) {
	loc, err := r.repo.GetByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	if loc == nil {
		return nil, apperror.NewInvalidLocation("location does not exist").
			WithDetail("location_id", locationID.String())
	}
	if loc.WarehouseID != warehouseID {
		return nil, apperror.NewInvalidLocation("location belongs to another warehouse").
			WithDetail("location_id", locationID.String())
	}
	if !loc.IsActive {
		return nil, apperror.NewInvalidLocation("location is inactive").
			WithDetail("location_id", locationID.String())
	}
	return loc, nil
}

// ResolveDefault returns the warehouse's default location without
// considering an explicit choice. Document headers that operate on a
// whole warehouse (production orders) use this directly.
func (r *Resolver) ResolveDefault(ctx context.Context, warehouseID id.ID, warehouseName string) (*Location, error) {
	loc, err := r.repo.GetDefault(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("get default location: %w", err)
	}
	if loc != nil {
		return loc, nil
	}

	loc, err = r.repo.GetByName(ctx, warehouseID, DefaultName)
	if err != nil {
		return nil, fmt.Errorf("get location by name: %w", err)
	}
	if loc != nil {
		return loc, nil
	}

	active, err := r.repo.ListActive(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	if len(active) > 0 {
		return active[0], nil
	}

	return nil, apperror.NewNoLocationAvailable(warehouseName)
}
