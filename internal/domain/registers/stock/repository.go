// Package stock provides the stock balance register.
//
// One row per (warehouse, location, item) holds the current quantity.
// Documents mutate it exclusively through signed deltas applied inside
// their posting transaction; availability checks lock the rows first.
package stock

import (
	"context"
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// Balance is the current quantity of one item at one location.
type Balance struct {
	WarehouseID id.ID          `db:"warehouse_id" json:"warehouseId"`
	LocationID  id.ID          `db:"location_id" json:"locationId"`
	ItemID      id.ID          `db:"item_id" json:"itemId"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// BalanceFilter narrows balance listings.
type BalanceFilter struct {
	LocationID  *id.ID
	ItemIDs     []id.ID
	ExcludeZero bool
}

// Repository defines operations on the balance register.
type Repository interface {
	// ApplyDelta upserts the balance row and adds delta atomically,
	// returning the resulting quantity. The first movement of an item
	// at a location creates the row, so two concurrent first touches
	// cannot race.
	ApplyDelta(ctx context.Context, warehouseID, locationID, itemID id.ID, delta types.Quantity) (types.Quantity, error)

	// GetBalance returns the current balance, zero if the row does not
	// exist yet.
	GetBalance(ctx context.Context, warehouseID, locationID, itemID id.ID) (Balance, error)

	// GetBalanceForUpdate returns the balance with a row lock.
	GetBalanceForUpdate(ctx context.Context, warehouseID, locationID, itemID id.ID) (Balance, error)

	// GetWarehouseBalancesForUpdate locks every location row of the
	// item within the warehouse and returns them. Callers sum the rows
	// for warehouse-wide availability.
	GetWarehouseBalancesForUpdate(ctx context.Context, warehouseID, itemID id.ID) ([]Balance, error)

	// ListByWarehouse returns balances of a warehouse for read-only
	// consumers, ordered by item.
	ListByWarehouse(ctx context.Context, warehouseID id.ID, filter BalanceFilter) ([]Balance, error)

	// ListByItem returns the item's balances across all warehouses.
	ListByItem(ctx context.Context, itemID id.ID) ([]Balance, error)
}
