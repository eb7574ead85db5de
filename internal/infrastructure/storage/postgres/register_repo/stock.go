// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/registers/stock"
	"kardex/internal/infrastructure/storage/postgres"
)

const stockBalancesTable = "stock_balances"

// StockRepo implements stock.Repository over the stock_balances table.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ApplyDelta upserts the balance row, adding delta atomically.
// ON CONFLICT makes the first touch race-free: two concurrent inserts
// of the same key resolve to one row plus one update.
func (r *StockRepo) ApplyDelta(ctx context.Context, warehouseID, locationID, itemID id.ID, delta types.Quantity) (types.Quantity, error) {
	sql := `
		INSERT INTO stock_balances (warehouse_id, location_id, item_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (warehouse_id, location_id, item_id)
		DO UPDATE SET quantity = stock_balances.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING quantity
	`

	var newQtyScaled int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, warehouseID, locationID, itemID, delta.Int64Scaled()).Scan(&newQtyScaled)
	if err != nil {
		if postgres.IsLockTimeout(err) {
			return 0, apperror.NewLockTimeout(err)
		}
		return 0, fmt.Errorf("apply delta: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(newQtyScaled), nil
}

// GetBalance returns the current balance, zero if no row exists.
func (r *StockRepo) GetBalance(ctx context.Context, warehouseID, locationID, itemID id.ID) (stock.Balance, error) {
	q := r.builder.Select(
		"warehouse_id", "location_id", "item_id", "quantity", "updated_at",
	).From(stockBalancesTable).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"location_id":  locationID,
			"item_id":      itemID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return stock.Balance{}, fmt.Errorf("build query: %w", err)
	}

	var balance stock.Balance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Balance{
				WarehouseID: warehouseID,
				LocationID:  locationID,
				ItemID:      itemID,
				Quantity:    0,
			}, nil
		}
		return stock.Balance{}, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetBalanceForUpdate returns the balance with a pessimistic lock.
// A missing row reports zero; the row itself gets created later by
// ApplyDelta's upsert.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, warehouseID, locationID, itemID id.ID) (stock.Balance, error) {
	sql := `
		SELECT warehouse_id, location_id, item_id, quantity, updated_at
		FROM stock_balances
		WHERE warehouse_id = $1 AND location_id = $2 AND item_id = $3
		FOR UPDATE
	`

	var balance stock.Balance
	querier := r.txManager.GetQuerier(ctx)
	err := pgxscan.Get(ctx, querier, &balance, sql, warehouseID, locationID, itemID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return stock.Balance{
				WarehouseID: warehouseID,
				LocationID:  locationID,
				ItemID:      itemID,
				Quantity:    0,
			}, nil
		}
		if postgres.IsLockTimeout(err) {
			return stock.Balance{}, apperror.NewLockTimeout(err)
		}
		return stock.Balance{}, fmt.Errorf("get balance for update: %w", err)
	}

	return balance, nil
}

// GetWarehouseBalancesForUpdate locks all location rows of the item in
// the warehouse. Postgres forbids FOR UPDATE together with aggregates,
// so the rows are returned as-is and summed by the caller.
func (r *StockRepo) GetWarehouseBalancesForUpdate(ctx context.Context, warehouseID, itemID id.ID) ([]stock.Balance, error) {
	sql := `
		SELECT warehouse_id, location_id, item_id, quantity, updated_at
		FROM stock_balances
		WHERE warehouse_id = $1 AND item_id = $2
		ORDER BY location_id
		FOR UPDATE
	`

	var balances []stock.Balance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, warehouseID, itemID); err != nil {
		if postgres.IsLockTimeout(err) {
			return nil, apperror.NewLockTimeout(err)
		}
		return nil, fmt.Errorf("lock warehouse balances: %w", err)
	}

	return balances, nil
}

// ListByWarehouse returns balances of a warehouse.
func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID, filter stock.BalanceFilter) ([]stock.Balance, error) {
	q := r.builder.Select(
		"warehouse_id", "location_id", "item_id", "quantity", "updated_at",
	).From(stockBalancesTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID})

	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}

	if len(filter.ItemIDs) > 0 {
		q = q.Where(squirrel.Eq{"item_id": filter.ItemIDs})
	}

	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": int64(0)})
	}

	q = q.OrderBy("item_id", "location_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []stock.Balance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// ListByItem returns the item's balances across warehouses.
func (r *StockRepo) ListByItem(ctx context.Context, itemID id.ID) ([]stock.Balance, error) {
	q := r.builder.Select(
		"warehouse_id", "location_id", "item_id", "quantity", "updated_at",
	).From(stockBalancesTable).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.NotEq{"quantity": int64(0)}).
		OrderBy("warehouse_id", "location_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []stock.Balance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)
