package catalog_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/domain/catalogs/warehouse"
	"kardex/internal/infrastructure/storage/postgres"
)

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	txManager *postgres.TxManager
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{txManager: txManager}
}

func (r *WarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	sql := `
		SELECT id, name, is_active
		FROM warehouses
		WHERE id = $1
	`
	return r.getOne(ctx, sql, warehouseID)
}

func (r *WarehouseRepo) GetByName(ctx context.Context, name string) (*warehouse.Warehouse, error) {
	sql := `
		SELECT id, name, is_active
		FROM warehouses
		WHERE upper(btrim(name)) = $1
	`
	return r.getOne(ctx, sql, warehouse.NormalizeName(name))
}

// GetForUpdate locks the warehouse row. Documents lock the warehouse
// before any balance rows so concurrent postings over one warehouse
// take their locks in a stable order.
func (r *WarehouseRepo) GetForUpdate(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	sql := `
		SELECT id, name, is_active
		FROM warehouses
		WHERE id = $1
		FOR UPDATE
	`
	return r.getOne(ctx, sql, warehouseID)
}

func (r *WarehouseRepo) GetByNameForUpdate(ctx context.Context, name string) (*warehouse.Warehouse, error) {
	sql := `
		SELECT id, name, is_active
		FROM warehouses
		WHERE upper(btrim(name)) = $1
		FOR UPDATE
	`
	return r.getOne(ctx, sql, warehouse.NormalizeName(name))
}

func (r *WarehouseRepo) getOne(ctx context.Context, sql string, arg any) (*warehouse.Warehouse, error) {
	var wh warehouse.Warehouse
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &wh, sql, arg); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		if postgres.IsLockTimeout(err) {
			return nil, apperror.NewLockTimeout(err)
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &wh, nil
}

// Ensure interface compliance.
var _ warehouse.Repository = (*WarehouseRepo)(nil)
