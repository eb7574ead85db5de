package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/id"
	"kardex/internal/domain/catalogs/location"
	"kardex/internal/infrastructure/storage/postgres"
)

const locationsTable = "locations"

// LocationRepo implements location.Repository.
type LocationRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLocationRepo creates a new location repository.
func NewLocationRepo(txManager *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *LocationRepo) GetByID(ctx context.Context, locationID id.ID) (*location.Location, error) {
	q := r.builder.Select("id", "warehouse_id", "name", "is_active", "is_default").
		From(locationsTable).
		Where(squirrel.Eq{"id": locationID}).
		Limit(1)

	return r.getOne(ctx, q)
}

func (r *LocationRepo) GetDefault(ctx context.Context, warehouseID id.ID) (*location.Location, error) {
	q := r.builder.Select("id", "warehouse_id", "name", "is_active", "is_default").
		From(locationsTable).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"is_active":    true,
			"is_default":   true,
		}).
		OrderBy("id").
		Limit(1)

	return r.getOne(ctx, q)
}

func (r *LocationRepo) GetByName(ctx context.Context, warehouseID id.ID, name string) (*location.Location, error) {
	q := r.builder.Select("id", "warehouse_id", "name", "is_active", "is_default").
		From(locationsTable).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"is_active":    true,
		}).
		Where(squirrel.Expr("upper(btrim(name)) = ?", location.NormalizeName(name))).
		OrderBy("id").
		Limit(1)

	return r.getOne(ctx, q)
}

func (r *LocationRepo) ListActive(ctx context.Context, warehouseID id.ID) ([]*location.Location, error) {
	q := r.builder.Select("id", "warehouse_id", "name", "is_active", "is_default").
		From(locationsTable).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"is_active":    true,
		}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var locations []*location.Location
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &locations, sql, args...); err != nil {
		return nil, fmt.Errorf("select locations: %w", err)
	}

	return locations, nil
}

func (r *LocationRepo) getOne(ctx context.Context, q squirrel.SelectBuilder) (*location.Location, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var loc location.Location
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &loc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}

	return &loc, nil
}

// Ensure interface compliance.
var _ location.Repository = (*LocationRepo)(nil)
