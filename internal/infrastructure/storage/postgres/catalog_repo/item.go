// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/id"
	"kardex/internal/domain/catalogs/item"
	"kardex/internal/infrastructure/storage/postgres"
)

const itemsTable = "items"

// ItemRepo implements item.Repository.
type ItemRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewItemRepo creates a new item repository.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ItemRepo) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	q := r.builder.Select("id", "code", "barcode", "description", "is_active").
		From(itemsTable).
		Where(squirrel.Eq{"id": itemID}).
		Limit(1)

	return r.getOne(ctx, q)
}

// GetByCode matches the normalized code against both code and barcode,
// mirroring how operators key items in by hand or by scanner.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*item.Item, error) {
	normalized := item.NormalizeCode(code)
	q := r.builder.Select("id", "code", "barcode", "description", "is_active").
		From(itemsTable).
		Where(squirrel.Or{
			squirrel.Eq{"code": normalized},
			squirrel.Eq{"barcode": normalized},
		}).
		OrderBy("code").
		Limit(1)

	return r.getOne(ctx, q)
}

// GetByCodes resolves a batch of normalized codes in one query. Codes
// with no match are absent from the result; the caller reports them.
func (r *ItemRepo) GetByCodes(ctx context.Context, codes []string) (map[string]*item.Item, error) {
	result := make(map[string]*item.Item, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	normalized := make([]string, 0, len(codes))
	for _, c := range codes {
		normalized = append(normalized, item.NormalizeCode(c))
	}

	q := r.builder.Select("id", "code", "barcode", "description", "is_active").
		From(itemsTable).
		Where(squirrel.Or{
			squirrel.Eq{"code": normalized},
			squirrel.Eq{"barcode": normalized},
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*item.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}

	for _, it := range items {
		result[it.Code] = it
		if it.Barcode != nil && *it.Barcode != "" {
			result[item.NormalizeCode(*it.Barcode)] = it
		}
	}

	return result, nil
}

func (r *ItemRepo) getOne(ctx context.Context, q squirrel.SelectBuilder) (*item.Item, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var it item.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &it, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return &it, nil
}

// Ensure interface compliance.
var _ item.Repository = (*ItemRepo)(nil)
