package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/domain/documents/production"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	formulasTable             = "formulas"
	formulaLinesTable         = "formula_lines"
	productionOrdersTable     = "production_orders"
	productionOrderLinesTable = "production_order_lines"
)

// FormulaRepo implements production.FormulaRepository.
type FormulaRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewFormulaRepo creates a new formula repository.
func NewFormulaRepo(txManager *postgres.TxManager) *FormulaRepo {
	return &FormulaRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByOutputItem retrieves the formula of an output item with lines,
// (nil, nil) when the item has none.
func (r *FormulaRepo) GetByOutputItem(ctx context.Context, outputItemID id.ID) (*production.Formula, error) {
	return r.get(ctx, outputItemID, false)
}

// GetByOutputItemForUpdate is GetByOutputItem with a header row lock.
func (r *FormulaRepo) GetByOutputItemForUpdate(ctx context.Context, outputItemID id.ID) (*production.Formula, error) {
	return r.get(ctx, outputItemID, true)
}

func (r *FormulaRepo) get(ctx context.Context, outputItemID id.ID, forUpdate bool) (*production.Formula, error) {
	sql := `
		SELECT id, output_item_id, output_item_code, created_at, updated_at
		FROM formulas
		WHERE output_item_id = $1
	`
	if forUpdate {
		sql += " FOR UPDATE"
	}

	querier := r.txManager.GetQuerier(ctx)

	var formula production.Formula
	if err := pgxscan.Get(ctx, querier, &formula, sql, outputItemID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		if postgres.IsLockTimeout(err) {
			return nil, apperror.NewLockTimeout(err)
		}
		return nil, fmt.Errorf("get formula: %w", err)
	}

	linesSQL, args, err := r.builder.Select(
		"item_id", "item_code", "description", "per_unit",
	).From(formulaLinesTable).
		Where(squirrel.Eq{"formula_id": formula.ID}).
		OrderBy("item_code").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &formula.Lines, linesSQL, args...); err != nil {
		return nil, fmt.Errorf("select formula lines: %w", err)
	}

	return &formula, nil
}

// Upsert inserts or updates the formula header, keyed by output item.
func (r *FormulaRepo) Upsert(ctx context.Context, f *production.Formula) error {
	sql := `
		INSERT INTO formulas (id, output_item_id, output_item_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (output_item_id)
		DO UPDATE SET output_item_code = EXCLUDED.output_item_code, updated_at = EXCLUDED.updated_at
	`

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql,
		f.ID, f.OutputItemID, f.OutputItemCode, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert formula: %w", err)
	}
	return nil
}

// ReplaceLines deletes and reinserts the line set.
func (r *FormulaRepo) ReplaceLines(ctx context.Context, formulaID id.ID, lines []production.FormulaLine) error {
	querier := r.txManager.GetQuerier(ctx)

	del, args, err := r.builder.Delete(formulaLinesTable).
		Where(squirrel.Eq{"formula_id": formulaID}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := querier.Exec(ctx, del, args...); err != nil {
		return fmt.Errorf("delete formula lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(formulaLinesTable).
		Columns("formula_id", "item_id", "item_code", "description", "per_unit")
	for _, l := range lines {
		q = q.Values(formulaID, l.ItemID, l.ItemCode, l.Description, l.PerUnit.Int64Scaled())
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert formula lines: %w", err)
	}
	return nil
}

// Delete removes the formula and its lines.
func (r *FormulaRepo) Delete(ctx context.Context, formulaID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)

	del, args, err := r.builder.Delete(formulaLinesTable).
		Where(squirrel.Eq{"formula_id": formulaID}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := querier.Exec(ctx, del, args...); err != nil {
		return fmt.Errorf("delete formula lines: %w", err)
	}

	del, args, err = r.builder.Delete(formulasTable).
		Where(squirrel.Eq{"id": formulaID}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := querier.Exec(ctx, del, args...); err != nil {
		return fmt.Errorf("delete formula: %w", err)
	}
	return nil
}

var _ production.FormulaRepository = (*FormulaRepo)(nil)

// OrderRepo implements production.OrderRepository.
type OrderRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewOrderRepo creates a new production order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the document header.
func (r *OrderRepo) Create(ctx context.Context, doc *production.Order) error {
	q := r.builder.Insert(productionOrdersTable).
		Columns("id", "number", "date", "actor", "comment",
			"output_item_id", "output_item_code", "output_description", "quantity",
			"source_warehouse_id", "source_location_id",
			"dest_warehouse_id", "dest_location_id", "created_at").
		Values(doc.ID, doc.Number, doc.Date, doc.Actor, doc.Comment,
			doc.OutputItemID, doc.OutputItemCode, doc.OutputDescription, doc.Quantity.Int64Scaled(),
			doc.SourceWarehouseID, doc.SourceLocationID,
			doc.DestWarehouseID, doc.DestLocationID, doc.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert production order: %w", err)
	}
	return nil
}

// SaveLines replaces the line set of a document.
func (r *OrderRepo) SaveLines(ctx context.Context, docID id.ID, lines []production.OrderLine) error {
	querier := r.txManager.GetQuerier(ctx)

	del, args, err := r.builder.Delete(productionOrderLinesTable).
		Where(squirrel.Eq{"order_id": docID}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := querier.Exec(ctx, del, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(productionOrderLinesTable).
		Columns("line_id", "order_id", "line_no", "item_id", "item_code", "description", "consumed")
	for _, l := range lines {
		q = q.Values(l.LineID, docID, l.LineNo, l.ItemID, l.ItemCode, l.Description, l.Consumed.Int64Scaled())
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// GetByID retrieves the header, (nil, nil) when absent.
func (r *OrderRepo) GetByID(ctx context.Context, docID id.ID) (*production.Order, error) {
	sql, args, err := r.builder.Select(
		"id", "number", "date", "actor", "comment",
		"output_item_id", "output_item_code", "output_description", "quantity",
		"source_warehouse_id", "source_location_id",
		"dest_warehouse_id", "dest_location_id", "created_at",
	).From(productionOrdersTable).
		Where(squirrel.Eq{"id": docID}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc production.Order
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get production order: %w", err)
	}
	return &doc, nil
}

// GetLines retrieves the line set ordered by line number.
func (r *OrderRepo) GetLines(ctx context.Context, docID id.ID) ([]production.OrderLine, error) {
	sql, args, err := r.builder.Select(
		"line_id", "line_no", "item_id", "item_code", "description", "consumed",
	).From(productionOrderLinesTable).
		Where(squirrel.Eq{"order_id": docID}).
		OrderBy("line_no").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []production.OrderLine
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}
	return lines, nil
}

// List retrieves headers matching the filter plus a total count.
func (r *OrderRepo) List(ctx context.Context, filter production.OrderListFilter) ([]*production.Order, int, error) {
	where := squirrel.And{}
	if filter.OutputItemID != nil {
		where = append(where, squirrel.Eq{"output_item_id": *filter.OutputItemID})
	}
	if filter.WarehouseID != nil {
		where = append(where, squirrel.Or{
			squirrel.Eq{"source_warehouse_id": *filter.WarehouseID},
			squirrel.Eq{"dest_warehouse_id": *filter.WarehouseID},
		})
	}
	if filter.DateFrom != nil {
		where = append(where, squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, squirrel.LtOrEq{"date": *filter.DateTo})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("count(*)").From(productionOrdersTable)
	if len(where) > 0 {
		countQ = countQ.Where(where)
	}
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count production orders: %w", err)
	}

	q := r.builder.Select(
		"id", "number", "date", "actor", "comment",
		"output_item_id", "output_item_code", "output_description", "quantity",
		"source_warehouse_id", "source_location_id",
		"dest_warehouse_id", "dest_location_id", "created_at",
	).From(productionOrdersTable).
		OrderBy("number DESC")
	if len(where) > 0 {
		q = q.Where(where)
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var docs []*production.Order
	if err := pgxscan.Select(ctx, querier, &docs, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select production orders: %w", err)
	}
	return docs, total, nil
}

var _ production.OrderRepository = (*OrderRepo)(nil)
