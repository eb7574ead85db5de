// Package document_repo provides PostgreSQL implementations for the
// document repositories. Line sets are replaced wholesale
// (delete-then-insert) inside the caller's transaction.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/id"
	"kardex/internal/domain/documents/adjustment"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	adjustmentsTable     = "adjustments"
	adjustmentLinesTable = "adjustment_lines"
)

// AdjustmentRepo implements adjustment.Repository.
type AdjustmentRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewAdjustmentRepo creates a new adjustment repository.
func NewAdjustmentRepo(txManager *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the document header.
func (r *AdjustmentRepo) Create(ctx context.Context, doc *adjustment.Adjustment) error {
	q := r.builder.Insert(adjustmentsTable).
		Columns("id", "number", "date", "actor", "comment",
			"warehouse_id", "warehouse_name", "location_id", "reason", "created_at").
		Values(doc.ID, doc.Number, doc.Date, doc.Actor, doc.Comment,
			doc.WarehouseID, doc.WarehouseName, doc.LocationID, doc.Reason, doc.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

// SaveLines replaces the line set of a document.
func (r *AdjustmentRepo) SaveLines(ctx context.Context, docID id.ID, lines []adjustment.Line) error {
	querier := r.txManager.GetQuerier(ctx)

	del, args, err := r.builder.Delete(adjustmentLinesTable).
		Where(squirrel.Eq{"adjustment_id": docID}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := querier.Exec(ctx, del, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(adjustmentLinesTable).
		Columns("line_id", "adjustment_id", "line_no", "item_id", "item_code", "description", "quantity")
	for _, l := range lines {
		q = q.Values(l.LineID, docID, l.LineNo, l.ItemID, l.ItemCode, l.Description, l.Quantity.Int64Scaled())
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
func (r *AdjustmentRepo) GetByID(ctx context.Context, docID id.ID) (*adjustment.Adjustment, error) {
	sql, args, err := r.builder.Select(
		"id", "number", "date", "actor", "comment",
		"warehouse_id", "warehouse_name", "location_id", "reason", "created_at",
	).From(adjustmentsTable).
		Where(squirrel.Eq{"id": docID}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc adjustment.Adjustment
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	return &doc, nil
}

// GetLines retrieves the line set ordered by line number.
func (r *AdjustmentRepo) GetLines(ctx context.Context, docID id.ID) ([]adjustment.Line, error) {
	sql, args, err := r.builder.Select(
		"line_id", "line_no", "item_id", "item_code", "description", "quantity",
	).From(adjustmentLinesTable).
		Where(squirrel.Eq{"adjustment_id": docID}).
		OrderBy("line_no").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []adjustment.Line
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}
	return lines, nil
}

// List retrieves headers matching the filter plus a total count.
func (r *AdjustmentRepo) List(ctx context.Context, filter adjustment.ListFilter) ([]*adjustment.Adjustment, int, error) {
	where := squirrel.And{}
	if filter.WarehouseID != nil {
		where = append(where, squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.DateFrom != nil {
		where = append(where, squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, squirrel.LtOrEq{"date": *filter.DateTo})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("count(*)").From(adjustmentsTable)
	if len(where) > 0 {
		countQ = countQ.Where(where)
	}
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count adjustments: %w", err)
	}

	q := r.builder.Select(
		"id", "number", "date", "actor", "comment",
		"warehouse_id", "warehouse_name", "location_id", "reason", "created_at",
	).From(adjustmentsTable).
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

	var docs []*adjustment.Adjustment
	if err := pgxscan.Select(ctx, querier, &docs, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select adjustments: %w", err)
	}
	return docs, total, nil
}

var _ adjustment.Repository = (*AdjustmentRepo)(nil)
