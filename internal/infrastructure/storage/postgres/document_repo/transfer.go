package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/id"
	"kardex/internal/domain/documents/transfer"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	transfersTable     = "transfers"
	transferLinesTable = "transfer_lines"
)

// TransferRepo implements transfer.Repository.
type TransferRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewTransferRepo creates a new transfer repository.
func NewTransferRepo(txManager *postgres.TxManager) *TransferRepo {
	return &TransferRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the document header.
func (r *TransferRepo) Create(ctx context.Context, doc *transfer.Transfer) error {
	q := r.builder.Insert(transfersTable).
		Columns("id", "number", "date", "actor", "comment",
			"source_warehouse_id", "source_location_id",
			"dest_warehouse_id", "dest_location_id",
			"source", "dest", "created_at").
		Values(doc.ID, doc.Number, doc.Date, doc.Actor, doc.Comment,
			doc.SourceWarehouseID, doc.SourceLocationID,
			doc.DestWarehouseID, doc.DestLocationID,
			doc.Source, doc.Dest, doc.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// SaveLines replaces the line set of a document.
func (r *TransferRepo) SaveLines(ctx context.Context, docID id.ID, lines []transfer.Line) error {
	querier := r.txManager.GetQuerier(ctx)

	del, args, err := r.builder.Delete(transferLinesTable).
		Where(squirrel.Eq{"transfer_id": docID}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := querier.Exec(ctx, del, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(transferLinesTable).
		Columns("line_id", "transfer_id", "line_no", "item_id", "item_code", "description", "quantity")
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
func (r *TransferRepo) GetByID(ctx context.Context, docID id.ID) (*transfer.Transfer, error) {
	sql, args, err := r.builder.Select(
		"id", "number", "date", "actor", "comment",
		"source_warehouse_id", "source_location_id",
		"dest_warehouse_id", "dest_location_id",
		"source", "dest", "created_at",
	).From(transfersTable).
		Where(squirrel.Eq{"id": docID}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc transfer.Transfer
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return &doc, nil
}

// GetLines retrieves the line set ordered by line number.
func (r *TransferRepo) GetLines(ctx context.Context, docID id.ID) ([]transfer.Line, error) {
	sql, args, err := r.builder.Select(
		"line_id", "line_no", "item_id", "item_code", "description", "quantity",
	).From(transferLinesTable).
		Where(squirrel.Eq{"transfer_id": docID}).
		OrderBy("line_no").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []transfer.Line
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}
	return lines, nil
}

// List retrieves headers matching the filter plus a total count. The
// warehouse filter matches either end of the transfer.
func (r *TransferRepo) List(ctx context.Context, filter transfer.ListFilter) ([]*transfer.Transfer, int, error) {
	where := squirrel.And{}
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

	countQ := r.builder.Select("count(*)").From(transfersTable)
	if len(where) > 0 {
		countQ = countQ.Where(where)
	}
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}

	q := r.builder.Select(
		"id", "number", "date", "actor", "comment",
		"source_warehouse_id", "source_location_id",
		"dest_warehouse_id", "dest_location_id",
		"source", "dest", "created_at",
	).From(transfersTable).
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

	var docs []*transfer.Transfer
	if err := pgxscan.Select(ctx, querier, &docs, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select transfers: %w", err)
	}
	return docs, total, nil
}

var _ transfer.Repository = (*TransferRepo)(nil)
