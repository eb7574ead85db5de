package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/domain/documents/delivery"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	deliveryNotesTable     = "delivery_notes"
	deliveryNoteLinesTable = "delivery_note_lines"
)

// DeliveryRepo implements delivery.Repository. The external number
// carries a unique index; a violating insert maps to DUPLICATE_DOCUMENT
// so the race that slips past the lock check still fails cleanly.
type DeliveryRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewDeliveryRepo creates a new delivery note repository.
func NewDeliveryRepo(txManager *postgres.TxManager) *DeliveryRepo {
	return &DeliveryRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the note header.
func (r *DeliveryRepo) Create(ctx context.Context, doc *delivery.Note) error {
	q := r.builder.Insert(deliveryNotesTable).
		Columns("id", "external_number", "direction", "warehouse_id", "warehouse_name",
			"actor", "observation", "status", "created_at").
		Values(doc.ID, doc.ExternalNumber, doc.Direction, doc.WarehouseID, doc.WarehouseName,
			doc.Actor, doc.Observation, doc.Status, doc.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicateDocument(delivery.DocumentType, doc.ExternalNumber)
		}
		return fmt.Errorf("insert delivery note: %w", err)
	}
	return nil
}

// SaveLines replaces the line set of a note.
func (r *DeliveryRepo) SaveLines(ctx context.Context, docID id.ID, lines []delivery.Line) error {
	querier := r.txManager.GetQuerier(ctx)

	del, args, err := r.builder.Delete(deliveryNoteLinesTable).
		Where(squirrel.Eq{"note_id": docID}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := querier.Exec(ctx, del, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(deliveryNoteLinesTable).
		Columns("line_id", "note_id", "line_no", "item_id", "item_code", "description", "quantity", "location_id")
	for _, l := range lines {
		q = q.Values(l.LineID, docID, l.LineNo, l.ItemID, l.ItemCode, l.Description, l.Quantity.Int64Scaled(), l.LocationID)
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
func (r *DeliveryRepo) GetByID(ctx context.Context, docID id.ID) (*delivery.Note, error) {
	sql, args, err := r.builder.Select(
		"id", "external_number", "direction", "warehouse_id", "warehouse_name",
		"actor", "observation", "status", "created_at",
	).From(deliveryNotesTable).
		Where(squirrel.Eq{"id": docID}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc delivery.Note
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery note: %w", err)
	}
	return &doc, nil
}

// GetByNumberForUpdate retrieves a note by external number with a row
// lock, (nil, nil) when the number is free.
func (r *DeliveryRepo) GetByNumberForUpdate(ctx context.Context, number string) (*delivery.Note, error) {
	sql := `
		SELECT id, external_number, direction, warehouse_id, warehouse_name,
		       actor, observation, status, created_at
		FROM delivery_notes
		WHERE external_number = $1
		FOR UPDATE
	`

	var doc delivery.Note
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &doc, sql, number); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		if postgres.IsLockTimeout(err) {
			return nil, apperror.NewLockTimeout(err)
		}
		return nil, fmt.Errorf("get delivery note by number: %w", err)
	}
	return &doc, nil
}

// GetLines retrieves the line set ordered by line number.
func (r *DeliveryRepo) GetLines(ctx context.Context, docID id.ID) ([]delivery.Line, error) {
	sql, args, err := r.builder.Select(
		"line_id", "line_no", "item_id", "item_code", "description", "quantity", "location_id",
	).From(deliveryNoteLinesTable).
		Where(squirrel.Eq{"note_id": docID}).
		OrderBy("line_no").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []delivery.Line
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}
	return lines, nil
}

// List retrieves headers matching the filter plus a total count.
func (r *DeliveryRepo) List(ctx context.Context, filter delivery.ListFilter) ([]*delivery.Note, int, error) {
	where := squirrel.And{}
	if filter.WarehouseID != nil {
		where = append(where, squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Direction != nil {
		where = append(where, squirrel.Eq{"direction": *filter.Direction})
	}
	if filter.DateFrom != nil {
		where = append(where, squirrel.GtOrEq{"created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, squirrel.LtOrEq{"created_at": *filter.DateTo})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("count(*)").From(deliveryNotesTable)
	if len(where) > 0 {
		countQ = countQ.Where(where)
	}
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count delivery notes: %w", err)
	}

	q := r.builder.Select(
		"id", "external_number", "direction", "warehouse_id", "warehouse_name",
		"actor", "observation", "status", "created_at",
	).From(deliveryNotesTable).
		OrderBy("created_at DESC")
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

	var docs []*delivery.Note
	if err := pgxscan.Select(ctx, querier, &docs, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select delivery notes: %w", err)
	}
	return docs, total, nil
}

var _ delivery.Repository = (*DeliveryRepo)(nil)
