package adjustment

import (
	"context"
	"fmt"
	"strconv"

	"kardex/internal/core/actor"
	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/tx"
	"kardex/internal/domain/catalogs/location"
	"kardex/internal/domain/catalogs/warehouse"
	"kardex/internal/domain/documents"
	"kardex/internal/domain/registers/stock"
	"kardex/internal/domain/rules"
	"kardex/pkg/logger"
	"kardex/pkg/numerator"
)

// Service posts adjustment documents.
type Service struct {
	repo       Repository
	warehouses warehouse.Repository
	resolver   *location.Resolver
	stock      *stock.Service
	numerator  *numerator.Service
	guard      *rules.Guard
	audit      documents.AuditLogger
	txManager  tx.Manager
	items      ItemSource
}

// ItemSource is the slice of the item directory the service needs.
type ItemSource = documents.ItemSource

// NewService creates a new adjustment service.
func NewService(
	repo Repository,
	warehouses warehouse.Repository,
	items ItemSource,
	resolver *location.Resolver,
	stockSvc *stock.Service,
	num *numerator.Service,
	guard *rules.Guard,
	audit documents.AuditLogger,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		warehouses: warehouses,
		items:      items,
		resolver:   resolver,
		stock:      stockSvc,
		numerator:  num,
		guard:      guard,
		audit:      audit,
		txManager:  txManager,
	}
}

// Create validates, numbers and posts an adjustment atomically.
// Either the document, its lines and every balance delta commit
// together, or nothing does.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Adjustment, error) {
	if id.IsNil(req.WarehouseID) {
		return nil, apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}

	lines := documents.Consolidate(req.Lines)
	if len(lines) == 0 {
		return nil, apperror.NewValidation("document has no effective lines").WithDetail("field", "lines")
	}

	var doc *Adjustment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wh, err := s.warehouses.GetForUpdate(ctx, req.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return apperror.NewNotFound("warehouse", req.WarehouseID.String())
		}

		loc, err := s.resolver.Resolve(ctx, wh.ID, wh.Name, req.LocationID)
		if err != nil {
			return err
		}

		items, err := documents.ResolveItems(ctx, s.items, lines)
		if err != nil {
			return err
		}

		for _, l := range lines {
			err := s.guard.Check(rules.Input{
				Delta:     l.Quantity.Decimal().InexactFloat64(),
				Reason:    req.Reason,
				ItemCode:  l.ItemCode,
				Warehouse: wh.Name,
				Actor:     actor.Name(ctx),
			})
			if err != nil {
				return err
			}
		}

		// Availability is checked across the whole warehouse; the
		// delta lands at the resolved location.
		var reqs []stock.Requirement
		for _, l := range lines {
			if l.Quantity.IsNegative() {
				reqs = append(reqs, stock.Requirement{
					ItemID:   items[l.ItemCode].ID,
					ItemCode: l.ItemCode,
					Quantity: l.Quantity.Neg(),
				})
			}
		}
		if err := s.stock.CheckWarehouse(ctx, wh.ID, reqs); err != nil {
			return err
		}

		number, err := s.numerator.Next(ctx, numerator.SeriesAdjustment)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		doc = &Adjustment{
			Document:      entity.NewDocument(actor.Name(ctx)),
			WarehouseID:   wh.ID,
			WarehouseName: wh.Name,
			LocationID:    loc.ID,
			Reason:        req.Reason,
		}
		doc.Number = number
		doc.Comment = req.Comment

		movements := make([]stock.Movement, 0, len(lines))
		for i, l := range lines {
			it := items[l.ItemCode]
			doc.Lines = append(doc.Lines, Line{
				LineID:      id.New(),
				LineNo:      i + 1,
				ItemID:      it.ID,
				ItemCode:    l.ItemCode,
				Description: it.Description,
				Quantity:    l.Quantity,
			})
			movements = append(movements, stock.Movement{
				WarehouseID: wh.ID,
				LocationID:  loc.ID,
				ItemID:      it.ID,
				ItemCode:    l.ItemCode,
				Delta:       l.Quantity,
			})
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		if err := s.stock.Apply(ctx, movements); err != nil {
			return err
		}

		return s.audit.LogPosting(ctx, DocumentType, doc.ID, strconv.FormatInt(doc.Number, 10), doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "adjustment posted",
		"id", doc.ID,
		"number", doc.Number,
		"warehouse", doc.WarehouseName,
		"lines", len(doc.Lines),
	)
	return doc, nil
}

// GetByID retrieves an adjustment with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Adjustment, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NewNotFound("adjustment", docID.String())
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// List retrieves adjustments with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Adjustment, int, error) {
	return s.repo.List(ctx, filter)
}
