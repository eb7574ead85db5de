package transfer

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
	"kardex/pkg/logger"
	"kardex/pkg/numerator"
)

// Service posts transfer documents.
type Service struct {
	repo       Repository
	warehouses warehouse.Repository
	items      documents.ItemSource
	resolver   *location.Resolver
	stock      *stock.Service
	numerator  *numerator.Service
	audit      documents.AuditLogger
	txManager  tx.Manager
}

// NewService creates a new transfer service.
func NewService(
	repo Repository,
	warehouses warehouse.Repository,
	items documents.ItemSource,
	resolver *location.Resolver,
	stockSvc *stock.Service,
	num *numerator.Service,
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
		audit:      audit,
		txManager:  txManager,
	}
}

// Create validates, numbers and posts a transfer atomically. Every
// moved quantity leaves the source and arrives at the destination in
// the same transaction, so the total across locations is conserved.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Transfer, error) {
	if id.IsNil(req.SourceWarehouseID) {
		return nil, apperror.NewValidation("source warehouse is required").WithDetail("field", "sourceWarehouseId")
	}
	if id.IsNil(req.DestWarehouseID) {
		return nil, apperror.NewValidation("destination warehouse is required").WithDetail("field", "destWarehouseId")
	}

	lines := documents.Consolidate(req.Lines)
	if len(lines) == 0 {
		return nil, apperror.NewValidation("document has no effective lines").WithDetail("field", "lines")
	}
	for _, l := range lines {
		if !l.Quantity.IsPositive() {
			return nil, apperror.NewValidation("transfer quantities must be positive").
				WithDetail("item_code", l.ItemCode)
		}
	}

	var doc *Transfer
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		source, dest, err := documents.LockWarehousePair(ctx, s.warehouses, req.SourceWarehouseID, req.DestWarehouseID)
		if err != nil {
			return err
		}

		sourceLoc, err := s.resolver.Resolve(ctx, source.ID, source.Name, req.SourceLocationID)
		if err != nil {
			return err
		}
		destLoc, err := s.resolver.Resolve(ctx, dest.ID, dest.Name, req.DestLocationID)
		if err != nil {
			return err
		}

		if source.ID == dest.ID && sourceLoc.ID == destLoc.ID {
			return apperror.NewValidation("source and destination are the same location").
				WithDetail("warehouse", source.Name).
				WithDetail("location", sourceLoc.Name)
		}

		items, err := documents.ResolveItems(ctx, s.items, lines)
		if err != nil {
			return err
		}

		reqs := make([]stock.Requirement, 0, len(lines))
		for _, l := range lines {
			reqs = append(reqs, stock.Requirement{
				ItemID:   items[l.ItemCode].ID,
				ItemCode: l.ItemCode,
				Quantity: l.Quantity,
			})
		}
		if err := s.stock.CheckLocation(ctx, source.ID, sourceLoc.ID, reqs); err != nil {
			return err
		}

		number, err := s.numerator.Next(ctx, numerator.SeriesTransfer)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		doc = &Transfer{
			Document:          entity.NewDocument(actor.Name(ctx)),
			SourceWarehouseID: source.ID,
			SourceLocationID:  sourceLoc.ID,
			DestWarehouseID:   dest.ID,
			DestLocationID:    destLoc.ID,
			Source:            displayName(source.Name, sourceLoc.Name),
			Dest:              displayName(dest.Name, destLoc.Name),
		}
		doc.Number = number
		doc.Comment = req.Comment

		movements := make([]stock.Movement, 0, 2*len(lines))
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
			movements = append(movements,
				stock.Movement{
					WarehouseID: source.ID,
					LocationID:  sourceLoc.ID,
					ItemID:      it.ID,
					ItemCode:    l.ItemCode,
					Delta:       l.Quantity.Neg(),
				},
				stock.Movement{
					WarehouseID: dest.ID,
					LocationID:  destLoc.ID,
					ItemID:      it.ID,
					ItemCode:    l.ItemCode,
					Delta:       l.Quantity,
				},
			)
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

	logger.Info(ctx, "transfer posted",
		"id", doc.ID,
		"number", doc.Number,
		"source", doc.Source,
		"dest", doc.Dest,
		"lines", len(doc.Lines),
	)
	return doc, nil
}

// GetByID retrieves a transfer with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Transfer, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NewNotFound("transfer", docID.String())
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// List retrieves transfers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transfer, int, error) {
	return s.repo.List(ctx, filter)
}

func displayName(warehouseName, locationName string) string {
	return warehouseName + " - " + locationName
}
