package delivery

import (
	"context"
	"fmt"
	"strings"

	"kardex/internal/core/actor"
	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/tx"
	"kardex/internal/domain/catalogs/item"
	"kardex/internal/domain/catalogs/location"
	"kardex/internal/domain/catalogs/warehouse"
	"kardex/internal/domain/documents"
	"kardex/internal/domain/registers/stock"
	"kardex/pkg/logger"
)

// Service posts delivery notes.
type Service struct {
	repo       Repository
	warehouses warehouse.Repository
	items      documents.ItemSource
	resolver   *location.Resolver
	stock      *stock.Service
	audit      documents.AuditLogger
	txManager  tx.Manager
}

// NewService creates a new delivery note service.
func NewService(
	repo Repository,
	warehouses warehouse.Repository,
	items documents.ItemSource,
	resolver *location.Resolver,
	stockSvc *stock.Service,
	audit documents.AuditLogger,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		warehouses: warehouses,
		items:      items,
		resolver:   resolver,
		stock:      stockSvc,
		audit:      audit,
		txManager:  txManager,
	}
}

// Create validates and posts a delivery note atomically. The external
// number is checked under lock inside the posting transaction, so a
// duplicate submission can never partially apply.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Note, error) {
	number := strings.TrimSpace(req.Number)
	if number == "" {
		return nil, apperror.NewValidation("document number is required").WithDetail("field", "number")
	}
	if !req.Direction.Valid() {
		return nil, apperror.NewValidation("direction must be ENTRADA or SALIDA").WithDetail("field", "direction")
	}
	if (req.WarehouseID == nil || id.IsNil(*req.WarehouseID)) && strings.TrimSpace(req.WarehouseName) == "" {
		return nil, apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}

	lines := consolidate(req.Lines)
	if len(lines) == 0 {
		return nil, apperror.NewValidation("document has no effective lines").WithDetail("field", "lines")
	}
	for _, l := range lines {
		if !l.Quantity.IsPositive() {
			return nil, apperror.NewValidation("delivery quantities must be positive").
				WithDetail("item_code", l.ItemCode)
		}
	}

	var doc *Note
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewDuplicateDocument(DocumentType, number)
		}

		wh, err := s.lockWarehouse(ctx, req)
		if err != nil {
			return err
		}

		shared := make([]documents.LineInput, len(lines))
		for i, l := range lines {
			shared[i] = documents.LineInput{ItemCode: l.ItemCode, Quantity: l.Quantity, LocationID: l.LocationID}
		}
		items, err := documents.ResolveItems(ctx, s.items, shared)
		if err != nil {
			return err
		}

		// Lines may target different locations of the warehouse; each
		// is resolved independently.
		resolved := make([]id.ID, len(lines))
		for i, l := range lines {
			loc, err := s.resolver.Resolve(ctx, wh.ID, wh.Name, l.LocationID)
			if err != nil {
				return err
			}
			resolved[i] = loc.ID
		}

		if req.Direction == DirectionOut {
			if err := s.checkAvailability(ctx, wh.ID, lines, resolved, items); err != nil {
				return err
			}
		}

		doc = &Note{
			Base:           entity.NewBase(),
			ExternalNumber: number,
			Direction:      req.Direction,
			WarehouseID:    wh.ID,
			WarehouseName:  wh.Name,
			Actor:          actor.Name(ctx),
			Observation:    req.Observation,
			Status:         StatusConfirmed,
		}

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
				LocationID:  resolved[i],
			})

			delta := l.Quantity
			if req.Direction == DirectionOut {
				delta = delta.Neg()
			}
			movements = append(movements, stock.Movement{
				WarehouseID: wh.ID,
				LocationID:  resolved[i],
				ItemID:      it.ID,
				ItemCode:    l.ItemCode,
				Delta:       delta,
			})
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		if err := s.stock.Apply(ctx, movements); err != nil {
			return err
		}

		return s.audit.LogPosting(ctx, DocumentType, doc.ID, doc.ExternalNumber, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery note posted",
		"id", doc.ID,
		"number", doc.ExternalNumber,
		"direction", doc.Direction,
		"warehouse", doc.WarehouseName,
		"lines", len(doc.Lines),
	)
	return doc, nil
}

// GetByID retrieves a delivery note with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Note, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NewNotFound("delivery note", docID.String())
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// List retrieves delivery notes with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Note, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) lockWarehouse(ctx context.Context, req CreateRequest) (*warehouse.Warehouse, error) {
	if req.WarehouseID != nil && !id.IsNil(*req.WarehouseID) {
		wh, err := s.warehouses.GetForUpdate(ctx, *req.WarehouseID)
		if err != nil {
			return nil, err
		}
		if wh == nil {
			return nil, apperror.NewNotFound("warehouse", req.WarehouseID.String())
		}
		return wh, nil
	}

	wh, err := s.warehouses.GetByNameForUpdate(ctx, req.WarehouseName)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, apperror.NewNotFound("warehouse", req.WarehouseName)
	}
	return wh, nil
}

// checkAvailability verifies SALIDA lines per (location, item) balance,
// collecting shortages across every location of the note. Lines that
// resolve to the same location and item are summed first: a nil-location
// line and an explicit line can land on the same balance row, and each
// half passing alone must not let their sum overdraw it.
func (s *Service) checkAvailability(ctx context.Context, warehouseID id.ID, lines []LineInput, resolved []id.ID, items map[string]*item.Item) error {
	type reqKey struct {
		location id.ID
		item     id.ID
	}

	grouped := make(map[id.ID][]stock.Requirement)
	index := make(map[reqKey]int)
	order := make([]id.ID, 0, len(lines))
	for i, l := range lines {
		locID := resolved[i]
		itemID := items[l.ItemCode].ID

		if pos, seen := index[reqKey{locID, itemID}]; seen {
			grouped[locID][pos].Quantity += l.Quantity
			continue
		}

		if _, seen := grouped[locID]; !seen {
			order = append(order, locID)
		}
		index[reqKey{locID, itemID}] = len(grouped[locID])
		grouped[locID] = append(grouped[locID], stock.Requirement{
			ItemID:   itemID,
			ItemCode: l.ItemCode,
			Quantity: l.Quantity,
		})
	}

	var shortages []apperror.StockShortage
	for _, locID := range order {
		err := s.stock.CheckLocation(ctx, warehouseID, locID, grouped[locID])
		if err == nil {
			continue
		}
		appErr, ok := apperror.AsAppError(err)
		if !ok || appErr.Code != apperror.CodeInsufficientStock {
			return err
		}
		shortages = append(shortages, appErr.Details["shortages"].([]apperror.StockShortage)...)
	}

	if len(shortages) > 0 {
		return apperror.NewInsufficientStock(shortages)
	}
	return nil
}

// consolidate merges duplicate (code, location) lines, keeping
// first-appearance order and dropping lines with an empty code.
func consolidate(lines []LineInput) []LineInput {
	shared := make([]documents.LineInput, len(lines))
	for i, l := range lines {
		shared[i] = documents.LineInput{ItemCode: l.ItemCode, Quantity: l.Quantity, LocationID: l.LocationID}
	}

	merged := documents.Consolidate(shared)
	out := make([]LineInput, len(merged))
	for i, l := range merged {
		out[i] = LineInput{ItemCode: l.ItemCode, Quantity: l.Quantity, LocationID: l.LocationID}
	}
	return out
}
