package production

import (
	"context"
	"fmt"
	"strconv"

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
	"kardex/pkg/numerator"
)

// OrderService posts production orders.
type OrderService struct {
	repo       OrderRepository
	formulas   FormulaRepository
	warehouses warehouse.Repository
	items      documents.ItemSource
	resolver   *location.Resolver
	stock      *stock.Service
	numerator  *numerator.Service
	audit      documents.AuditLogger
	txManager  tx.Manager
}

// NewOrderService creates a new production order service.
func NewOrderService(
	repo OrderRepository,
	formulas FormulaRepository,
	warehouses warehouse.Repository,
	items documents.ItemSource,
	resolver *location.Resolver,
	stockSvc *stock.Service,
	num *numerator.Service,
	audit documents.AuditLogger,
	txManager tx.Manager,
) *OrderService {
	return &OrderService{
		repo:       repo,
		formulas:   formulas,
		warehouses: warehouses,
		items:      items,
		resolver:   resolver,
		stock:      stockSvc,
		numerator:  num,
		audit:      audit,
		txManager:  txManager,
	}
}

// Create validates, numbers and posts a production order atomically.
// The order is all-or-nothing: a shortfall on any input blocks every
// consumption, and the output is only credited when all inputs commit.
func (s *OrderService) Create(ctx context.Context, req OrderRequest) (*Order, error) {
	if id.IsNil(req.SourceWarehouseID) {
		return nil, apperror.NewValidation("source warehouse is required").WithDetail("field", "sourceWarehouseId")
	}
	if id.IsNil(req.DestWarehouseID) {
		return nil, apperror.NewValidation("destination warehouse is required").WithDetail("field", "destWarehouseId")
	}
	if !req.Quantity.IsPositive() {
		return nil, apperror.NewValidation("order quantity must be positive").WithDetail("field", "quantity")
	}

	outputCode := item.NormalizeCode(req.OutputCode)
	if outputCode == "" {
		return nil, apperror.NewValidation("output item code is required").WithDetail("field", "outputCode")
	}

	var doc *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		source, dest, err := documents.LockWarehousePair(ctx, s.warehouses, req.SourceWarehouseID, req.DestWarehouseID)
		if err != nil {
			return err
		}

		sourceLoc, err := s.resolver.ResolveDefault(ctx, source.ID, source.Name)
		if err != nil {
			return err
		}
		destLoc, err := s.resolver.ResolveDefault(ctx, dest.ID, dest.Name)
		if err != nil {
			return err
		}

		output, err := s.items.GetByCode(ctx, outputCode)
		if err != nil {
			return fmt.Errorf("resolve output item: %w", err)
		}
		if output == nil {
			return apperror.NewUnknownReferences("items", []string{outputCode})
		}

		formula, err := s.formulas.GetByOutputItem(ctx, output.ID)
		if err != nil {
			return err
		}
		if formula == nil {
			return apperror.NewNoFormula(output.Code)
		}

		reqs := make([]stock.Requirement, 0, len(formula.Lines))
		for _, fl := range formula.Lines {
			reqs = append(reqs, stock.Requirement{
				ItemID:   fl.ItemID,
				ItemCode: fl.ItemCode,
				Quantity: fl.PerUnit.Mul(req.Quantity),
			})
		}
		if err := s.stock.CheckLocation(ctx, source.ID, sourceLoc.ID, reqs); err != nil {
			return err
		}

		number, err := s.numerator.Next(ctx, numerator.SeriesProductionOrder)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		doc = &Order{
			Document:          entity.NewDocument(actor.Name(ctx)),
			OutputItemID:      output.ID,
			OutputItemCode:    output.Code,
			OutputDescription: output.Description,
			Quantity:          req.Quantity,
			SourceWarehouseID: source.ID,
			SourceLocationID:  sourceLoc.ID,
			DestWarehouseID:   dest.ID,
			DestLocationID:    destLoc.ID,
		}
		doc.Number = number
		doc.Comment = req.Comment

		movements := make([]stock.Movement, 0, len(formula.Lines)+1)
		for i, fl := range formula.Lines {
			consumed := fl.PerUnit.Mul(req.Quantity)
			doc.Lines = append(doc.Lines, OrderLine{
				LineID:      id.New(),
				LineNo:      i + 1,
				ItemID:      fl.ItemID,
				ItemCode:    fl.ItemCode,
				Description: fl.Description,
				Consumed:    consumed,
			})
			movements = append(movements, stock.Movement{
				WarehouseID: source.ID,
				LocationID:  sourceLoc.ID,
				ItemID:      fl.ItemID,
				ItemCode:    fl.ItemCode,
				Delta:       consumed.Neg(),
			})
		}
		movements = append(movements, stock.Movement{
			WarehouseID: dest.ID,
			LocationID:  destLoc.ID,
			ItemID:      output.ID,
			ItemCode:    output.Code,
			Delta:       req.Quantity,
		})

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

	logger.Info(ctx, "production order posted",
		"id", doc.ID,
		"number", doc.Number,
		"output", doc.OutputItemCode,
		"quantity", doc.Quantity,
		"inputs", len(doc.Lines),
	)
	return doc, nil
}

// GetByID retrieves a production order with lines.
func (s *OrderService) GetByID(ctx context.Context, docID id.ID) (*Order, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NewNotFound("production order", docID.String())
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// List retrieves production orders with filtering.
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]*Order, int, error) {
	return s.repo.List(ctx, filter)
}
