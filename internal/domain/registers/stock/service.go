package stock

import (
	"context"
	"fmt"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/pkg/logger"
)

// Service provides availability checks and delta application over the
// balance register. Callers run it inside their posting transaction.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Requirement is one consolidated document line to check: the item and
// the positive quantity the document wants to take.
type Requirement struct {
	ItemID   id.ID
	ItemCode string
	Quantity types.Quantity
}

// Movement is one signed balance mutation.
type Movement struct {
	WarehouseID id.ID
	LocationID  id.ID
	ItemID      id.ID
	ItemCode    string
	Delta       types.Quantity
}

// AvailableInWarehouse locks all location rows of the item within the
// warehouse and returns their sum. The locks are held until the
// caller's transaction ends.
func (s *Service) AvailableInWarehouse(ctx context.Context, warehouseID, itemID id.ID) (types.Quantity, error) {
	balances, err := s.repo.GetWarehouseBalancesForUpdate(ctx, warehouseID, itemID)
	if err != nil {
		return 0, fmt.Errorf("lock warehouse balances: %w", err)
	}

	var total types.Quantity
	for _, b := range balances {
		total += b.Quantity
	}
	return total, nil
}

// CheckWarehouse validates that every requirement fits the warehouse-wide
// balance of its item. Every short line is collected; the error reports
// them all at once.
func (s *Service) CheckWarehouse(ctx context.Context, warehouseID id.ID, reqs []Requirement) error {
	var shortages []apperror.StockShortage
	for _, req := range reqs {
		available, err := s.AvailableInWarehouse(ctx, warehouseID, req.ItemID)
		if err != nil {
			return err
		}
		if available < req.Quantity {
			shortages = append(shortages, shortage(req, available))
		}
	}

	if len(shortages) > 0 {
		return apperror.NewInsufficientStock(shortages)
	}
	return nil
}

// CheckLocation validates requirements against one (warehouse, location)
// balance per item, locking each row.
func (s *Service) CheckLocation(ctx context.Context, warehouseID, locationID id.ID, reqs []Requirement) error {
	var shortages []apperror.StockShortage
	for _, req := range reqs {
		balance, err := s.repo.GetBalanceForUpdate(ctx, warehouseID, locationID, req.ItemID)
		if err != nil {
			return fmt.Errorf("lock balance for %s: %w", req.ItemCode, err)
		}
		if balance.Quantity < req.Quantity {
			shortages = append(shortages, shortage(req, balance.Quantity))
		}
	}

	if len(shortages) > 0 {
		return apperror.NewInsufficientStock(shortages)
	}
	return nil
}

// Apply posts every movement. Zero deltas are skipped. A movement that
// would drive its balance negative aborts the whole batch; with the
// availability checks done under the same locks this only fires when a
// caller skipped the check.
func (s *Service) Apply(ctx context.Context, movements []Movement) error {
	for _, m := range movements {
		if m.Delta.IsZero() {
			continue
		}

		newQty, err := s.repo.ApplyDelta(ctx, m.WarehouseID, m.LocationID, m.ItemID, m.Delta)
		if err != nil {
			return fmt.Errorf("apply delta for %s: %w", m.ItemCode, err)
		}

		if newQty.IsNegative() {
			return apperror.NewInsufficientStock([]apperror.StockShortage{{
				ItemCode:  m.ItemCode,
				Requested: m.Delta.Neg().String(),
				Available: newQty.Sub(m.Delta).String(),
				Resulting: newQty.String(),
			}})
		}
	}

	logger.Debug(ctx, "applied stock movements", "count", len(movements))
	return nil
}

func shortage(req Requirement, available types.Quantity) apperror.StockShortage {
	return apperror.StockShortage{
		ItemCode:  req.ItemCode,
		Requested: req.Quantity.String(),
		Available: available.String(),
		Resulting: available.Sub(req.Quantity).String(),
	}
}
