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
	"kardex/internal/core/types"
	"kardex/internal/domain/catalogs/item"
	"kardex/internal/domain/catalogs/location"
	"kardex/internal/domain/catalogs/warehouse"
	"kardex/internal/domain/registers/stock"
	"kardex/pkg/logger"
	"kardex/pkg/numerator"
)

// ConsumptionReason is the reason recorded on generated adjustments.
const ConsumptionReason = "CONSUMO PRODUCCIÓN (DROPBOX)"

// FileStore fetches and stores report files by opaque reference.
type FileStore interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
	Store(ctx context.Context, ref string, data []byte) error
}

// ReportCodec decodes and re-encodes the consumption report. The
// ledger never parses spreadsheets itself; the codec is injected.
type ReportCodec interface {
	Decode(data []byte) (*ConsumptionReport, error)
	Encode(report *ConsumptionReport) ([]byte, error)
}

// SettingsSource reads application settings ("" when absent).
type SettingsSource interface {
	Get(ctx context.Context, key string) (string, error)
}

// ConsumptionReport is the decoded report: one row per material with
// the expected consumption and what was already recorded.
type ConsumptionReport struct {
	Rows []ConsumptionRow
}

// ConsumptionRow is one material row. Row is the 1-based position in
// the source file, for error reporting.
type ConsumptionRow struct {
	Row      int
	ItemCode string
	Expected types.Quantity
	Actual   types.Quantity
}

// ConsumptionFailure is one row that could not be consumed. Failures
// never abort the run; they are collected and reported.
type ConsumptionFailure struct {
	Row      int            `json:"row"`
	ItemCode string         `json:"itemCode,omitempty"`
	Reason   string         `json:"reason"`
	Missing  types.Quantity `json:"missing,omitempty"`
}

// ConsumptionResult summarizes one run.
type ConsumptionResult struct {
	AdjustmentID     *id.ID               `json:"adjustmentId,omitempty"`
	AdjustmentNumber int64                `json:"adjustmentNumber,omitempty"`
	Consumed         int                  `json:"consumed"`
	Failures         []ConsumptionFailure `json:"failures,omitempty"`
}

// ConsumptionConfig parameterizes the run.
type ConsumptionConfig struct {
	// Warehouse is the name of the warehouse absorbing the deltas.
	Warehouse string

	// FileSettingKey is the settings key holding the report reference.
	FileSettingKey string
}

// ConsumptionService turns the production consumption report into one
// consolidated negative adjustment per run.
type ConsumptionService struct {
	cfg        ConsumptionConfig
	repo       Repository
	warehouses warehouse.Repository
	items      item.Repository
	resolver   *location.Resolver
	stock      *stock.Service
	stockRepo  stock.Repository
	numerator  *numerator.Service
	audit      interface {
		LogPosting(ctx context.Context, docType string, docID id.ID, number string, payload any) error
	}
	settings  SettingsSource
	files     FileStore
	codec     ReportCodec
	txManager tx.Manager
}

// NewConsumptionService wires the consumption run.
func NewConsumptionService(
	cfg ConsumptionConfig,
	repo Repository,
	warehouses warehouse.Repository,
	items item.Repository,
	resolver *location.Resolver,
	stockSvc *stock.Service,
	stockRepo stock.Repository,
	num *numerator.Service,
	audit interface {
		LogPosting(ctx context.Context, docType string, docID id.ID, number string, payload any) error
	},
	settings SettingsSource,
	files FileStore,
	codec ReportCodec,
	txManager tx.Manager,
) *ConsumptionService {
	return &ConsumptionService{
		cfg:        cfg,
		repo:       repo,
		warehouses: warehouses,
		items:      items,
		resolver:   resolver,
		stock:      stockSvc,
		stockRepo:  stockRepo,
		numerator:  num,
		audit:      audit,
		settings:   settings,
		files:      files,
		codec:      codec,
		txManager:  txManager,
	}
}

// Run executes one consumption pass:
//
//  1. fetch the report via the reference stored in settings
//  2. for every row where actual < expected, consume the whole-unit
//     difference from the configured warehouse's default location
//  3. rows that fail (unknown code, shortage) are collected, not fatal
//  4. if anything was consumed, post one consolidated adjustment as
//     "sistema" and write the report back with actual = expected
//
// When nothing is consumable no document is created and the report is
// left untouched.
func (s *ConsumptionService) Run(ctx context.Context) (*ConsumptionResult, error) {
	ctx = actor.WithActor(ctx, actor.Actor{Name: actor.System})

	ref, err := s.settings.Get(ctx, s.cfg.FileSettingKey)
	if err != nil {
		return nil, fmt.Errorf("read setting %s: %w", s.cfg.FileSettingKey, err)
	}
	if ref == "" {
		return nil, apperror.NewValidation("consumption file reference is not configured").
			WithDetail("setting", s.cfg.FileSettingKey)
	}

	data, err := s.files.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch report: %w", err)
	}

	report, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	result := &ConsumptionResult{}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wh, err := s.warehouses.GetByNameForUpdate(ctx, s.cfg.Warehouse)
		if err != nil {
			return err
		}
		if wh == nil {
			return apperror.NewNotFound("warehouse", s.cfg.Warehouse)
		}

		loc, err := s.resolver.ResolveDefault(ctx, wh.ID, wh.Name)
		if err != nil {
			return err
		}

		type consumed struct {
			item  *item.Item
			delta types.Quantity
		}
		var order []string
		totals := make(map[string]*consumed)
		var movements []stock.Movement

		for i := range report.Rows {
			row := &report.Rows[i]

			if row.ItemCode == "" {
				result.Failures = append(result.Failures, ConsumptionFailure{
					Row: row.Row, Reason: "empty item code",
				})
				continue
			}
			if row.Actual >= row.Expected {
				continue
			}

			// Whole units only, truncated.
			delta := types.NewQuantityFromDecimal(row.Expected.Sub(row.Actual).Decimal().Truncate(0))
			if !delta.IsPositive() {
				continue
			}

			code := item.NormalizeCode(row.ItemCode)
			it, err := s.items.GetByCode(ctx, code)
			if err != nil {
				return fmt.Errorf("resolve item %s: %w", code, err)
			}
			if it == nil {
				result.Failures = append(result.Failures, ConsumptionFailure{
					Row: row.Row, ItemCode: code, Reason: "unknown item code",
				})
				continue
			}

			balance, err := s.stockRepo.GetBalanceForUpdate(ctx, wh.ID, loc.ID, it.ID)
			if err != nil {
				return err
			}
			if balance.Quantity < delta {
				result.Failures = append(result.Failures, ConsumptionFailure{
					Row: row.Row, ItemCode: code,
					Reason:  "insufficient stock",
					Missing: delta.Sub(balance.Quantity),
				})
				continue
			}

			movements = append(movements, stock.Movement{
				WarehouseID: wh.ID,
				LocationID:  loc.ID,
				ItemID:      it.ID,
				ItemCode:    it.Code,
				Delta:       delta.Neg(),
			})

			if agg, ok := totals[it.Code]; ok {
				agg.delta = agg.delta.Add(delta)
			} else {
				totals[it.Code] = &consumed{item: it, delta: delta}
				order = append(order, it.Code)
			}

			row.Actual = row.Expected
			result.Consumed++
		}

		if result.Consumed == 0 {
			return nil
		}

		number, err := s.numerator.Next(ctx, numerator.SeriesAdjustment)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		doc := &Adjustment{
			Document:      entity.NewDocument(actor.System),
			WarehouseID:   wh.ID,
			WarehouseName: wh.Name,
			LocationID:    loc.ID,
			Reason:        ConsumptionReason,
		}
		doc.Number = number
		for i, code := range order {
			agg := totals[code]
			doc.Lines = append(doc.Lines, Line{
				LineID:      id.New(),
				LineNo:      i + 1,
				ItemID:      agg.item.ID,
				ItemCode:    agg.item.Code,
				Description: agg.item.Description,
				Quantity:    agg.delta.Neg(),
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
		if err := s.audit.LogPosting(ctx, DocumentType, doc.ID, strconv.FormatInt(number, 10), doc); err != nil {
			return err
		}

		// Write the updated report back before committing: if the
		// upload fails the whole run rolls back and the report still
		// shows the unconsumed quantities.
		updated, err := s.codec.Encode(report)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := s.files.Store(ctx, ref, updated); err != nil {
			return fmt.Errorf("store report: %w", err)
		}

		result.AdjustmentID = &doc.ID
		result.AdjustmentNumber = number
		logger.Info(ctx, "production consumption posted",
			"number", number, "consumed", result.Consumed, "failed", len(result.Failures))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Consumed == 0 {
		logger.Info(ctx, "production consumption: nothing to adjust", "failed", len(result.Failures))
	}
	return result, nil
}
