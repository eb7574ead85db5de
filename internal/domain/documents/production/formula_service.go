package production

import (
	"context"
	"fmt"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/tx"
	"kardex/internal/core/types"
	"kardex/internal/domain/catalogs/item"
	"kardex/internal/domain/documents"
	"kardex/pkg/logger"
)

// FormulaService manages bills of materials.
type FormulaService struct {
	repo      FormulaRepository
	items     documents.ItemSource
	txManager tx.Manager
}

// NewFormulaService creates a new formula service.
func NewFormulaService(repo FormulaRepository, items documents.ItemSource, txManager tx.Manager) *FormulaService {
	return &FormulaService{repo: repo, items: items, txManager: txManager}
}

// Create registers a new formula. An item can have at most one formula;
// creating over an existing one is a conflict, use Replace instead.
func (s *FormulaService) Create(ctx context.Context, outputCode string, lines []FormulaLineInput) (*Formula, error) {
	var formula *Formula
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		output, resolved, err := s.resolve(ctx, outputCode, lines)
		if err != nil {
			return err
		}

		existing, err := s.repo.GetByOutputItemForUpdate(ctx, output.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewConflict(fmt.Sprintf("item %s already has a formula", output.Code)).
				WithDetail("item_code", output.Code)
		}

		formula = s.build(output, resolved)
		if err := s.repo.Upsert(ctx, formula); err != nil {
			return fmt.Errorf("create formula: %w", err)
		}
		return s.repo.ReplaceLines(ctx, formula.ID, formula.Lines)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "formula created", "output", formula.OutputItemCode, "inputs", len(formula.Lines))
	return formula, nil
}

// Replace rewrites the formula of an output item, creating it if
// absent. The line set is replaced wholesale in one transaction.
func (s *FormulaService) Replace(ctx context.Context, outputCode string, lines []FormulaLineInput) (*Formula, error) {
	var formula *Formula
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		output, resolved, err := s.resolve(ctx, outputCode, lines)
		if err != nil {
			return err
		}

		existing, err := s.repo.GetByOutputItemForUpdate(ctx, output.ID)
		if err != nil {
			return err
		}

		formula = s.build(output, resolved)
		if existing != nil {
			formula.ID = existing.ID
			formula.CreatedAt = existing.CreatedAt
		}

		if err := s.repo.Upsert(ctx, formula); err != nil {
			return fmt.Errorf("replace formula: %w", err)
		}
		return s.repo.ReplaceLines(ctx, formula.ID, formula.Lines)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "formula replaced", "output", formula.OutputItemCode, "inputs", len(formula.Lines))
	return formula, nil
}

// Get retrieves the formula of an output item.
func (s *FormulaService) Get(ctx context.Context, outputCode string) (*Formula, error) {
	code := item.NormalizeCode(outputCode)
	output, err := s.items.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve output item: %w", err)
	}
	if output == nil {
		return nil, apperror.NewUnknownReferences("items", []string{code})
	}

	formula, err := s.repo.GetByOutputItem(ctx, output.ID)
	if err != nil {
		return nil, err
	}
	if formula == nil {
		return nil, apperror.NewNoFormula(output.Code)
	}
	return formula, nil
}

// Delete removes the formula of an output item.
func (s *FormulaService) Delete(ctx context.Context, outputCode string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code := item.NormalizeCode(outputCode)
		output, err := s.items.GetByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("resolve output item: %w", err)
		}
		if output == nil {
			return apperror.NewUnknownReferences("items", []string{code})
		}

		formula, err := s.repo.GetByOutputItemForUpdate(ctx, output.ID)
		if err != nil {
			return err
		}
		if formula == nil {
			return apperror.NewNoFormula(output.Code)
		}
		return s.repo.Delete(ctx, formula.ID)
	})
}

type resolvedInput struct {
	item    *item.Item
	perUnit types.Quantity
}

// resolve validates a formula request: the output item must exist,
// inputs are consolidated by code with non-positive per-unit quantities
// dropped, the output must not be among its own inputs, and the net
// line set must not be empty.
func (s *FormulaService) resolve(ctx context.Context, outputCode string, lines []FormulaLineInput) (*item.Item, []resolvedInput, error) {
	code := item.NormalizeCode(outputCode)
	if code == "" {
		return nil, nil, apperror.NewValidation("output item code is required").WithDetail("field", "outputCode")
	}

	output, err := s.items.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve output item: %w", err)
	}
	if output == nil {
		return nil, nil, apperror.NewUnknownReferences("items", []string{code})
	}

	perUnit := make(map[string]types.Quantity, len(lines))
	order := make([]string, 0, len(lines))
	for _, l := range lines {
		inputCode := item.NormalizeCode(l.ItemCode)
		if inputCode == "" || !l.PerUnit.IsPositive() {
			continue
		}
		if _, seen := perUnit[inputCode]; !seen {
			order = append(order, inputCode)
		}
		perUnit[inputCode] = perUnit[inputCode].Add(l.PerUnit)
	}

	if len(order) == 0 {
		return nil, nil, apperror.NewValidation("formula has no effective input lines").WithDetail("field", "lines")
	}
	for _, inputCode := range order {
		if inputCode == output.Code {
			return nil, nil, apperror.NewSelfReferencingFormula(output.Code)
		}
	}

	inputs := make([]documents.LineInput, 0, len(order))
	for _, inputCode := range order {
		inputs = append(inputs, documents.LineInput{ItemCode: inputCode})
	}
	found, err := documents.ResolveItems(ctx, s.items, inputs)
	if err != nil {
		return nil, nil, err
	}

	resolved := make([]resolvedInput, 0, len(order))
	for _, inputCode := range order {
		resolved = append(resolved, resolvedInput{item: found[inputCode], perUnit: perUnit[inputCode]})
	}
	return output, resolved, nil
}

func (s *FormulaService) build(output *item.Item, inputs []resolvedInput) *Formula {
	now := time.Now().UTC()
	formula := &Formula{
		ID:             id.New(),
		OutputItemID:   output.ID,
		OutputItemCode: output.Code,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, in := range inputs {
		formula.Lines = append(formula.Lines, FormulaLine{
			ItemID:      in.item.ID,
			ItemCode:    in.item.Code,
			Description: in.item.Description,
			PerUnit:     in.perUnit,
		})
	}
	return formula
}
