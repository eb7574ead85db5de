package production

import (
	"context"

	"kardex/internal/core/id"
)

// FormulaRepository defines persistence for formulas.
// Get methods return (nil, nil) when no formula exists.
type FormulaRepository interface {
	// GetByOutputItem retrieves the formula of an output item, with lines.
	GetByOutputItem(ctx context.Context, outputItemID id.ID) (*Formula, error)

	// GetByOutputItemForUpdate is GetByOutputItem with a header row lock,
	// used by replace/delete to serialize concurrent rewrites.
	GetByOutputItemForUpdate(ctx context.Context, outputItemID id.ID) (*Formula, error)

	// Upsert inserts or updates the formula header.
	Upsert(ctx context.Context, f *Formula) error

	// ReplaceLines deletes the existing line set and inserts the new one.
	ReplaceLines(ctx context.Context, formulaID id.ID, lines []FormulaLine) error

	// Delete removes the formula and its lines.
	Delete(ctx context.Context, formulaID id.ID) error
}
