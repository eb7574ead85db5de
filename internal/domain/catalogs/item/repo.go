package item

import (
	"context"

	"kardex/internal/core/id"
)

// Repository defines item directory lookups.
// Methods return (nil, nil) when no row matches; absence is a business
// condition the callers turn into UNKNOWN_REFERENCE errors.
type Repository interface {
	// GetByID retrieves an item by id.
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	// GetByCode retrieves an item whose code or barcode matches the
	// normalized code.
	GetByCode(ctx context.Context, code string) (*Item, error)

	// GetByCodes resolves a set of normalized codes in one query.
	// The result is keyed by the matched code; codes with no match are
	// simply absent from the map.
	GetByCodes(ctx context.Context, codes []string) (map[string]*Item, error)
}
