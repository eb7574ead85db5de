// Package documents holds pieces shared by all stock document types:
// raw line consolidation, batch item resolution and the audit contract.
package documents

import (
	"context"
	"fmt"
	"sort"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/catalogs/item"
)

// LineInput is one raw request line before consolidation.
type LineInput struct {
	ItemCode   string         `json:"itemCode"`
	Quantity   types.Quantity `json:"quantity"`
	LocationID *id.ID         `json:"locationId,omitempty"`
}

type lineKey struct {
	code     string
	location id.ID
}

// Consolidate merges duplicate lines by (normalized code, location),
// summing quantities. Lines that net to zero are dropped. The first
// appearance of each key fixes its position in the output.
func Consolidate(lines []LineInput) []LineInput {
	merged := make(map[lineKey]*LineInput, len(lines))
	order := make([]lineKey, 0, len(lines))

	for _, l := range lines {
		code := item.NormalizeCode(l.ItemCode)
		if code == "" {
			continue
		}

		key := lineKey{code: code}
		if l.LocationID != nil {
			key.location = *l.LocationID
		}

		if existing, ok := merged[key]; ok {
			existing.Quantity += l.Quantity
			continue
		}

		copied := l
		copied.ItemCode = code
		merged[key] = &copied
		order = append(order, key)
	}

	out := make([]LineInput, 0, len(order))
	for _, key := range order {
		l := merged[key]
		if l.Quantity.IsZero() {
			continue
		}
		out = append(out, *l)
	}
	return out
}

// ResolveItems resolves every line's code against the item directory.
// All unknown codes are reported together in one error so the caller
// can fix the whole document at once.
func ResolveItems(ctx context.Context, repo item.Repository, lines []LineInput) (map[string]*item.Item, error) {
	codes := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		code := item.NormalizeCode(l.ItemCode)
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}

	found, err := repo.GetByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("resolve items: %w", err)
	}

	var missing []string
	for _, code := range codes {
		if found[code] == nil {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperror.NewUnknownReferences("items", missing)
	}

	return found, nil
}

// ItemSource is the item directory surface document services use.
type ItemSource = item.Repository

// AuditLogger records a posted document. Implemented by the postgres
// audit service; called inside the posting transaction.
type AuditLogger interface {
	LogPosting(ctx context.Context, docType string, docID id.ID, number string, payload any) error
}
