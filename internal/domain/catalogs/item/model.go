// Package item provides the item directory (artículos).
// The directory itself is maintained elsewhere; the ledger only
// resolves codes to ids and snapshots descriptions onto document lines.
package item

import (
	"strings"

	"kardex/internal/core/id"
)

// Item is one entry of the item directory.
type Item struct {
	ID id.ID `db:"id" json:"id"`

	// Code is the normalized business code (upper-cased, trimmed).
	Code string `db:"code" json:"code"`

	// Barcode optionally identifies the item on scanners. Lookups by
	// code match either field.
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	Description string `db:"description" json:"description"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NormalizeCode canonicalizes an item code for comparison and storage.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
