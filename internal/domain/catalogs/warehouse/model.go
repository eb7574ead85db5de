// Package warehouse provides the warehouse directory (depósitos).
package warehouse

import (
	"strings"

	"kardex/internal/core/id"
)

// Warehouse is one physical storage site. Stock always lives at a
// location within a warehouse, never at the warehouse directly.
type Warehouse struct {
	ID       id.ID  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	IsActive bool   `db:"is_active" json:"isActive"`
}

// NormalizeName canonicalizes a warehouse name for lookups by name.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
