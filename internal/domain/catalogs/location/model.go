// Package location provides warehouse locations (ubicaciones) and the
// resolution rules documents use to pick one.
package location

import (
	"strings"

	"kardex/internal/core/id"
)

// DefaultName is the conventional fallback location name. Data imported
// from the legacy system marks its fallback location "GENERAL" instead
// of carrying an explicit default flag.
const DefaultName = "GENERAL"

// Location is one storage spot within a warehouse.
type Location struct {
	ID          id.ID  `db:"id" json:"id"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Name        string `db:"name" json:"name"`
	IsActive    bool   `db:"is_active" json:"isActive"`
	IsDefault   bool   `db:"is_default" json:"isDefault"`
}

// NormalizeName canonicalizes a location name for lookups by name.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
