package documents

import (
	"bytes"
	"context"
	"fmt"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/domain/catalogs/warehouse"
)

// LockWarehousePair locks two warehouses for the posting transaction.
// Rows are acquired in ascending id order regardless of the argument
// order, so two transfers between the same pair of warehouses cannot
// deadlock on each other. Both missing warehouses are reported in one
// error.
func LockWarehousePair(ctx context.Context, repo warehouse.Repository, firstID, secondID id.ID) (*warehouse.Warehouse, *warehouse.Warehouse, error) {
	ids := []id.ID{firstID, secondID}
	if bytes.Compare(secondID[:], firstID[:]) < 0 {
		ids[0], ids[1] = ids[1], ids[0]
	}

	locked := make(map[id.ID]*warehouse.Warehouse, 2)
	var missing []string
	for _, whID := range ids {
		if _, done := locked[whID]; done {
			continue
		}
		wh, err := repo.GetForUpdate(ctx, whID)
		if err != nil {
			return nil, nil, fmt.Errorf("lock warehouse: %w", err)
		}
		if wh == nil {
			missing = append(missing, whID.String())
			continue
		}
		locked[whID] = wh
	}

	if len(missing) > 0 {
		return nil, nil, apperror.NewUnknownReferences("warehouses", missing)
	}

	return locked[firstID], locked[secondID], nil
}
