package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

type balanceKey struct {
	warehouse id.ID
	location  id.ID
	item      id.ID
}

type fakeRepo struct {
	balances map[balanceKey]types.Quantity
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: make(map[balanceKey]types.Quantity)}
}

func (f *fakeRepo) set(w, l, i id.ID, q types.Quantity) {
	f.balances[balanceKey{w, l, i}] = q
}

func (f *fakeRepo) ApplyDelta(_ context.Context, w, l, i id.ID, delta types.Quantity) (types.Quantity, error) {
	key := balanceKey{w, l, i}
	f.balances[key] += delta
	return f.balances[key], nil
}

func (f *fakeRepo) GetBalance(_ context.Context, w, l, i id.ID) (Balance, error) {
	return Balance{WarehouseID: w, LocationID: l, ItemID: i, Quantity: f.balances[balanceKey{w, l, i}]}, nil
}

func (f *fakeRepo) GetBalanceForUpdate(ctx context.Context, w, l, i id.ID) (Balance, error) {
	return f.GetBalance(ctx, w, l, i)
}

func (f *fakeRepo) GetWarehouseBalancesForUpdate(_ context.Context, w, i id.ID) ([]Balance, error) {
	var out []Balance
	for key, qty := range f.balances {
		if key.warehouse == w && key.item == i {
			out = append(out, Balance{WarehouseID: w, LocationID: key.location, ItemID: i, Quantity: qty})
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByWarehouse(_ context.Context, w id.ID, filter BalanceFilter) ([]Balance, error) {
	var out []Balance
	for key, qty := range f.balances {
		if key.warehouse != w {
			continue
		}
		if filter.ExcludeZero && qty.IsZero() {
			continue
		}
		out = append(out, Balance{WarehouseID: w, LocationID: key.location, ItemID: key.item, Quantity: qty, UpdatedAt: time.Now()})
	}
	return out, nil
}

func (f *fakeRepo) ListByItem(_ context.Context, i id.ID) ([]Balance, error) {
	var out []Balance
	for key, qty := range f.balances {
		if key.item == i {
			out = append(out, Balance{WarehouseID: key.warehouse, LocationID: key.location, ItemID: i, Quantity: qty})
		}
	}
	return out, nil
}

func TestAvailableInWarehouse_SumsLocations(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	wh, itemID := id.New(), id.New()
	repo.set(wh, id.New(), itemID, types.NewQuantityFromInt(3))
	repo.set(wh, id.New(), itemID, types.NewQuantityFromInt(7))
	repo.set(id.New(), id.New(), itemID, types.NewQuantityFromInt(100)) // other warehouse

	svc := NewService(repo)
	total, err := svc.AvailableInWarehouse(ctx, wh, itemID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), total)
}

func TestCheckWarehouse_CollectsAllShortages(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	wh, loc := id.New(), id.New()
	itemA, itemB, itemC := id.New(), id.New(), id.New()
	repo.set(wh, loc, itemA, types.NewQuantityFromInt(5))
	repo.set(wh, loc, itemB, types.NewQuantityFromInt(1))
	repo.set(wh, loc, itemC, types.NewQuantityFromInt(50))

	svc := NewService(repo)
	err := svc.CheckWarehouse(ctx, wh, []Requirement{
		{ItemID: itemA, ItemCode: "A", Quantity: types.NewQuantityFromInt(10)},
		{ItemID: itemB, ItemCode: "B", Quantity: types.NewQuantityFromInt(2)},
		{ItemID: itemC, ItemCode: "C", Quantity: types.NewQuantityFromInt(3)},
	})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	shortages := appErr.Details["shortages"].([]apperror.StockShortage)
	require.Len(t, shortages, 2)
	codes := []string{shortages[0].ItemCode, shortages[1].ItemCode}
	assert.ElementsMatch(t, []string{"A", "B"}, codes)
}

func TestCheckLocation_ScopedToLocation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	wh, locA, locB := id.New(), id.New(), id.New()
	itemID := id.New()
	repo.set(wh, locA, itemID, types.NewQuantityFromInt(1))
	repo.set(wh, locB, itemID, types.NewQuantityFromInt(9))

	svc := NewService(repo)
	reqs := []Requirement{{ItemID: itemID, ItemCode: "X", Quantity: types.NewQuantityFromInt(5)}}

	// Warehouse-wide there is enough, but location A alone is short.
	err := svc.CheckLocation(ctx, wh, locA, reqs)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	require.NoError(t, svc.CheckLocation(ctx, wh, locB, reqs))
}

func TestApply_SkipsZeroDeltas(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	wh, loc, itemID := id.New(), id.New(), id.New()

	svc := NewService(repo)
	err := svc.Apply(ctx, []Movement{
		{WarehouseID: wh, LocationID: loc, ItemID: itemID, ItemCode: "X", Delta: 0},
		{WarehouseID: wh, LocationID: loc, ItemID: itemID, ItemCode: "X", Delta: types.NewQuantityFromInt(4)},
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(4), repo.balances[balanceKey{wh, loc, itemID}])
}

func TestApply_RejectsNegativeResult(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	wh, loc, itemID := id.New(), id.New(), id.New()
	repo.set(wh, loc, itemID, types.NewQuantityFromInt(2))

	svc := NewService(repo)
	err := svc.Apply(ctx, []Movement{
		{WarehouseID: wh, LocationID: loc, ItemID: itemID, ItemCode: "X", Delta: types.NewQuantityFromInt(-3)},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
}
