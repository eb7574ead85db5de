package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/catalogs/item"
	"kardex/internal/domain/catalogs/location"
	"kardex/internal/domain/catalogs/warehouse"
	"kardex/internal/domain/registers/stock"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	notes []*Note
	lines map[id.ID][]Line
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{lines: make(map[id.ID][]Line)}
}

func (r *fakeRepo) Create(_ context.Context, doc *Note) error {
	r.notes = append(r.notes, doc)
	return nil
}

func (r *fakeRepo) SaveLines(_ context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = lines
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, docID id.ID) (*Note, error) {
	for _, n := range r.notes {
		if n.ID == docID {
			return n, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) GetByNumberForUpdate(_ context.Context, number string) (*Note, error) {
	for _, n := range r.notes {
		if n.ExternalNumber == number {
			return n, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) GetLines(_ context.Context, docID id.ID) ([]Line, error) {
	return r.lines[docID], nil
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter) ([]*Note, int, error) {
	return r.notes, len(r.notes), nil
}

type fakeWarehouseRepo struct {
	warehouses []*warehouse.Warehouse
}

func (r *fakeWarehouseRepo) GetByID(_ context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	for _, w := range r.warehouses {
		if w.ID == warehouseID {
			return w, nil
		}
	}
	return nil, nil
}

func (r *fakeWarehouseRepo) GetByName(_ context.Context, name string) (*warehouse.Warehouse, error) {
	normalized := warehouse.NormalizeName(name)
	for _, w := range r.warehouses {
		if warehouse.NormalizeName(w.Name) == normalized {
			return w, nil
		}
	}
	return nil, nil
}

func (r *fakeWarehouseRepo) GetForUpdate(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	return r.GetByID(ctx, warehouseID)
}

func (r *fakeWarehouseRepo) GetByNameForUpdate(ctx context.Context, name string) (*warehouse.Warehouse, error) {
	return r.GetByName(ctx, name)
}

type fakeItemRepo struct {
	items map[string]*item.Item
}

func (r *fakeItemRepo) GetByID(_ context.Context, _ id.ID) (*item.Item, error) { return nil, nil }

func (r *fakeItemRepo) GetByCode(_ context.Context, code string) (*item.Item, error) {
	return r.items[item.NormalizeCode(code)], nil
}

func (r *fakeItemRepo) GetByCodes(_ context.Context, codes []string) (map[string]*item.Item, error) {
	found := make(map[string]*item.Item)
	for _, code := range codes {
		if it, ok := r.items[code]; ok {
			found[code] = it
		}
	}
	return found, nil
}

type fakeLocationRepo struct {
	locations []*location.Location
}

func (r *fakeLocationRepo) GetByID(_ context.Context, locationID id.ID) (*location.Location, error) {
	for _, l := range r.locations {
		if l.ID == locationID {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeLocationRepo) GetDefault(_ context.Context, warehouseID id.ID) (*location.Location, error) {
	for _, l := range r.locations {
		if l.WarehouseID == warehouseID && l.IsDefault && l.IsActive {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeLocationRepo) GetByName(_ context.Context, _ id.ID, _ string) (*location.Location, error) {
	return nil, nil
}

func (r *fakeLocationRepo) ListActive(_ context.Context, _ id.ID) ([]*location.Location, error) {
	return nil, nil
}

type balanceKey struct {
	warehouse id.ID
	location  id.ID
	item      id.ID
}

type fakeStockRepo struct {
	balances   map[balanceKey]types.Quantity
	applyCalls int
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{balances: make(map[balanceKey]types.Quantity)}
}

func (r *fakeStockRepo) ApplyDelta(_ context.Context, warehouseID, locationID, itemID id.ID, delta types.Quantity) (types.Quantity, error) {
	r.applyCalls++
	key := balanceKey{warehouseID, locationID, itemID}
	r.balances[key] += delta
	return r.balances[key], nil
}

func (r *fakeStockRepo) GetBalance(_ context.Context, warehouseID, locationID, itemID id.ID) (stock.Balance, error) {
	return stock.Balance{
		WarehouseID: warehouseID,
		LocationID:  locationID,
		ItemID:      itemID,
		Quantity:    r.balances[balanceKey{warehouseID, locationID, itemID}],
	}, nil
}

func (r *fakeStockRepo) GetBalanceForUpdate(ctx context.Context, warehouseID, locationID, itemID id.ID) (stock.Balance, error) {
	return r.GetBalance(ctx, warehouseID, locationID, itemID)
}

func (r *fakeStockRepo) GetWarehouseBalancesForUpdate(_ context.Context, warehouseID, itemID id.ID) ([]stock.Balance, error) {
	var out []stock.Balance
	for key, qty := range r.balances {
		if key.warehouse == warehouseID && key.item == itemID {
			out = append(out, stock.Balance{WarehouseID: key.warehouse, LocationID: key.location, ItemID: key.item, Quantity: qty})
		}
	}
	return out, nil
}

func (r *fakeStockRepo) ListByWarehouse(_ context.Context, _ id.ID, _ stock.BalanceFilter) ([]stock.Balance, error) {
	return nil, nil
}

func (r *fakeStockRepo) ListByItem(_ context.Context, _ id.ID) ([]stock.Balance, error) {
	return nil, nil
}

type fakeAudit struct {
	numbers []string
}

func (a *fakeAudit) LogPosting(_ context.Context, _ string, _ id.ID, number string, _ any) error {
	a.numbers = append(a.numbers, number)
	return nil
}

func qty(s string) types.Quantity {
	return types.MustQuantity(s)
}

type deliveryFixture struct {
	warehouseID id.ID
	locationID  id.ID
	altLoc      id.ID
	service     *Service
	repo        *fakeRepo
	stockRepo   *fakeStockRepo
	items       *fakeItemRepo
	audit       *fakeAudit
}

func newDeliveryFixture(t *testing.T) *deliveryFixture {
	t.Helper()

	warehouseID := id.New()
	locationID := id.New()
	altLoc := id.New()

	repo := newFakeRepo()
	stockRepo := newFakeStockRepo()
	items := &fakeItemRepo{items: map[string]*item.Item{
		"SKU1": {ID: id.New(), Code: "SKU1", Description: "Caja grande", IsActive: true},
		"SKU2": {ID: id.New(), Code: "SKU2", Description: "Caja chica", IsActive: true},
	}}
	audit := &fakeAudit{}

	svc := NewService(
		repo,
		&fakeWarehouseRepo{warehouses: []*warehouse.Warehouse{
			{ID: warehouseID, Name: "Central", IsActive: true},
		}},
		items,
		location.NewResolver(&fakeLocationRepo{locations: []*location.Location{
			{ID: locationID, WarehouseID: warehouseID, Name: "GENERAL", IsActive: true, IsDefault: true},
			{ID: altLoc, WarehouseID: warehouseID, Name: "ALTILLO", IsActive: true},
		}}),
		stock.NewService(stockRepo),
		audit,
		fakeTxManager{},
	)

	return &deliveryFixture{
		warehouseID: warehouseID,
		locationID:  locationID,
		altLoc:      altLoc,
		service:     svc,
		repo:        repo,
		stockRepo:   stockRepo,
		items:       items,
		audit:       audit,
	}
}

func (f *deliveryFixture) itemID(code string) id.ID {
	return f.items.items[code].ID
}

func (f *deliveryFixture) set(locationID id.ID, code, quantity string) {
	f.stockRepo.balances[balanceKey{f.warehouseID, locationID, f.itemID(code)}] = qty(quantity)
}

func (f *deliveryFixture) balance(locationID id.ID, code string) types.Quantity {
	return f.stockRepo.balances[balanceKey{f.warehouseID, locationID, f.itemID(code)}]
}

func TestCreateEntradaIncreasesBalance(t *testing.T) {
	f := newDeliveryFixture(t)

	doc, err := f.service.Create(context.Background(), CreateRequest{
		Number:      "R-100",
		Direction:   DirectionIn,
		WarehouseID: &f.warehouseID,
		Lines:       []LineInput{{ItemCode: "SKU1", Quantity: qty("7")}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, doc.Status)
	assert.Equal(t, qty("7"), f.balance(f.locationID, "SKU1"))
	assert.Equal(t, []string{"R-100"}, f.audit.numbers)
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	f := newDeliveryFixture(t)

	_, err := f.service.Create(context.Background(), CreateRequest{
		Number:      "R-100",
		Direction:   DirectionIn,
		WarehouseID: &f.warehouseID,
		Lines:       []LineInput{{ItemCode: "SKU1", Quantity: qty("1")}},
	})
	require.NoError(t, err)

	// Same number, different payload: still rejected, nothing applied.
	before := f.balance(f.locationID, "SKU1")
	_, err = f.service.Create(context.Background(), CreateRequest{
		Number:      "R-100",
		Direction:   DirectionIn,
		WarehouseID: &f.warehouseID,
		Lines:       []LineInput{{ItemCode: "SKU2", Quantity: qty("99")}},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicateDocument))
	assert.Equal(t, before, f.balance(f.locationID, "SKU1"))
	assert.Equal(t, qty("0"), f.balance(f.locationID, "SKU2"))
	assert.Len(t, f.repo.notes, 1)
}

func TestCreateSalidaChecksPerLocationBalance(t *testing.T) {
	f := newDeliveryFixture(t)
	f.set(f.locationID, "SKU1", "10")
	// Plenty at the other location, but the line draws from GENERAL.
	f.set(f.altLoc, "SKU2", "100")
	f.set(f.locationID, "SKU2", "1")

	_, err := f.service.Create(context.Background(), CreateRequest{
		Number:      "R-200",
		Direction:   DirectionOut,
		WarehouseID: &f.warehouseID,
		Lines: []LineInput{
			{ItemCode: "SKU1", Quantity: qty("4")},
			{ItemCode: "SKU2", Quantity: qty("5")},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, 0, f.stockRepo.applyCalls)
	assert.Equal(t, qty("10"), f.balance(f.locationID, "SKU1"))
}

func TestCreateSalidaSumsSplitLinesOnSameBalance(t *testing.T) {
	f := newDeliveryFixture(t)
	f.set(f.locationID, "SKU1", "10")

	// One line defaults to GENERAL, the other names it explicitly. Each
	// half fits the balance alone; together they overdraw it.
	_, err := f.service.Create(context.Background(), CreateRequest{
		Number:      "R-250",
		Direction:   DirectionOut,
		WarehouseID: &f.warehouseID,
		Lines: []LineInput{
			{ItemCode: "SKU1", Quantity: qty("6")},
			{ItemCode: "SKU1", Quantity: qty("6"), LocationID: &f.locationID},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	appErr, _ := apperror.AsAppError(err)
	shortages := appErr.Details["shortages"].([]apperror.StockShortage)
	require.Len(t, shortages, 1)
	assert.Equal(t, qty("12").String(), shortages[0].Requested)
	assert.Equal(t, qty("10").String(), shortages[0].Available)

	assert.Equal(t, 0, f.stockRepo.applyCalls)
	assert.Equal(t, qty("10"), f.balance(f.locationID, "SKU1"))
}

func TestCreateSalidaMultipleLocations(t *testing.T) {
	f := newDeliveryFixture(t)
	f.set(f.locationID, "SKU1", "10")
	f.set(f.altLoc, "SKU2", "10")

	doc, err := f.service.Create(context.Background(), CreateRequest{
		Number:      "R-300",
		Direction:   DirectionOut,
		WarehouseID: &f.warehouseID,
		Lines: []LineInput{
			{ItemCode: "SKU1", Quantity: qty("4")},
			{ItemCode: "SKU2", Quantity: qty("3"), LocationID: &f.altLoc},
		},
	})
	require.NoError(t, err)

	require.Len(t, doc.Lines, 2)
	assert.Equal(t, f.locationID, doc.Lines[0].LocationID)
	assert.Equal(t, f.altLoc, doc.Lines[1].LocationID)
	assert.Equal(t, qty("6"), f.balance(f.locationID, "SKU1"))
	assert.Equal(t, qty("7"), f.balance(f.altLoc, "SKU2"))
}

func TestCreateResolvesWarehouseByName(t *testing.T) {
	f := newDeliveryFixture(t)

	doc, err := f.service.Create(context.Background(), CreateRequest{
		Number:        "R-400",
		Direction:     DirectionIn,
		WarehouseName: " central ",
		Lines:         []LineInput{{ItemCode: "SKU1", Quantity: qty("2")}},
	})
	require.NoError(t, err)
	assert.Equal(t, f.warehouseID, doc.WarehouseID)
	assert.Equal(t, "Central", doc.WarehouseName)
}

func TestCreateRejectsInvalidDirection(t *testing.T) {
	f := newDeliveryFixture(t)

	_, err := f.service.Create(context.Background(), CreateRequest{
		Number:      "R-500",
		Direction:   "TRASLADO",
		WarehouseID: &f.warehouseID,
		Lines:       []LineInput{{ItemCode: "SKU1", Quantity: qty("1")}},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCreateRejectsMissingNumber(t *testing.T) {
	f := newDeliveryFixture(t)

	_, err := f.service.Create(context.Background(), CreateRequest{
		Number:      "   ",
		Direction:   DirectionIn,
		WarehouseID: &f.warehouseID,
		Lines:       []LineInput{{ItemCode: "SKU1", Quantity: qty("1")}},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
