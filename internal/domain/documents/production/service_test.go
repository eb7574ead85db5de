package production

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/catalogs/item"
	"kardex/internal/domain/catalogs/location"
	"kardex/internal/domain/catalogs/warehouse"
	"kardex/internal/domain/registers/stock"
	"kardex/pkg/numerator"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeFormulaRepo struct {
	formulas map[id.ID]*Formula
	deleted  []id.ID
}

func newFakeFormulaRepo() *fakeFormulaRepo {
	return &fakeFormulaRepo{formulas: make(map[id.ID]*Formula)}
}

func (r *fakeFormulaRepo) GetByOutputItem(_ context.Context, outputItemID id.ID) (*Formula, error) {
	return r.formulas[outputItemID], nil
}

func (r *fakeFormulaRepo) GetByOutputItemForUpdate(ctx context.Context, outputItemID id.ID) (*Formula, error) {
	return r.GetByOutputItem(ctx, outputItemID)
}

func (r *fakeFormulaRepo) Upsert(_ context.Context, f *Formula) error {
	r.formulas[f.OutputItemID] = f
	return nil
}

func (r *fakeFormulaRepo) ReplaceLines(_ context.Context, formulaID id.ID, lines []FormulaLine) error {
	for _, f := range r.formulas {
		if f.ID == formulaID {
			f.Lines = lines
		}
	}
	return nil
}

func (r *fakeFormulaRepo) Delete(_ context.Context, formulaID id.ID) error {
	r.deleted = append(r.deleted, formulaID)
	for outputID, f := range r.formulas {
		if f.ID == formulaID {
			delete(r.formulas, outputID)
		}
	}
	return nil
}

type fakeOrderRepo struct {
	created *Order
	lines   []OrderLine
}

func (r *fakeOrderRepo) Create(_ context.Context, doc *Order) error {
	r.created = doc
	return nil
}

func (r *fakeOrderRepo) SaveLines(_ context.Context, _ id.ID, lines []OrderLine) error {
	r.lines = lines
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, docID id.ID) (*Order, error) {
	if r.created != nil && r.created.ID == docID {
		return r.created, nil
	}
	return nil, nil
}

func (r *fakeOrderRepo) GetLines(_ context.Context, _ id.ID) ([]OrderLine, error) {
	return r.lines, nil
}

func (r *fakeOrderRepo) List(_ context.Context, _ OrderListFilter) ([]*Order, int, error) {
	return nil, 0, nil
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

func (r *fakeWarehouseRepo) GetByName(_ context.Context, _ string) (*warehouse.Warehouse, error) {
	return nil, nil
}

func (r *fakeWarehouseRepo) GetForUpdate(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	return r.GetByID(ctx, warehouseID)
}

func (r *fakeWarehouseRepo) GetByNameForUpdate(_ context.Context, _ string) (*warehouse.Warehouse, error) {
	return nil, nil
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
	docTypes []string
}

func (a *fakeAudit) LogPosting(_ context.Context, docType string, _ id.ID, _ string, _ any) error {
	a.docTypes = append(a.docTypes, docType)
	return nil
}

type fakeSeqRow struct{ val int64 }

func (r fakeSeqRow) Scan(dest ...any) error {
	*dest[0].(*int64) = r.val
	return nil
}

type fakeSequences struct {
	counters map[string]int64
}

func (q *fakeSequences) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if q.counters == nil {
		q.counters = make(map[string]int64)
	}
	series := args[0].(string)
	q.counters[series]++
	return fakeSeqRow{val: q.counters[series]}
}

func qty(s string) types.Quantity {
	return types.MustQuantity(s)
}

type productionFixture struct {
	sourceWH  id.ID
	sourceLoc id.ID
	destWH    id.ID
	destLoc   id.ID

	formulas  *fakeFormulaRepo
	orders    *fakeOrderRepo
	stockRepo *fakeStockRepo
	items     *fakeItemRepo
	audit     *fakeAudit

	formulaSvc *FormulaService
	orderSvc   *OrderService
}

func newProductionFixture(t *testing.T) *productionFixture {
	t.Helper()

	sourceWH, destWH := id.New(), id.New()
	sourceLoc, destLoc := id.New(), id.New()

	formulas := newFakeFormulaRepo()
	orders := &fakeOrderRepo{}
	stockRepo := newFakeStockRepo()
	items := &fakeItemRepo{items: map[string]*item.Item{
		"PROD1": {ID: id.New(), Code: "PROD1", Description: "Pan", IsActive: true},
		"SKU_A": {ID: id.New(), Code: "SKU_A", Description: "Harina", IsActive: true},
		"SKU_B": {ID: id.New(), Code: "SKU_B", Description: "Levadura", IsActive: true},
	}}
	audit := &fakeAudit{}

	warehouses := &fakeWarehouseRepo{warehouses: []*warehouse.Warehouse{
		{ID: sourceWH, Name: "WH1", IsActive: true},
		{ID: destWH, Name: "WH2", IsActive: true},
	}}
	resolver := location.NewResolver(&fakeLocationRepo{locations: []*location.Location{
		{ID: sourceLoc, WarehouseID: sourceWH, Name: "GENERAL", IsActive: true, IsDefault: true},
		{ID: destLoc, WarehouseID: destWH, Name: "GENERAL", IsActive: true, IsDefault: true},
	}})

	return &productionFixture{
		sourceWH:   sourceWH,
		sourceLoc:  sourceLoc,
		destWH:     destWH,
		destLoc:    destLoc,
		formulas:   formulas,
		orders:     orders,
		stockRepo:  stockRepo,
		items:      items,
		audit:      audit,
		formulaSvc: NewFormulaService(formulas, items, fakeTxManager{}),
		orderSvc: NewOrderService(
			orders, formulas, warehouses, items, resolver,
			stock.NewService(stockRepo), numerator.New(&fakeSequences{}),
			audit, fakeTxManager{},
		),
	}
}

func (f *productionFixture) itemID(code string) id.ID {
	return f.items.items[code].ID
}

func (f *productionFixture) set(warehouseID, locationID id.ID, code, quantity string) {
	f.stockRepo.balances[balanceKey{warehouseID, locationID, f.itemID(code)}] = qty(quantity)
}

func (f *productionFixture) balance(warehouseID, locationID id.ID, code string) types.Quantity {
	return f.stockRepo.balances[balanceKey{warehouseID, locationID, f.itemID(code)}]
}

// --- formula tests ---

func TestFormulaCreateRejectsExisting(t *testing.T) {
	f := newProductionFixture(t)

	_, err := f.formulaSvc.Create(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_A", PerUnit: qty("2")},
	})
	require.NoError(t, err)

	_, err = f.formulaSvc.Create(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_B", PerUnit: qty("1")},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
}

func TestFormulaRejectsSelfReference(t *testing.T) {
	f := newProductionFixture(t)

	_, err := f.formulaSvc.Create(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_A", PerUnit: qty("2")},
		{ItemCode: "prod1", PerUnit: qty("1")},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeSelfReferencingFormula))
	assert.Empty(t, f.formulas.formulas)
}

func TestFormulaConsolidatesAndDropsNonPositiveInputs(t *testing.T) {
	f := newProductionFixture(t)

	formula, err := f.formulaSvc.Create(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_A", PerUnit: qty("2")},
		{ItemCode: " sku_a ", PerUnit: qty("1")},
		{ItemCode: "SKU_B", PerUnit: qty("0")},
	})
	require.NoError(t, err)

	require.Len(t, formula.Lines, 1)
	assert.Equal(t, "SKU_A", formula.Lines[0].ItemCode)
	assert.Equal(t, qty("3"), formula.Lines[0].PerUnit)
}

func TestFormulaRejectsEmptyLineSet(t *testing.T) {
	f := newProductionFixture(t)

	_, err := f.formulaSvc.Create(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_A", PerUnit: qty("-1")},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestFormulaReplaceKeepsIdentity(t *testing.T) {
	f := newProductionFixture(t)

	created, err := f.formulaSvc.Create(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_A", PerUnit: qty("2")},
	})
	require.NoError(t, err)

	replaced, err := f.formulaSvc.Replace(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_B", PerUnit: qty("4")},
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, replaced.ID)
	require.Len(t, replaced.Lines, 1)
	assert.Equal(t, "SKU_B", replaced.Lines[0].ItemCode)
}

func TestFormulaDeleteThenGetReportsNoFormula(t *testing.T) {
	f := newProductionFixture(t)

	_, err := f.formulaSvc.Create(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_A", PerUnit: qty("2")},
	})
	require.NoError(t, err)

	require.NoError(t, f.formulaSvc.Delete(context.Background(), "PROD1"))

	_, err = f.formulaSvc.Get(context.Background(), "PROD1")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNoFormula))
}

// --- order tests ---

func TestOrderConsumesInputsAndCreditsOutput(t *testing.T) {
	f := newProductionFixture(t)
	_, err := f.formulaSvc.Create(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_A", PerUnit: qty("2")},
		{ItemCode: "SKU_B", PerUnit: qty("1")},
	})
	require.NoError(t, err)

	f.set(f.sourceWH, f.sourceLoc, "SKU_A", "10")
	f.set(f.sourceWH, f.sourceLoc, "SKU_B", "3")

	doc, err := f.orderSvc.Create(context.Background(), OrderRequest{
		OutputCode:        "PROD1",
		SourceWarehouseID: f.sourceWH,
		DestWarehouseID:   f.destWH,
		Quantity:          qty("3"),
	})
	require.NoError(t, err)

	assert.Equal(t, qty("4"), f.balance(f.sourceWH, f.sourceLoc, "SKU_A"))
	assert.Equal(t, qty("0"), f.balance(f.sourceWH, f.sourceLoc, "SKU_B"))
	assert.Equal(t, qty("3"), f.balance(f.destWH, f.destLoc, "PROD1"))

	require.Len(t, doc.Lines, 2)
	assert.Equal(t, qty("6"), doc.Lines[0].Consumed)
	assert.Equal(t, qty("3"), doc.Lines[1].Consumed)
	assert.Equal(t, int64(1), doc.Number)
	assert.Equal(t, []string{DocumentType}, f.audit.docTypes)
}

func TestOrderShortfallBlocksWholeOrder(t *testing.T) {
	f := newProductionFixture(t)
	_, err := f.formulaSvc.Create(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_A", PerUnit: qty("2")},
		{ItemCode: "SKU_B", PerUnit: qty("1")},
	})
	require.NoError(t, err)

	f.set(f.sourceWH, f.sourceLoc, "SKU_A", "10")
	f.set(f.sourceWH, f.sourceLoc, "SKU_B", "2")

	_, err = f.orderSvc.Create(context.Background(), OrderRequest{
		OutputCode:        "PROD1",
		SourceWarehouseID: f.sourceWH,
		DestWarehouseID:   f.destWH,
		Quantity:          qty("3"),
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	appErr, _ := apperror.AsAppError(err)
	shortages := appErr.Details["shortages"].([]apperror.StockShortage)
	require.Len(t, shortages, 1)
	assert.Equal(t, "SKU_B", shortages[0].ItemCode)

	// No partial consumption.
	assert.Equal(t, qty("10"), f.balance(f.sourceWH, f.sourceLoc, "SKU_A"))
	assert.Equal(t, 0, f.stockRepo.applyCalls)
	assert.Nil(t, f.orders.created)
}

func TestOrderWithoutFormula(t *testing.T) {
	f := newProductionFixture(t)

	_, err := f.orderSvc.Create(context.Background(), OrderRequest{
		OutputCode:        "PROD1",
		SourceWarehouseID: f.sourceWH,
		DestWarehouseID:   f.destWH,
		Quantity:          qty("1"),
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNoFormula))
}

func TestOrderPreservesFractionalRequirements(t *testing.T) {
	f := newProductionFixture(t)
	_, err := f.formulaSvc.Create(context.Background(), "PROD1", []FormulaLineInput{
		{ItemCode: "SKU_A", PerUnit: qty("0.5")},
	})
	require.NoError(t, err)

	f.set(f.sourceWH, f.sourceLoc, "SKU_A", "2")

	doc, err := f.orderSvc.Create(context.Background(), OrderRequest{
		OutputCode:        "PROD1",
		SourceWarehouseID: f.sourceWH,
		DestWarehouseID:   f.destWH,
		Quantity:          qty("3"),
	})
	require.NoError(t, err)

	assert.Equal(t, qty("1.5"), doc.Lines[0].Consumed)
	assert.Equal(t, qty("0.5"), f.balance(f.sourceWH, f.sourceLoc, "SKU_A"))
}

func TestOrderRejectsNonPositiveQuantity(t *testing.T) {
	f := newProductionFixture(t)

	_, err := f.orderSvc.Create(context.Background(), OrderRequest{
		OutputCode:        "PROD1",
		SourceWarehouseID: f.sourceWH,
		DestWarehouseID:   f.destWH,
		Quantity:          qty("0"),
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
