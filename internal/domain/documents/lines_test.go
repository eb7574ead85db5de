package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/catalogs/item"
)

func TestConsolidate_MergesDuplicateCodes(t *testing.T) {
	lines := Consolidate([]LineInput{
		{ItemCode: "a01", Quantity: types.NewQuantityFromInt(2)},
		{ItemCode: "B02", Quantity: types.NewQuantityFromInt(5)},
		{ItemCode: " A01 ", Quantity: types.NewQuantityFromInt(3)},
	})

	require.Len(t, lines, 2)
	assert.Equal(t, "A01", lines[0].ItemCode)
	assert.Equal(t, types.NewQuantityFromInt(5), lines[0].Quantity)
	assert.Equal(t, "B02", lines[1].ItemCode)
}

func TestConsolidate_DropsZeroNet(t *testing.T) {
	lines := Consolidate([]LineInput{
		{ItemCode: "A01", Quantity: types.NewQuantityFromInt(4)},
		{ItemCode: "A01", Quantity: types.NewQuantityFromInt(-4)},
		{ItemCode: "B02", Quantity: types.NewQuantityFromInt(0)},
		{ItemCode: "C03", Quantity: types.NewQuantityFromInt(1)},
	})

	require.Len(t, lines, 1)
	assert.Equal(t, "C03", lines[0].ItemCode)
}

func TestConsolidate_KeepsLocationsSeparate(t *testing.T) {
	locA, locB := id.New(), id.New()
	lines := Consolidate([]LineInput{
		{ItemCode: "A01", Quantity: types.NewQuantityFromInt(1), LocationID: &locA},
		{ItemCode: "A01", Quantity: types.NewQuantityFromInt(2), LocationID: &locB},
		{ItemCode: "A01", Quantity: types.NewQuantityFromInt(3), LocationID: &locA},
	})

	require.Len(t, lines, 2)
	assert.Equal(t, types.NewQuantityFromInt(4), lines[0].Quantity)
	assert.Equal(t, types.NewQuantityFromInt(2), lines[1].Quantity)
}

type fakeItemRepo struct {
	items map[string]*item.Item
}

func (f *fakeItemRepo) GetByID(context.Context, id.ID) (*item.Item, error) { return nil, nil }

func (f *fakeItemRepo) GetByCode(_ context.Context, code string) (*item.Item, error) {
	return f.items[item.NormalizeCode(code)], nil
}

func (f *fakeItemRepo) GetByCodes(_ context.Context, codes []string) (map[string]*item.Item, error) {
	out := make(map[string]*item.Item)
	for _, c := range codes {
		if it, ok := f.items[item.NormalizeCode(c)]; ok {
			out[it.Code] = it
		}
	}
	return out, nil
}

func TestResolveItems_ReportsAllMissing(t *testing.T) {
	repo := &fakeItemRepo{items: map[string]*item.Item{
		"A01": {ID: id.New(), Code: "A01"},
	}}

	_, err := ResolveItems(context.Background(), repo, []LineInput{
		{ItemCode: "A01"}, {ItemCode: "X98"}, {ItemCode: "X99"},
	})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnknownReference, appErr.Code)
	assert.Equal(t, []string{"X98", "X99"}, appErr.Details["refs"])
}

func TestResolveItems_AllFound(t *testing.T) {
	itemA := &item.Item{ID: id.New(), Code: "A01"}
	repo := &fakeItemRepo{items: map[string]*item.Item{"A01": itemA}}

	found, err := ResolveItems(context.Background(), repo, []LineInput{{ItemCode: "a01"}})
	require.NoError(t, err)
	assert.Equal(t, itemA, found["A01"])
}
