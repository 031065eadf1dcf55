package filters

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/internal/dataset"
)

func newTestRegistry(t *testing.T) (*Registry, *dataset.Table) {
	t.Helper()
	table, err := dataset.Generate(1000, 42)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRegistry(table, logger), table
}

// rowIDs extracts the product_name column as a row identity fingerprint
func rowIDs(view *dataset.Table) []string {
	return view.Column("product_name").Strings
}

func TestAdd_ClassifiesByColumnType(t *testing.T) {
	tests := []struct {
		column string
		kind   Kind
	}{
		{"price", KindRange},
		{"quantity", KindRange},
		{"category", KindMembership},
		{"customer_type", KindMembership},
		{"product_name", KindRegex},
		{"description", KindRegex},
		{"purchase_date", KindRegex},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			reg, _ := newTestRegistry(t)
			require.NoError(t, reg.Add(tt.column))

			spec := reg.Spec(tt.column)
			require.NotNil(t, spec)
			assert.Equal(t, tt.kind, spec.Kind)
		})
	}
}

func TestAdd_SeedsRangeWithColumnBounds(t *testing.T) {
	reg, table := newTestRegistry(t)
	require.NoError(t, reg.Add("price"))

	min, max, ok := table.Column("price").MinMax()
	require.True(t, ok)

	spec := reg.Spec("price")
	assert.Equal(t, min, spec.Low)
	assert.Equal(t, max, spec.High)

	// Freshly seeded filter keeps the full dataset
	assert.Equal(t, table.NumRows(), reg.View().NumRows())
}

func TestAdd_SeedsMembershipWithAllValuesSelected(t *testing.T) {
	reg, table := newTestRegistry(t)
	require.NoError(t, reg.Add("category"))

	spec := reg.Spec("category")
	assert.ElementsMatch(t, table.Column("category").DistinctStrings(), spec.Selected)
	assert.Equal(t, spec.Options, spec.Selected)
	assert.Equal(t, table.NumRows(), reg.View().NumRows())
}

func TestAdd_ExistingFilterIsNoOp(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add("price"))
	require.NoError(t, reg.UpdateRange("price", 10, 50))
	before := reg.View().NumRows()

	require.NoError(t, reg.Add("price"))
	assert.Equal(t, before, reg.View().NumRows())
	assert.Len(t, reg.Specs(), 1)
	assert.Equal(t, 10.0, reg.Spec("price").Low)
}

func TestAdd_UnknownColumn(t *testing.T) {
	reg, _ := newTestRegistry(t)
	assert.ErrorIs(t, reg.Add("nope"), ErrUnknownColumn)
}

func TestRecompute_ViewIsSubsetOfDataset(t *testing.T) {
	reg, table := newTestRegistry(t)
	require.NoError(t, reg.Add("price"))
	require.NoError(t, reg.UpdateRange("price", 10, 50))
	require.NoError(t, reg.Add("category"))
	require.NoError(t, reg.UpdateSelection("category", []string{"Books", "Home"}))

	view := reg.View()
	assert.LessOrEqual(t, view.NumRows(), table.NumRows())

	all := make(map[string]struct{}, table.NumRows())
	for _, id := range rowIDs(table) {
		all[id] = struct{}{}
	}
	for _, id := range rowIDs(view) {
		_, ok := all[id]
		assert.True(t, ok, "row %s not in original dataset", id)
	}
}

func TestRecompute_RangeFilterBounds(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add("price"))
	require.NoError(t, reg.UpdateRange("price", 10, 50))

	view := reg.View()
	require.Greater(t, view.NumRows(), 0)
	for i, v := range view.Column("price").Floats {
		assert.GreaterOrEqual(t, v, 10.0, "row %d", i)
		assert.LessOrEqual(t, v, 50.0, "row %d", i)
	}
}

func TestRecompute_OrderIndependent(t *testing.T) {
	regA, _ := newTestRegistry(t)
	require.NoError(t, regA.Add("price"))
	require.NoError(t, regA.UpdateRange("price", 10, 50))
	require.NoError(t, regA.Add("category"))
	require.NoError(t, regA.UpdateSelection("category", []string{"Electronics", "Clothing"}))

	regB, _ := newTestRegistry(t)
	require.NoError(t, regB.Add("category"))
	require.NoError(t, regB.UpdateSelection("category", []string{"Electronics", "Clothing"}))
	require.NoError(t, regB.Add("price"))
	require.NoError(t, regB.UpdateRange("price", 10, 50))

	assert.Equal(t, rowIDs(regA.View()), rowIDs(regB.View()))
}

func TestRecompute_Idempotent(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add("price"))
	require.NoError(t, reg.UpdateRange("price", 10, 50))

	first := rowIDs(reg.Recompute())
	second := rowIDs(reg.Recompute())
	assert.Equal(t, first, second)
}

func TestRecompute_ZeroFiltersYieldsFullDataset(t *testing.T) {
	reg, table := newTestRegistry(t)
	assert.Equal(t, table.NumRows(), reg.Recompute().NumRows())
}

func TestAddThenRemove_RestoresView(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add("price"))
	require.NoError(t, reg.UpdateRange("price", 10, 50))
	before := rowIDs(reg.View())

	require.NoError(t, reg.Add("quantity"))
	require.NoError(t, reg.UpdateRange("quantity", 40, 60))
	require.NotEqual(t, len(before), reg.View().NumRows())

	reg.Remove("quantity")
	assert.Equal(t, before, rowIDs(reg.View()))
}

func TestRemove_AbsentFilterIsNoOp(t *testing.T) {
	reg, table := newTestRegistry(t)
	reg.Remove("price")
	assert.Equal(t, table.NumRows(), reg.View().NumRows())
	assert.Empty(t, reg.Specs())
}

func TestUpdateRange_RejectsDecreasingBounds(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add("price"))
	assert.ErrorIs(t, reg.UpdateRange("price", 50, 10), ErrInvalidRange)
}

func TestUpdate_KindMismatch(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add("price"))
	assert.ErrorIs(t, reg.UpdateSelection("price", []string{"x"}), ErrKindMismatch)
	assert.ErrorIs(t, reg.UpdatePattern("price", "x"), ErrKindMismatch)
	assert.ErrorIs(t, reg.UpdateRange("missing", 0, 1), ErrNoFilter)
}

func TestUpdateSelection_EmptySelectionPassesAllRows(t *testing.T) {
	reg, table := newTestRegistry(t)
	require.NoError(t, reg.Add("category"))
	require.NoError(t, reg.UpdateSelection("category", nil))
	assert.Equal(t, table.NumRows(), reg.View().NumRows())
}

func TestUpdatePattern_MatchesExpectedRows(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add("product_name"))
	require.NoError(t, reg.UpdatePattern("product_name", "Product_00[0-9]"))

	view := reg.View()
	require.Equal(t, 10, view.NumRows())
	names := rowIDs(view)
	for i := 0; i < 10; i++ {
		assert.Contains(t, names, "Product_00"+string(rune('0'+i)))
	}
}

func TestUpdatePattern_CaseInsensitive(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add("product_name"))
	require.NoError(t, reg.UpdatePattern("product_name", "product_00[0-9]"))
	assert.Equal(t, 10, reg.View().NumRows())
}

func TestUpdatePattern_InvalidRegexIsNonFilteringNoOp(t *testing.T) {
	reg, table := newTestRegistry(t)
	require.NoError(t, reg.Add("product_name"))
	require.NoError(t, reg.UpdatePattern("product_name", "Product_00[0-9]"))
	require.Equal(t, 10, reg.View().NumRows())

	// Unbalanced bracket fails to compile; the filter must pass all rows
	require.NoError(t, reg.UpdatePattern("product_name", "[unclosed"))
	assert.Equal(t, table.NumRows(), reg.View().NumRows())
	assert.Equal(t, "[unclosed", reg.Spec("product_name").Pattern)
}

func TestUpdatePattern_EmptyPatternMatchesEverything(t *testing.T) {
	reg, table := newTestRegistry(t)
	require.NoError(t, reg.Add("product_name"))
	require.NoError(t, reg.UpdatePattern("product_name", ""))
	assert.Equal(t, table.NumRows(), reg.View().NumRows())
}

func TestSubscribers_NotifiedInRegistrationOrder(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var order []string
	reg.Subscribe(func(view *dataset.Table) { order = append(order, "first") })
	reg.Subscribe(func(view *dataset.Table) { order = append(order, "second") })

	require.NoError(t, reg.Add("price"))
	assert.Equal(t, []string{"first", "second"}, order)

	order = nil
	require.NoError(t, reg.UpdateRange("price", 10, 50))
	assert.Equal(t, []string{"first", "second"}, order)

	order = nil
	reg.Remove("price")
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSubscribers_ReceiveRecomputedView(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var got *dataset.Table
	reg.Subscribe(func(view *dataset.Table) { got = view })

	require.NoError(t, reg.Add("price"))
	require.NoError(t, reg.UpdateRange("price", 10, 50))

	require.NotNil(t, got)
	assert.Equal(t, reg.View().NumRows(), got.NumRows())
}
