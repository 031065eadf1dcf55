package charts

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/internal/dataset"
	"datalens/internal/filters"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func distTestSetup(t *testing.T) (*dataset.Table, *filters.Registry) {
	t.Helper()
	table, err := dataset.Generate(1000, 42)
	require.NoError(t, err)
	return table, filters.NewRegistry(table, quietLogger())
}

func TestDistribution_NumericHistogramWithHighlight(t *testing.T) {
	table, reg := distTestSetup(t)
	require.NoError(t, reg.Add("price"))
	require.NoError(t, reg.UpdateRange("price", 10, 50))

	chart := Distribution(table, reg.Spec("price"))
	require.NotNil(t, chart)
	assert.Equal(t, ChartHistogram, chart.Type)
	assert.Equal(t, "price", chart.Column)

	// 30 bins means 31 edges
	assert.Len(t, chart.Edges, 31)
	assert.Len(t, chart.Counts, 30)

	// Bin counts cover the full original column
	total := 0
	for _, c := range chart.Counts {
		total += c
	}
	assert.Equal(t, table.NumRows(), total)

	// The highlighted region tracks the current selection exactly
	require.NotNil(t, chart.Highlight)
	assert.Equal(t, 10.0, chart.Highlight.Low)
	assert.Equal(t, 50.0, chart.Highlight.High)
}

func TestDistribution_BarsFlagSelectedCategories(t *testing.T) {
	table, reg := distTestSetup(t)
	require.NoError(t, reg.Add("category"))
	require.NoError(t, reg.UpdateSelection("category", []string{"Books", "Sports"}))

	chart := Distribution(table, reg.Spec("category"))
	require.NotNil(t, chart)
	assert.Equal(t, ChartBars, chart.Type)

	selected := map[string]bool{}
	total := 0
	for _, bar := range chart.Bars {
		selected[bar.Category] = bar.Selected
		total += bar.Count
	}
	assert.Equal(t, table.NumRows(), total)
	assert.True(t, selected["Books"])
	assert.True(t, selected["Sports"])
	assert.False(t, selected["Electronics"])
	assert.False(t, selected["Clothing"])

	// Largest categories come first
	for i := 1; i < len(chart.Bars); i++ {
		assert.GreaterOrEqual(t, chart.Bars[i-1].Count, chart.Bars[i].Count)
	}
}

// The text distribution deliberately ignores the current pattern: the
// chart shows the raw string-length distribution whatever the filter
// matches. This pins the behavior down so a future change to highlight
// matching lengths shows up as a deliberate test update.
func TestTextDistribution_PatternDoesNotChangeChart(t *testing.T) {
	table, reg := distTestSetup(t)
	require.NoError(t, reg.Add("product_name"))

	before := Distribution(table, reg.Spec("product_name"))
	require.Equal(t, ChartLengthHistogram, before.Type)

	require.NoError(t, reg.UpdatePattern("product_name", "Product_00[0-9]"))
	after := Distribution(table, reg.Spec("product_name"))

	assert.Equal(t, before.Edges, after.Edges)
	assert.Equal(t, before.Counts, after.Counts)
}

func TestDistribution_LengthHistogramBinning(t *testing.T) {
	table, reg := distTestSetup(t)
	require.NoError(t, reg.Add("description"))

	chart := Distribution(table, reg.Spec("description"))
	require.Equal(t, ChartLengthHistogram, chart.Type)
	assert.Len(t, chart.Edges, 21)
	assert.Len(t, chart.Counts, 20)

	total := 0
	for _, c := range chart.Counts {
		total += c
	}
	assert.Equal(t, table.NumRows(), total)
}

func TestDistribution_ConstantColumnDoesNotPanic(t *testing.T) {
	table, err := dataset.NewTable(
		dataset.Column{Name: "flat", Kind: dataset.KindNumeric, Floats: []float64{7, 7, 7, 7}},
	)
	require.NoError(t, err)

	reg := filters.NewRegistry(table, quietLogger())
	require.NoError(t, reg.Add("flat"))

	chart := Distribution(table, reg.Spec("flat"))
	require.Equal(t, ChartHistogram, chart.Type)

	total := 0
	for _, c := range chart.Counts {
		total += c
	}
	assert.Equal(t, 4, total)
}

func TestDistribution_MissingColumnYieldsPlaceholder(t *testing.T) {
	table, _ := distTestSetup(t)
	spec := &filters.Spec{Column: "ghost", Kind: filters.KindRange}

	chart := Distribution(table, spec)
	require.NotNil(t, chart)
	assert.Equal(t, ChartPlaceholder, chart.Type)
	assert.NotEmpty(t, chart.Message)
}

func TestDistribution_EmptyTableYieldsPlaceholder(t *testing.T) {
	table, err := dataset.NewTable(
		dataset.Column{Name: "n", Kind: dataset.KindNumeric, Floats: nil},
	)
	require.NoError(t, err)

	spec := &filters.Spec{Column: "n", Kind: filters.KindRange}
	chart := Distribution(table, spec)
	assert.Equal(t, ChartPlaceholder, chart.Type)
}
