package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Schema(t *testing.T) {
	table, err := Generate(100, 42)
	require.NoError(t, err)

	assert.Equal(t, 100, table.NumRows())
	assert.Equal(t, []string{
		"price", "quantity", "rating", "discount_pct", "revenue",
		"category", "region", "customer_type",
		"product_name", "description", "purchase_date",
	}, table.ColumnNames())

	kinds := map[string]Kind{
		"price":         KindNumeric,
		"quantity":      KindNumeric,
		"rating":        KindNumeric,
		"discount_pct":  KindNumeric,
		"revenue":       KindNumeric,
		"category":      KindCategorical,
		"region":        KindCategorical,
		"customer_type": KindCategorical,
		"product_name":  KindText,
		"description":   KindText,
		"purchase_date": KindDate,
	}
	for name, kind := range kinds {
		col := table.Column(name)
		require.NotNil(t, col, "column %s missing", name)
		assert.Equal(t, kind, col.Kind, "column %s", name)
	}
}

func TestGenerate_DeterministicUnderFixedSeed(t *testing.T) {
	a, err := Generate(200, 42)
	require.NoError(t, err)
	b, err := Generate(200, 42)
	require.NoError(t, err)

	assert.Equal(t, a.Column("price").Floats, b.Column("price").Floats)
	assert.Equal(t, a.Column("category").Strings, b.Column("category").Strings)
	assert.Equal(t, a.Column("purchase_date").Times, b.Column("purchase_date").Times)

	c, err := Generate(200, 7)
	require.NoError(t, err)
	assert.NotEqual(t, a.Column("price").Floats, c.Column("price").Floats)
}

func TestGenerate_ValueRanges(t *testing.T) {
	table, err := Generate(1000, 42)
	require.NoError(t, err)

	rating := table.Column("rating").Floats
	for i, v := range rating {
		assert.GreaterOrEqual(t, v, 1.0, "rating[%d]", i)
		assert.LessOrEqual(t, v, 5.0, "rating[%d]", i)
	}

	discount := table.Column("discount_pct").Floats
	for i, v := range discount {
		assert.GreaterOrEqual(t, v, 0.0, "discount_pct[%d]", i)
		assert.LessOrEqual(t, v, 100.0, "discount_pct[%d]", i)
	}

	for _, v := range table.Column("price").Floats {
		assert.Greater(t, v, 0.0)
	}
}

func TestGenerate_RevenueDerivation(t *testing.T) {
	table, err := Generate(50, 42)
	require.NoError(t, err)

	price := table.Column("price").Floats
	quantity := table.Column("quantity").Floats
	discount := table.Column("discount_pct").Floats
	revenue := table.Column("revenue").Floats

	for i := range revenue {
		expected := price[i] * quantity[i] * (1 - discount[i]/100)
		assert.InDelta(t, expected, revenue[i], 1e-9, "row %d", i)
	}
}

func TestGenerate_ProductNames(t *testing.T) {
	table, err := Generate(1000, 42)
	require.NoError(t, err)

	names := table.Column("product_name")
	assert.Equal(t, "Product_000", names.Strings[0])
	assert.Equal(t, "Product_009", names.Strings[9])
	assert.Equal(t, "Product_999", names.Strings[999])
	assert.Equal(t, 1000, names.DistinctCount())
}

func TestGenerate_CategoricalCardinality(t *testing.T) {
	table, err := Generate(1000, 42)
	require.NoError(t, err)

	assert.LessOrEqual(t, table.Column("category").DistinctCount(), 5)
	assert.LessOrEqual(t, table.Column("region").DistinctCount(), 4)
	assert.LessOrEqual(t, table.Column("customer_type").DistinctCount(), 3)
}

func TestGenerate_RejectsNonPositiveRows(t *testing.T) {
	_, err := Generate(0, 42)
	assert.Error(t, err)
	_, err = Generate(-5, 42)
	assert.Error(t, err)
}
