package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSpanishColumnsWithProductFallback(t *testing.T) {
	data := "precio,cantidad,descripcion\n" +
		"100,5,Producto A\n" +
		"120,4,Producto A\n" +
		"140,3,Producto A\n" +
		"200,2,Producto B\n"
	ds, err := Parse([]byte(data), Options{})
	require.NoError(t, err)

	require.Len(t, ds.Rows, 4)
	require.Equal(t, ",", ds.Delimiter)
	require.Equal(t, 0, ds.Columns.Price)
	require.Equal(t, 1, ds.Columns.Quantity)
	require.Equal(t, 2, ds.Columns.Product)
	require.Equal(t, -1, ds.Columns.Category)
	require.Contains(t, ds.Warnings, "Matched price column: precio")
	require.Contains(t, ds.Warnings, "Matched product column: descripcion")

	require.Len(t, ds.Groups, 1)
	require.Equal(t, AllGroup, ds.Groups[0].Name)
	require.Len(t, ds.Groups[0].Observations, 4)
	require.Equal(t, "Producto B", ds.Rows[3].Product)
}

func TestParseCategorySynonyms(t *testing.T) {
	data := "categoria,qty,prc,fecha\n" +
		"Electronics,5,100,2025-01-01\n" +
		"Electronics,4,120,2025-01-02\n" +
		"Electronics,3,140,2025-01-03\n" +
		"Ropa,6,60,2025-01-01\n" +
		"Ropa,5,55,2025-01-02\n" +
		"Ropa,4,50,2025-01-03\n" +
		"Hogar,1,10,2025-01-03\n"
	ds, err := Parse([]byte(data), Options{})
	require.NoError(t, err)

	require.Len(t, ds.Groups, 2)
	require.Equal(t, "Electronics", ds.Groups[0].Name)
	require.Equal(t, "Ropa", ds.Groups[1].Name)
	require.Contains(t, ds.Warnings, "Matched category column: categoria")
	require.Len(t, ds.Rows, 7)
	// no product column: each row is its own category's product
	require.Equal(t, "Hogar", ds.Rows[6].Product)
}

func TestParseRequiresPriceAndQuantity(t *testing.T) {
	data := "precio,descripcion\n100,Producto A\n120,Producto A\n140,Producto A\n"
	_, err := Parse([]byte(data), Options{})
	require.True(t, errors.Is(err, ErrMissingColumns))
	require.Contains(t, err.Error(), "missing required columns")
	require.Contains(t, err.Error(), "quantity")
}

func TestParseSemicolonDecimalComma(t *testing.T) {
	data := "Categoría;Producto;Precio Unitario;Unidades\n" +
		"Café;Molido 250g;4,50;120\n" +
		"Café;Molido 250g;4,90;101\n" +
		"Café;Molido 250g;5,25;88\n" +
		"Café;Grano 1kg;1.250,00;3\n"
	ds, err := Parse([]byte(data), Options{})
	require.NoError(t, err)

	require.Equal(t, ";", ds.Delimiter)
	require.Equal(t, "decimal-comma", ds.Locale)
	require.Len(t, ds.Rows, 4)
	require.InDelta(t, 4.5, ds.Rows[0].Price, 1e-12)
	require.InDelta(t, 1250, ds.Rows[3].Price, 1e-12)
	require.Equal(t, "Grano 1kg", ds.Rows[3].Product)
	require.Len(t, ds.Groups, 1)
	require.Len(t, ds.Groups[0].Observations, 4)
}

func TestParseDropsUnparsableAndFiltersGroups(t *testing.T) {
	data := "category,price,quantity,competitor_price\n" +
		"A,10,5,9\n" +
		"A,n/a,5,9\n" +
		"A,11,0,10\n" +
		"A,12,4,\n" +
		"B,3,3,3\n"
	ds, err := Parse([]byte(data), Options{MinObservations: 2})
	require.NoError(t, err)

	require.Equal(t, 1, ds.DroppedRows)
	require.Len(t, ds.Rows, 4)
	// zero quantity stays as a row but not in the log-log group
	require.Len(t, ds.Groups, 1)
	require.Len(t, ds.Groups[0].Observations, 2)
	require.Equal(t, 2, ds.Rows[1].Index)
	require.NotNil(t, ds.Rows[0].CompetitorPrice)
	require.Nil(t, ds.Rows[2].CompetitorPrice)
	require.Equal(t, 3, ds.Columns.CompetitorPrice)
	require.Len(t, ds.CrossObservations(), 3)
	require.Contains(t, ds.Warnings, "Dropped 1 rows with non-numeric price or quantity")
}

func TestParseNoGroups(t *testing.T) {
	ds, err := Parse([]byte("price,quantity\n1,2\n"), Options{})
	require.NoError(t, err)
	require.Empty(t, ds.Groups)
	require.Contains(t, ds.Warnings, "No groups with >=3 observations found")
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse([]byte("  \n"), Options{})
	require.ErrorIs(t, err, ErrEmpty)

	_, err = Parse([]byte("price,quantity\n"), Options{})
	require.ErrorIs(t, err, ErrEmpty)
}

func TestResolveColumnsPrefersExactAndNeverReuses(t *testing.T) {
	m, _ := resolveColumns([]string{"competitor_price", "unit_price_usd", "qty"})
	require.Equal(t, 0, m.CompetitorPrice)
	require.Equal(t, 1, m.Price)
	require.Equal(t, 2, m.Quantity)

	m, _ = resolveColumns([]string{"priceless", "amount"})
	require.Equal(t, -1, m.Price)
	require.Equal(t, -1, m.Quantity)
}
