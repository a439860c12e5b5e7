package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsxFixture(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat("Sales.CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	format, err = DetectFormat("inventory.xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)

	_, err = DetectFormat("sales.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseSales_CSV(t *testing.T) {
	data := []byte("sku,date_key,location_id,units,revenue,extra\n" +
		"A,2024-01-02,1,3,30.5,x\n" +
		"\n" +
		"B,2024-01-03T10:15:00Z,2.0,1.5,12,\n")

	rows, err := ParseSales(data, FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, SalesRow{
		Date:       time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		SKU:        "A",
		LocationID: 1,
		Units:      3,
		Revenue:    30.5,
	}, rows[0])
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), rows[1].Date, "sales dates are truncated to the day")
	assert.Equal(t, int64(2), rows[1].LocationID)
}

func TestParseSales_MissingColumnsListsAll(t *testing.T) {
	_, err := ParseSales([]byte("sku,units\nA,1\n"), FormatCSV)

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"date_key", "location_id", "revenue"}, missing.Columns)
}

func TestParseSales_RowError(t *testing.T) {
	data := []byte("date_key,sku,location_id,units,revenue\n" +
		"2024-01-02,A,1,3,30\n" +
		"2024-01-02,B,1,three,30\n")

	_, err := ParseSales(data, FormatCSV)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, "units", rowErr.Column)
	assert.Equal(t, "three", rowErr.Value)
}

func TestParseInventory_BadDateAndLocation(t *testing.T) {
	_, err := ParseInventory([]byte("ts,sku,location_id,on_hand,on_order,backorder\n02/01/2024,A,1,1,0,0\n"), FormatCSV)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "ts", rowErr.Column)

	_, err = ParseInventory([]byte("ts,sku,location_id,on_hand,on_order,backorder\n2024-01-02,A,1.5,1,0,0\n"), FormatCSV)
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "location_id", rowErr.Column)
}

func TestParseSales_LocationOutOfRange(t *testing.T) {
	for _, loc := range []string{"1e19", "9223372036854775808.0", "-1e19"} {
		_, err := ParseSales([]byte("date_key,sku,location_id,units,revenue\n2024-01-02,A,"+loc+",1,1\n"), FormatCSV)

		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr, loc)
		assert.Equal(t, "location_id", rowErr.Column)
		assert.ErrorContains(t, err, "out of range")
	}

	rows, err := ParseSales([]byte("date_key,sku,location_id,units,revenue\n2024-01-02,A,1e3,1,1\n"), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), rows[0].LocationID)
}

func TestParseInventory_XLSX(t *testing.T) {
	data := xlsxFixture(t, [][]any{
		{"ts", "sku", "location_id", "on_hand", "on_order", "backorder"},
		{"2024-01-02 08:00:00", "A", 1, 4, 2, 0},
		{"2024-01-03", "B", 2, 0.5, 0, 1},
	})

	rows, err := ParseInventory(data, FormatXLSX)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, InventoryRow{
		Timestamp:  time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
		SKU:        "A",
		LocationID: 1,
		OnHand:     4,
		OnOrder:    2,
	}, rows[0])
	assert.Equal(t, 0.5, rows[1].OnHand)
	assert.Equal(t, 1.0, rows[1].Backorder)
}

func TestParse_EmptyFile(t *testing.T) {
	_, err := ParseSales(nil, FormatCSV)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestKindFromName(t *testing.T) {
	kind, ok := KindFromName("exports/Sales_2024-01.xlsx")
	assert.True(t, ok)
	assert.Equal(t, "sales", string(kind))

	kind, ok = KindFromName("inventory-week1.csv")
	assert.True(t, ok)
	assert.Equal(t, "inventory", string(kind))

	_, ok = KindFromName("products.csv")
	assert.False(t, ok)
}
