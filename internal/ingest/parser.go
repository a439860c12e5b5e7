package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = ".csv"
	FormatXLSX Format = ".xlsx"
)

var (
	salesColumns     = []string{"date_key", "sku", "location_id", "units", "revenue"}
	inventoryColumns = []string{"ts", "sku", "location_id", "on_hand", "on_order", "backorder"}

	dateLayouts = []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
)

// SalesRow is a parsed sales line before SKU resolution.
type SalesRow struct {
	Date       time.Time
	SKU        string
	LocationID int64
	Units      float64
	Revenue    float64
}

// InventoryRow is a parsed snapshot line before SKU resolution.
type InventoryRow struct {
	Timestamp  time.Time
	SKU        string
	LocationID int64
	OnHand     float64
	OnOrder    float64
	Backorder  float64
}

// DetectFormat picks the parser from the file extension.
func DetectFormat(filename string) (Format, error) {
	switch Format(strings.ToLower(filepath.Ext(filename))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

func ParseSales(data []byte, format Format) ([]SalesRow, error) {
	t, err := readTable(data, format, salesColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]SalesRow, 0, len(t.records))
	for i := range t.records {
		r := t.row(i)
		date, err := r.timestamp("date_key")
		if err != nil {
			return nil, err
		}
		location, err := r.integer("location_id")
		if err != nil {
			return nil, err
		}
		units, err := r.number("units")
		if err != nil {
			return nil, err
		}
		revenue, err := r.number("revenue")
		if err != nil {
			return nil, err
		}
		rows = append(rows, SalesRow{
			Date:       truncateDay(date),
			SKU:        r.text("sku"),
			LocationID: location,
			Units:      units,
			Revenue:    revenue,
		})
	}
	return rows, nil
}

func ParseInventory(data []byte, format Format) ([]InventoryRow, error) {
	t, err := readTable(data, format, inventoryColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]InventoryRow, 0, len(t.records))
	for i := range t.records {
		r := t.row(i)
		ts, err := r.timestamp("ts")
		if err != nil {
			return nil, err
		}
		location, err := r.integer("location_id")
		if err != nil {
			return nil, err
		}
		onHand, err := r.number("on_hand")
		if err != nil {
			return nil, err
		}
		onOrder, err := r.number("on_order")
		if err != nil {
			return nil, err
		}
		backorder, err := r.number("backorder")
		if err != nil {
			return nil, err
		}
		rows = append(rows, InventoryRow{
			Timestamp:  ts,
			SKU:        r.text("sku"),
			LocationID: location,
			OnHand:     onHand,
			OnOrder:    onOrder,
			Backorder:  backorder,
		})
	}
	return rows, nil
}

type table struct {
	colMap  map[string]int
	records [][]string
}

func readTable(data []byte, format Format, required []string) (*table, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(data)
	case FormatXLSX:
		records, err = readXLSX(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	colMap := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		name := strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if _, dup := colMap[name]; !dup {
			colMap[name] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := colMap[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	body := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if blank(record) {
			continue
		}
		body = append(body, record)
	}
	return &table{colMap: colMap, records: body}, nil
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// readXLSX reads the first sheet only.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx file has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		records = append(records, record)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}
	return records, nil
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (t *table) row(i int) cursor {
	return cursor{colMap: t.colMap, record: t.records[i], n: i + 1}
}

type cursor struct {
	colMap map[string]int
	record []string
	n      int
}

func (c cursor) text(col string) string {
	if idx, ok := c.colMap[col]; ok && idx < len(c.record) {
		return strings.TrimSpace(c.record[idx])
	}
	return ""
}

func (c cursor) fail(col, value string, err error) error {
	return &RowError{Row: c.n, Column: col, Value: value, Err: err}
}

func (c cursor) number(col string) (float64, error) {
	val := c.text(col)
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, c.fail(col, val, errors.New("not a number"))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, c.fail(col, val, errors.New("not a finite number"))
	}
	return f, nil
}

// integer accepts whole-number floats such as "3.0", which spreadsheets emit for id columns.
func (c cursor) integer(col string) (int64, error) {
	val := c.text(col)
	if n, err := strconv.ParseInt(val, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, c.fail(col, val, errors.New("not an integer"))
	}
	if f < -(1<<63) || f >= 1<<63 {
		return 0, c.fail(col, val, errors.New("integer out of range"))
	}
	return int64(f), nil
}

func (c cursor) timestamp(col string) (time.Time, error) {
	val := c.text(col)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, c.fail(col, val, errors.New("unrecognised date"))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
