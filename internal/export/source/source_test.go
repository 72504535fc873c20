package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/usecase"
)

func writeWorkbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func readAll(t *testing.T, s usecase.Sheet) []usecase.SheetRow {
	t.Helper()

	cur, err := s.Rows()
	require.NoError(t, err)
	defer func() { require.NoError(t, cur.Close()) }()

	var rows []usecase.SheetRow
	for cur.Next() {
		rows = append(rows, cur.Row())
	}
	require.NoError(t, cur.Err())
	return rows
}

func TestOpen_Excel(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Users": {
			{"id", "name", "date_created"},
			{1, "Ann", "2024-01-01"},
			{2, "Bob"},
		},
	})

	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Users"}, wb.SheetNames())

	sheet, err := wb.Sheet("Users")
	require.NoError(t, err)
	assert.Equal(t, "Users", sheet.Name())
	assert.Equal(t, []string{"id", "name", "date_created"}, sheet.Header())
	assert.Equal(t, 3, sheet.TotalRows())

	rows := readAll(t, sheet)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, []string{"1", "Ann", "2024-01-01"}, rows[0].Cells)
	assert.Equal(t, 3, rows[1].Number)
	assert.Equal(t, []string{"2", "Bob"}, rows[1].Cells)

	// a second pass starts over
	assert.Equal(t, rows, readAll(t, sheet))
}

func TestOpen_ExcelMissingSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{"Users": {{"id"}}})

	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	_, err = wb.Sheet("Orders")
	assert.True(t, errors.Is(err, entity.ErrSourceNotFound), "err = %v", err)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.True(t, errors.Is(err, entity.ErrSourceNotFound), "err = %v", err)

	_, err = Open(filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, errors.Is(err, entity.ErrSourceNotFound), "err = %v", err)
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	_, err := Open("report.pdf")
	assert.True(t, errors.Is(err, entity.ErrSourceNotFound), "err = %v", err)
}

func TestOpen_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Orders.csv")
	data := "\ufeffid,sku,note\n1,A,\"hello, world\"\n2,B\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Orders"}, wb.SheetNames())

	sheet, err := wb.Sheet("orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "sku", "note"}, sheet.Header())

	assert.Equal(t, 3, sheet.TotalRows())

	rows := readAll(t, sheet)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "A", "hello, world"}, rows[0].Cells)
	assert.Equal(t, rows[0].Cells, rows[0].Raw)
	assert.Equal(t, 3, rows[1].Number)
	assert.Equal(t, []string{"2", "B"}, rows[1].Cells)

	_, err = wb.Sheet("Users")
	assert.True(t, errors.Is(err, entity.ErrSourceNotFound), "err = %v", err)
}

func TestExcelSheet_DateFormattedCells(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Orders"))
	require.NoError(t, f.SetSheetRow("Orders", "A1", &[]any{"id", "date_created"}))

	dateOnly, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	dateTime, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	require.NoError(t, err)

	require.NoError(t, f.SetSheetRow("Orders", "A2", &[]any{1, 45356.0}))
	require.NoError(t, f.SetCellStyle("Orders", "B2", "B2", dateOnly))
	require.NoError(t, f.SetSheetRow("Orders", "A3", &[]any{2, 45356.4375}))
	require.NoError(t, f.SetCellStyle("Orders", "B3", "B3", dateTime))
	require.NoError(t, f.SetSheetRow("Orders", "A4", &[]any{3, "2024-03-05T08:00:00Z"}))
	require.NoError(t, f.SetSheetRow("Orders", "A5", &[]any{4, "2024-02-01"}))

	path := filepath.Join(t.TempDir(), "orders.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	sheet, err := wb.Sheet("Orders")
	require.NoError(t, err)
	assert.Equal(t, 5, sheet.TotalRows())

	rows := readAll(t, sheet)
	require.Len(t, rows, 4)
	assert.Equal(t, "45356", rows[0].Raw[1])
	assert.NotEqual(t, "45356", rows[0].Cells[1])
	assert.Equal(t, "45356.4375", rows[1].Raw[1])
	assert.Equal(t, rows[2].Cells, rows[2].Raw)

	schema, err := entity.NewTableSchema("orders", sheet.Header(), entity.DefaultManagedColumns())
	require.NoError(t, err)

	since := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	sel, err := usecase.NewIncrementalSelector(usecase.DefaultDateColumns, time.UTC).
		SelectNewRows(context.Background(), sheet, schema, since)
	require.NoError(t, err)

	assert.Equal(t, "date_created", sel.Column)
	assert.Equal(t, 4, sel.Scanned)
	assert.Zero(t, sel.Unparseable)
	require.Len(t, sel.Rows, 3)
	assert.Equal(t, 2, sel.Rows[0].Number)
	assert.Equal(t, 3, sel.Rows[1].Number)
	assert.Equal(t, 4, sel.Rows[2].Number)
}

func TestExcelSheet_TrailingEmptyRows(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"id"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1}))
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "A6", "A6", style))

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()

	sheet, err := wb.Sheet("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, 2, sheet.TotalRows())
	assert.Len(t, readAll(t, sheet), 1)
}
