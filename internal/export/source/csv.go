package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/usecase"
)

const utf8BOM = "\ufeff"

// CSVWorkbook is a CSV file seen as a workbook with one sheet named after
// the file, without its extension.
type CSVWorkbook struct {
	sheet *csvSheet
}

// OpenCSV counts the records once; rows are read again from disk on each
// pass.
func OpenCSV(path string) (*CSVWorkbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, entity.NewSourceNotFound("", err)
	}
	defer f.Close()

	s := &csvSheet{
		name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		path: path,
	}

	reader := newCSVReader(f)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, entity.NewSourceNotFound("", fmt.Errorf("read %s: %w", path, err))
		}
		if s.total == 0 {
			s.header = stripBOM(record)
		}
		s.total++
	}

	return &CSVWorkbook{sheet: s}, nil
}

func (w *CSVWorkbook) SheetNames() []string {
	return []string{w.sheet.name}
}

// Sheet matches the file name case-insensitively.
func (w *CSVWorkbook) Sheet(name string) (usecase.Sheet, error) {
	if !strings.EqualFold(name, w.sheet.name) {
		return nil, entity.NewSourceNotFound(name, fmt.Errorf("csv source only has sheet %q", w.sheet.name))
	}
	return w.sheet, nil
}

func (w *CSVWorkbook) Close() error {
	return nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

func stripBOM(record []string) []string {
	if len(record) > 0 {
		record[0] = strings.TrimPrefix(record[0], utf8BOM)
	}
	return record
}

type csvSheet struct {
	name   string
	path   string
	header []string
	total  int
}

func (s *csvSheet) Name() string     { return s.name }
func (s *csvSheet) Header() []string { return s.header }
func (s *csvSheet) TotalRows() int   { return s.total }

func (s *csvSheet) Rows() (usecase.RowCursor, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", s.name, err)
	}
	return &csvCursor{file: f, reader: newCSVReader(f), last: s.total}, nil
}

type csvCursor struct {
	file    *os.File
	reader  *csv.Reader
	last, n int
	row     usecase.SheetRow
	err     error
}

func (c *csvCursor) Next() bool {
	for c.err == nil && c.n < c.last {
		record, err := c.reader.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			c.err = fmt.Errorf("read %s record %d: %w", c.file.Name(), c.n+1, err)
			return false
		}
		c.n++
		if c.n == 1 {
			continue
		}
		c.row = usecase.SheetRow{Number: c.n, Cells: record, Raw: record}
		return true
	}
	return false
}

func (c *csvCursor) Row() usecase.SheetRow { return c.row }
func (c *csvCursor) Err() error            { return c.err }
func (c *csvCursor) Close() error          { return c.file.Close() }
