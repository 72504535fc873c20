package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/usecase"
)

// ExcelWorkbook reads sheets of an Office Open XML workbook. Rows are
// streamed from the worksheet XML on every pass and never held in memory.
type ExcelWorkbook struct {
	path string
	file *excelize.File
}

func OpenExcel(path string) (*ExcelWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, entity.NewSourceNotFound("", fmt.Errorf("open %s: %w", path, err))
	}
	return &ExcelWorkbook{path: path, file: f}, nil
}

func (w *ExcelWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// Sheet scans the worksheet once to learn its header and its last non-empty
// row.
func (w *ExcelWorkbook) Sheet(name string) (usecase.Sheet, error) {
	if idx, err := w.file.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, entity.NewSourceNotFound(name, fmt.Errorf("sheet not present in %s", w.path))
	}

	rows, err := w.file.Rows(name)
	if err != nil {
		return nil, entity.NewSourceNotFound(name, fmt.Errorf("read %s: %w", w.path, err))
	}
	defer rows.Close()

	s := &excelSheet{name: name, file: w.file}
	for n := 1; rows.Next(); n++ {
		cells, err := rows.Columns()
		if err != nil {
			return nil, entity.NewSourceNotFound(name, fmt.Errorf("read %s row %d: %w", w.path, n, err))
		}
		if n == 1 {
			s.header = cells
		}
		if len(cells) > 0 {
			s.total = n
		}
	}
	if err := rows.Error(); err != nil {
		return nil, entity.NewSourceNotFound(name, fmt.Errorf("read %s: %w", w.path, err))
	}
	if s.total == 0 {
		s.header = nil
	}
	return s, nil
}

func (w *ExcelWorkbook) Close() error {
	return w.file.Close()
}

type excelSheet struct {
	name   string
	file   *excelize.File
	header []string
	total  int
}

func (s *excelSheet) Name() string     { return s.name }
func (s *excelSheet) Header() []string { return s.header }
func (s *excelSheet) TotalRows() int   { return s.total }

// Rows walks two iterators over the same worksheet in lockstep: one returns
// formatted text and the other the stored values. An excelize row iterator
// can only decode each row once.
func (s *excelSheet) Rows() (usecase.RowCursor, error) {
	display, err := s.file.Rows(s.name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", s.name, err)
	}
	raw, err := s.file.Rows(s.name)
	if err != nil {
		_ = display.Close()
		return nil, fmt.Errorf("read sheet %s: %w", s.name, err)
	}
	return &excelCursor{sheet: s.name, display: display, raw: raw, last: s.total}, nil
}

type excelCursor struct {
	sheet        string
	display, raw *excelize.Rows
	last, n      int
	row          usecase.SheetRow
	err          error
}

func (c *excelCursor) Next() bool {
	for c.err == nil && c.n < c.last {
		if !c.display.Next() || !c.raw.Next() {
			c.err = c.display.Error()
			if c.err == nil {
				c.err = c.raw.Error()
			}
			return false
		}
		c.n++
		if c.n == 1 {
			continue
		}

		cells, err := c.display.Columns()
		if err != nil {
			c.err = fmt.Errorf("read sheet %s row %d: %w", c.sheet, c.n, err)
			return false
		}
		raw, err := c.raw.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			c.err = fmt.Errorf("read sheet %s row %d: %w", c.sheet, c.n, err)
			return false
		}
		c.row = usecase.SheetRow{Number: c.n, Cells: cells, Raw: raw}
		return true
	}
	return false
}

func (c *excelCursor) Row() usecase.SheetRow { return c.row }
func (c *excelCursor) Err() error            { return c.err }

func (c *excelCursor) Close() error {
	err := c.display.Close()
	if rerr := c.raw.Close(); err == nil {
		err = rerr
	}
	return err
}
