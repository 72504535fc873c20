package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

// Selection is the outcome of filtering a sheet against a checkpoint.
type Selection struct {
	Column      string
	Rows        []entity.Row
	Scanned     int
	Unparseable int
}

// IncrementalSelector picks the rows dated strictly after a checkpoint.
type IncrementalSelector struct {
	candidates []string
	loc        *time.Location
}

func NewIncrementalSelector(candidates []string, loc *time.Location) *IncrementalSelector {
	if loc == nil {
		loc = time.UTC
	}
	return &IncrementalSelector{candidates: candidates, loc: loc}
}

// DateColumn returns the first candidate present in columns. Exact names win
// over case-insensitive matches.
func (s *IncrementalSelector) DateColumn(columns []string) (string, bool) {
	for _, want := range s.candidates {
		for _, c := range columns {
			if c == want {
				return c, true
			}
		}
	}
	for _, want := range s.candidates {
		for _, c := range columns {
			if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(want)) {
				return c, true
			}
		}
	}
	return "", false
}

// SelectNewRows scans every data row of sheet and keeps those whose date is
// after since. Rows with an empty or unreadable date are logged and left out.
// It returns entity.ErrFullScanRequired when the schema has no date column.
func (s *IncrementalSelector) SelectNewRows(ctx context.Context, sheet Sheet, schema entity.TableSchema, since time.Time) (Selection, error) {
	column, ok := s.DateColumn(schema.Columns)
	if !ok {
		return Selection{}, entity.ErrFullScanRequired
	}

	idx := -1
	for i, c := range schema.Columns {
		if c == column {
			idx = i
			break
		}
	}

	cur, err := sheet.Rows()
	if err != nil {
		return Selection{}, fmt.Errorf("read %q: %w", sheet.Name(), err)
	}
	defer cur.Close()

	sel := Selection{Column: column}
	for cur.Next() {
		if err := ctx.Err(); err != nil {
			return Selection{}, err
		}

		in := cur.Row()
		sel.Scanned++

		row := schema.Row(in.Number, in.Cells)
		ts, err := s.rowDate(cellAt(in.Raw, idx), row.Values[idx])
		if err != nil {
			sel.Unparseable++
			slog.WarnContext(ctx, "row excluded from incremental run",
				"column", column, "value", row.Values[idx],
				"error", entity.NewDateParse(sheet.Name(), in.Number, err))
			continue
		}

		if ts.After(since) {
			sel.Rows = append(sel.Rows, row)
		}
	}
	if err := cur.Err(); err != nil {
		return Selection{}, fmt.Errorf("read %q: %w", sheet.Name(), err)
	}

	return sel, nil
}

// rowDate prefers the stored cell value, which is a serial number for
// date-formatted cells, over the displayed text.
func (s *IncrementalSelector) rowDate(raw, display string) (time.Time, error) {
	if raw != "" && raw != display {
		if ts, err := ParseDate(raw, s.loc); err == nil {
			return ts, nil
		}
	}
	return ParseDate(display, s.loc)
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
