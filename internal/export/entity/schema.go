package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ManagedColumns are the store-owned columns added to every destination table.
type ManagedColumns struct {
	ID        string
	CreatedAt string
	UpdatedAt string
}

func DefaultManagedColumns() ManagedColumns {
	return ManagedColumns{ID: "_id", CreatedAt: "created_at", UpdatedAt: "updated_at"}
}

func (m ManagedColumns) Names() []string {
	return []string{m.ID, m.CreatedAt, m.UpdatedAt}
}

// TableSchema is the destination table derived from a sheet header. It is
// computed once per sheet per run and never modified afterwards.
type TableSchema struct {
	Table   string
	Columns []string
}

// NewTableSchema derives the schema from header. Duplicate header names are
// kept verbatim; the store decides whether it accepts them.
func NewTableSchema(table string, header []string, managed ManagedColumns) (TableSchema, error) {
	if strings.TrimSpace(table) == "" {
		return TableSchema{}, NewSchemaError(table, errors.New("table name is empty"))
	}
	if len(header) == 0 {
		return TableSchema{}, NewSchemaError(table, errors.New("header row is empty"))
	}

	reserved := make(map[string]struct{}, 3)
	for _, name := range managed.Names() {
		reserved[strings.ToLower(name)] = struct{}{}
	}

	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return TableSchema{}, NewSchemaError(table, fmt.Errorf("header cell %d is blank", i+1))
		}
		if _, ok := reserved[strings.ToLower(name)]; ok {
			return TableSchema{}, NewSchemaError(table, fmt.Errorf("header %q collides with a managed column", name))
		}
		columns[i] = name
	}

	return TableSchema{Table: table, Columns: columns}, nil
}

// Row maps raw cells onto the schema columns. Short rows are padded with
// empty values; non-empty cells past the header width are kept under
// synthetic column names so the writer can reject the row.
func (s TableSchema) Row(number int, cells []string) Row {
	row := Row{
		Number:  number,
		Columns: make([]string, len(s.Columns), max(len(s.Columns), len(cells))),
		Values:  make([]string, len(s.Columns), max(len(s.Columns), len(cells))),
	}
	copy(row.Columns, s.Columns)

	for i, cell := range cells {
		if i < len(s.Columns) {
			row.Values[i] = cell
			continue
		}
		if strings.TrimSpace(cell) == "" {
			continue
		}
		row.Columns = append(row.Columns, ExtraColumnName(i+1))
		row.Values = append(row.Values, cell)
	}

	return row
}

// Matches reports whether row carries exactly the schema columns.
func (s TableSchema) Matches(row Row) bool {
	return SameColumns(s.Columns, row.Columns)
}

// Has reports whether the schema has a column named name.
func (s TableSchema) Has(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}
