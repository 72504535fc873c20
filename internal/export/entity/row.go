package entity

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Row is one data row of a sheet as an ordered column -> text mapping.
// Number is the 1-based sheet row; row 1 is the header.
type Row struct {
	Number  int
	Columns []string
	Values  []string
}

// Get returns the value stored under column.
func (r Row) Get(column string) (string, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return "", false
}

func (r Row) Len() int {
	return len(r.Columns)
}

// Batch is a bounded, contiguous group of rows from one sheet.
type Batch struct {
	Index int
	Total int
	Rows  []Row
}

// FirstRow and LastRow report the sheet row range the batch covers.
func (b Batch) FirstRow() int {
	if len(b.Rows) == 0 {
		return 0
	}
	return b.Rows[0].Number
}

func (b Batch) LastRow() int {
	if len(b.Rows) == 0 {
		return 0
	}
	return b.Rows[len(b.Rows)-1].Number
}

// DuplicateKey holds the identity column values of a row.
type DuplicateKey struct {
	Columns []string
	Values  []string
}

// NewDuplicateKey picks the identity columns present in row, in identity order.
// Identity columns the row does not carry are left out of the key.
func NewDuplicateKey(row Row, identity []string) DuplicateKey {
	key := DuplicateKey{}
	for _, col := range identity {
		v, ok := row.Get(col)
		if !ok {
			continue
		}
		key.Columns = append(key.Columns, col)
		key.Values = append(key.Values, v)
	}
	return key
}

func (k DuplicateKey) Empty() bool {
	return len(k.Columns) == 0
}

// String encodes the key with length prefixes so distinct keys never collide.
func (k DuplicateKey) String() string {
	var sb strings.Builder
	for i := range k.Columns {
		sb.WriteString(strconv.Itoa(len(k.Columns[i])))
		sb.WriteByte(':')
		sb.WriteString(k.Columns[i])
		sb.WriteString(strconv.Itoa(len(k.Values[i])))
		sb.WriteByte('=')
		sb.WriteString(k.Values[i])
	}
	return sb.String()
}

// ExtraColumnName names a non-empty cell found past the header width.
func ExtraColumnName(position int) string {
	return fmt.Sprintf("column_%d", position)
}

// SameColumns reports whether two column lists are equal in order.
func SameColumns(a, b []string) bool {
	return slices.Equal(a, b)
}
