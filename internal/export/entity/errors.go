package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned by a store when an insert hits a uniqueness constraint.
	ErrConflict = errors.New("row conflicts with an existing record")

	// ErrFullScanRequired signals that no date column exists and the sheet
	// has to be exported in full.
	ErrFullScanRequired = errors.New("no date column found, full scan required")
)

// Kind classifies pipeline failures.
type Kind int

const (
	KindSourceNotFound Kind = iota + 1
	KindSchema
	KindSchemaMismatch
	KindDateParse
	KindStoreWrite
)

func (k Kind) String() string {
	switch k {
	case KindSourceNotFound:
		return "SourceNotFound"
	case KindSchema:
		return "SchemaError"
	case KindSchemaMismatch:
		return "SchemaMismatchError"
	case KindDateParse:
		return "DateParseFailure"
	case KindStoreWrite:
		return "StoreWriteFailure"
	default:
		return "UnknownError"
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrSourceNotFound = &Error{Kind: KindSourceNotFound}
	ErrSchema         = &Error{Kind: KindSchema}
	ErrSchemaMismatch = &Error{Kind: KindSchemaMismatch}
	ErrDateParse      = &Error{Kind: KindDateParse}
	ErrStoreWrite     = &Error{Kind: KindStoreWrite}
)

// Error is a pipeline error tagged with its kind and location.
type Error struct {
	Kind  Kind
	Table string
	Sheet string
	Row   int
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Sheet != "" {
		msg += fmt.Sprintf(" sheet=%q", e.Sheet)
	}
	if e.Table != "" {
		msg += fmt.Sprintf(" table=%q", e.Table)
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" row=%d", e.Row)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels (no wrapped error) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Kind == e.Kind
}

func NewSourceNotFound(sheet string, err error) error {
	return &Error{Kind: KindSourceNotFound, Sheet: sheet, Err: err}
}

func NewSchemaError(table string, err error) error {
	return &Error{Kind: KindSchema, Table: table, Err: err}
}

func NewSchemaMismatch(table string, row int, err error) error {
	return &Error{Kind: KindSchemaMismatch, Table: table, Row: row, Err: err}
}

func NewDateParse(sheet string, row int, err error) error {
	return &Error{Kind: KindDateParse, Sheet: sheet, Row: row, Err: err}
}

func NewStoreWrite(table string, row int, err error) error {
	return &Error{Kind: KindStoreWrite, Table: table, Row: row, Err: err}
}
