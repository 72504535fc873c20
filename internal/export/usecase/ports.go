package usecase

import (
	"context"
	"time"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgmem"
)

// Store is the destination relational store.
type Store interface {
	// EnsureTable creates the table if absent and reports whether it did.
	EnsureTable(ctx context.Context, schema entity.TableSchema, identity []string) (bool, error)
	// Exists runs one point lookup for key. It returns entity.ErrConflict-free
	// errors only; a missing table is an error.
	Exists(ctx context.Context, table string, key entity.DuplicateKey) (bool, error)
	// Insert writes one row. A uniqueness violation is reported as entity.ErrConflict.
	Insert(ctx context.Context, table string, row entity.Row) error
	Count(ctx context.Context, table string) (int64, error)
}

type CheckpointStore interface {
	// Load returns the checkpoint for table, or a zero LastRunAt when none exists.
	Load(ctx context.Context, table string) (entity.Checkpoint, error)
	// Save persists cp; it never moves an existing checkpoint backwards.
	Save(ctx context.Context, cp entity.Checkpoint) error
}

type RunStore interface {
	CreateRun(ctx context.Context, meta entity.RunMeta) error
	UpdateRun(ctx context.Context, runID string, fn func(meta *entity.RunMeta)) error
	GetRun(ctx context.Context, runID string) (entity.RunMeta, error)
}

// Workbook is an opened tabular document.
type Workbook interface {
	SheetNames() []string
	// Sheet returns the named sheet or an entity.ErrSourceNotFound error.
	Sheet(name string) (Sheet, error)
	Close() error
}

// Sheet is read front to back. Row 1 is the header; every call to Rows
// starts a new pass at row 2.
type Sheet interface {
	Name() string
	Header() []string
	// TotalRows counts the header row.
	TotalRows() int
	Rows() (RowCursor, error)
}

// SheetRow is one data row. Cells hold the text as displayed; Raw holds the
// stored values before number formatting, so a date cell reads as its
// serial number. Sources without formats use the same slice for both.
type SheetRow struct {
	Number int
	Cells  []string
	Raw    []string
}

// RowCursor yields the data rows of one pass in order. Rows already read
// are not retained.
type RowCursor interface {
	Next() bool
	Row() SheetRow
	Err() error
	Close() error
}

// Opener opens the workbook stored at path.
type Opener func(path string) (Workbook, error)

// Observer is notified of export progress. Implementations must not block
// for long: they are called on the write path.
type Observer interface {
	OnTableEnsured(ctx context.Context, schema entity.TableSchema, created bool)
	OnBatchComplete(ctx context.Context, report entity.BatchReport)
	OnCheckpointAdvance(ctx context.Context, cp entity.Checkpoint)
	OnError(ctx context.Context, err error)
	OnRunComplete(ctx context.Context, result entity.ExportResult)
}

type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error)
}

type Clock interface {
	Now() time.Time
}

type Reclaimer interface {
	Reclaim(ctx context.Context) pkgmem.Stats
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type nopObserver struct{}

func (nopObserver) OnTableEnsured(context.Context, entity.TableSchema, bool) {}
func (nopObserver) OnBatchComplete(context.Context, entity.BatchReport)      {}
func (nopObserver) OnCheckpointAdvance(context.Context, entity.Checkpoint)   {}
func (nopObserver) OnError(context.Context, error)                           {}
func (nopObserver) OnRunComplete(context.Context, entity.ExportResult)       {}

type nopReclaimer struct{}

func (nopReclaimer) Reclaim(context.Context) pkgmem.Stats { return pkgmem.Stats{} }
