package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgerror"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgmem"
)

type testTable struct {
	columns []string
	rows    []entity.Row
}

type testStore struct {
	mu     sync.Mutex
	tables map[string]*testTable

	ensureCalls int
	lookups     int
	ensureErr   error
	existsErr   error
	insertErr   error
	failAfter   int // fail inserts once this many rows were stored; 0 disables
	conflictOn  map[string]bool
	inserted    int
}

func newTestStore() *testStore {
	return &testStore{tables: make(map[string]*testTable)}
}

func (s *testStore) EnsureTable(ctx context.Context, schema entity.TableSchema, identity []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureCalls++
	if s.ensureErr != nil {
		return false, s.ensureErr
	}
	if _, ok := s.tables[schema.Table]; ok {
		return false, nil
	}
	s.tables[schema.Table] = &testTable{columns: append([]string{"_id"}, append(append([]string{}, schema.Columns...), "created_at", "updated_at")...)}
	return true, nil
}

func (s *testStore) Exists(ctx context.Context, table string, key entity.DuplicateKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookups++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	t, ok := s.tables[table]
	if !ok {
		return false, fmt.Errorf("table %q does not exist", table)
	}
	for _, row := range t.rows {
		match := true
		for i, col := range key.Columns {
			v, _ := row.Get(col)
			if v != key.Values[i] {
				match = false
				break
			}
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

func (s *testStore) Insert(ctx context.Context, table string, row entity.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return s.insertErr
	}
	if s.failAfter > 0 && s.inserted >= s.failAfter {
		return errors.New("connection reset")
	}
	if v, _ := row.Get("id"); s.conflictOn[v] {
		return entity.ErrConflict
	}
	t, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("table %q does not exist", table)
	}
	t.rows = append(t.rows, row)
	s.inserted++
	return nil
}

func (s *testStore) Count(ctx context.Context, table string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[table]
	if !ok {
		return 0, fmt.Errorf("table %q does not exist", table)
	}
	return int64(len(t.rows)), nil
}

func (s *testStore) values(table, column string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[table]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		v, _ := row.Get(column)
		out = append(out, v)
	}
	return out
}

type testCheckpoints struct {
	mu      sync.Mutex
	data    map[string]time.Time
	saves   int
	loadErr error
}

func newTestCheckpoints() *testCheckpoints {
	return &testCheckpoints{data: make(map[string]time.Time)}
}

func (c *testCheckpoints) Load(ctx context.Context, table string) (entity.Checkpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return entity.Checkpoint{}, c.loadErr
	}
	return entity.Checkpoint{Table: table, LastRunAt: c.data[table]}, nil
}

func (c *testCheckpoints) Save(ctx context.Context, cp entity.Checkpoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	if cp.LastRunAt.After(c.data[cp.Table]) {
		c.data[cp.Table] = cp.LastRunAt
	}
	return nil
}

type testRuns struct {
	mu   sync.Mutex
	runs map[string]entity.RunMeta
}

func newTestRuns() *testRuns {
	return &testRuns{runs: make(map[string]entity.RunMeta)}
}

func (r *testRuns) CreateRun(ctx context.Context, meta entity.RunMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[meta.ID] = meta
	return nil
}

func (r *testRuns) UpdateRun(ctx context.Context, runID string, fn func(meta *entity.RunMeta)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta, ok := r.runs[runID]
	if !ok {
		return pkgerror.ErrNotFound
	}
	fn(&meta)
	r.runs[runID] = meta
	return nil
}

func (r *testRuns) GetRun(ctx context.Context, runID string) (entity.RunMeta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta, ok := r.runs[runID]
	if !ok {
		return entity.RunMeta{}, pkgerror.ErrNotFound
	}
	return meta, nil
}

type testSheet struct {
	name string
	rows [][]string
	// raw overrides the stored values of a row by index into rows.
	raw map[int][]string
}

func (s *testSheet) Name() string { return s.name }

func (s *testSheet) Header() []string {
	if len(s.rows) == 0 {
		return nil
	}
	return s.rows[0]
}

func (s *testSheet) TotalRows() int { return len(s.rows) }

func (s *testSheet) Rows() (RowCursor, error) {
	out := make([]SheetRow, 0, len(s.rows))
	for i := 1; i < len(s.rows); i++ {
		raw, ok := s.raw[i]
		if !ok {
			raw = s.rows[i]
		}
		out = append(out, SheetRow{Number: i + 1, Cells: s.rows[i], Raw: raw})
	}
	return &sliceCursor{rows: out, pos: -1}, nil
}

type sliceCursor struct {
	rows []SheetRow
	pos  int
}

func (c *sliceCursor) Next() bool {
	c.pos++
	return c.pos < len(c.rows)
}

func (c *sliceCursor) Row() SheetRow { return c.rows[c.pos] }
func (c *sliceCursor) Err() error    { return nil }
func (c *sliceCursor) Close() error  { return nil }

type testWorkbook struct {
	sheets map[string]*testSheet
	closed bool
}

func (w *testWorkbook) SheetNames() []string {
	names := make([]string, 0, len(w.sheets))
	for name := range w.sheets {
		names = append(names, name)
	}
	return names
}

func (w *testWorkbook) Sheet(name string) (Sheet, error) {
	s, ok := w.sheets[name]
	if !ok {
		return nil, entity.NewSourceNotFound(name, errors.New("no such sheet"))
	}
	return s, nil
}

func (w *testWorkbook) Close() error {
	w.closed = true
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type testID struct {
	mu sync.Mutex
	n  int
}

func (g *testID) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("run-%d", g.n)
}

type syncRunner struct{ errs []error }

func (r *syncRunner) Go(ctx context.Context, f func(ctx context.Context) error) {
	if err := f(ctx); err != nil {
		r.errs = append(r.errs, err)
	}
}

type recordingObserver struct {
	mu          sync.Mutex
	ensured     []bool
	batches     []entity.BatchReport
	checkpoints []entity.Checkpoint
	errs        []error
	results     []entity.ExportResult
}

func (o *recordingObserver) OnTableEnsured(_ context.Context, _ entity.TableSchema, created bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ensured = append(o.ensured, created)
}

func (o *recordingObserver) OnBatchComplete(_ context.Context, report entity.BatchReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = append(o.batches, report)
}

func (o *recordingObserver) OnCheckpointAdvance(_ context.Context, cp entity.Checkpoint) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.checkpoints = append(o.checkpoints, cp)
}

func (o *recordingObserver) OnError(_ context.Context, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs = append(o.errs, err)
}

func (o *recordingObserver) OnRunComplete(_ context.Context, result entity.ExportResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

type countingReclaimer struct {
	mu    sync.Mutex
	calls int
}

func (r *countingReclaimer) Reclaim(context.Context) pkgmem.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return pkgmem.Stats{}
}
