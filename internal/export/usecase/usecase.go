package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgerror"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkglog"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkguid"
)

type Dependency struct {
	Config      Config
	Store       Store
	Checkpoints CheckpointStore
	Runs        RunStore
	Open        Opener
	Observer    Observer
	Runner      Runner
	Clock       Clock
	Reclaimer   Reclaimer
	ID          pkguid.StringID
	RootCtx     context.Context
}

type Usecase struct {
	cfg         Config
	store       Store
	checkpoints CheckpointStore
	runs        RunStore
	open        Opener
	observer    Observer
	runner      Runner
	clock       Clock
	reclaimer   Reclaimer
	id          pkguid.StringID
	rootCtx     context.Context

	schemas  *SchemaManager
	writer   *BatchWriter
	selector func(sc SheetConfig) *IncrementalSelector

	// mu serializes runs: two exports never write the same tables at once.
	mu sync.Mutex
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	observer := dep.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	reclaimer := dep.Reclaimer
	if reclaimer == nil {
		reclaimer = nopReclaimer{}
	}

	cfg := dep.Config.WithDefaults()
	detector := NewDuplicateDetector(dep.Store)

	return &Usecase{
		cfg:         cfg,
		store:       dep.Store,
		checkpoints: dep.Checkpoints,
		runs:        dep.Runs,
		open:        dep.Open,
		observer:    observer,
		runner:      dep.Runner,
		clock:       clock,
		reclaimer:   reclaimer,
		id:          dep.ID,
		rootCtx:     root,
		schemas:     NewSchemaManager(dep.Store, cfg.Managed),
		writer:      NewBatchWriter(dep.Store, detector),
		selector: func(sc SheetConfig) *IncrementalSelector {
			return NewIncrementalSelector(cfg.dateColumnsFor(sc), cfg.Location)
		},
	}
}

// RunFull exports every configured sheet of the workbook at path.
func (u *Usecase) RunFull(ctx context.Context, path string) entity.ExportResult {
	return u.run(ctx, u.newRunID(), entity.ModeFull, path)
}

// RunIncremental exports the rows dated after each table's checkpoint and
// advances the checkpoints once every sheet succeeded.
func (u *Usecase) RunIncremental(ctx context.Context, path string) entity.ExportResult {
	return u.run(ctx, u.newRunID(), entity.ModeIncremental, path)
}

// Submit records a queued run and executes it in the background.
func (u *Usecase) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if u.runs == nil || u.id == nil || u.runner == nil {
		return SubmitResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}
	if !req.Mode.Valid() {
		return SubmitResult{}, pkgerror.NewInvalidInput(fmt.Errorf("unknown mode %q", req.Mode))
	}
	if req.Path == "" {
		return SubmitResult{}, pkgerror.NewInvalidInput(errors.New("source path is required"))
	}

	runID := u.id.Generate()
	if err := u.runs.CreateRun(ctx, entity.RunMeta{
		ID:     runID,
		Mode:   req.Mode,
		Source: req.Path,
		Status: entity.RunStatusQueued,
	}); err != nil {
		return SubmitResult{}, pkgerror.Normalize(err)
	}

	u.runner.Go(u.rootCtx, func(ctx context.Context) error {
		if req.Cleanup != nil {
			defer req.Cleanup()
		}
		return u.execute(ctx, runID, req)
	})

	return SubmitResult{RunID: runID, Status: entity.RunStatusQueued}, nil
}

// Run returns the state of a submitted run.
func (u *Usecase) Run(ctx context.Context, runID string) (RunResult, error) {
	if runID == "" {
		return RunResult{}, pkgerror.NewInvalidInput(errors.New("run_id is required"))
	}

	meta, err := u.runs.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, pkgerror.ErrNotFound) {
			return RunResult{}, pkgerror.NewBusiness("run not found", pkgerror.CodeNotFound)
		}
		return RunResult{}, pkgerror.Normalize(err)
	}

	return RunResult{
		RunID:     meta.ID,
		Mode:      meta.Mode,
		Status:    meta.Status,
		Err:       meta.Err,
		StartedAt: meta.StartedAt,
		EndedAt:   meta.EndedAt,
		Result:    meta.Result,
	}, nil
}

func (u *Usecase) execute(ctx context.Context, runID string, req SubmitRequest) error {
	if err := u.runs.UpdateRun(ctx, runID, func(meta *entity.RunMeta) {
		meta.Status = entity.RunStatusRunning
		meta.StartedAt = u.clock.Now().Unix()
	}); err != nil {
		return err
	}

	result := u.run(ctx, runID, req.Mode, req.Path)

	if err := u.runs.UpdateRun(ctx, runID, func(meta *entity.RunMeta) {
		meta.Status = entity.RunStatusDone
		if !result.Success {
			meta.Status = entity.RunStatusFailed
			meta.Err = result.Error()
		}
		meta.EndedAt = u.clock.Now().Unix()
		meta.Result = &result
	}); err != nil {
		return err
	}

	return result.Err
}

func (u *Usecase) newRunID() string {
	if u.id == nil {
		return ""
	}
	return u.id.Generate()
}

func (u *Usecase) run(ctx context.Context, runID string, mode entity.Mode, path string) entity.ExportResult {
	u.mu.Lock()
	defer u.mu.Unlock()

	if runID != "" {
		ctx = pkglog.SetCorrelationID(ctx, runID)
	}

	startedAt := u.clock.Now()
	result := entity.ExportResult{RunID: runID, Mode: mode, Source: path}

	slog.InfoContext(ctx, "export started", "mode", mode, "source", path, "sheets", len(u.cfg.Sheets))

	err := u.export(ctx, mode, path, startedAt, &result)

	result.Tally()
	result.Elapsed = u.clock.Now().Sub(startedAt)
	result.Success = err == nil
	result.Err = err

	if err != nil {
		slog.ErrorContext(ctx, "export failed", "mode", mode, "source", path, "error", err,
			"rows_inserted", result.RowsInserted, "rows_skipped", result.RowsSkipped)
		u.observer.OnError(ctx, err)
	} else {
		slog.InfoContext(ctx, "export finished", "mode", mode, "source", path,
			"rows_inserted", result.RowsInserted, "rows_skipped", result.RowsSkipped,
			"elapsed", result.Elapsed.String())
	}
	u.observer.OnRunComplete(ctx, result)

	return result
}
