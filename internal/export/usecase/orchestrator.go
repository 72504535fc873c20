package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

// boundSheet is a configured sheet resolved against the opened workbook.
type boundSheet struct {
	cfg   SheetConfig
	sheet Sheet
}

// emitFunc hands one batch to the writer side of the pipeline.
type emitFunc func(entity.Batch) error

func (u *Usecase) export(ctx context.Context, mode entity.Mode, path string, startedAt time.Time, result *entity.ExportResult) error {
	if u.open == nil || u.store == nil {
		return errors.New("export: missing dependency")
	}
	if mode == entity.ModeIncremental && u.checkpoints == nil {
		return errors.New("export: incremental mode needs a checkpoint store")
	}

	wb, err := u.open(path)
	if err != nil {
		if errors.Is(err, entity.ErrSourceNotFound) {
			return err
		}
		return entity.NewSourceNotFound("", err)
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			slog.WarnContext(ctx, "failed to close workbook", "source", path, "error", cerr)
		}
	}()

	// Every configured sheet must exist before anything is written.
	sheets := make([]boundSheet, 0, len(u.cfg.Sheets))
	for _, sc := range u.cfg.Sheets {
		sheet, err := wb.Sheet(sc.Name)
		if err != nil {
			if errors.Is(err, entity.ErrSourceNotFound) {
				return err
			}
			return entity.NewSourceNotFound(sc.Name, err)
		}
		sheets = append(sheets, boundSheet{cfg: sc, sheet: sheet})
	}

	// Checkpoints are read once, before any sheet is processed.
	checkpoints := make(map[string]entity.Checkpoint)
	if mode == entity.ModeIncremental {
		for _, b := range sheets {
			if _, ok := checkpoints[b.cfg.Table]; ok {
				continue
			}
			cp, err := u.checkpoints.Load(ctx, b.cfg.Table)
			if err != nil {
				return fmt.Errorf("load checkpoint for %q: %w", b.cfg.Table, err)
			}
			checkpoints[b.cfg.Table] = cp
			slog.InfoContext(ctx, "checkpoint loaded", "table", b.cfg.Table, "last_run_at", cp.LastRunAt)
		}
	}

	for _, b := range sheets {
		res := entity.SheetResult{Sheet: b.cfg.Name, Table: b.cfg.Table}

		var err error
		if mode == entity.ModeIncremental {
			err = u.exportIncremental(ctx, b, checkpoints[b.cfg.Table].LastRunAt, &res)
		} else {
			err = u.exportFull(ctx, b, &res)
		}
		result.Sheets = append(result.Sheets, res)
		if err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if mode == entity.ModeIncremental {
		for table, cp := range checkpoints {
			next := cp.Advance(startedAt)
			if err := u.checkpoints.Save(ctx, next); err != nil {
				return fmt.Errorf("save checkpoint for %q: %w", table, err)
			}
			slog.InfoContext(ctx, "checkpoint advanced", "table", table, "last_run_at", next.LastRunAt)
			u.observer.OnCheckpointAdvance(ctx, next)
		}
	}

	for i := range result.Sheets {
		n, err := u.store.Count(ctx, result.Sheets[i].Table)
		if err != nil {
			slog.WarnContext(ctx, "failed to count records", "table", result.Sheets[i].Table, "error", err)
			continue
		}
		result.Sheets[i].Records = n
	}

	return nil
}

func (u *Usecase) exportFull(ctx context.Context, b boundSheet, res *entity.SheetResult) error {
	schema, err := u.ensureTable(ctx, b)
	if err != nil {
		return err
	}
	return u.exportAll(ctx, b, schema, res)
}

func (u *Usecase) exportAll(ctx context.Context, b boundSheet, schema entity.TableSchema, res *entity.SheetResult) error {
	total := b.sheet.TotalRows() - 1
	if total <= 0 {
		slog.InfoContext(ctx, "sheet has no data rows", "sheet", b.cfg.Name)
		return nil
	}

	chunks := (total + u.cfg.ChunkSize - 1) / u.cfg.ChunkSize
	produce := func(ctx context.Context, emit emitFunc) error {
		cur, err := b.sheet.Rows()
		if err != nil {
			return fmt.Errorf("read %q: %w", b.cfg.Name, err)
		}
		defer cur.Close()

		index := 0
		rows := make([]entity.Row, 0, u.cfg.ChunkSize)
		flush := func() error {
			if len(rows) == 0 {
				return nil
			}
			index++
			batch := entity.Batch{Index: index, Total: chunks, Rows: rows}
			rows = make([]entity.Row, 0, u.cfg.ChunkSize)
			return emit(batch)
		}

		for cur.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			in := cur.Row()
			rows = append(rows, schema.Row(in.Number, in.Cells))
			if len(rows) == u.cfg.ChunkSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if err := cur.Err(); err != nil {
			return fmt.Errorf("read %q: %w", b.cfg.Name, err)
		}
		return flush()
	}

	return u.pipeline(ctx, b, schema, produce, res)
}

func (u *Usecase) exportIncremental(ctx context.Context, b boundSheet, since time.Time, res *entity.SheetResult) error {
	schema, err := u.ensureTable(ctx, b)
	if err != nil {
		return err
	}

	sel, err := u.selector(b.cfg).SelectNewRows(ctx, b.sheet, schema, since)
	if errors.Is(err, entity.ErrFullScanRequired) {
		slog.WarnContext(ctx, "no date column found, exporting the whole sheet", "sheet", b.cfg.Name)
		res.FullScan = true
		return u.exportAll(ctx, b, schema, res)
	}
	if err != nil {
		return err
	}

	res.Unparseable = sel.Unparseable
	slog.InfoContext(ctx, "rows selected", "sheet", b.cfg.Name, "column", sel.Column,
		"since", since, "scanned", sel.Scanned, "selected", len(sel.Rows), "unparseable", sel.Unparseable)
	if len(sel.Rows) == 0 {
		return nil
	}

	chunks := (len(sel.Rows) + u.cfg.ChunkSize - 1) / u.cfg.ChunkSize
	produce := func(ctx context.Context, emit emitFunc) error {
		for c := 0; c < chunks; c++ {
			lo := c * u.cfg.ChunkSize
			hi := min(lo+u.cfg.ChunkSize, len(sel.Rows))
			if err := emit(entity.Batch{Index: c + 1, Total: chunks, Rows: sel.Rows[lo:hi]}); err != nil {
				return err
			}
		}
		return nil
	}

	return u.pipeline(ctx, b, schema, produce, res)
}

func (u *Usecase) ensureTable(ctx context.Context, b boundSheet) (entity.TableSchema, error) {
	schema, created, err := u.schemas.EnsureTable(ctx, b.cfg.Table, b.sheet.Header(), b.cfg.IdentityColumns)
	if err != nil {
		return entity.TableSchema{}, err
	}

	slog.InfoContext(ctx, "table ready", "table", schema.Table, "columns", len(schema.Columns), "created", created)
	u.observer.OnTableEnsured(ctx, schema, created)

	return schema, nil
}

// pipeline runs produce and the batch writer concurrently. At most
// cfg.Prefetch batches wait between them; batches are written in order.
func (u *Usecase) pipeline(ctx context.Context, b boundSheet, schema entity.TableSchema,
	produce func(context.Context, emitFunc) error, res *entity.SheetResult,
) error {
	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan entity.Batch, u.cfg.Prefetch)

	g.Go(func() error {
		defer close(batches)
		return produce(gctx, func(batch entity.Batch) error {
			select {
			case batches <- batch:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	g.Go(func() error {
		for batch := range batches {
			report, err := u.writer.InsertBatch(gctx, schema, batch, b.cfg.IdentityColumns)
			report.Sheet = b.cfg.Name
			res.Add(report)
			if err != nil {
				return err
			}

			slog.InfoContext(gctx, "batch written", "sheet", b.cfg.Name, "table", schema.Table,
				"batch", fmt.Sprintf("%d/%d", report.Index, report.Total),
				"rows", fmt.Sprintf("%d-%d", report.FirstRow, report.LastRow),
				"inserted", report.Inserted, "duplicates", report.Duplicates, "mismatched", report.Mismatched)
			u.observer.OnBatchComplete(gctx, report)

			if u.cfg.ReclaimEvery > 0 && report.Index%u.cfg.ReclaimEvery == 0 {
				u.reclaimer.Reclaim(gctx)
			}
		}
		return nil
	})

	return g.Wait()
}
