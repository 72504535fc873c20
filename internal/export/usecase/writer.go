package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

// BatchWriter inserts the non-duplicate rows of a batch one by one.
type BatchWriter struct {
	store    Store
	detector *DuplicateDetector
}

func NewBatchWriter(store Store, detector *DuplicateDetector) *BatchWriter {
	return &BatchWriter{store: store, detector: detector}
}

// InsertBatch writes batch into schema.Table. Rows whose columns differ from
// the schema are skipped and counted. Rows matching an earlier row of the same
// batch, or a stored record, are skipped as duplicates. The first store
// failure stops the batch and is returned with the partial report.
func (w *BatchWriter) InsertBatch(ctx context.Context, schema entity.TableSchema, batch entity.Batch, identity []string) (entity.BatchReport, error) {
	report := entity.BatchReport{
		Table:    schema.Table,
		Index:    batch.Index,
		Total:    batch.Total,
		FirstRow: batch.FirstRow(),
		LastRow:  batch.LastRow(),
	}

	seen := make(map[string]struct{}, len(batch.Rows))
	for _, row := range batch.Rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !schema.Matches(row) {
			report.Mismatched++
			err := entity.NewSchemaMismatch(schema.Table, row.Number,
				fmt.Errorf("row has %d columns, table has %d", row.Len(), len(schema.Columns)))
			slog.WarnContext(ctx, "row skipped", "error", err)
			continue
		}

		key := entity.NewDuplicateKey(row, identity)
		if !key.Empty() {
			k := key.String()
			if _, ok := seen[k]; ok {
				report.Duplicates++
				continue
			}
			seen[k] = struct{}{}

			dup, err := w.detector.exists(ctx, schema.Table, key)
			if err != nil {
				return report, entity.NewStoreWrite(schema.Table, row.Number, err)
			}
			if dup {
				report.Duplicates++
				continue
			}
		}

		if err := w.store.Insert(ctx, schema.Table, row); err != nil {
			if errors.Is(err, entity.ErrConflict) {
				report.Duplicates++
				continue
			}
			return report, entity.NewStoreWrite(schema.Table, row.Number, err)
		}
		report.Inserted++
	}

	return report, nil
}
