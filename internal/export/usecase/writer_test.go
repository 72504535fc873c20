package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

func TestBatchWriter_InsertBatch(t *testing.T) {
	store := newTestStore()
	schema := entity.TableSchema{Table: "t", Columns: []string{"id", "name"}}
	if _, err := store.EnsureTable(context.Background(), schema, nil); err != nil {
		t.Fatalf("EnsureTable() err = %v", err)
	}
	if err := store.Insert(context.Background(), "t", schema.Row(2, []string{"2", "b"})); err != nil {
		t.Fatalf("Insert() err = %v", err)
	}

	w := NewBatchWriter(store, NewDuplicateDetector(store))
	batch := entity.Batch{Index: 1, Total: 1, Rows: []entity.Row{
		schema.Row(2, []string{"1", "a"}),
		schema.Row(3, []string{"2", "b"}),
		schema.Row(4, []string{"3", "c"}),
	}}

	report, err := w.InsertBatch(context.Background(), schema, batch, []string{"id"})
	if err != nil {
		t.Fatalf("InsertBatch() err = %v", err)
	}
	if report.Inserted != 2 || report.Duplicates != 1 || report.Skipped() != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.FirstRow != 2 || report.LastRow != 4 {
		t.Fatalf("row range = %d-%d, want 2-4", report.FirstRow, report.LastRow)
	}
}

func TestBatchWriter_LookupFailure(t *testing.T) {
	store := newTestStore()
	store.existsErr = errors.New("timeout")
	schema := entity.TableSchema{Table: "t", Columns: []string{"id"}}

	w := NewBatchWriter(store, NewDuplicateDetector(store))
	_, err := w.InsertBatch(context.Background(), schema, entity.Batch{Rows: []entity.Row{schema.Row(7, []string{"1"})}}, []string{"id"})
	var perr *entity.Error
	if !errors.As(err, &perr) || perr.Kind != entity.KindStoreWrite || perr.Row != 7 {
		t.Fatalf("InsertBatch() err = %v, want StoreWriteFailure at row 7", err)
	}
}

func TestDuplicateDetector_IsDuplicate(t *testing.T) {
	store := newTestStore()
	schema := entity.TableSchema{Table: "t", Columns: []string{"id", "email"}}
	_, _ = store.EnsureTable(context.Background(), schema, nil)
	_ = store.Insert(context.Background(), "t", schema.Row(2, []string{"1", "a@x.io"}))

	d := NewDuplicateDetector(store)
	tests := []struct {
		name     string
		row      entity.Row
		identity []string
		want     bool
	}{
		{name: "all identity match", row: schema.Row(3, []string{"1", "a@x.io"}), identity: []string{"id", "email"}, want: true},
		{name: "one identity differs", row: schema.Row(3, []string{"1", "b@x.io"}), identity: []string{"id", "email"}, want: false},
		{name: "absent identity ignored", row: schema.Row(3, []string{"1", "z@x.io"}), identity: []string{"id", "phone"}, want: true},
		{name: "no identity", row: schema.Row(3, []string{"1", "a@x.io"}), identity: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.IsDuplicate(context.Background(), "t", tt.row, tt.identity)
			if err != nil {
				t.Fatalf("IsDuplicate() err = %v", err)
			}
			if got != tt.want {
				t.Fatalf("IsDuplicate() = %v, want %v", got, tt.want)
			}
		})
	}
}
