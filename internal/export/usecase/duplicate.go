package usecase

import (
	"context"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

// DuplicateDetector answers whether a row already exists in the store,
// keyed on the configured identity columns.
type DuplicateDetector struct {
	store Store
}

func NewDuplicateDetector(store Store) *DuplicateDetector {
	return &DuplicateDetector{store: store}
}

// IsDuplicate reports whether a stored record matches row on every identity
// column the row carries. A row carrying none of them is never a duplicate.
func (d *DuplicateDetector) IsDuplicate(ctx context.Context, table string, row entity.Row, identity []string) (bool, error) {
	return d.exists(ctx, table, entity.NewDuplicateKey(row, identity))
}

func (d *DuplicateDetector) exists(ctx context.Context, table string, key entity.DuplicateKey) (bool, error) {
	if key.Empty() {
		return false, nil
	}
	return d.store.Exists(ctx, table, key)
}
