package usecase

import (
	"strings"
	"testing"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

func TestDefaultDateColumns_NoManagedNames(t *testing.T) {
	managed := entity.DefaultManagedColumns()
	for _, c := range DefaultDateColumns {
		for _, m := range []string{managed.ID, managed.CreatedAt, managed.UpdatedAt} {
			if strings.EqualFold(c, m) {
				t.Fatalf("date column candidate %q is a managed column", c)
			}
		}

		// every default candidate must be usable as a header
		if _, err := entity.NewTableSchema("t", []string{"id", c}, managed); err != nil {
			t.Fatalf("NewTableSchema(%q) err = %v", c, err)
		}
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{ChunkSize: -1, Prefetch: -1}.WithDefaults()

	if cfg.ChunkSize != DefaultChunkSize || cfg.Prefetch != DefaultPrefetch {
		t.Fatalf("chunk=%d prefetch=%d", cfg.ChunkSize, cfg.Prefetch)
	}
	if len(cfg.DateColumns) != len(DefaultDateColumns) || cfg.Location == nil {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Managed != entity.DefaultManagedColumns() {
		t.Fatalf("managed = %+v", cfg.Managed)
	}
}
