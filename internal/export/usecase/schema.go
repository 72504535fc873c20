package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

// SchemaManager derives a table schema from a sheet header and makes sure
// the destination table exists. Existing tables are never altered.
type SchemaManager struct {
	store   Store
	managed entity.ManagedColumns
}

func NewSchemaManager(store Store, managed entity.ManagedColumns) *SchemaManager {
	return &SchemaManager{store: store, managed: managed}
}

// EnsureTable returns the schema for header and whether the table was created.
func (m *SchemaManager) EnsureTable(ctx context.Context, table string, header, identity []string) (entity.TableSchema, bool, error) {
	schema, err := entity.NewTableSchema(table, header, m.managed)
	if err != nil {
		return entity.TableSchema{}, false, err
	}

	for _, col := range identity {
		if !schema.Has(col) {
			slog.WarnContext(ctx, "identity column missing from header", "table", table, "column", col)
		}
	}

	created, err := m.store.EnsureTable(ctx, schema, presentIdentity(schema, identity))
	if err != nil {
		if errors.Is(err, entity.ErrSchema) {
			return entity.TableSchema{}, false, err
		}
		return entity.TableSchema{}, false, entity.NewSchemaError(table, err)
	}

	return schema, created, nil
}

func presentIdentity(schema entity.TableSchema, identity []string) []string {
	out := make([]string, 0, len(identity))
	for _, col := range identity {
		if schema.Has(col) {
			out = append(out, col)
		}
	}
	return out
}
