package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

const defaultOperationTimeout = 30 * time.Second

type SQLConfig struct {
	Managed entity.ManagedColumns
	// UniqueIdentity makes the identity index unique, so concurrent writers
	// cannot both insert the same record.
	UniqueIdentity bool
	Timeout        time.Duration
}

// SQLStore writes exported rows into a relational database.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	cfg     SQLConfig
}

func NewSQLStore(db *sql.DB, dialect Dialect, cfg SQLConfig) *SQLStore {
	if cfg.Managed == (entity.ManagedColumns{}) {
		cfg.Managed = entity.DefaultManagedColumns()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultOperationTimeout
	}
	return &SQLStore{db: db, dialect: dialect, cfg: cfg}
}

func (s *SQLStore) EnsureTable(ctx context.Context, schema entity.TableSchema, identity []string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	exists, err := s.tableExists(ctx, schema.Table)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.createTable(schema, s.cfg.Managed)); err != nil {
		return false, errors.Wrapf(err, "create table %s", schema.Table)
	}

	if stmt := s.dialect.createIndex(schema.Table, identity, s.cfg.UniqueIdentity); stmt != "" {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return true, errors.Wrapf(err, "create identity index on %s", schema.Table)
		}
	}

	return true, nil
}

func (s *SQLStore) tableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.tableExistsQuery(), table).Scan(&n); err != nil {
		return false, errors.Wrapf(err, "look up table %s", table)
	}
	return n > 0, nil
}

func (s *SQLStore) Exists(ctx context.Context, table string, key entity.DuplicateKey) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var one int
	err := s.db.QueryRowContext(ctx, s.dialect.existsQuery(table, key.Columns), s.dialect.existsArgs(key.Values)...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "look up %s", table)
	}
	return true, nil
}

func (s *SQLStore) Insert(ctx context.Context, table string, row entity.Row) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	args := make([]any, len(row.Values))
	for i, v := range row.Values {
		args[i] = v
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.insertQuery(table, row.Columns), args...); err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(entity.ErrConflict, "insert row %d into %s", row.Number, table)
		}
		return errors.Wrapf(err, "insert row %d into %s", row.Number, table)
	}
	return nil
}

func (s *SQLStore) Count(ctx context.Context, table string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.dialect.Quote(table)).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "count %s", table)
	}
	return n, nil
}
