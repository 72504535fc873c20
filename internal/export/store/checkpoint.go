package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

const DefaultCheckpointTable = "export_checkpoints"

// CheckpointStore keeps one last-run timestamp per destination table in a
// bookkeeping table of the destination database.
type CheckpointStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
	timeout time.Duration

	initOnce sync.Once
	initErr  error
}

func NewCheckpointStore(db *sql.DB, dialect Dialect, table string) *CheckpointStore {
	if table == "" {
		table = DefaultCheckpointTable
	}
	return &CheckpointStore{db: db, dialect: dialect, table: table, timeout: defaultOperationTimeout}
}

func (c *CheckpointStore) ensureReady(ctx context.Context) error {
	c.initOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var n int
		if err := c.db.QueryRowContext(ctx, c.dialect.tableExistsQuery(), c.table).Scan(&n); err != nil {
			c.initErr = errors.Wrapf(err, "look up table %s", c.table)
			return
		}
		if n > 0 {
			return
		}

		ifNotExists := "IF NOT EXISTS "
		if c.dialect == SQLServer {
			ifNotExists = ""
		}
		stmt := fmt.Sprintf("CREATE TABLE %s%s (%s VARCHAR(255) NOT NULL PRIMARY KEY, %s VARCHAR(64) NOT NULL)",
			ifNotExists, c.dialect.Quote(c.table), c.dialect.Quote("table_name"), c.dialect.Quote("last_run_at"))
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			c.initErr = errors.Wrapf(err, "create table %s", c.table)
		}
	})
	return c.initErr
}

// Load returns the checkpoint of table. A table never exported yet gets a
// zero LastRunAt, so every dated row counts as new.
func (c *CheckpointStore) Load(ctx context.Context, table string) (entity.Checkpoint, error) {
	if err := c.ensureReady(ctx); err != nil {
		return entity.Checkpoint{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	last, err := c.load(ctx, c.db, table)
	if err != nil {
		return entity.Checkpoint{}, err
	}
	return entity.Checkpoint{Table: table, LastRunAt: last}, nil
}

// Save stores cp unless the stored checkpoint is already at or after it.
func (c *CheckpointStore) Save(ctx context.Context, cp entity.Checkpoint) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin checkpoint update")
	}
	defer func() { _ = tx.Rollback() }()

	current, err := c.load(ctx, tx, cp.Table)
	if err != nil {
		return err
	}
	if !cp.LastRunAt.After(current) {
		return nil
	}

	value := cp.LastRunAt.UTC().Format(time.RFC3339Nano)
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s",
			c.dialect.Quote(c.table), c.dialect.Quote("last_run_at"), c.dialect.Placeholder(1),
			c.dialect.Quote("table_name"), c.dialect.Placeholder(2)),
		value, cp.Table)
	if err != nil {
		return errors.Wrapf(err, "update checkpoint for %s", cp.Table)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, %s)",
				c.dialect.Quote(c.table), c.dialect.Quote("table_name"), c.dialect.Quote("last_run_at"),
				c.dialect.Placeholder(1), c.dialect.Placeholder(2)),
			cp.Table, value)
		if err != nil {
			return errors.Wrapf(err, "insert checkpoint for %s", cp.Table)
		}
	}

	return errors.Wrap(tx.Commit(), "commit checkpoint update")
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (c *CheckpointStore) load(ctx context.Context, q queryRower, table string) (time.Time, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
			c.dialect.Quote("last_run_at"), c.dialect.Quote(c.table),
			c.dialect.Quote("table_name"), c.dialect.Placeholder(1)),
		table).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "load checkpoint for %s", table)
	}

	last, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse checkpoint for %s", table)
	}
	return last, nil
}
