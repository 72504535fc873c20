package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

// Dialect is the SQL flavour of the destination database.
type Dialect string

const (
	MySQL     Dialect = "mysql"
	Postgres  Dialect = "postgres"
	SQLite    Dialect = "sqlite"
	SQLServer Dialect = "sqlserver"
)

// mysqlIndexPrefix keeps TEXT index keys within InnoDB's utf8mb4 key limit.
const mysqlIndexPrefix = 191

// ParseDialect maps a configured driver name onto a dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// DriverName is the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	return string(d)
}

func (d Dialect) Quote(identifier string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
	case SQLServer:
		return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
	}
}

// Placeholder returns the bind marker of the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case Postgres:
		return "$" + strconv.Itoa(n)
	case SQLServer:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

func (d Dialect) quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}

func (d Dialect) placeholders(from, n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = d.Placeholder(from + i)
	}
	return strings.Join(marks, ", ")
}

func (d Dialect) tableExistsQuery() string {
	switch d {
	case MySQL:
		return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	case Postgres:
		return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
	case SQLServer:
		return "SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @p1"
	default:
		return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	}
}

// createTable builds the DDL for schema: a surrogate key first, the header
// columns as nullable text, then the two timestamps.
func (d Dialect) createTable(schema entity.TableSchema, managed entity.ManagedColumns) string {
	var cols []string
	switch d {
	case MySQL:
		cols = append(cols, d.Quote(managed.ID)+" BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY")
	case Postgres:
		cols = append(cols, d.Quote(managed.ID)+" BIGSERIAL PRIMARY KEY")
	case SQLServer:
		cols = append(cols, d.Quote(managed.ID)+" BIGINT IDENTITY(1,1) PRIMARY KEY")
	default:
		cols = append(cols, d.Quote(managed.ID)+" INTEGER PRIMARY KEY AUTOINCREMENT")
	}

	for _, c := range schema.Columns {
		cols = append(cols, d.Quote(c)+" "+d.textType()+" NULL")
	}

	switch d {
	case MySQL:
		cols = append(cols,
			d.Quote(managed.CreatedAt)+" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP",
			d.Quote(managed.UpdatedAt)+" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP")
	case Postgres:
		cols = append(cols,
			d.Quote(managed.CreatedAt)+" TIMESTAMPTZ NOT NULL DEFAULT NOW()",
			d.Quote(managed.UpdatedAt)+" TIMESTAMPTZ NOT NULL DEFAULT NOW()")
	case SQLServer:
		cols = append(cols,
			d.Quote(managed.CreatedAt)+" DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()",
			d.Quote(managed.UpdatedAt)+" DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()")
	default:
		cols = append(cols,
			d.Quote(managed.CreatedAt)+" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP",
			d.Quote(managed.UpdatedAt)+" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP")
	}

	ifNotExists := "IF NOT EXISTS "
	suffix := ""
	switch d {
	case SQLServer:
		// Existence is checked by the caller; T-SQL has no IF NOT EXISTS here.
		ifNotExists = ""
	case MySQL:
		suffix = " DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin"
	}

	return fmt.Sprintf("CREATE TABLE %s%s (\n\t%s\n)%s", ifNotExists, d.Quote(schema.Table), strings.Join(cols, ",\n\t"), suffix)
}

// textType declares header columns with a binary collation where the
// server default folds case, so identity lookups compare exact values.
func (d Dialect) textType() string {
	switch d {
	case MySQL:
		return "TEXT CHARACTER SET utf8mb4 COLLATE utf8mb4_bin"
	case SQLServer:
		return "NVARCHAR(MAX) COLLATE Latin1_General_100_BIN2"
	default:
		return "TEXT"
	}
}

// createIndex builds an index over the identity columns. It returns "" when
// the dialect cannot index text columns.
func (d Dialect) createIndex(table string, identity []string, unique bool) string {
	if len(identity) == 0 || d == SQLServer {
		return ""
	}

	kind, prefix := "INDEX", "ix_"
	if unique {
		kind, prefix = "UNIQUE INDEX", "ux_"
	}
	name := prefix + table + "_identity"

	cols := make([]string, len(identity))
	for i, c := range identity {
		cols[i] = d.Quote(c)
		if d == MySQL {
			cols[i] += fmt.Sprintf("(%d)", mysqlIndexPrefix)
		}
	}

	return fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, d.Quote(name), d.Quote(table), strings.Join(cols, ", "))
}

// existsQuery matches every key column exactly. MySQL and SQL Server ignore
// trailing spaces in equality even under a binary collation, so those
// dialects also compare byte lengths.
func (d Dialect) existsQuery(table string, columns []string) string {
	conds := make([]string, len(columns))
	for i, c := range columns {
		col := d.Quote(c)
		switch d {
		case MySQL:
			conds[i] = col + " = ? AND LENGTH(" + col + ") = ?"
		case SQLServer:
			p := d.Placeholder(i + 1)
			conds[i] = col + " = " + p + " AND DATALENGTH(" + col + ") = DATALENGTH(" + p + ")"
		default:
			conds[i] = col + " = " + d.Placeholder(i+1)
		}
	}
	where := strings.Join(conds, " AND ")

	if d == SQLServer {
		return fmt.Sprintf("SELECT TOP 1 1 FROM %s WHERE %s", d.Quote(table), where)
	}
	return fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", d.Quote(table), where)
}

// existsArgs binds values to existsQuery.
func (d Dialect) existsArgs(values []string) []any {
	if d == MySQL {
		args := make([]any, 0, 2*len(values))
		for _, v := range values {
			args = append(args, v, len(v))
		}
		return args
	}

	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func (d Dialect) insertQuery(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.Quote(table), d.quoteAll(columns), d.placeholders(1, len(columns)))
}
