package dialect

import (
	"fmt"

	_ "modernc.org/sqlite" // SQLite Driver (pure Go)
)

type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string { return "sqlite" }

func (d *SQLiteDialect) GetTablesQuery(schema string) string {
	// SQLite has a single schema per attached database; the argument is
	// bound only to keep the calling convention.
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND ? IS NOT NULL`
}

func (d *SQLiteDialect) GetPartitionsQuery(table, column string) string {
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s", d.QuoteIdent(column), d.QuoteIdent(table))
}

// TablespaceClause is always empty: SQLite has no tablespaces.
func (d *SQLiteDialect) TablespaceClause(name string) string {
	return ""
}

func (d *SQLiteDialect) QuoteIdent(name string) string {
	return QuoteWith(name, `"`, `"`)
}

func (d *SQLiteDialect) TableKey(name string) string {
	return DefaultTableKey(name)
}

func (d *SQLiteDialect) GetSchemaName(input string) string {
	if input == "" {
		return "main"
	}
	return input
}
