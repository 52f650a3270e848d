package dialect

import (
	"fmt"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) GetTablesQuery(schema string) string {
	// use $1 placeholder
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = $1 AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *PostgresDialect) GetPartitionsQuery(table, column string) string {
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s", d.QuoteIdent(column), d.QuoteIdent(table))
}

func (d *PostgresDialect) TablespaceClause(name string) string {
	return "TABLESPACE " + d.QuoteIdent(name)
}

func (d *PostgresDialect) QuoteIdent(name string) string {
	return QuoteWith(name, `"`, `"`)
}

// TableKey keeps names as-is: unquoted identifiers are already folded to
// lower case by the server and quoted ones are case-sensitive.
func (d *PostgresDialect) TableKey(name string) string {
	return name
}

func (d *PostgresDialect) GetSchemaName(input string) string {
	if input == "" {
		return "public"
	}
	return input
}
