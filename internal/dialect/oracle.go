package dialect

import (
	"fmt"
	"strings"

	_ "github.com/sijms/go-ora/v2" // Oracle Driver
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

func (d *OracleDialect) GetTablesQuery(schema string) string {
	// USER_TABLES lists tables owned by the current user.
	// We include a dummy clause to consume the schema argument if passed by standard callers.
	return `SELECT TABLE_NAME FROM USER_TABLES WHERE :1 IS NOT NULL`
}

func (d *OracleDialect) GetPartitionsQuery(table, column string) string {
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s", d.QuoteIdent(column), d.QuoteIdent(table))
}

func (d *OracleDialect) TablespaceClause(name string) string {
	return "TABLESPACE " + QuoteWith(name, `"`, `"`)
}

// QuoteIdent upper-cases before quoting so that quoted names match the
// dictionary spelling of unquoted DDL.
func (d *OracleDialect) QuoteIdent(name string) string {
	return QuoteWith(strings.ToUpper(name), `"`, `"`)
}

func (d *OracleDialect) TableKey(name string) string {
	return DefaultTableKey(name)
}

func (d *OracleDialect) GetSchemaName(input string) string {
	if input == "" {
		return "USER"
	}
	return strings.ToUpper(input)
}
