package dialect

import (
	"fmt"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server Driver
)

type MSSQLDialect struct{}

func (d *MSSQLDialect) Name() string { return "sqlserver" }

func (d *MSSQLDialect) GetTablesQuery(schema string) string {
	// Use @p1 for schema binding
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MSSQLDialect) GetPartitionsQuery(table, column string) string {
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s", d.QuoteIdent(column), d.QuoteIdent(table))
}

// TablespaceClause maps a tablespace onto a filegroup placement.
func (d *MSSQLDialect) TablespaceClause(name string) string {
	return "ON " + d.QuoteIdent(name)
}

func (d *MSSQLDialect) QuoteIdent(name string) string {
	return QuoteWith(name, "[", "]")
}

func (d *MSSQLDialect) TableKey(name string) string {
	return DefaultTableKey(name)
}

func (d *MSSQLDialect) GetSchemaName(input string) string {
	if input == "" {
		return "dbo"
	}
	return input
}
