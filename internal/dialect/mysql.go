package dialect

import (
	"fmt"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string { return "mysql" }

func (d *MysqlDialect) GetTablesQuery(schema string) string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MysqlDialect) GetPartitionsQuery(table, column string) string {
	// PARTITION is a reserved word in MySQL, so the column is always quoted.
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s", d.QuoteIdent(column), d.QuoteIdent(table))
}

func (d *MysqlDialect) TablespaceClause(name string) string {
	return "TABLESPACE " + d.QuoteIdent(name)
}

func (d *MysqlDialect) QuoteIdent(name string) string {
	return QuoteWith(name, "`", "`")
}

func (d *MysqlDialect) TableKey(name string) string {
	return DefaultTableKey(name)
}

func (d *MysqlDialect) GetSchemaName(input string) string {
	return DefaultGetSchemaName(input)
}
