package dialect

// Dialect abstracts the database-specific parts of schema introspection and
// rendering.
type Dialect interface {
	// Name is the canonical dialect name ("postgres", "mysql", ...).
	Name() string

	// GetTablesQuery lists base tables. The schema name is bound as the
	// first and only argument.
	GetTablesQuery(schema string) string
	// GetPartitionsQuery lists the distinct partition ids of table.column.
	GetPartitionsQuery(table, column string) string

	// TablespaceClause renders the storage clause for a configured
	// tablespace name. Dialects without tablespaces return "".
	TablespaceClause(name string) string

	// Helpers
	QuoteIdent(name string) string
	TableKey(name string) string
	GetSchemaName(input string) string
}
