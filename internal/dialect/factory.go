package dialect

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// GetDialect returns the Dialect implementation for a database/sql driver name.
func GetDialect(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return &PostgresDialect{}, nil
	case "mysql":
		return &MysqlDialect{}, nil
	case "sqlserver", "mssql":
		return &MSSQLDialect{}, nil
	case "oracle":
		return &OracleDialect{}, nil
	case "sqlite", "sqlite3":
		return &SQLiteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// DetectDriver guesses the driver from a DSN when none is configured.
func DetectDriver(dsn string) string {
	switch {
	case hasAnyPrefix(dsn, "postgres://", "postgresql://") || containsAny(dsn, "sslmode", "dbname="):
		return "postgres"
	case hasAnyPrefix(dsn, "sqlserver://"):
		return "sqlserver"
	case hasAnyPrefix(dsn, "oracle://"):
		return "oracle"
	case hasAnyPrefix(dsn, "file:") || hasAnySuffix(dsn, ".db", ".sqlite", ".sqlite3"):
		return "sqlite"
	default:
		return "mysql"
	}
}

// PrepareDSN adjusts a DSN so the driver accepts a batch of several
// statements in one Exec call. Only MySQL needs this; Oracle batches must be
// a single statement or PL/SQL block.
func PrepareDSN(driver, dsn string) (string, error) {
	if driver != "mysql" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.MultiStatements = true
	return cfg.FormatDSN(), nil
}

// Ensure interface implementation
var _ Dialect = (*PostgresDialect)(nil)
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*MSSQLDialect)(nil)
var _ Dialect = (*OracleDialect)(nil)
var _ Dialect = (*SQLiteDialect)(nil)
