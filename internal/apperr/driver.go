package apperr

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Describe renders a driver error with its server-side detail when the
// driver exposes one.
func Describe(err error) string {
	if err == nil {
		return "<nil>"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Detail != "" {
			return fmt.Sprintf("%s (%s, SQLSTATE %s)", pqErr.Message, pqErr.Detail, pqErr.Code)
		}
		return fmt.Sprintf("%s (SQLSTATE %s)", pqErr.Message, pqErr.Code)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Detail != "" {
			return fmt.Sprintf("%s (%s, SQLSTATE %s)", pgErr.Message, pgErr.Detail, pgErr.SQLState())
		}
		return fmt.Sprintf("%s (SQLSTATE %s)", pgErr.Message, pgErr.SQLState())
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fmt.Sprintf("%s (MySQL %d)", myErr.Message, myErr.Number)
	}

	return err.Error()
}
