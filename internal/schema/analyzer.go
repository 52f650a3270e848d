package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	"sqlprep/internal/apperr"
	"sqlprep/internal/dialect"
)

// Querier is the read side of a database connection.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Lookup reads an optional configuration value.
type Lookup func(key string) (string, bool)

// ---------------------------------------------------------------------
// Schema Analysis Logic
// ---------------------------------------------------------------------

// Analyze takes a Snapshot of the target database. It only issues read
// queries. Any failure is returned as an *apperr.ConnectionError.
func Analyze(ctx context.Context, db Querier, d dialect.Dialect, schemaName string, lookup Lookup) (*Snapshot, error) {
	target := d.GetSchemaName(schemaName)

	// --- Step 1: Fetch Tables ---
	tables, err := queryStrings(ctx, db, d.GetTablesQuery(target), target)
	if err != nil {
		return nil, &apperr.ConnectionError{Op: "list tables", Err: err}
	}

	probe := NewSnapshot(tables, nil, nil, d.TableKey)

	// --- Step 2: Fetch Partitions ---
	partitions := []string{DefaultPartition}
	if probe.HasTable(PartitionTable) {
		ids, err := queryStrings(ctx, db, d.GetPartitionsQuery(PartitionTable, PartitionColumn))
		if err != nil {
			return nil, &apperr.ConnectionError{Op: "list partitions", Err: err}
		}
		partitions = append(partitions, ids...)
	}
	partitions = sortPartitions(partitions)

	// --- Step 3: Resolve Tablespaces ---
	tablespaces := make(map[string]string, len(Areas))
	if lookup != nil {
		for _, area := range Areas {
			if name, ok := lookup(SettingKey(area)); ok && name != "" {
				tablespaces[area] = d.TablespaceClause(name)
			}
		}
	}

	return NewSnapshot(tables, partitions, tablespaces, d.TableKey), nil
}

func queryStrings(ctx context.Context, db Querier, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if v.Valid {
			out = append(out, v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// sortPartitions removes duplicates and orders ids numerically when all of
// them are integers, lexically otherwise.
func sortPartitions(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	numeric := true
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			numeric = false
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if numeric {
			a, _ := strconv.ParseInt(out[i], 10, 64)
			b, _ := strconv.ParseInt(out[j], 10, 64)
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}
