package catalog

import (
	"context"
	"database/sql"
)

// scanFunc adapts *sql.Rows.Scan for a single row inside queryRows.
type scanFunc func(dest ...interface{}) error

// queryRows runs query and invokes fn once per row with a scan function
// bound to that row. Shared across the per-engine readers to keep the
// row-iteration boilerplate in one place.
func queryRows(ctx context.Context, db *sql.DB, query string, fn func(scan scanFunc) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return err
		}
	}
	return rows.Err()
}
