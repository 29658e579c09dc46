package cookies

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// openCookieDB opens a private copy made by SafeCopy. The copied -wal file is
// replayed on open, so writes the browser has not checkpointed are visible.
func openCookieDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open cookie database: %w", err)
	}
	return db, nil
}

// tableColumns lists the column names of table.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan columns of %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// countRows returns the number of rows query yields, or 0 when it fails.
func countRows(ctx context.Context, db *sql.DB, query string, args ...any) int {
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0
	}
	return n
}
