package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables.
func InitSchema(ctx context.Context, db *sql.DB) error {
	return createTableRowsTable(ctx, db)
}

// table_rows holds one serialized copy per knowledge table. Column order is
// kept separately because row objects do not preserve it.
func createTableRowsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS table_rows (
		name TEXT PRIMARY KEY,
		columns TEXT NOT NULL,
		rows TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		source TEXT NOT NULL,
		cached_at INTEGER NOT NULL
	);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table_rows table: %w", err)
	}

	return nil
}
