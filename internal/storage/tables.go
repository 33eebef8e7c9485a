package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/garyellow/baera-chatbot-go/internal/errors"
)

// CachedTable is the stored copy of one knowledge table.
type CachedTable struct {
	Name     string
	Columns  []string
	Rows     []map[string]string
	Source   string
	CachedAt time.Time
}

// TableInfo describes a cached table without its rows.
type TableInfo struct {
	Name     string
	RowCount int
	Source   string
	CachedAt time.Time
}

// SaveTable inserts or replaces the cached copy of a table.
func (db *DB) SaveTable(ctx context.Context, table *CachedTable) error {
	if table == nil || table.Name == "" {
		return domerrors.NewValidationError("table", "name is required")
	}

	columns, err := json.Marshal(table.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}
	rows := table.Rows
	if rows == nil {
		rows = []map[string]string{}
	}
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}

	query := `
		INSERT INTO table_rows (name, columns, rows, row_count, source, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			columns = excluded.columns,
			rows = excluded.rows,
			row_count = excluded.row_count,
			source = excluded.source,
			cached_at = excluded.cached_at
	`
	start := time.Now()
	_, err = db.writer.ExecContext(ctx, query,
		table.Name, string(columns), string(rowsJSON), len(rows), table.Source, time.Now().Unix())
	if err != nil {
		slog.ErrorContext(ctx, "failed to save table",
			"table", table.Name,
			"error", err)
		return fmt.Errorf("failed to save table %s: %w", table.Name, err)
	}

	// Warn on slow queries (>100ms)
	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "SaveTable",
			"duration_ms", duration.Milliseconds(),
			"table", table.Name)
	}
	return nil
}

// LoadTable returns the cached copy of a table, or ErrNotFound.
func (db *DB) LoadTable(ctx context.Context, name string) (*CachedTable, error) {
	query := `SELECT columns, rows, source, cached_at FROM table_rows WHERE name = ?`

	var (
		columnsJSON, rowsJSON, source string
		cachedAt                      int64
	)
	err := db.reader.QueryRowContext(ctx, query, name).Scan(&columnsJSON, &rowsJSON, &source, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %s: %w", name, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", name, err)
	}

	table := &CachedTable{
		Name:     name,
		Source:   source,
		CachedAt: time.Unix(cachedAt, 0),
	}
	if err := json.Unmarshal([]byte(columnsJSON), &table.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns of %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(rowsJSON), &table.Rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows of %s: %w", name, err)
	}
	return table, nil
}

// ListTables returns metadata for every cached table ordered by name.
func (db *DB) ListTables(ctx context.Context) ([]TableInfo, error) {
	query := `SELECT name, row_count, source, cached_at FROM table_rows ORDER BY name`

	rows, err := db.reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	infos := make([]TableInfo, 0)
	for rows.Next() {
		var (
			info     TableInfo
			cachedAt int64
		)
		if err := rows.Scan(&info.Name, &info.RowCount, &info.Source, &cachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		info.CachedAt = time.Unix(cachedAt, 0)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}
	return infos, nil
}

// DeleteTable removes the cached copy of a table. Missing tables are not an error.
func (db *DB) DeleteTable(ctx context.Context, name string) error {
	if _, err := db.writer.ExecContext(ctx, `DELETE FROM table_rows WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", name, err)
	}
	return nil
}
