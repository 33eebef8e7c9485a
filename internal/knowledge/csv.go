package knowledge

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	domerrors "github.com/garyellow/baera-chatbot-go/internal/errors"
)

// CSVSource reads <dir>/<table>.csv files.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a source over the CSV files in dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Name implements Source.
func (s *CSVSource) Name() string { return SourceCSV }

// Dir returns the directory the source reads from.
func (s *CSVSource) Dir() string { return s.dir }

// Fetch implements Source.
func (s *CSVSource) Fetch(ctx context.Context, table string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, table+".csv"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("csv %s: %w", table, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", table, err)
	}
	defer func() { _ = f.Close() }()

	return ParseCSV(table, f)
}

// ParseCSV reads a header row followed by data rows.
// Short records are padded with empty strings and extra fields are dropped.
func ParseCSV(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Table{Name: name}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv %s header: %w", name, err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[i] = strings.TrimSpace(h)
	}

	table := &Table{Name: name, Columns: columns}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv %s: %w", name, err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// EncodeCSV writes t as CSV with a header row in column order.
func EncodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("encode csv %s: %w", t.Name, err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("encode csv %s: %w", t.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv %s: %w", t.Name, err)
	}
	return buf.Bytes(), nil
}
