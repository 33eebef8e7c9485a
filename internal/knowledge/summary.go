package knowledge

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// SummaryFiles are the local CSV files reported by the data summary.
var SummaryFiles = []string{
	"becas.csv",
	"requisitos.csv",
	"documentos_requeridos.csv",
	"proceso_postulacion.csv",
	"servicios.csv",
	"horarios.csv",
	"contactos.csv",
}

// FileSummary describes one CSV file.
type FileSummary struct {
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

// Summarize reports row count and columns of each file in dir.
// Missing files are omitted.
func Summarize(dir string, files []string) (map[string]FileSummary, error) {
	summary := make(map[string]FileSummary, len(files))
	for _, name := range files {
		f, err := os.Open(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		table, err := ParseCSV(name, f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}

		columns := table.Columns
		if columns == nil {
			columns = []string{}
		}
		summary[name] = FileSummary{Rows: len(table.Rows), Columns: columns}
	}
	return summary, nil
}
