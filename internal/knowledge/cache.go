package knowledge

import (
	"context"

	"github.com/garyellow/baera-chatbot-go/internal/storage"
)

// TableStore persists whole tables. *storage.DB implements it.
type TableStore interface {
	LoadTable(ctx context.Context, name string) (*storage.CachedTable, error)
	SaveTable(ctx context.Context, table *storage.CachedTable) error
}

// CacheSource serves the last good copy of each table from SQLite.
type CacheSource struct {
	store TableStore
}

// NewCacheSource creates a cache-backed source.
func NewCacheSource(store TableStore) *CacheSource {
	return &CacheSource{store: store}
}

// Name implements Source.
func (s *CacheSource) Name() string { return SourceCache }

// Fetch implements Source.
func (s *CacheSource) Fetch(ctx context.Context, table string) (*Table, error) {
	cached, err := s.store.LoadTable(ctx, table)
	if err != nil {
		return nil, err
	}

	t := &Table{Name: cached.Name, Columns: cached.Columns, Rows: make([]Row, 0, len(cached.Rows))}
	for _, r := range cached.Rows {
		t.Rows = append(t.Rows, Row(r))
	}
	return t, nil
}

// Save stores t, remembering which live source served it.
func (s *CacheSource) Save(ctx context.Context, t *Table) error {
	rows := make([]map[string]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, r)
	}
	return s.store.SaveTable(ctx, &storage.CachedTable{
		Name:    t.Name,
		Columns: t.Columns,
		Rows:    rows,
		Source:  t.Source,
	})
}
