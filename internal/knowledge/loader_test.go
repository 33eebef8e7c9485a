package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	domerrors "github.com/garyellow/baera-chatbot-go/internal/errors"
	"github.com/garyellow/baera-chatbot-go/internal/storage"
)

// fakeSource serves tables from memory and fails for names in errs.
type fakeSource struct {
	name   string
	tables map[string]*Table
	errs   map[string]error

	mu    sync.Mutex
	calls []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(_ context.Context, table string) (*Table, error) {
	f.mu.Lock()
	f.calls = append(f.calls, table)
	f.mu.Unlock()

	if err, ok := f.errs[table]; ok {
		return nil, err
	}
	t, ok := f.tables[table]
	if !ok {
		return nil, fmt.Errorf("%s: %w", table, domerrors.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func oneRow(name string) *Table {
	return &Table{Name: name, Columns: []string{"nombre"}, Rows: []Row{{"nombre": name + "-row"}}}
}

func newCache(t *testing.T) (*CacheSource, *storage.DB) {
	t.Helper()
	db, err := storage.New(context.Background(), ":memory:", storage.Options{})
	if err != nil {
		t.Fatalf("storage.New failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewCacheSource(db), db
}

func TestLoader_SourceChain(t *testing.T) {
	t.Parallel()
	specs := []TableSpec{{Name: "becas"}, {Name: "requisitos"}, {Name: "comunicados"}}

	remote := &fakeSource{
		name: SourceSupabase,
		tables: map[string]*Table{
			"becas":      oneRow("becas"),
			"requisitos": {Name: "requisitos", Columns: []string{"nombre"}},
		},
		errs: map[string]error{"comunicados": errors.New("connection refused")},
	}
	local := &fakeSource{
		name: SourceCSV,
		tables: map[string]*Table{
			"becas":       oneRow("stale"),
			"requisitos":  oneRow("requisitos"),
			"comunicados": oneRow("comunicados"),
		},
	}

	loader := NewLoader(LoaderConfig{Sources: []Source{remote, local}, Tables: specs})
	result, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if result.Loaded() != 3 {
		t.Errorf("Loaded() = %d, want 3", result.Loaded())
	}
	if got := result.Lookup("becas"); got.Source != SourceSupabase || got.Rows[0]["nombre"] != "becas-row" {
		t.Errorf("becas should come from the first source, got %+v", got)
	}
	if got := result.Lookup("requisitos"); got.Source != SourceCSV {
		t.Errorf("empty remote table should fall through to csv, got %s", got.Source)
	}
	if got := result.Lookup("comunicados"); got.Source != SourceCSV {
		t.Errorf("failed remote table should fall through to csv, got %s", got.Source)
	}
	if len(result.Failures) != 0 {
		t.Errorf("recovered tables should not be failures: %v", result.Failures)
	}
	if counts := result.BySource(); counts[SourceSupabase] != 1 || counts[SourceCSV] != 2 {
		t.Errorf("BySource() = %v", counts)
	}
	if result.Tables[0].Name != "becas" || result.Tables[2].Name != "comunicados" {
		t.Error("result tables must keep configured order")
	}
}

func TestLoader_PartialFailure(t *testing.T) {
	t.Parallel()
	specs := []TableSpec{{Name: "becas"}, {Name: "servicios"}}
	src := &fakeSource{
		name:   SourceSupabase,
		tables: map[string]*Table{"becas": oneRow("becas")},
		errs:   map[string]error{"servicios": errors.New("timeout")},
	}

	result, err := NewLoader(LoaderConfig{Sources: []Source{src}, Tables: specs}).Load(context.Background())
	if err != nil {
		t.Fatalf("one good table should be enough, got %v", err)
	}
	if len(result.Failures) != 1 || result.Failures[0].Table != "servicios" || result.Failures[0].Source != SourceSupabase {
		t.Errorf("Failures = %v", result.Failures)
	}
	if result.Tables[1] != nil {
		t.Error("failed table slot should be nil")
	}
}

func TestLoader_EmptyKnowledge(t *testing.T) {
	t.Parallel()
	specs := []TableSpec{{Name: "becas"}, {Name: "contactos"}}
	src := &fakeSource{name: SourceCSV, errs: map[string]error{"becas": errors.New("bad csv")}}

	result, err := NewLoader(LoaderConfig{Sources: []Source{src}, Tables: specs}).Load(context.Background())
	if !errors.Is(err, domerrors.ErrEmptyKnowledge) {
		t.Fatalf("expected ErrEmptyKnowledge, got %v", err)
	}
	var emptyErr *domerrors.EmptyKnowledgeError
	if !errors.As(err, &emptyErr) || emptyErr.Tables != 2 || len(emptyErr.Failures) != 2 {
		t.Errorf("EmptyKnowledgeError = %+v", emptyErr)
	}
	if result == nil || result.Loaded() != 0 {
		t.Error("result should still be returned")
	}
	if !errors.Is(emptyErr.Failures[1], errNoData) {
		t.Errorf("table absent everywhere should report no data, got %v", emptyErr.Failures[1])
	}
}

func TestLoader_CacheWriteBackAndRecovery(t *testing.T) {
	t.Parallel()
	cache, db := newCache(t)
	specs := []TableSpec{{Name: "becas"}}
	ctx := context.Background()

	live := &fakeSource{name: SourceSupabase, tables: map[string]*Table{"becas": oneRow("becas")}}
	if _, err := NewLoader(LoaderConfig{Sources: []Source{live, cache}, Cache: cache, Tables: specs}).Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cached, err := db.LoadTable(ctx, "becas")
	if err != nil {
		t.Fatalf("table should be written back to cache: %v", err)
	}
	if cached.Source != SourceSupabase {
		t.Errorf("cached source = %q", cached.Source)
	}

	// Live source down: the cache serves the last good copy.
	down := &fakeSource{name: SourceSupabase, errs: map[string]error{"becas": errors.New("503")}}
	result, err := NewLoader(LoaderConfig{Sources: []Source{down, cache}, Cache: cache, Tables: specs}).Load(ctx)
	if err != nil {
		t.Fatalf("Load from cache failed: %v", err)
	}
	if got := result.Lookup("becas"); got.Source != SourceCache || got.Rows[0]["nombre"] != "becas-row" {
		t.Errorf("expected cached copy, got %+v", got)
	}
}

func TestLoader_DefaultTables(t *testing.T) {
	t.Parallel()
	src := &fakeSource{name: SourceCSV, tables: map[string]*Table{"becas": oneRow("becas")}}

	result, err := NewLoader(LoaderConfig{Sources: []Source{src}}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(result.Tables) != len(Tables) {
		t.Errorf("expected %d table slots, got %d", len(Tables), len(result.Tables))
	}
	if len(src.calls) != len(Tables) {
		t.Errorf("expected every table to be fetched, got %v", src.calls)
	}
}
