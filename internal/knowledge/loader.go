package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	domerrors "github.com/garyellow/baera-chatbot-go/internal/errors"
	"github.com/garyellow/baera-chatbot-go/internal/metrics"
)

// errNoData is recorded for a table that no source had rows for.
var errNoData = errors.New("no rows in any source")

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// Sources are tried in order for every table; the first non-empty wins.
	Sources []Source
	// Cache, when set, receives every table served by a live source.
	Cache *CacheSource
	// Tables defaults to Tables.
	Tables []TableSpec
	// FetchTimeout bounds one Fetch call.
	FetchTimeout time.Duration
	// Concurrency limits how many tables load at once.
	Concurrency int
	Metrics     *metrics.Metrics
}

// Loader fetches every table through the source chain.
type Loader struct {
	sources      []Source
	cache        *CacheSource
	tables       []TableSpec
	fetchTimeout time.Duration
	concurrency  int
	metrics      *metrics.Metrics
}

// NewLoader creates a loader.
func NewLoader(cfg LoaderConfig) *Loader {
	if len(cfg.Tables) == 0 {
		cfg.Tables = Tables
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Loader{
		sources:      cfg.Sources,
		cache:        cfg.Cache,
		tables:       cfg.Tables,
		fetchTimeout: cfg.FetchTimeout,
		concurrency:  cfg.Concurrency,
		metrics:      cfg.Metrics,
	}
}

// Result is the outcome of one load.
type Result struct {
	// Tables holds one entry per configured table, in configured order.
	// Tables that yielded nothing are nil.
	Tables []*Table
	// Specs is the configured table list, parallel to Tables.
	Specs []TableSpec
	// Failures records the tables that yielded nothing.
	Failures []*domerrors.LoadError
}

// Loaded returns the number of tables that yielded rows.
func (r *Result) Loaded() int {
	n := 0
	for _, t := range r.Tables {
		if !t.Empty() {
			n++
		}
	}
	return n
}

// BySource counts loaded tables per serving source.
func (r *Result) BySource() map[string]int {
	counts := make(map[string]int)
	for _, t := range r.Tables {
		if !t.Empty() {
			counts[t.Source]++
		}
	}
	return counts
}

// Lookup returns the loaded table named name, or nil.
func (r *Result) Lookup(name string) *Table {
	for _, t := range r.Tables {
		if t != nil && t.Name == name {
			return t
		}
	}
	return nil
}

// Load fetches all tables concurrently. A table that fails is logged and
// skipped; the error is non-nil only when no table yielded rows, in which
// case it is an *errors.EmptyKnowledgeError.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{
		Tables: make([]*Table, len(l.tables)),
		Specs:  l.tables,
	}
	failures := make([]*domerrors.LoadError, len(l.tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, def := range l.tables {
		g.Go(func() error {
			table, err := l.loadTable(gctx, def.Name)
			result.Tables[i] = table
			failures[i] = err
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range failures {
		if f != nil {
			result.Failures = append(result.Failures, f)
		}
	}

	loaded := result.Loaded()
	slog.InfoContext(ctx, "knowledge load finished",
		"tables", len(l.tables),
		"loaded", loaded,
		"failed", len(result.Failures),
		"duration", time.Since(start))

	if loaded == 0 {
		return result, &domerrors.EmptyKnowledgeError{Tables: len(l.tables), Failures: result.Failures}
	}
	return result, nil
}

// loadTable walks the source chain for one table.
func (l *Loader) loadTable(ctx context.Context, name string) (*Table, *domerrors.LoadError) {
	var lastErr *domerrors.LoadError

	for _, src := range l.sources {
		if ctx.Err() != nil {
			return nil, domerrors.NewLoadError(name, src.Name(), ctx.Err())
		}

		fctx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
		table, err := src.Fetch(fctx, name)
		cancel()

		switch {
		case errors.Is(err, domerrors.ErrNotFound):
			l.metrics.RecordKnowledgeLoad(src.Name(), "missing")
			slog.DebugContext(ctx, "table not present in source", "table", name, "source", src.Name())
			continue
		case err != nil:
			l.metrics.RecordKnowledgeLoad(src.Name(), "error")
			lastErr = domerrors.NewLoadError(name, src.Name(), err)
			slog.WarnContext(ctx, "table fetch failed, trying next source",
				"table", name,
				"source", src.Name(),
				"error", err)
			continue
		case table.Empty():
			l.metrics.RecordKnowledgeLoad(src.Name(), "empty")
			slog.WarnContext(ctx, "table empty in source, trying next source",
				"table", name,
				"source", src.Name())
			continue
		}

		l.metrics.RecordKnowledgeLoad(src.Name(), "success")
		table.Name = name
		table.Source = src.Name()
		slog.InfoContext(ctx, "table loaded",
			"table", name,
			"source", src.Name(),
			"rows", len(table.Rows))

		if l.cache != nil && src.Name() != SourceCache {
			if err := l.cache.Save(ctx, table); err != nil {
				slog.WarnContext(ctx, "failed to cache table", "table", name, "error", err)
			}
		}
		return table, nil
	}

	if lastErr == nil {
		lastErr = domerrors.NewLoadError(name, "", errNoData)
	}
	slog.WarnContext(ctx, "table is empty or could not be read", "table", name, "error", lastErr)
	return nil, lastErr
}

// String describes the source chain, for startup logs.
func (l *Loader) String() string {
	names := make([]string, 0, len(l.sources))
	for _, s := range l.sources {
		names = append(names, s.Name())
	}
	return fmt.Sprintf("%v", names)
}
