// Package warmup primes the local table cache from the live sources and
// tracks service readiness.
package warmup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/baera-chatbot-go/internal/knowledge"
	"github.com/garyellow/baera-chatbot-go/internal/storage"
)

// Loader loads every table once. The loader writes live tables back to the
// cache itself.
type Loader interface {
	Load(ctx context.Context) (*knowledge.Result, error)
}

// Cache is the part of the SQLite store a reset needs.
type Cache interface {
	ListTables(ctx context.Context) ([]storage.TableInfo, error)
	DeleteTable(ctx context.Context, name string) error
}

// Publisher uploads tables, e.g. to the R2 bucket.
type Publisher interface {
	Publish(ctx context.Context, t *knowledge.Table) error
}

// Stats tracks cache warming statistics.
// All fields use atomic operations for concurrent access.
type Stats struct {
	Tables    atomic.Int64
	Rows      atomic.Int64
	Published atomic.Int64
	Failed    atomic.Int64
}

// Options configures cache warming behavior.
type Options struct {
	// Reset deletes every cached table before loading.
	Reset bool
	Cache Cache
	// Publisher, when set, receives every loaded table.
	Publisher Publisher
	// Concurrency limits concurrent uploads.
	Concurrency int
}

// Run loads all tables through loader and optionally publishes them. It
// fails when no table yielded rows or any upload failed.
func Run(ctx context.Context, loader Loader, opts Options) (*Stats, error) {
	stats := &Stats{}
	startTime := time.Now()

	if opts.Reset {
		if opts.Cache == nil {
			return nil, errors.New("reset requested without a cache")
		}
		slog.WarnContext(ctx, "resetting table cache")
		if err := resetCache(ctx, opts.Cache); err != nil {
			return nil, fmt.Errorf("failed to reset cache: %w", err)
		}
	}

	result, err := loader.Load(ctx)
	if err != nil {
		return stats, fmt.Errorf("load tables: %w", err)
	}
	for _, f := range result.Failures {
		stats.Failed.Add(1)
		slog.WarnContext(ctx, "table not loaded", "table", f.Table, "error", f.Err)
	}

	var loaded []*knowledge.Table
	for _, t := range result.Tables {
		if t.Empty() {
			continue
		}
		stats.Tables.Add(1)
		stats.Rows.Add(int64(len(t.Rows)))
		loaded = append(loaded, t)
	}

	if opts.Publisher != nil {
		if err := publish(ctx, opts.Publisher, loaded, opts.Concurrency, stats); err != nil {
			return stats, err
		}
	}

	slog.InfoContext(ctx, "cache warming complete",
		"tables", stats.Tables.Load(),
		"rows", stats.Rows.Load(),
		"published", stats.Published.Load(),
		"failed", stats.Failed.Load(),
		"duration", time.Since(startTime))
	return stats, nil
}

func publish(ctx context.Context, p Publisher, tables []*knowledge.Table, concurrency int, stats *Stats) error {
	if concurrency <= 0 {
		concurrency = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, t := range tables {
		g.Go(func() error {
			if err := p.Publish(gctx, t); err != nil {
				return err
			}
			stats.Published.Add(1)
			slog.DebugContext(gctx, "table published", "table", t.Name, "rows", len(t.Rows))
			return nil
		})
	}
	return g.Wait()
}

func resetCache(ctx context.Context, c Cache) error {
	infos, err := c.ListTables(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if err := c.DeleteTable(ctx, info.Name); err != nil {
			return err
		}
	}
	return nil
}
