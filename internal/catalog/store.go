package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/garyellow/baera-chatbot-go/internal/ctxutil"
	domerrors "github.com/garyellow/baera-chatbot-go/internal/errors"
	"github.com/garyellow/baera-chatbot-go/internal/knowledge"
	"github.com/garyellow/baera-chatbot-go/internal/metrics"
)

// Loader produces a knowledge load. *knowledge.Loader implements it.
type Loader interface {
	Load(ctx context.Context) (*knowledge.Result, error)
}

// Store publishes the current snapshot. Readers never block and always see
// a complete snapshot.
type Store struct {
	loader  Loader
	timeout time.Duration
	metrics *metrics.Metrics

	current atomic.Pointer[Snapshot]
	group   singleflight.Group
}

// NewStore creates a store holding an empty snapshot. timeout bounds each
// reload.
func NewStore(loader Loader, timeout time.Duration, m *metrics.Metrics) *Store {
	s := &Store{loader: loader, timeout: timeout, metrics: m}
	s.current.Store(Empty())
	return s
}

// Current returns the published snapshot. It is never nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Swap publishes snap and returns the previous snapshot.
func (s *Store) Swap(snap *Snapshot) *Snapshot {
	if snap == nil {
		snap = Empty()
	}
	old := s.current.Swap(snap)
	s.publishMetrics(snap)
	return old
}

// Reload loads and publishes a new snapshot. Concurrent calls share one
// load. When the load yields no knowledge the previous snapshot stays
// published and the error wraps errors.ErrEmptyKnowledge.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, shared := s.group.Do("reload", func() (any, error) {
		// Detach so one caller's cancellation does not abort the shared load.
		loadCtx := ctxutil.PreserveTracing(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, s.timeout)
			defer cancel()
		}
		return s.reload(loadCtx)
	})
	if shared {
		slog.DebugContext(ctx, "reload shared with concurrent caller")
	}
	if err != nil {
		return s.Current(), err
	}
	return v.(*Snapshot), nil
}

func (s *Store) reload(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	result, err := s.loader.Load(ctx)
	if err != nil {
		var empty *domerrors.EmptyKnowledgeError
		if errors.As(err, &empty) {
			slog.ErrorContext(ctx, "knowledge initialization failed, keeping previous snapshot",
				"failures", len(empty.Failures))
			return nil, err
		}
		return nil, fmt.Errorf("load knowledge: %w", err)
	}

	snap := Build(ctx, result)
	if !snap.Ready() {
		slog.ErrorContext(ctx, "knowledge text is empty, keeping previous snapshot")
		return nil, &domerrors.EmptyKnowledgeError{Tables: len(result.Specs), Failures: result.Failures}
	}

	s.Swap(snap)
	slog.InfoContext(ctx, "knowledge snapshot published",
		"tables", len(snap.Tables),
		"duration_ms", time.Since(start).Milliseconds())
	return snap, nil
}

func (s *Store) publishMetrics(snap *Snapshot) {
	if s.metrics == nil {
		return
	}
	bySource := make(map[string]int)
	for _, t := range snap.Tables {
		bySource[t.Source]++
	}
	s.metrics.SetKnowledgeTables(bySource)
	s.metrics.SetCatalogEntries("documents", len(snap.Documents))
	s.metrics.SetCatalogEntries("notices", len(snap.Notices))
	s.metrics.SetCatalogEntries("locations", snap.Locations.Len())
}
