package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the async log pipeline.
type AsyncOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type queued struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// sink is the queue and worker shared by an AsyncHandler and every handler
// derived from it through WithAttrs or WithGroup.
type sink struct {
	mu      sync.RWMutex
	closed  bool
	queue   chan queued
	done    chan struct{}
	timeout time.Duration
	dropped atomic.Uint64
}

func startSink(opts AsyncOptions) *sink {
	size := opts.BufferSize
	if size <= 0 {
		size = defaultAsyncBufferSize
	}
	timeout := opts.FlushTimeout
	if timeout <= 0 {
		timeout = defaultAsyncFlushTimeout
	}

	s := &sink{
		queue:   make(chan queued, size),
		done:    make(chan struct{}),
		timeout: timeout,
	}
	go s.drain()
	return s
}

func (s *sink) drain() {
	defer close(s.done)
	for q := range s.queue {
		// Remote sink errors have nowhere useful to go
		_ = q.handler.Handle(q.ctx, q.record)
	}
}

// push never blocks; a full queue counts the record as dropped.
func (s *sink) push(q queued) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- q:
	default:
		s.dropped.Add(1)
	}
}

func (s *sink) close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncHandler wraps a slog.Handler and hands records to a single background
// worker. Records are dropped when the buffer is full so a slow remote sink
// never stalls a chat turn.
type AsyncHandler struct {
	sink    *sink
	handler slog.Handler
}

// NewAsyncHandler starts the worker and returns a handler feeding it.
func NewAsyncHandler(handler slog.Handler, opts AsyncOptions) *AsyncHandler {
	return &AsyncHandler{sink: startSink(opts), handler: handler}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle queues a clone of r; it never returns an error.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.handler.Enabled(ctx, r.Level) {
		h.sink.push(queued{ctx: ctx, record: r.Clone(), handler: h.handler})
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{sink: h.sink, handler: h.handler.WithAttrs(attrs)}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{sink: h.sink, handler: h.handler.WithGroup(name)}
}

// Dropped returns how many records were discarded because the buffer was full.
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil || h.sink == nil {
		return 0
	}
	return h.sink.dropped.Load()
}

// Shutdown stops accepting records and waits for the queue to drain, bounded
// by ctx or, without a deadline, by the configured flush timeout.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.sink == nil {
		return nil
	}
	return h.sink.close(ctx)
}
