package ratelimit

import (
	"sync"
	"time"
)

// window is a sliding window counter. The previous fixed window is weighted
// by how much of it still overlaps the sliding window:
//
//	count = current + previous * (remaining / size)
//
// A nil window allows everything.
type window struct {
	mu       sync.Mutex
	size     time.Duration
	limit    int
	start    time.Time
	current  int
	previous int
	now      func() time.Time
}

func newWindow(limit int, size time.Duration, now func() time.Time) *window {
	if limit <= 0 {
		return nil
	}
	return &window{size: size, limit: limit, start: now(), now: now}
}

// rotate must be called with mu held.
func (w *window) rotate() {
	elapsed := w.now().Sub(w.start)
	if elapsed < w.size {
		return
	}
	passed := int(elapsed / w.size)
	if passed == 1 {
		w.previous = w.current
	} else {
		w.previous = 0
	}
	w.current = 0
	w.start = w.start.Add(time.Duration(passed) * w.size)
}

// count must be called with mu held.
func (w *window) count() float64 {
	overlap := float64(w.size-w.now().Sub(w.start)) / float64(w.size)
	overlap = max(0, min(1, overlap))
	return float64(w.current) + float64(w.previous)*overlap
}

func (w *window) allows() bool {
	if w == nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	return w.count() < float64(w.limit)
}

func (w *window) add() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	w.current++
}

// remaining returns the approximate quota left, or -1 for a nil window.
func (w *window) remaining() int {
	if w == nil {
		return -1
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	return max(0, int(float64(w.limit)-w.count()))
}

// idle reports whether the window holds no requests.
func (w *window) idle() bool {
	if w == nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	return w.count() == 0
}
