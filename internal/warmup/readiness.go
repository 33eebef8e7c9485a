package warmup

import (
	"sync/atomic"
	"time"
)

// ReadinessState tracks whether the service can answer questions. The
// service is ready once a load produced a non-empty knowledge snapshot.
// Safe for concurrent use; startTime and check are immutable after
// construction.
type ReadinessState struct {
	loaded    atomic.Bool
	startTime time.Time
	check     func() bool
}

// ReadinessStatus contains the current readiness state for API responses.
type ReadinessStatus struct {
	Ready          bool   `json:"ready"`
	Reason         string `json:"reason,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds,omitempty"`
}

// NewReadinessState creates a state that is not ready until MarkLoaded has
// been called and check reports a usable knowledge snapshot.
func NewReadinessState(check func() bool) *ReadinessState {
	return &ReadinessState{
		startTime: time.Now(),
		check:     check,
	}
}

// IsReady returns true if the service is ready to accept traffic.
func (s *ReadinessState) IsReady() bool {
	return s.loaded.Load() && s.check()
}

// MarkLoaded records that the initial knowledge load finished, whether or
// not it yielded data.
func (s *ReadinessState) MarkLoaded() {
	s.loaded.Store(true)
}

// InitialLoadCompleted returns true once MarkLoaded was called.
func (s *ReadinessState) InitialLoadCompleted() bool {
	return s.loaded.Load()
}

// Status returns the current readiness status for API responses.
func (s *ReadinessState) Status() ReadinessStatus {
	switch {
	case !s.loaded.Load():
		return ReadinessStatus{
			Reason:         "initial knowledge load in progress",
			ElapsedSeconds: int(time.Since(s.startTime).Seconds()),
		}
	case !s.check():
		return ReadinessStatus{Reason: "knowledge base is empty"}
	default:
		return ReadinessStatus{Ready: true}
	}
}
