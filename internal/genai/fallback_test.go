package genai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockGenerator returns queued results in order and records requests.
type mockGenerator struct {
	mu       sync.Mutex
	provider Provider
	model    string
	results  []mockResult
	calls    int
	requests []Request
	closed   bool
	closeErr error
}

type mockResult struct {
	text string
	err  error
	wait time.Duration // blocks until ctx is done or wait elapses
}

func (m *mockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if idx >= len(m.results) {
		return "", errors.New("unexpected call")
	}
	r := m.results[idx]
	if r.wait > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.wait):
		}
	}
	return r.text, r.err
}

func (m *mockGenerator) Provider() Provider { return m.provider }
func (m *mockGenerator) Model() string      { return m.model }
func (m *mockGenerator) Close() error {
	m.closed = true
	return m.closeErr
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var authErr = &LLMError{Err: errors.New("invalid api key"), StatusCode: http.StatusUnauthorized, Provider: ProviderGemini}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestFallbackGenerator_PrimarySucceeds(t *testing.T) {
	t.Parallel()
	primary := &mockGenerator{provider: ProviderGemini, model: "primary", results: []mockResult{{text: "hola"}}}
	fallback := &mockGenerator{provider: ProviderGemini, model: "fallback"}

	gen := NewFallbackGenerator(primary, fallback, fastRetry(1), time.Second)
	got, err := gen.Generate(context.Background(), Request{Prompt: "hola"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "hola" {
		t.Errorf("Generate() = %q, want %q", got, "hola")
	}
	if fallback.callCount() != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.callCount())
	}
}

func TestFallbackGenerator_FallsBackWithSameRequest(t *testing.T) {
	t.Parallel()
	primary := &mockGenerator{provider: ProviderGemini, model: "primary", results: []mockResult{{err: authErr}}}
	fallback := &mockGenerator{provider: ProviderGroq, model: "fallback", results: []mockResult{{text: "respuesta"}}}

	req := Request{
		System:  "sistema",
		History: []Message{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}},
		Prompt:  "pregunta",
	}
	gen := NewFallbackGenerator(primary, fallback, fastRetry(1), time.Second)
	got, err := gen.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "respuesta" {
		t.Errorf("Generate() = %q, want %q", got, "respuesta")
	}
	if len(fallback.requests) != 1 {
		t.Fatalf("fallback requests = %d, want 1", len(fallback.requests))
	}
	fr := fallback.requests[0]
	if fr.System != req.System || fr.Prompt != req.Prompt || len(fr.History) != len(req.History) {
		t.Errorf("fallback request = %+v, want %+v", fr, req)
	}
}

func TestFallbackGenerator_BothFail(t *testing.T) {
	t.Parallel()
	primary := &mockGenerator{provider: ProviderGemini, model: "primary", results: []mockResult{{err: authErr}}}
	fallback := &mockGenerator{provider: ProviderGemini, model: "fallback", results: []mockResult{{err: errors.New("quota exceeded")}}}

	gen := NewFallbackGenerator(primary, fallback, fastRetry(1), time.Second)
	_, err := gen.Generate(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Fatal("Generate() expected error")
	}
	if !errors.Is(err, authErr) {
		t.Errorf("error should wrap primary failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error should mention fallback failure, got %v", err)
	}
	if fallback.callCount() != 1 {
		t.Errorf("fallback called %d times, want exactly 1", fallback.callCount())
	}
}

func TestFallbackGenerator_NoFallback(t *testing.T) {
	t.Parallel()
	primary := &mockGenerator{provider: ProviderGemini, model: "primary", results: []mockResult{{err: authErr}}}

	gen := NewFallbackGenerator(primary, nil, fastRetry(1), time.Second)
	_, err := gen.Generate(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, authErr) {
		t.Errorf("Generate() error = %v, want %v", err, authErr)
	}
}

func TestFallbackGenerator_RetriesTransientBeforeFallback(t *testing.T) {
	t.Parallel()
	transient := &LLMError{Err: errors.New("overloaded"), StatusCode: http.StatusServiceUnavailable}
	primary := &mockGenerator{provider: ProviderGemini, model: "primary", results: []mockResult{{err: transient}, {text: "ok"}}}
	fallback := &mockGenerator{provider: ProviderGemini, model: "fallback"}

	gen := NewFallbackGenerator(primary, fallback, fastRetry(2), time.Second)
	got, err := gen.Generate(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Generate() = %q, want %q", got, "ok")
	}
	if primary.callCount() != 2 {
		t.Errorf("primary called %d times, want 2", primary.callCount())
	}
	if fallback.callCount() != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.callCount())
	}
}

func TestFallbackGenerator_AttemptTimeoutTriggersFallback(t *testing.T) {
	t.Parallel()
	primary := &mockGenerator{provider: ProviderGemini, model: "primary", results: []mockResult{{wait: time.Second}}}
	fallback := &mockGenerator{provider: ProviderGemini, model: "fallback", results: []mockResult{{text: "rápido"}}}

	gen := NewFallbackGenerator(primary, fallback, fastRetry(1), 20*time.Millisecond)
	got, err := gen.Generate(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "rápido" {
		t.Errorf("Generate() = %q, want %q", got, "rápido")
	}
}

func TestFallbackGenerator_CanceledSkipsFallback(t *testing.T) {
	t.Parallel()
	primary := &mockGenerator{provider: ProviderGemini, model: "primary", results: []mockResult{{err: context.Canceled}}}
	fallback := &mockGenerator{provider: ProviderGemini, model: "fallback", results: []mockResult{{text: "no"}}}

	gen := NewFallbackGenerator(primary, fallback, fastRetry(1), time.Second)
	_, err := gen.Generate(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
	if fallback.callCount() != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.callCount())
	}
}

func TestFallbackGenerator_NilPrimary(t *testing.T) {
	t.Parallel()
	var gen *FallbackGenerator
	if _, err := gen.Generate(context.Background(), Request{}); err == nil {
		t.Error("nil generator should return error")
	}
	if gen.Provider() != "" || gen.Model() != "" {
		t.Error("nil generator should report empty provider and model")
	}
	if gen.HasFallback() {
		t.Error("nil generator should report no fallback")
	}
	if err := gen.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}

func TestFallbackGenerator_Close(t *testing.T) {
	t.Parallel()
	closeErr := errors.New("close failed")
	primary := &mockGenerator{model: "primary"}
	fallback := &mockGenerator{model: "fallback", closeErr: closeErr}

	gen := NewFallbackGenerator(primary, fallback, fastRetry(1), time.Second)
	err := gen.Close()
	if !primary.closed || !fallback.closed {
		t.Error("Close() should close both generators")
	}
	if !errors.Is(err, closeErr) {
		t.Errorf("Close() error = %v, want %v", err, closeErr)
	}
}

func TestClassifyErrorType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "success"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"rate limit", &LLMError{Err: errors.New("x"), StatusCode: 429}, "rate_limit"},
		{"server", &LLMError{Err: errors.New("x"), StatusCode: 502}, "server_error"},
		{"auth", &LLMError{Err: errors.New("x"), StatusCode: 403}, "auth_error"},
		{"bad request", &LLMError{Err: errors.New("x"), StatusCode: 400}, "invalid_request"},
		{"quota text", errors.New("daily limit reached"), "quota_exhausted"},
		{"transient text", errors.New("service unavailable"), "transient_error"},
		{"permanent text", errors.New("forbidden"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyErrorType(tt.err); got != tt.want {
				t.Errorf("classifyErrorType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFallbackGenerator_TurnTimeoutBoundsChain(t *testing.T) {
	t.Parallel()
	primary := &mockGenerator{provider: ProviderGemini, model: "primary", results: []mockResult{
		{wait: time.Minute},
		{wait: time.Minute},
	}}
	fallback := &mockGenerator{provider: ProviderGemini, model: "fallback", results: []mockResult{{wait: time.Minute}}}

	gen := NewFallbackGenerator(primary, fallback, fastRetry(2), 0).WithTurnTimeout(50 * time.Millisecond)
	start := time.Now()
	_, err := gen.Generate(context.Background(), Request{Prompt: "hola"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Generate() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Generate() took %v, turn timeout not applied", elapsed)
	}
	if fallback.callCount() != 0 {
		t.Errorf("fallback called %d times after the turn budget ran out", fallback.callCount())
	}
}
