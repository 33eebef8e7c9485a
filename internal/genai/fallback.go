package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/garyellow/baera-chatbot-go/internal/metrics"
)

// FallbackGenerator tries the primary model and, when it fails, the fallback
// model. Each model gets cfg.MaxAttempts attempts, each bounded by
// attemptTimeout.
type FallbackGenerator struct {
	primary        Generator
	fallback       Generator // nil when no fallback is configured
	retry          RetryConfig
	attemptTimeout time.Duration
	turnTimeout    time.Duration
}

// NewFallbackGenerator creates a generator chain. fallback may be nil.
func NewFallbackGenerator(primary, fallback Generator, retry RetryConfig, attemptTimeout time.Duration) *FallbackGenerator {
	return &FallbackGenerator{
		primary:        primary,
		fallback:       fallback,
		retry:          retry,
		attemptTimeout: attemptTimeout,
	}
}

// Generate returns the first successful answer of the chain.
func (f *FallbackGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if f == nil || f.primary == nil {
		return "", errors.New("no generator configured")
	}
	if f.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.turnTimeout)
		defer cancel()
	}
	start := time.Now()

	text, err := f.generateWithRetry(ctx, f.primary, req)
	if err == nil {
		return text, nil
	}

	if f.fallback == nil || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return "", err
	}

	slog.WarnContext(ctx, "primary model failed, trying fallback",
		"primary", f.primary.Model(),
		"fallback", f.fallback.Model(),
		"error_type", classifyErrorType(err),
		"error", err)

	text, fbErr := f.generateWithRetry(ctx, f.fallback, req)
	if fbErr != nil {
		return "", fmt.Errorf("all models failed: primary: %w; fallback: %w", err, fbErr)
	}

	recordFallback(f.primary.Model(), f.fallback.Model())
	slog.InfoContext(ctx, "fallback model succeeded",
		"model", f.fallback.Model(),
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

// WithTurnTimeout bounds every Generate call by d, so retry backoff is
// skipped once the remaining budget cannot cover it. Zero means no bound.
func (f *FallbackGenerator) WithTurnTimeout(d time.Duration) *FallbackGenerator {
	f.turnTimeout = d
	return f
}

func (f *FallbackGenerator) generateWithRetry(ctx context.Context, gen Generator, req Request) (string, error) {
	onRetry := func(attempt int, err error) {
		slog.DebugContext(ctx, "retrying generation",
			"provider", gen.Provider(),
			"model", gen.Model(),
			"attempt", attempt,
			"error", err)
	}

	return withRetry(ctx, f.retry, onRetry, func(ctx context.Context) (string, error) {
		attemptCtx := ctx
		if f.attemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, f.attemptTimeout)
			defer cancel()
		}

		start := time.Now()
		text, err := gen.Generate(attemptCtx, req)
		if err != nil {
			recordError(gen.Provider(), err)
			return "", err
		}
		recordSuccess(gen.Provider(), start)
		return text, nil
	})
}

// Provider returns the primary provider.
func (f *FallbackGenerator) Provider() Provider {
	if f == nil || f.primary == nil {
		return ""
	}
	return f.primary.Provider()
}

// Model returns the primary model.
func (f *FallbackGenerator) Model() string {
	if f == nil || f.primary == nil {
		return ""
	}
	return f.primary.Model()
}

// HasFallback reports whether a fallback model is configured.
func (f *FallbackGenerator) HasFallback() bool {
	return f != nil && f.fallback != nil
}

// Close closes both generators.
func (f *FallbackGenerator) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	if f.primary != nil {
		errs = append(errs, f.primary.Close())
	}
	if f.fallback != nil {
		errs = append(errs, f.fallback.Close())
	}
	return errors.Join(errs...)
}

func recordSuccess(provider Provider, start time.Time) {
	if metrics.LLMTotal != nil {
		metrics.LLMTotal.WithLabelValues(string(provider), "success").Inc()
	}
	if metrics.LLMDuration != nil {
		metrics.LLMDuration.WithLabelValues(string(provider)).Observe(time.Since(start).Seconds())
	}
}

func recordError(provider Provider, err error) {
	if metrics.LLMTotal != nil {
		metrics.LLMTotal.WithLabelValues(string(provider), classifyErrorType(err)).Inc()
	}
}

func recordFallback(fromModel, toModel string) {
	if metrics.LLMFallbackTotal == nil {
		return
	}
	metrics.LLMFallbackTotal.WithLabelValues(fromModel, toModel).Inc()
}

// classifyErrorType maps an error to a metrics status label.
func classifyErrorType(err error) string {
	if err == nil {
		return "success"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		switch {
		case llmErr.StatusCode == http.StatusTooManyRequests:
			return "rate_limit"
		case llmErr.StatusCode >= 500:
			return "server_error"
		case llmErr.StatusCode == http.StatusUnauthorized || llmErr.StatusCode == http.StatusForbidden:
			return "auth_error"
		case llmErr.StatusCode == http.StatusBadRequest:
			return "invalid_request"
		}
	}

	switch ClassifyError(err) {
	case ActionFallback:
		return "quota_exhausted"
	case ActionRetry:
		return "transient_error"
	default:
		return "error"
	}
}
