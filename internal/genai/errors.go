package genai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorAction defines the action to take based on error type.
type ErrorAction int

const (
	// ActionRetry indicates the request should be retried with the same provider/model.
	ActionRetry ErrorAction = iota
	// ActionFallback indicates fallback to another provider should be attempted.
	ActionFallback
	// ActionFail indicates the request should fail immediately (permanent error).
	ActionFail
)

// String returns a human-readable string for the error action.
func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Kind is the user-facing category of a generation failure.
type Kind int

const (
	KindGeneric Kind = iota
	KindAuth
	KindQuota
	KindTimeout
	KindModelNotFound
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindQuota:
		return "quota"
	case KindTimeout:
		return "timeout"
	case KindModelNotFound:
		return "model_not_found"
	case KindCanceled:
		return "canceled"
	default:
		return "generic"
	}
}

// User-facing apologies. Every message ends with retrySuffix.
const (
	msgAuth     = "Error de autenticación. Por favor, verifica tu API key de Google."
	msgQuota    = "Se ha alcanzado el límite de uso. Por favor, intenta más tarde."
	msgGeneric  = "Lo siento, ocurrió un error procesando tu mensaje."
	retrySuffix = " Por favor, intenta de nuevo."
)

// LLMError wraps an error with additional context for retry/fallback decisions.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
	Model      string
	Retryable  bool
	// RetryAfter is the delay requested by the provider, if any.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return e.Err.Error() + " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *LLMError) Unwrap() error {
	return e.Err
}

// messageRules classify errors that carry no status code. Rules are checked
// in order; quota exhaustion wins over the generic rate-limit wording.
var messageRules = []struct {
	action   ErrorAction
	patterns []string
}{
	{ActionFallback, []string{"quota", "daily limit", "monthly limit", "billing"}},
	{ActionRetry, []string{
		"rate limit", "too many", "resource_exhausted", "429",
		"unavailable", "overloaded", "capacity", "internal server error", "bad gateway",
		"500", "502", "503", "504", "408", "409", "timeout", "deadline", "connection",
	}},
	{ActionFail, []string{
		"400", "invalid", "bad request", "malformed",
		"401", "unauthorized", "unauthenticated", "403", "forbidden", "permission denied",
		"404", "not found", "422", "unprocessable",
	}},
}

// ClassifyError decides whether the same model is retried, skipped in favor
// of the fallback model, or given up on. Unknown errors are retried.
//
// The fallback model is tried after any failure except cancellation; the
// action only decides whether the same model is retried first.
func ClassifyError(err error) ErrorAction {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return ActionFail
	case errors.Is(err, context.DeadlineExceeded):
		return ActionRetry
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return classifyStatusCode(llmErr.StatusCode)
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		if containsAny(msg, rule.patterns...) {
			return rule.action
		}
	}
	return ActionRetry
}

// classifyStatusCode retries throttling, conflicts and server errors and
// fails every other 4xx. A zero or unknown code is retried.
func classifyStatusCode(code int) ErrorAction {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code == http.StatusConflict:
		return ActionRetry
	case code >= 400 && code < 500:
		return ActionFail
	default:
		return ActionRetry
	}
}

// ParseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
// Returns 0 if header is missing or invalid.
func ParseRetryAfter(headers http.Header) time.Duration {
	// Priority 1: retry-after-ms (milliseconds, non-standard but precise)
	if msStr := headers.Get("retry-after-ms"); msStr != "" {
		if ms, err := strconv.Atoi(msStr); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}

	// Priority 2: retry-after (seconds, standard)
	if secStr := headers.Get("retry-after"); secStr != "" {
		// Try as integer seconds
		if sec, err := strconv.Atoi(secStr); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
		// Try as HTTP-date (RFC 1123)
		if t, err := http.ParseTime(secStr); err == nil {
			return time.Until(t)
		}
	}

	// Priority 3: Groq-specific header
	if resetStr := headers.Get("x-ratelimit-reset-tokens"); resetStr != "" {
		if d, err := time.ParseDuration(resetStr); err == nil {
			return d
		}
	}

	return 0
}

// KindOf categorizes a generation failure for the user-facing message.
func KindOf(err error) Kind {
	if err == nil {
		return KindGeneric
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		switch llmErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return KindAuth
		case http.StatusTooManyRequests:
			return KindQuota
		case http.StatusNotFound:
			return KindModelNotFound
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case containsAny(errStr, "api key", "api_key", "authentication", "unauthenticated", "unauthorized", "permission denied"):
		return KindAuth
	case containsAny(errStr, "quota", "limit", "resource_exhausted"):
		return KindQuota
	case strings.Contains(errStr, "model") && strings.Contains(errStr, "not found"):
		return KindModelNotFound
	case containsAny(errStr, "timeout", "deadline"):
		return KindTimeout
	}
	return KindGeneric
}

// UserMessage returns the apology shown to the user when generation failed.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindAuth:
		return msgAuth + retrySuffix
	case KindQuota:
		return msgQuota + retrySuffix
	default:
		return msgGeneric + retrySuffix
	}
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// WrapError wraps an error with provider, model and status code information.
func WrapError(err error, provider Provider, model string, statusCode int) error {
	if err == nil {
		return nil
	}
	return &LLMError{
		Err:        err,
		StatusCode: statusCode,
		Provider:   provider,
		Model:      model,
		Retryable:  ClassifyError(err) == ActionRetry,
	}
}
