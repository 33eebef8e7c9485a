// Package genai generates chat answers with LLM APIs (Gemini, Groq, and Cerebras).
//
// Architecture:
//   - Gemini: google.golang.org/genai (official SDK)
//   - Groq/Cerebras: github.com/openai/openai-go/v3 (OpenAI-compatible API)
//
// A turn is answered by the primary model; on failure exactly one attempt
// is made with the fallback model and the same prompt.
package genai

import (
	"context"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderGemini represents Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq represents Groq's API (OpenAI-compatible).
	ProviderGroq Provider = "groq"
	// ProviderCerebras represents Cerebras's API (OpenAI-compatible).
	ProviderCerebras Provider = "cerebras"
)

// ProviderEndpoint defines the base URL for OpenAI-compatible providers.
// Gemini is not included as it uses a different SDK.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq:     "https://api.groq.com/openai/v1/",
	ProviderCerebras: "https://api.cerebras.ai/v1/",
}

// IsOpenAICompatible returns true if the provider uses OpenAI-compatible API.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Role is the author of a history message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation history.
type Message struct {
	Role    Role
	Content string
}

// Request is one generation call.
type Request struct {
	// System is the system instruction, including the knowledge text.
	System string
	// History holds earlier turns, oldest first.
	History []Message
	// Prompt is the current user message.
	Prompt string
}

// Generator produces an answer for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Model returns the model name.
	Model() string
	// Close releases any resources held by the generator.
	Close() error
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per model (including initial).
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
}

// ModelConfig selects one provider model.
type ModelConfig struct {
	Provider Provider
	APIKey   string
	Model    string
}

// Enabled reports whether the model can be created.
func (m ModelConfig) Enabled() bool {
	return m.APIKey != "" && m.Model != ""
}

// LLMConfig holds configuration for the generator chain.
type LLMConfig struct {
	Primary  ModelConfig
	Fallback ModelConfig

	Temperature float32
	MaxTokens   int

	// AttemptTimeout bounds each model attempt. A timeout counts as a failure.
	AttemptTimeout time.Duration
	// TurnTimeout bounds the whole chain, retries and fallback included.
	TurnTimeout time.Duration

	Retry RetryConfig
}

// Default models.
const (
	DefaultGeminiModel         = "gemini-2.0-flash"
	DefaultGeminiFallbackModel = "gemini-2.5-flash"
	DefaultGroqModel           = "llama-3.3-70b-versatile"
	DefaultGroqFallbackModel   = "llama-3.1-8b-instant"
	DefaultCerebrasModel       = "llama-3.3-70b"
	DefaultCerebrasFallback    = "llama-3.1-8b"
)

// Retry configuration defaults. By default each model gets one attempt and
// the fallback model is the retry; LLM_MAX_ATTEMPTS raises it for transient
// errors, with the turn timeout capping the total.
const (
	DefaultMaxRetryAttempts  = 1
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// AlternateModel returns the fallback model used when no fallback provider
// is configured.
func AlternateModel(p Provider) string {
	switch p {
	case ProviderGemini:
		return DefaultGeminiFallbackModel
	case ProviderGroq:
		return DefaultGroqFallbackModel
	case ProviderCerebras:
		return DefaultCerebrasFallback
	default:
		return ""
	}
}
