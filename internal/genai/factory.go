// This file contains factory functions for creating generators.

package genai

import (
	"context"
	"fmt"
	"log/slog"
)

// CreateGenerator creates the generator chain for cfg.
//
// Selection logic:
//  1. The primary model is required; an error is returned if it cannot be created.
//  2. The fallback model is optional; creation failures are logged and skipped.
//  3. A fallback identical to the primary is ignored.
//
// Returns nil if the primary model is not configured.
func CreateGenerator(ctx context.Context, cfg LLMConfig) (*FallbackGenerator, error) {
	if !cfg.Primary.Enabled() {
		slog.InfoContext(ctx, "no LLM provider configured for generation")
		return nil, nil
	}

	primary, err := newGenerator(ctx, cfg.Primary, cfg)
	if err != nil {
		return nil, fmt.Errorf("primary generator: %w", err)
	}

	var fallback Generator
	if cfg.Fallback.Enabled() && cfg.Fallback != cfg.Primary {
		fb, err := newGenerator(ctx, cfg.Fallback, cfg)
		if err != nil {
			slog.WarnContext(ctx, "failed to create fallback generator",
				"provider", cfg.Fallback.Provider,
				"model", cfg.Fallback.Model,
				"error", err)
		} else {
			fallback = fb
		}
	}

	chain := NewFallbackGenerator(primary, fallback, cfg.Retry, cfg.AttemptTimeout).WithTurnTimeout(cfg.TurnTimeout)
	attrs := []any{"provider", primary.Provider(), "model", primary.Model()}
	if fallback != nil {
		attrs = append(attrs, "fallback_provider", fallback.Provider(), "fallback_model", fallback.Model())
	}
	slog.InfoContext(ctx, "generator configured", attrs...)
	return chain, nil
}

func newGenerator(ctx context.Context, m ModelConfig, cfg LLMConfig) (Generator, error) {
	switch {
	case m.Provider == ProviderGemini:
		return newGeminiGenerator(ctx, m.APIKey, m.Model, cfg.Temperature, cfg.MaxTokens)
	case m.Provider.IsOpenAICompatible():
		return newOpenAIGenerator(m.Provider, m.APIKey, m.Model, "", cfg.Temperature, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unsupported provider: %q", m.Provider)
	}
}

// DefaultLLMConfig returns a default LLM configuration.
// API keys must be provided separately.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Primary:     ModelConfig{Provider: ProviderGemini, Model: DefaultGeminiModel},
		Fallback:    ModelConfig{Provider: ProviderGemini, Model: DefaultGeminiFallbackModel},
		Temperature: 0.7,
		MaxTokens:   2048,
		Retry:       DefaultRetryConfig(),
	}
}
