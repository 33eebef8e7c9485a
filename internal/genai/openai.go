package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiGenerator answers through an OpenAI-compatible chat completions
// endpoint (Groq, Cerebras).
type openaiGenerator struct {
	client      openai.Client
	provider    Provider
	model       string
	temperature float32
	maxTokens   int
}

// newOpenAIGenerator creates a generator for an OpenAI-compatible provider.
// endpoint overrides the provider's default base URL when non-empty.
func newOpenAIGenerator(provider Provider, apiKey, model, endpoint string, temperature float32, maxTokens int) (*openaiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is empty", provider)
	}

	baseURL := endpoint
	if baseURL == "" {
		var ok bool
		baseURL, ok = ProviderEndpoint[provider]
		if !ok {
			return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
		}
	}

	if model == "" {
		switch provider {
		case ProviderGroq:
			model = DefaultGroqModel
		case ProviderCerebras:
			model = DefaultCerebrasModel
		default:
			return nil, fmt.Errorf("no default model for provider: %s", provider)
		}
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &openaiGenerator{
		client:      client,
		provider:    provider,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

func openaiMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.History {
		if m.Role == RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return append(msgs, openai.UserMessage(req.Prompt))
}

func (g *openaiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       g.model,
		Messages:    openaiMessages(req),
		Temperature: openai.Float(float64(g.temperature)),
		MaxTokens:   openai.Int(int64(g.maxTokens)),
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "generation API call failed",
			"provider", g.provider,
			"model", g.model,
			"history", len(req.History),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", g.wrapAPIError(err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", WrapError(errors.New("empty response from model"), g.provider, g.model, 0)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", WrapError(errors.New("no text in response"), g.provider, g.model, 0)
	}

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "generation completed",
			"provider", g.provider,
			"model", g.model,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"total_tokens", resp.Usage.TotalTokens,
			"duration_ms", duration.Milliseconds())
	}
	return text, nil
}

// wrapAPIError keeps the HTTP status and Retry-After hint of SDK errors.
func (g *openaiGenerator) wrapAPIError(err error) error {
	wrapped := fmt.Errorf("chat completion failed: %w", err)

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return WrapError(wrapped, g.provider, g.model, 0)
	}
	llmErr := &LLMError{
		Err:        wrapped,
		StatusCode: apiErr.StatusCode,
		Provider:   g.provider,
		Model:      g.model,
	}
	llmErr.Retryable = ClassifyError(llmErr) == ActionRetry
	if apiErr.Response != nil {
		llmErr.RetryAfter = ParseRetryAfter(apiErr.Response.Header)
	}
	return llmErr
}

func (g *openaiGenerator) Provider() Provider { return g.provider }

func (g *openaiGenerator) Model() string { return g.model }

// Close releases resources. The OpenAI client holds none.
func (g *openaiGenerator) Close() error { return nil }
