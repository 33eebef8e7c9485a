package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiGenerator answers with a Gemini model.
type geminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func newGeminiGenerator(ctx context.Context, apiKey, model string, temperature float32, maxTokens int) (*geminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is empty")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiGenerator{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   int32(maxTokens),
	}, nil
}

// geminiContents maps the history and prompt to Gemini contents. Assistant
// turns use the "model" role.
func geminiContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
}

func (g *geminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(req), config)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "generation API call failed",
			"provider", ProviderGemini,
			"model", g.model,
			"history", len(req.History),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", WrapError(fmt.Errorf("generate content failed: %w", err), ProviderGemini, g.model, 0)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", WrapError(errors.New("empty response from model"), ProviderGemini, g.model, 0)
	}

	var answer strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			answer.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(answer.String())
	if text == "" {
		return "", WrapError(errors.New("no text in response"), ProviderGemini, g.model, 0)
	}

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "generation completed",
			"provider", ProviderGemini,
			"model", g.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"total_tokens", resp.UsageMetadata.TotalTokenCount,
			"duration_ms", duration.Milliseconds())
	}
	return text, nil
}

func (g *geminiGenerator) Provider() Provider { return ProviderGemini }

func (g *geminiGenerator) Model() string { return g.model }

// Close releases resources.
// Safe to call on nil receiver.
func (g *geminiGenerator) Close() error {
	// genai.Client does not require explicit cleanup in current SDK version
	return nil
}
