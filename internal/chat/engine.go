// Package chat answers one chat turn: it prompts the model with the
// knowledge text and the session history, then attaches the catalog images
// the answer refers to.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/garyellow/baera-chatbot-go/internal/catalog"
	"github.com/garyellow/baera-chatbot-go/internal/ctxutil"
	domerrors "github.com/garyellow/baera-chatbot-go/internal/errors"
	"github.com/garyellow/baera-chatbot-go/internal/genai"
	"github.com/garyellow/baera-chatbot-go/internal/intent"
	"github.com/garyellow/baera-chatbot-go/internal/metrics"
	"github.com/garyellow/baera-chatbot-go/internal/resolver"
	"github.com/garyellow/baera-chatbot-go/internal/sentry"
	"github.com/garyellow/baera-chatbot-go/internal/session"
	"github.com/garyellow/baera-chatbot-go/internal/stringutil"
)

// KnowledgeSource is the label returned with every grounded answer.
const KnowledgeSource = "Base de conocimiento BAERA"

// UnavailableMessage is returned while no knowledge is loaded.
const UnavailableMessage = "Lo siento, el sistema no está disponible en este momento. Por favor, intenta más tarde."

// errNoGenerator is reported as an authentication failure.
var errNoGenerator = errors.New("API key not configured")

// Outcome labels for turn metrics.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeLLMError    = "llm_error"
)

// Snapshots returns the current knowledge snapshot.
type Snapshots interface {
	Current() *catalog.Snapshot
}

// Reply is the result of a turn.
type Reply struct {
	Message  string
	Sources  []string
	Images   []string
	Sections []resolver.Section
	// Intent is the route that attached the images.
	Intent intent.Route
}

// Engine runs chat turns. It is safe for concurrent use.
type Engine struct {
	snapshots  Snapshots
	sessions   *session.Store
	generator  genai.Generator // nil when no provider key is configured
	classifier *intent.Classifier
	registry   *resolver.Registry
	metrics    *metrics.Metrics
}

// EngineConfig holds the dependencies of an Engine.
type EngineConfig struct {
	Snapshots  Snapshots
	Sessions   *session.Store
	Generator  genai.Generator
	Classifier *intent.Classifier // default when nil
	Registry   *resolver.Registry // default when nil
	Metrics    *metrics.Metrics
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		snapshots:  cfg.Snapshots,
		sessions:   cfg.Sessions,
		generator:  cfg.Generator,
		classifier: cfg.Classifier,
		registry:   cfg.Registry,
		metrics:    cfg.Metrics,
	}
	if e.classifier == nil {
		e.classifier = intent.NewClassifier()
	}
	if e.registry == nil {
		e.registry = resolver.NewDefaultRegistry()
	}
	if e.sessions == nil {
		e.sessions = session.NewStore(cfg.Metrics)
	}
	return e
}

// Respond answers message for the session. It returns ErrEmptyInput for a
// blank message. Generation failures are not errors: the reply carries an
// apology and no sources.
func (e *Engine) Respond(ctx context.Context, message, sessionID string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domerrors.ErrEmptyInput
	}
	sessionID = session.ID(sessionID)
	ctx = ctxutil.WithSessionID(ctx, sessionID)
	start := time.Now()

	snap := e.snapshots.Current()
	if !snap.Ready() {
		slog.WarnContext(ctx, "chat turn without knowledge base", "session_id", sessionID)
		e.metrics.RecordChatTurn(intent.RouteNone.String(), OutcomeUnavailable, time.Since(start).Seconds())
		return &Reply{
			Message:  UnavailableMessage,
			Sources:  []string{},
			Images:   []string{},
			Sections: []resolver.Section{},
		}, nil
	}

	slog.InfoContext(ctx, "processing chat message",
		"session_id", sessionID,
		"message", stringutil.Truncate(message, 50))

	history := e.sessions.History(sessionID, session.HistoryWindow)
	previous := e.sessions.LastAnswer(sessionID)

	answer, err := e.generate(ctx, snap, history, message)
	if err != nil {
		slog.ErrorContext(ctx, "answer generation failed",
			"session_id", sessionID,
			"kind", genai.KindOf(err),
			"error", err)
		if !errors.Is(err, errNoGenerator) {
			sentry.CaptureExceptionWithTags(ctx, err, map[string]string{
				"session_id": sessionID,
				"kind":       genai.KindOf(err).String(),
			})
		}
		e.metrics.RecordChatTurn(intent.RouteNone.String(), OutcomeLLMError, time.Since(start).Seconds())
		return &Reply{
			Message:  genai.UserMessage(err),
			Sources:  []string{},
			Images:   []string{},
			Sections: []resolver.Section{},
		}, nil
	}

	decision := e.classifier.Classify(intent.Input{
		UserMessage:    message,
		Answer:         answer,
		PreviousAnswer: previous,
		HasDocuments:   snap.HasDocuments(),
		Categories:     categoryKeys(snap),
	})

	result := e.registry.Resolve(ctx, snap, resolver.Request{
		UserMessage:    message,
		Answer:         answer,
		PreviousAnswer: previous,
		Decision:       decision,
	})

	e.sessions.Append(sessionID, message, result.Answer)

	slog.DebugContext(ctx, "chat turn resolved",
		"session_id", sessionID,
		"intent", decision.Route,
		"rule", decision.Rule,
		"include_all", decision.IncludeAll,
		"images", len(result.Images),
		"sections", len(result.Sections))
	e.metrics.RecordChatTurn(decision.Route.String(), OutcomeSuccess, time.Since(start).Seconds())
	e.metrics.RecordImagesAttached(decision.Route.String(), result.ImageCount())

	reply := &Reply{
		Message:  result.Answer,
		Sources:  []string{KnowledgeSource},
		Images:   result.Images,
		Sections: result.Sections,
		Intent:   decision.Route,
	}
	if reply.Images == nil {
		reply.Images = []string{}
	}
	if reply.Sections == nil {
		reply.Sections = []resolver.Section{}
	}
	return reply, nil
}

func (e *Engine) generate(ctx context.Context, snap *catalog.Snapshot, history []session.Turn, message string) (string, error) {
	if e.generator == nil {
		return "", errNoGenerator
	}

	req := genai.Request{
		System:  genai.BuildSystemPrompt(snap.Knowledge),
		History: make([]genai.Message, 0, 2*len(history)),
		Prompt:  message,
	}
	for _, turn := range history {
		req.History = append(req.History,
			genai.Message{Role: genai.RoleUser, Content: turn.UserMessage},
			genai.Message{Role: genai.RoleAssistant, Content: turn.Answer})
	}
	return e.generator.Generate(ctx, req)
}

// Reset clears the history of a session.
func (e *Engine) Reset(sessionID string) {
	e.sessions.Reset(session.ID(sessionID))
}

// Sessions returns the session store.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}

func categoryKeys(snap *catalog.Snapshot) []string {
	cats := snap.Categories()
	keys := make([]string, 0, len(cats))
	for _, c := range cats {
		keys = append(keys, c.Key)
	}
	return keys
}
