package chat

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/garyellow/baera-chatbot-go/internal/catalog"
	domerrors "github.com/garyellow/baera-chatbot-go/internal/errors"
	"github.com/garyellow/baera-chatbot-go/internal/genai"
	"github.com/garyellow/baera-chatbot-go/internal/intent"
	"github.com/garyellow/baera-chatbot-go/internal/knowledge"
	"github.com/garyellow/baera-chatbot-go/internal/session"
)

const documentsAnswer = "Para postular necesitas:\n\n**PRESENTACIÓN:**\n1. Solicitud de beca\n\n**ACADÉMICO:**\n1. Constancia de notas\n\n¿Te gustaría que te muestre imágenes de ejemplo de alguno de estos documentos?"

type staticSnapshots struct{ snap *catalog.Snapshot }

func (s staticSnapshots) Current() *catalog.Snapshot { return s.snap }

// scriptedGenerator returns answers in order and records requests.
type scriptedGenerator struct {
	mu       sync.Mutex
	answers  []string
	err      error
	requests []genai.Request
}

func (g *scriptedGenerator) Generate(_ context.Context, req genai.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	if len(g.answers) == 0 {
		return "Claro.", nil
	}
	answer := g.answers[0]
	g.answers = g.answers[1:]
	return answer, nil
}

func (g *scriptedGenerator) Provider() genai.Provider { return genai.ProviderGemini }
func (g *scriptedGenerator) Model() string            { return "test-model" }
func (g *scriptedGenerator) Close() error             { return nil }

func newTable(name string, columns []string, rows ...[]string) *knowledge.Table {
	t := &knowledge.Table{Name: name, Columns: columns, Source: knowledge.SourceCSV}
	for _, values := range rows {
		row := make(knowledge.Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func testSnapshot() *catalog.Snapshot {
	byName := map[string]*knowledge.Table{
		knowledge.TableDocuments: newTable(knowledge.TableDocuments, []string{"id", "nombre_documento", "imagen_url"},
			[]string{"1", "PRESENTACIÓN: Solicitud de beca", "https://img/solicitud.png"},
			[]string{"2", "PRESENTACIÓN: Fotocopia del DNI", "https://img/dni.png"},
			[]string{"3", "ACADÉMICO: Constancia de notas", "https://img/notas.png"},
			[]string{"4", "ACADÉMICO: Récord curricular", "https://img/record.png"},
			[]string{"5", "SOCIO-ECONÓMICO: Boleta de pago", "https://img/boleta.png"},
		),
		knowledge.TableNotices: newTable(knowledge.TableNotices, []string{"id", "fecha", "contenido", "imagen_url"},
			[]string{"12", "2025-03-05", "Pago de la subvención de marzo", "https://img/pago-marzo.png"},
		),
		knowledge.TableLocations: newTable(knowledge.TableLocations, []string{"id", "nombre", "direccion", "imagen_url"},
			[]string{"1", "Oficinas de Trabajo Social", "Pabellón administrativo", "https://img/trabajo-social.png"},
		),
	}
	tables := make([]*knowledge.Table, len(knowledge.Tables))
	for i, def := range knowledge.Tables {
		tables[i] = byName[def.Name]
	}
	return catalog.Build(context.Background(), &knowledge.Result{Specs: knowledge.Tables, Tables: tables})
}

func newTestEngine(snap *catalog.Snapshot, gen genai.Generator) *Engine {
	return NewEngine(EngineConfig{
		Snapshots: staticSnapshots{snap: snap},
		Sessions:  session.NewStore(nil),
		Generator: gen,
	})
}

func TestRespond_EmptyMessage(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{}
	e := newTestEngine(testSnapshot(), gen)

	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := e.Respond(context.Background(), msg, "s"); !errors.Is(err, domerrors.ErrEmptyInput) {
			t.Errorf("Respond(%q) error = %v, want ErrEmptyInput", msg, err)
		}
	}
	if len(gen.requests) != 0 {
		t.Errorf("generator called %d times for empty input", len(gen.requests))
	}
}

func TestRespond_Unavailable(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{}
	e := newTestEngine(catalog.Empty(), gen)

	reply, err := e.Respond(context.Background(), "hola", "s")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply.Message != UnavailableMessage {
		t.Errorf("Message = %q", reply.Message)
	}
	if len(reply.Sources) != 0 || len(reply.Images) != 0 || len(reply.Sections) != 0 {
		t.Errorf("unavailable reply should carry nothing else: %+v", reply)
	}
	if len(gen.requests) != 0 {
		t.Error("generator should not be called without knowledge")
	}
}

func TestRespond_NoticeID(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{answers: []string{"El pago de marzo se realizará el 20 de marzo [ID: 12]."}}
	e := newTestEngine(testSnapshot(), gen)

	reply, err := e.Respond(context.Background(), "¿Hay algún comunicado sobre el pago?", "s")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if strings.Contains(reply.Message, "[ID:") {
		t.Errorf("marker not stripped: %q", reply.Message)
	}
	if !slices.Equal(reply.Images, []string{"https://img/pago-marzo.png"}) {
		t.Errorf("Images = %v", reply.Images)
	}
	if !slices.Equal(reply.Sources, []string{KnowledgeSource}) {
		t.Errorf("Sources = %v", reply.Sources)
	}
	if reply.Intent != intent.RouteNotice {
		t.Errorf("Intent = %v, want notice", reply.Intent)
	}

	// The stored answer is the stripped one.
	if last := e.Sessions().LastAnswer("s"); strings.Contains(last, "[ID:") {
		t.Errorf("history stores marker: %q", last)
	}
}

func TestRespond_ConfirmAfterDocuments(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{answers: []string{documentsAnswer, "¡Claro! Aquí tienes las imágenes."}}
	e := newTestEngine(testSnapshot(), gen)
	ctx := context.Background()

	first, err := e.Respond(ctx, "¿Qué documentos necesito?", "s")
	if err != nil {
		t.Fatalf("first Respond() error = %v", err)
	}
	if first.Intent != intent.RouteDocument {
		t.Fatalf("first Intent = %v, want document", first.Intent)
	}

	second, err := e.Respond(ctx, "sí", "s")
	if err != nil {
		t.Fatalf("second Respond() error = %v", err)
	}
	var titles []string
	for _, s := range second.Sections {
		titles = append(titles, s.Title)
		if len(s.Documents) != 2 {
			t.Errorf("section %q has %d documents, want 2", s.Title, len(s.Documents))
		}
	}
	if !slices.Equal(titles, []string{"PRESENTACIÓN", "ACADÉMICO"}) {
		t.Errorf("section titles = %v", titles)
	}

	// Second prompt carries the first turn.
	req := gen.requests[1]
	if len(req.History) != 2 || req.History[0].Content != "¿Qué documentos necesito?" || req.History[1].Role != genai.RoleAssistant {
		t.Errorf("second request history = %+v", req.History)
	}
	if !strings.Contains(req.System, "PRESENTACIÓN: Solicitud de beca") {
		t.Error("system prompt should embed the knowledge text")
	}
}

func TestRespond_RequirementsHaveNoImages(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{answers: []string{"Debes ser estudiante regular con promedio aprobatorio."}}
	e := newTestEngine(testSnapshot(), gen)

	reply, err := e.Respond(context.Background(), "qué requisitos necesito", "s")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if len(reply.Images) != 0 || len(reply.Sections) != 0 {
		t.Errorf("expected no images, got %v / %v", reply.Images, reply.Sections)
	}
	if reply.Images == nil || reply.Sections == nil {
		t.Error("empty image lists should not be nil")
	}
}

func TestRespond_HistoryWindow(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{}
	e := newTestEngine(testSnapshot(), gen)
	ctx := context.Background()

	for range session.HistoryWindow + 3 {
		if _, err := e.Respond(ctx, "hola", "s"); err != nil {
			t.Fatalf("Respond() error = %v", err)
		}
	}
	last := gen.requests[len(gen.requests)-1]
	if got := len(last.History); got != 2*session.HistoryWindow {
		t.Errorf("history messages = %d, want %d", got, 2*session.HistoryWindow)
	}
}

func TestRespond_GenerationFailure(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"quota", errors.New("quota exceeded"), "Se ha alcanzado el límite de uso."},
		{"auth", errors.New("invalid API key"), "Error de autenticación."},
		{"generic", errors.New("boom"), "Lo siento, ocurrió un error procesando tu mensaje."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(testSnapshot(), &scriptedGenerator{err: tt.err})

			reply, err := e.Respond(context.Background(), "hola", "s")
			if err != nil {
				t.Fatalf("Respond() error = %v", err)
			}
			if !strings.HasPrefix(reply.Message, tt.want) || !strings.HasSuffix(reply.Message, " Por favor, intenta de nuevo.") {
				t.Errorf("Message = %q", reply.Message)
			}
			if len(reply.Sources) != 0 {
				t.Errorf("Sources = %v, want empty", reply.Sources)
			}
			if e.Sessions().Len("s") != 0 {
				t.Error("failed turn should not be recorded")
			}
		})
	}
}

func TestRespond_NoGenerator(t *testing.T) {
	t.Parallel()
	e := newTestEngine(testSnapshot(), nil)

	reply, err := e.Respond(context.Background(), "hola", "")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !strings.HasPrefix(reply.Message, "Error de autenticación.") {
		t.Errorf("Message = %q", reply.Message)
	}
}

func TestReset_IsolatedPerSession(t *testing.T) {
	t.Parallel()
	e := newTestEngine(testSnapshot(), &scriptedGenerator{})
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := e.Respond(ctx, "hola", id); err != nil {
			t.Fatal(err)
		}
	}
	e.Reset("a")
	if e.Sessions().Len("a") != 0 {
		t.Error("session a should be empty after reset")
	}
	if e.Sessions().Len("b") != 1 {
		t.Error("session b should be untouched")
	}
}
