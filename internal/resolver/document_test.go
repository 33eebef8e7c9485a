package resolver

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/garyellow/baera-chatbot-go/internal/intent"
)

const twoCategoryAnswer = "Necesitas lo siguiente:\n\n**PRESENTACIÓN:**\n- Solicitud firmada\n\n**ACADÉMICO:**\n- Constancia de notas\n\n¿Te gustaría ver las imágenes?"

func sectionTitles(sections []Section) []string {
	titles := make([]string, 0, len(sections))
	for _, s := range sections {
		titles = append(titles, s.Title)
	}
	return titles
}

func allImages(sections []Section) []string {
	var out []string
	for _, s := range sections {
		out = append(out, s.Images...)
	}
	return out
}

func TestBuildSections_Precise(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	tests := []struct {
		name   string
		answer string
		want   []string
	}{
		{"bold heading with list", "**PRESENTACIÓN:**\n1. Solicitud de beca firmada", []string{"https://img/solicitud.png"}},
		{"inline", "PRESENTACIÓN: trae la fotocopia del DNI.", []string{"https://img/dni.png"}},
		{"both named", "**PRESENTACIÓN:**\n- Solicitud\n- Fotocopia del DNI", []string{"https://img/solicitud.png", "https://img/dni.png"}},
		{"heading only", "**PRESENTACIÓN:**\nRevisa la lista completa.", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := allImages(BuildSections(snap, tt.answer, false)); !slices.Equal(got, tt.want) {
				t.Errorf("precise images = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildSections_PreciseIsNarrowerThanConfirmAll(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	answer := "**PRESENTACIÓN:**\n1. Solicitud de beca firmada"
	precise := allImages(BuildSections(snap, answer, false))
	all := allImages(BuildSections(snap, answer, true))
	if slices.Equal(precise, all) {
		t.Errorf("precise = confirm-all = %v, the unmentioned DNI should be left out", precise)
	}

	sections := BuildSections(snap, answer, false)
	doc := sections[0].Documents[0]
	if doc.Name != "PRESENTACIÓN: Solicitud de beca" || doc.NameNormalized != "presentacion: solicitud de beca" {
		t.Errorf("document = %+v", doc)
	}
}

func TestBuildSections_OrderedByFirstMention(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	answer := "ACADÉMICO: constancia de notas. Luego PRESENTACIÓN: solicitud."
	got := sectionTitles(BuildSections(snap, answer, true))
	want := []string{"ACADÉMICO", "PRESENTACIÓN"}
	if !slices.Equal(got, want) {
		t.Errorf("titles = %v, want %v", got, want)
	}
}

func TestBuildSections_CategoryNeedsColon(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	if got := BuildSections(snap, "La presentación es importante.", true); len(got) != 0 {
		t.Errorf("sections = %v, want none", got)
	}
}

func TestBuildSections_ConfirmAllIsSupersetOfPrecise(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	answers := []string{
		twoCategoryAnswer,
		"**Presentación:** solicitud\n**Académico:** notas",
		"SOCIO-ECONÓMICO: boleta de pago del padre",
		"Sin categorías.",
	}
	for _, answer := range answers {
		precise := allImages(BuildSections(snap, answer, false))
		all := allImages(BuildSections(snap, answer, true))
		for _, url := range precise {
			if !slices.Contains(all, url) {
				t.Errorf("answer %q: precise image %s missing from confirm-all", answer, url)
			}
		}
	}
}

func TestBuildSections_NoDuplicateOrForeignImages(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	images := allImages(BuildSections(snap, twoCategoryAnswer+"\nPRESENTACIÓN: repetida", true))

	seen := map[string]bool{}
	for _, url := range images {
		if seen[url] {
			t.Errorf("duplicate image %s", url)
		}
		seen[url] = true
	}
	for _, foreign := range []string{"https://img/boleta.png", "https://img/carta.png"} {
		if seen[foreign] {
			t.Errorf("image %s from an unmentioned category", foreign)
		}
	}
}

func TestDocumentResolver_ConfirmAfterTwoCategories(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	req := Request{
		UserMessage:    "sí",
		Answer:         "¡Claro! Aquí tienes los ejemplos.",
		PreviousAnswer: twoCategoryAnswer,
		Decision:       intent.Decision{Route: intent.RouteDocument, IncludeAll: true},
	}

	got := NewDocumentResolver().Resolve(context.Background(), snap, req)
	if titles := sectionTitles(got.Sections); !slices.Equal(titles, []string{"PRESENTACIÓN", "ACADÉMICO"}) {
		t.Fatalf("titles = %v", titles)
	}
	want := []string{
		"https://img/solicitud.png", "https://img/dni.png",
		"https://img/notas.png", "https://img/record.png",
	}
	if images := allImages(got.Sections); !slices.Equal(images, want) {
		t.Errorf("images = %v, want %v", images, want)
	}
	if len(got.Images) != 0 {
		t.Errorf("flat images = %v, want none when sections exist", got.Images)
	}
}

func TestDocumentResolver_FlatFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		answer  string
		want    []string
	}{
		{
			name:    "user message",
			message: "¿Cómo debe ser la fotocopia del DNI?",
			answer:  "Debe ser legible y a color.",
			want:    []string{"https://img/dni.png"},
		},
		{
			name:    "answer",
			message: "¿qué más llevo?",
			answer:  "Lleva también la constancia de notas.",
			want:    []string{"https://img/notas.png"},
		},
		{
			name:    "both in catalog order",
			message: "¿Cómo debe ser la fotocopia del DNI?",
			answer:  "Debe ser legible. También revisa la constancia.",
			want:    []string{"https://img/dni.png", "https://img/notas.png"},
		},
		{
			name:    "no match",
			message: "¿hasta cuándo?",
			answer:  "Hasta el viernes.",
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NewDocumentResolver().Resolve(context.Background(), fixtureSnapshot(), Request{
				UserMessage: tt.message,
				Answer:      tt.answer,
				Decision:    intent.Decision{Route: intent.RouteDocument},
			})
			if len(got.Sections) != 0 {
				t.Fatalf("sections = %v, want none", got.Sections)
			}
			if !slices.Equal(got.Images, tt.want) {
				t.Errorf("images = %v, want %v", got.Images, tt.want)
			}
		})
	}
}

func TestDocumentResolver_FlatFallbackLimit(t *testing.T) {
	t.Parallel()

	r := &DocumentResolver{limit: 2}
	images := r.matchFlat(fixtureSnapshot(), "solicitud, fotocopia, constancia, carta")
	if len(images) != 2 {
		t.Errorf("len(images) = %d, want 2", len(images))
	}
}

func TestSection_JSONFieldNames(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Section{
		Title:     "PRESENTACIÓN",
		Images:    []string{"u"},
		Documents: []SectionDocument{{Name: "n", ImageURL: "u", NameNormalized: "n"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"title"`, `"images"`, `"documents"`, `"nombre"`, `"imagen_url"`, `"name_normalized"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("JSON %s lacks %s", data, field)
		}
	}
}
