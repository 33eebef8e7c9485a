package intent

import "testing"

const documentsAnswer = "Para postular necesitas:\n\n**PRESENTACIÓN:**\n- Solicitud de beca\n\n**ACADÉMICO:**\n- Constancia de notas\n\n¿Te gustaría ver las imágenes?"

func TestClassify(t *testing.T) {
	t.Parallel()

	categories := []string{"presentacion", "academico", "socio-economico", "general"}

	tests := []struct {
		name       string
		in         Input
		want       Route
		includeAll bool
	}{
		{
			name: "location question",
			in:   Input{UserMessage: "¿Dónde queda la oficina de Trabajo Social?", Answer: "Está en el pabellón central."},
			want: RouteLocation,
		},
		{
			name: "lost item is a location question",
			in:   Input{UserMessage: "perdí mi carnet", Answer: "Puedes solicitar un duplicado."},
			want: RouteLocation,
		},
		{
			name: "contact mention alone is not a question",
			in:   Input{UserMessage: "información de contacto", Answer: "Escribe a bienestar@uni.edu"},
			want: RouteNone,
		},
		{
			name: "notice keyword",
			in:   Input{UserMessage: "¿Cuándo pagaron este mes?", Answer: "El pago fue el 5 de marzo [ID: 12]."},
			want: RouteNotice,
		},
		{
			name: "notice marker without notice words",
			in:   Input{UserMessage: "¿hay novedades?", Answer: "Sí, hay una reunión [ID: 3]."},
			want: RouteNotice,
		},
		{
			name: "notice marker beats location question",
			in:   Input{UserMessage: "¿Dónde recojo la boleta?", Answer: "En la oficina central [ID: 4]."},
			want: RouteNotice,
		},
		{
			name: "location question beats notice words",
			in:   Input{UserMessage: "¿Dónde es el pago?", Answer: "En la caja del pabellón A."},
			want: RouteLocation,
		},
		{
			name: "document request with categories",
			in:   Input{UserMessage: "¿Qué documentos necesito?", Answer: documentsAnswer, HasDocuments: true, Categories: categories},
			want: RouteDocument,
		},
		{
			name: "document words with requirement word",
			in:   Input{UserMessage: "documento para postular", Answer: documentsAnswer, HasDocuments: true, Categories: categories},
			want: RouteDocument,
		},
		{
			name: "document request without catalog",
			in:   Input{UserMessage: "¿Qué documentos necesito?", Answer: documentsAnswer},
			want: RouteNone,
		},
		{
			name: "document request without category in answer",
			in:   Input{UserMessage: "¿Qué documentos necesito?", Answer: "Consulta en la oficina.", HasDocuments: true, Categories: categories},
			want: RouteNone,
		},
		{
			name:       "confirmation after documents answer",
			in:         Input{UserMessage: "sí", Answer: "Aquí están las imágenes.", PreviousAnswer: documentsAnswer, HasDocuments: true, Categories: categories},
			want:       RouteDocument,
			includeAll: true,
		},
		{
			name: "confirmation after unrelated answer",
			in:   Input{UserMessage: "sí", Answer: "Perfecto.", PreviousAnswer: "La beca cubre alimentación.", HasDocuments: true, Categories: categories},
			want: RouteNone,
		},
		{
			name: "confirmation word inside another word",
			in:   Input{UserMessage: "necesito ayuda", Answer: "Claro.", PreviousAnswer: documentsAnswer, HasDocuments: true, Categories: categories},
			want: RouteNone,
		},
		{
			name: "requirements question",
			in:   Input{UserMessage: "qué requisitos necesito", Answer: "Debes tener promedio aprobatorio.", HasDocuments: true, Categories: categories},
			want: RouteNone,
		},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := c.Classify(tt.in)
			if d.Route != tt.want {
				t.Errorf("Classify() route = %v, want %v (signals %+v)", d.Route, tt.want, d.Signals)
			}
			if d.IncludeAll != tt.includeAll {
				t.Errorf("Classify() IncludeAll = %v, want %v", d.IncludeAll, tt.includeAll)
			}
		})
	}
}

func TestEvaluate_NoticeSignals(t *testing.T) {
	t.Parallel()

	s := Evaluate(Input{UserMessage: "¿dónde veo los comunicados?", Answer: "En el mural."})
	if !s.AsksNotices || !s.LocationQuestion {
		t.Fatalf("signals = %+v, want notice and location", s)
	}
	if s.MentionsNotices {
		t.Error("MentionsNotices should be false for a location question")
	}
}

func TestClassify_UnmatchedDecisionHasNoRule(t *testing.T) {
	t.Parallel()

	d := NewClassifier().Classify(Input{UserMessage: "hola"})
	if d.Route != RouteNone || d.Rule != "" {
		t.Errorf("Classify(hola) = %+v", d)
	}
}

func TestRouteString(t *testing.T) {
	t.Parallel()

	for route, want := range map[Route]string{
		RouteNone:     "none",
		RouteLocation: "location",
		RouteNotice:   "notice",
		RouteDocument: "document",
	} {
		if got := route.String(); got != want {
			t.Errorf("Route(%d).String() = %q, want %q", route, got, want)
		}
	}
}
