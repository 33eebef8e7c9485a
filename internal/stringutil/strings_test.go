package stringutil

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Empty", "", ""},
		{"Plain ASCII", "hola", "hola"},
		{"Uppercase accents", "PRESENTACIÓN", "presentacion"},
		{"Mixed case accents", "Socio-Económico", "socio-economico"},
		{"Question marks kept", "¿Dónde queda?", "¿donde queda?"},
		{"Enie loses tilde", "Año", "ano"},
		{"Diaeresis", "pingüino", "pinguino"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{"Presentación", "ACADÉMICO", "socio-económico", "Fotografía 4x4", "ñandú"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalize_CaseAndDiacriticInsensitive(t *testing.T) {
	t.Parallel()
	if Normalize("Presentación") != Normalize("PRESENTACION") {
		t.Errorf("Normalize(Presentación) = %q, Normalize(PRESENTACION) = %q",
			Normalize("Presentación"), Normalize("PRESENTACION"))
	}
}

func TestContainsAny(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		s    string
		subs []string
		want bool
	}{
		{"Match", "donde queda la oficina", []string{"lugar", "queda"}, true},
		{"No match", "hola", []string{"donde"}, false},
		{"Empty subs", "hola", nil, false},
		{"Empty sub ignored", "hola", []string{""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ContainsAny(tt.s, tt.subs...); got != tt.want {
				t.Errorf("ContainsAny(%q, %v) = %v, want %v", tt.s, tt.subs, got, tt.want)
			}
		})
	}
}

func TestContainsWord(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		s      string
		phrase string
		want   bool
	}{
		{"Exact", "si", "si", true},
		{"With punctuation", "¡si, por favor!", "si", true},
		{"Inside word", "necesito ayuda", "si", false},
		{"Word later in text", "necesito saber si", "si", true},
		{"Phrase", "claro, por favor", "por favor", true},
		{"Prefix of word", "okaysito", "ok", false},
		{"Empty phrase", "si", "", false},
		{"Followed by letter", "sin", "si", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ContainsWord(tt.s, tt.phrase); got != tt.want {
				t.Errorf("ContainsWord(%q, %q) = %v, want %v", tt.s, tt.phrase, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	if got := Truncate("dónde queda", 5); got != "dónde..." {
		t.Errorf("Truncate = %q, want %q", got, "dónde...")
	}
	if got := Truncate("hola", 10); got != "hola" {
		t.Errorf("Truncate = %q, want %q", got, "hola")
	}
}
