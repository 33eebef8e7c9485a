package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/garyellow/baera-chatbot-go/internal/stringutil"
)

// Rank orders document categories when two start at the same position.
type Rank int

// Known categories, in the order applicants assemble their folder.
const (
	RankPresentation  Rank = 1
	RankAcademic      Rank = 2
	RankSocioeconomic Rank = 3
	RankOther         Rank = 999
)

// GeneralCategory is used for documents without a "CATEGORY:" prefix.
const GeneralCategory = "General"

// Category is a document category, normalized once when the catalog is built.
type Category struct {
	// Title is the category as written in the source row, e.g. "PRESENTACIÓN".
	Title string
	// Key is the normalized title, used for matching and grouping.
	Key  string
	Rank Rank
}

// canonicalKeys unify the spellings of known categories, e.g.
// "SOCIO-ECONÓMICO", "Socio-Económico" and "SOCIOECONÓMICO".
var canonicalKeys = map[Rank]string{
	RankPresentation:  "presentacion",
	RankAcademic:      "academico",
	RankSocioeconomic: "socio-economico",
}

// NewCategory parses a category title.
func NewCategory(title string) Category {
	title = strings.TrimSpace(title)
	if title == "" {
		title = GeneralCategory
	}
	parts := keyParts(stringutil.Normalize(title))
	if len(parts) == 0 {
		// A title without letters or digits would match any colon.
		title, parts = GeneralCategory, []string{strings.ToLower(GeneralCategory)}
	}
	key := strings.Join(parts, "-")
	rank := rankOf(key)
	if canon, ok := canonicalKeys[rank]; ok {
		key = canon
	}
	return Category{Title: title, Key: key, Rank: rank}
}

// MentionPattern matches "<category>:" in normalized text, allowing any
// hyphen or spacing between the words of the key.
func (c Category) MentionPattern() *regexp.Regexp {
	parts := keyParts(c.Key)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(strings.Join(parts, `[-\s]*`) + `\s*:`)
}

func keyParts(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func rankOf(key string) Rank {
	switch key {
	case "presentacion":
		return RankPresentation
	case "academico":
		return RankAcademic
	case "socio-economico", "socioeconomico":
		return RankSocioeconomic
	default:
		return RankOther
	}
}
