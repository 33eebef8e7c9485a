package resolver

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/garyellow/baera-chatbot-go/internal/catalog"
	"github.com/garyellow/baera-chatbot-go/internal/intent"
	"github.com/garyellow/baera-chatbot-go/internal/sliceutil"
	"github.com/garyellow/baera-chatbot-go/internal/stringutil"
)

// Contact questions always show the social work offices.
var (
	contactKeywords  = []string{"mas informacion", "informacion", "contacto", "contactar", "oficinas", "donde preguntar"}
	contactLocations = []string{"oficinas de trabajo social", "trabajo social"}
)

// locationAliases maps a topic to the location keys that serve it.
var locationAliases = []struct {
	topic string
	keys  []string
}{
	{"nutricion", []string{"revision nutricional", "nutricional", "control nutricional", "carnet nutricional"}},
	{"trabajo social", []string{"oficinas de trabajo social", "trabajo social"}},
	{"compromiso", []string{"fotocopia de compromiso", "compromiso del estudiante"}},
}

// LocationResolver attaches reference photos of the places a question or
// answer refers to.
type LocationResolver struct{}

// NewLocationResolver creates a LocationResolver.
func NewLocationResolver() *LocationResolver { return &LocationResolver{} }

func (*LocationResolver) Route() intent.Route { return intent.RouteLocation }

func (*LocationResolver) Resolve(ctx context.Context, snap *catalog.Snapshot, req Request) Result {
	idx := snap.Locations
	if idx.Len() == 0 {
		return Result{}
	}

	user := stringutil.Normalize(req.UserMessage)
	answer := stringutil.Normalize(req.Answer)
	combined := user + " " + answer

	var images sliceutil.OrderedSet[string]
	addKey := func(key string) {
		for _, loc := range idx.Lookup(key) {
			images.Add(loc.ImageURL)
		}
	}

	if stringutil.ContainsAny(user, contactKeywords...) {
		for _, key := range contactLocations {
			addKey(key)
		}
	}

	for _, alias := range locationAliases {
		if strings.Contains(combined, alias.topic) {
			for _, key := range alias.keys {
				addKey(key)
			}
		}
	}

	for _, key := range idx.Keys() {
		if !strings.Contains(user, key) && !strings.Contains(answer, key) {
			continue
		}
		for _, loc := range idx.Lookup(key) {
			if images.Contains(loc.ImageURL) {
				continue
			}
			if locationMentioned(loc, user, answer, combined) {
				images.Add(loc.ImageURL)
			}
		}
	}

	if images.Len() == 0 {
		slog.WarnContext(ctx, "no location image matched", "message", stringutil.Truncate(req.UserMessage, 80))
	}
	return Result{Images: images.Values()}
}

// locationMentioned confirms a candidate found by key: by its full name,
// by two significant address words in the answer, or by one significant
// name word anywhere.
func locationMentioned(loc catalog.Location, user, answer, combined string) bool {
	if strings.Contains(user, loc.NormalizedName) || strings.Contains(answer, loc.NormalizedName) {
		return true
	}

	hits := 0
	for _, word := range strings.Fields(stringutil.Normalize(loc.Address)) {
		if utf8.RuneCountInString(word) > 4 && strings.Contains(answer, word) {
			hits++
		}
	}
	if hits >= 2 {
		return true
	}

	for _, word := range strings.Fields(loc.NormalizedName) {
		if utf8.RuneCountInString(word) > 4 && strings.Contains(combined, word) {
			return true
		}
	}
	return false
}
