package resolver

import (
	"context"
	"log/slog"
	"sort"

	"github.com/garyellow/baera-chatbot-go/internal/catalog"
	"github.com/garyellow/baera-chatbot-go/internal/intent"
	"github.com/garyellow/baera-chatbot-go/internal/sliceutil"
	"github.com/garyellow/baera-chatbot-go/internal/stringutil"
)

// flatFallbackLimit caps the images attached when no section is built.
const flatFallbackLimit = 15

// DocumentResolver attaches example images of required documents, grouped
// by the categories the answer names.
type DocumentResolver struct {
	limit int
}

// NewDocumentResolver creates a DocumentResolver.
func NewDocumentResolver() *DocumentResolver {
	return &DocumentResolver{limit: flatFallbackLimit}
}

func (*DocumentResolver) Route() intent.Route { return intent.RouteDocument }

func (r *DocumentResolver) Resolve(ctx context.Context, snap *catalog.Snapshot, req Request) Result {
	includeAll := req.Decision.IncludeAll

	sections := BuildSections(snap, req.Answer, includeAll)
	if len(sections) == 0 && includeAll && req.PreviousAnswer != "" {
		// The confirmation answer may not repeat the categories.
		sections = BuildSections(snap, req.PreviousAnswer, true)
	}
	if len(sections) > 0 {
		slog.DebugContext(ctx, "document sections built", "sections", len(sections), "include_all", includeAll)
		return Result{Sections: sections}
	}

	images := r.matchFlat(snap, req.UserMessage+" "+req.Answer)
	return Result{Images: images}
}

// matchFlat lists documents whose name or keywords occur in text, in
// catalog order, up to the resolver's limit.
func (r *DocumentResolver) matchFlat(snap *catalog.Snapshot, text string) []string {
	text = stringutil.Normalize(text)
	var images sliceutil.OrderedSet[string]
	for _, d := range snap.Documents {
		if images.Len() >= r.limit {
			break
		}
		if d.MatchesIn(text) {
			images.Add(d.ImageURL)
		}
	}
	return images.Values()
}

type categoryHit struct {
	category catalog.Category
	pos      int
}

// BuildSections returns one section per document category that answer names
// as "<category>:". Sections are ordered by first mention, ties broken by
// category rank. With includeAll every image of a named category is used;
// otherwise only documents whose name or keywords occur in answer.
// No URL appears twice across the result.
func BuildSections(snap *catalog.Snapshot, answer string, includeAll bool) []Section {
	if !snap.HasDocuments() || answer == "" {
		return nil
	}
	text := stringutil.Normalize(answer)

	var hits []categoryHit
	for _, cat := range snap.Categories() {
		if loc := cat.MentionPattern().FindStringIndex(text); loc != nil {
			hits = append(hits, categoryHit{category: cat, pos: loc[0]})
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].category.Rank < hits[j].category.Rank
	})

	var (
		seen     = make(map[string]bool)
		sections []Section
	)
	for _, hit := range hits {
		section := Section{Title: hit.category.Title}
		for _, d := range snap.DocumentsIn(hit.category.Key) {
			if seen[d.ImageURL] {
				continue
			}
			if !includeAll && !d.MatchesIn(text) {
				continue
			}
			seen[d.ImageURL] = true
			section.Images = append(section.Images, d.ImageURL)
			section.Documents = append(section.Documents, SectionDocument{
				Name:           d.Name,
				ImageURL:       d.ImageURL,
				NameNormalized: d.NormalizedName,
			})
		}
		if len(section.Images) > 0 {
			sections = append(sections, section)
		}
	}
	return sections
}
