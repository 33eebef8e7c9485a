// Package resolver turns a classified answer into the images that
// accompany it. Each resolver reads exactly one catalog of the snapshot.
package resolver

import (
	"context"

	"github.com/garyellow/baera-chatbot-go/internal/catalog"
	"github.com/garyellow/baera-chatbot-go/internal/intent"
)

// SectionDocument is one document shown inside a Section.
type SectionDocument struct {
	Name           string `json:"nombre"`
	ImageURL       string `json:"imagen_url"`
	NameNormalized string `json:"name_normalized"`
}

// Section groups the images of one document category.
type Section struct {
	Title     string            `json:"title"`
	Images    []string          `json:"images"`
	Documents []SectionDocument `json:"documents"`
}

// Request is the input of a resolver.
type Request struct {
	UserMessage    string
	Answer         string
	PreviousAnswer string
	Decision       intent.Decision
}

// Result is what a turn returns besides the answer text.
type Result struct {
	// Answer is the visible answer, with notice markers removed.
	Answer   string
	Images   []string
	Sections []Section
}

// ImageCount returns the number of distinct images in r.
func (r Result) ImageCount() int {
	n := len(r.Images)
	for _, s := range r.Sections {
		n += len(s.Images)
	}
	return n
}

// Resolver attaches images from one catalog.
type Resolver interface {
	// Route is the classifier route this resolver serves.
	Route() intent.Route
	Resolve(ctx context.Context, snap *catalog.Snapshot, req Request) Result
}

// Registry dispatches a request to the resolver of its route.
type Registry struct {
	resolvers []Resolver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{resolvers: make([]Resolver, 0)}
}

// NewDefaultRegistry registers the location, notice and document resolvers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewLocationResolver())
	r.Register(NewNoticeResolver())
	r.Register(NewDocumentResolver())
	return r
}

// Register adds a resolver. The first resolver registered for a route wins.
func (r *Registry) Register(res Resolver) {
	r.resolvers = append(r.resolvers, res)
}

// Resolve runs the resolver selected by req.Decision. The returned answer
// never contains notice markers, whatever the route.
func (r *Registry) Resolve(ctx context.Context, snap *catalog.Snapshot, req Request) Result {
	out := Result{}
	if snap != nil {
		for _, res := range r.resolvers {
			if res.Route() == req.Decision.Route {
				out = res.Resolve(ctx, snap, req)
				break
			}
		}
	}
	out.Answer = catalog.StripNoticeMarkers(req.Answer)
	return out
}
