// Package intent decides which image catalog, if any, accompanies an answer.
//
// Classification is an ordered list of rules; the first rule whose
// predicate holds selects the route. At most one catalog is used per turn.
package intent

import (
	"strings"

	"github.com/garyellow/baera-chatbot-go/internal/catalog"
	"github.com/garyellow/baera-chatbot-go/internal/stringutil"
)

// Route names the image catalog selected for a turn.
type Route int

const (
	RouteNone Route = iota
	RouteLocation
	RouteNotice
	RouteDocument
)

func (r Route) String() string {
	switch r {
	case RouteLocation:
		return "location"
	case RouteNotice:
		return "notice"
	case RouteDocument:
		return "document"
	default:
		return "none"
	}
}

// Input is what the classifier sees of one turn.
type Input struct {
	UserMessage string
	Answer      string
	// PreviousAnswer is the last recorded answer of the session, if any.
	PreviousAnswer string
	// HasDocuments reports whether the document catalog is non-empty.
	HasDocuments bool
	// Categories are the normalized category keys of the document catalog.
	Categories []string
}

// Signals are the decision variables computed from an Input.
type Signals struct {
	MentionsLocation bool
	LocationQuestion bool

	MentionsDocuments   bool
	Confirms            bool
	PrevAboutDocuments  bool
	AnswerNamesCategory bool

	AnswerHasNoticeID bool
	AsksNotices       bool
	MentionsNotices   bool
}

// Decision is the classifier output.
type Decision struct {
	Route   Route
	Rule    string
	Signals Signals
	// IncludeAll selects confirm-all mode for the document resolver.
	IncludeAll bool
}

// Rule pairs a predicate with the route it selects.
type Rule struct {
	Name  string
	Route Route
	Match func(Signals, Input) bool
}

// Classifier evaluates rules in order.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns a classifier with the default rule order:
// location, notice, document.
func NewClassifier() *Classifier {
	return &Classifier{rules: DefaultRules()}
}

// DefaultRules returns the standard rule pipeline. A notice marker in the
// answer outranks a location question.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:  "location_question",
			Route: RouteLocation,
			Match: func(s Signals, _ Input) bool {
				return s.LocationQuestion && !s.AnswerHasNoticeID
			},
		},
		{
			Name:  "notice",
			Route: RouteNotice,
			Match: func(s Signals, _ Input) bool {
				return s.MentionsNotices || s.AnswerHasNoticeID
			},
		},
		{
			Name:  "documents",
			Route: RouteDocument,
			Match: func(s Signals, in Input) bool {
				if !s.MentionsDocuments || !in.HasDocuments {
					return false
				}
				return s.AnswerNamesCategory || (s.Confirms && s.PrevAboutDocuments)
			},
		},
	}
}

// Classify computes the signals of in and returns the first matching route.
func (c *Classifier) Classify(in Input) Decision {
	s := Evaluate(in)
	for _, r := range c.rules {
		if r.Match(s, in) {
			d := Decision{Route: r.Route, Rule: r.Name, Signals: s}
			if r.Route == RouteDocument {
				d.IncludeAll = s.Confirms && s.PrevAboutDocuments
			}
			return d
		}
	}
	return Decision{Route: RouteNone, Signals: s}
}

// Evaluate computes the decision variables for in.
func Evaluate(in Input) Signals {
	user := stringutil.Normalize(in.UserMessage)
	answer := stringutil.Normalize(in.Answer)
	previous := stringutil.Normalize(in.PreviousAnswer)

	var s Signals

	s.MentionsLocation = stringutil.ContainsAny(user, locationKeywords...)
	s.LocationQuestion = s.MentionsLocation &&
		(stringutil.ContainsAny(user, explicitLocationWords...) || stringutil.ContainsAny(user, lostItemWords...))

	s.Confirms = containsAnyWord(user, confirmationWords)
	s.PrevAboutDocuments = previous != "" && stringutil.ContainsAny(previous, documentAnswerMarkers...)
	s.MentionsDocuments = stringutil.ContainsAny(user, documentPhrases...) ||
		(stringutil.ContainsAny(user, documentWords...) && stringutil.ContainsAny(user, requirementWords...)) ||
		(s.Confirms && s.PrevAboutDocuments)
	s.AnswerNamesCategory = namesCategory(answer, in.Categories)

	s.AnswerHasNoticeID = catalog.HasNoticeMarker(in.Answer)
	s.AsksNotices = stringutil.ContainsAny(user, noticeKeywords...)
	s.MentionsNotices = (s.AsksNotices || s.AnswerHasNoticeID) && !s.LocationQuestion

	return s
}

func containsAnyWord(text string, words []string) bool {
	for _, w := range words {
		if stringutil.ContainsWord(text, w) {
			return true
		}
	}
	return false
}

func namesCategory(answer string, categories []string) bool {
	if stringutil.ContainsAny(answer, knownCategories...) {
		return true
	}
	spaced := strings.ReplaceAll(answer, "-", " ")
	for _, key := range categories {
		if key != "" && key != strings.ToLower(catalog.GeneralCategory) &&
			strings.Contains(spaced, strings.ReplaceAll(key, "-", " ")) {
			return true
		}
	}
	return false
}
