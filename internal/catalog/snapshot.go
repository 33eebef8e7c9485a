// Package catalog builds the immutable knowledge snapshot (the prompt
// knowledge text plus the document, notice and location image catalogs)
// and publishes it atomically.
package catalog

import (
	"time"
)

// TableStat describes one table of the load that produced a snapshot.
type TableStat struct {
	Name   string
	Rows   int
	Source string
}

// Snapshot is everything derived from one knowledge load. It is never
// mutated after Build returns.
type Snapshot struct {
	// Knowledge is injected verbatim into every prompt.
	Knowledge string

	Documents []Document
	// DocumentImages maps each document keyword to the first image seen for it.
	DocumentImages map[string]string

	// Notices are keyed by the string form of their id.
	Notices map[string]Notice

	Locations *LocationIndex

	Tables   []TableStat
	LoadedAt time.Time
}

// Empty returns a snapshot with no knowledge.
func Empty() *Snapshot {
	return &Snapshot{
		DocumentImages: map[string]string{},
		Notices:        map[string]Notice{},
		Locations:      NewLocationIndex(),
	}
}

// Ready reports whether the snapshot can answer questions.
func (s *Snapshot) Ready() bool {
	return s != nil && s.Knowledge != ""
}

// HasDocuments reports whether any document image is cataloged.
func (s *Snapshot) HasDocuments() bool {
	return s != nil && len(s.Documents) > 0
}

// Categories returns the distinct document categories in catalog order.
func (s *Snapshot) Categories() []Category {
	var (
		seen = make(map[string]bool)
		out  []Category
	)
	for _, d := range s.Documents {
		if !seen[d.Category.Key] {
			seen[d.Category.Key] = true
			out = append(out, d.Category)
		}
	}
	return out
}

// DocumentsIn returns the documents of the category with the given key,
// in catalog order.
func (s *Snapshot) DocumentsIn(key string) []Document {
	var out []Document
	for _, d := range s.Documents {
		if d.Category.Key == key {
			out = append(out, d)
		}
	}
	return out
}
