package catalog

import "strings"

// Document is one required document with an example image.
type Document struct {
	// Name is the full source name, including any category prefix.
	Name           string
	NormalizedName string
	ImageURL       string
	Category       Category
	// Keywords are normalized significant tokens of Name.
	Keywords []string
}

// MatchesIn reports whether the document's name or any keyword occurs in
// normalized text.
func (d Document) MatchesIn(text string) bool {
	if d.NormalizedName != "" && strings.Contains(text, d.NormalizedName) {
		return true
	}
	for _, kw := range d.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Notice is an official announcement. ImageURL may be empty.
type Notice struct {
	ID       string
	ImageURL string
	Date     string
	Content  string
}

// HasImage reports whether the notice contributes an image.
func (n Notice) HasImage() bool {
	return strings.TrimSpace(n.ImageURL) != ""
}

// Location is a campus place with a reference photo.
type Location struct {
	Name           string
	NormalizedName string
	ImageURL       string
	Address        string
}

// LocationIndex maps normalized keys to locations. Keys keep insertion
// order and a URL appears at most once per key.
type LocationIndex struct {
	keys    []string
	entries map[string][]Location
}

// NewLocationIndex creates an empty index.
func NewLocationIndex() *LocationIndex {
	return &LocationIndex{entries: make(map[string][]Location)}
}

func (idx *LocationIndex) add(key string, loc Location) {
	if key == "" {
		return
	}
	list, ok := idx.entries[key]
	if !ok {
		idx.keys = append(idx.keys, key)
	}
	for _, existing := range list {
		if existing.ImageURL == loc.ImageURL {
			return
		}
	}
	idx.entries[key] = append(list, loc)
}

// Lookup returns the locations indexed under key.
func (idx *LocationIndex) Lookup(key string) []Location {
	if idx == nil {
		return nil
	}
	return idx.entries[key]
}

// Keys returns the index keys in insertion order.
func (idx *LocationIndex) Keys() []string {
	if idx == nil {
		return nil
	}
	return idx.keys
}

// Len returns the number of keys.
func (idx *LocationIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.keys)
}
