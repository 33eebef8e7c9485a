// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a unique key from each item for comparison.
// Only the first occurrence of each key is kept.
//
// Example:
//
//	docs := []catalog.Document{{ImageURL: "a.png"}, {ImageURL: "b.png"}, {ImageURL: "a.png"}}
//	unique := sliceutil.Deduplicate(docs, func(d catalog.Document) string { return d.ImageURL })
//	// Result: [{ImageURL: "a.png"}, {ImageURL: "b.png"}]
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]bool, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		key := keyFunc(item)
		if !seen[key] {
			seen[key] = true
			result = append(result, item)
		}
	}

	return result
}

// OrderedSet collects values in insertion order, ignoring repeats.
// The zero value is ready to use. Not safe for concurrent use.
type OrderedSet[T comparable] struct {
	seen   map[T]struct{}
	values []T
}

// Add appends v unless it was added before. It reports whether v was new.
func (s *OrderedSet[T]) Add(v T) bool {
	if s.seen == nil {
		s.seen = make(map[T]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
	return true
}

// AddAll adds every value in vs and returns how many were new.
func (s *OrderedSet[T]) AddAll(vs ...T) int {
	added := 0
	for _, v := range vs {
		if s.Add(v) {
			added++
		}
	}
	return added
}

// Contains reports whether v has been added.
func (s *OrderedSet[T]) Contains(v T) bool {
	_, ok := s.seen[v]
	return ok
}

// Len returns the number of distinct values.
func (s *OrderedSet[T]) Len() int {
	return len(s.values)
}

// Values returns the distinct values in insertion order.
// The result is never nil so it encodes as an empty JSON array.
func (s *OrderedSet[T]) Values() []T {
	if len(s.values) == 0 {
		return []T{}
	}
	out := make([]T, len(s.values))
	copy(out, s.values)
	return out
}
