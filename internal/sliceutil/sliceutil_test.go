package sliceutil

import (
	"slices"
	"strconv"
	"testing"
)

type imageItem struct {
	URL  string
	Name string
}

func TestDeduplicate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		items []imageItem
		want  []imageItem
	}{
		{
			name: "No duplicates",
			items: []imageItem{
				{URL: "a.png", Name: "Folder"},
				{URL: "b.png", Name: "Croquis"},
			},
			want: []imageItem{
				{URL: "a.png", Name: "Folder"},
				{URL: "b.png", Name: "Croquis"},
			},
		},
		{
			name: "Duplicate URL keeps first",
			items: []imageItem{
				{URL: "a.png", Name: "Folder"},
				{URL: "b.png", Name: "Croquis"},
				{URL: "a.png", Name: "Folder crema"},
			},
			want: []imageItem{
				{URL: "a.png", Name: "Folder"},
				{URL: "b.png", Name: "Croquis"},
			},
		},
		{
			name:  "Empty slice",
			items: []imageItem{},
			want:  []imageItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Deduplicate(tt.items, func(i imageItem) string { return i.URL })
			if !slices.Equal(got, tt.want) {
				t.Errorf("Deduplicate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderedSet(t *testing.T) {
	t.Parallel()
	var s OrderedSet[string]

	if got := s.Values(); got == nil || len(got) != 0 {
		t.Fatalf("zero value Values() = %#v, want empty non-nil slice", got)
	}

	if !s.Add("x/1.png") {
		t.Error("first Add should report new value")
	}
	if s.Add("x/1.png") {
		t.Error("repeated Add should report existing value")
	}
	if added := s.AddAll("x/2.png", "x/1.png", "x/3.png"); added != 2 {
		t.Errorf("AddAll() = %d, want 2", added)
	}

	want := []string{"x/1.png", "x/2.png", "x/3.png"}
	if got := s.Values(); !slices.Equal(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if !s.Contains("x/2.png") || s.Contains("x/9.png") {
		t.Error("Contains() returned wrong result")
	}
}

func TestOrderedSet_ValuesIsCopy(t *testing.T) {
	t.Parallel()
	var s OrderedSet[int]
	s.AddAll(1, 2)
	v := s.Values()
	v[0] = 99
	if s.Values()[0] != 1 {
		t.Error("Values() must not expose internal storage")
	}
}

func BenchmarkDeduplicate(b *testing.B) {
	items := make([]imageItem, 1000)
	for i := range items {
		items[i] = imageItem{URL: strconv.Itoa(i % 100), Name: "doc"}
	}

	keyFunc := func(i imageItem) string { return i.URL }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Deduplicate(items, keyFunc)
	}
}
