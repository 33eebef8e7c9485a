package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/garyellow/baera-chatbot-go/internal/knowledge"
	"github.com/garyellow/baera-chatbot-go/internal/sliceutil"
	"github.com/garyellow/baera-chatbot-go/internal/stringutil"
)

// placeholderDocument is a generic row some sources carry; it has no image.
const placeholderDocument = "Documento requerido"

// stopWords are never used as document keywords.
var stopWords = map[string]bool{
	"del": true, "de": true, "la": true, "en": true, "con": true, "para": true,
	"por": true, "los": true, "las": true, "una": true, "un": true,
}

// skippedColumns never appear in the knowledge text.
var skippedColumns = map[string]bool{
	"id": true, "beca_id": true, "created_at": true, "embedding": true, "imagen_url": true,
}

// Build derives a snapshot from a load result.
func Build(ctx context.Context, result *knowledge.Result) *Snapshot {
	snap := Empty()
	snap.LoadedAt = time.Now()
	if result == nil {
		return snap
	}

	if t := result.Lookup(knowledge.TableDocuments); t != nil {
		snap.Documents, snap.DocumentImages = buildDocuments(t)
	}
	if t := result.Lookup(knowledge.TableNotices); t != nil {
		snap.Notices = buildNotices(ctx, t)
	}
	if t := result.Lookup(knowledge.TableLocations); t != nil {
		snap.Locations = buildLocations(t)
	}

	for _, t := range result.Tables {
		if !t.Empty() {
			snap.Tables = append(snap.Tables, TableStat{Name: t.Name, Rows: len(t.Rows), Source: t.Source})
		}
	}
	snap.Knowledge = BuildKnowledgeText(result.Specs, result.Tables)

	slog.InfoContext(ctx, "catalog built",
		"knowledge_chars", utf8.RuneCountInString(snap.Knowledge),
		"documents", len(snap.Documents),
		"document_keywords", len(snap.DocumentImages),
		"notices", len(snap.Notices),
		"location_keys", snap.Locations.Len())
	return snap
}

func buildDocuments(t *knowledge.Table) ([]Document, map[string]string) {
	var (
		docs   []Document
		images = make(map[string]string)
	)
	for _, row := range t.Rows {
		name := row.Get("nombre_documento")
		if strings.TrimSpace(name) == "" || strings.TrimSpace(name) == placeholderDocument {
			continue
		}
		url := strings.TrimSpace(row.Get("imagen_url"))
		if url == "" {
			continue
		}

		category, clean := NewCategory(GeneralCategory), name
		if title, rest, found := strings.Cut(name, ":"); found {
			category, clean = NewCategory(title), rest
		}

		// Keywords come from the clean name only; a category prefix would
		// match every document of the category.
		var keywords sliceutil.OrderedSet[string]
		for _, token := range strings.Fields(strings.ToLower(clean)) {
			if utf8.RuneCountInString(token) <= 3 || stopWords[token] {
				continue
			}
			kw := stringutil.Normalize(token)
			if _, ok := images[kw]; !ok {
				images[kw] = url
			}
			keywords.Add(kw)
		}

		docs = append(docs, Document{
			Name:           name,
			NormalizedName: stringutil.Normalize(name),
			ImageURL:       url,
			Category:       category,
			Keywords:       keywords.Values(),
		})
	}
	return docs, images
}

func buildNotices(ctx context.Context, t *knowledge.Table) map[string]Notice {
	notices := make(map[string]Notice)
	for _, row := range t.Rows {
		id := strings.TrimSpace(row.Get("id"))
		if id == "" {
			slog.WarnContext(ctx, "notice row without id", "row", stringutil.Truncate(rowPreview(t.Columns, row), 120))
			continue
		}
		notices[id] = Notice{
			ID:       id,
			ImageURL: strings.TrimSpace(row.Get("imagen_url")),
			Date:     row.Get("fecha"),
			Content:  row.Get("contenido"),
		}
	}
	return notices
}

func buildLocations(t *knowledge.Table) *LocationIndex {
	idx := NewLocationIndex()
	for _, row := range t.Rows {
		name := strings.TrimSpace(row.Get("nombre"))
		url := strings.TrimSpace(row.Get("imagen_url"))
		if name == "" || url == "" {
			continue
		}

		loc := Location{
			Name:           name,
			NormalizedName: stringutil.Normalize(name),
			ImageURL:       url,
			Address:        row.Get("direccion"),
		}
		idx.add(loc.NormalizedName, loc)
		for _, token := range strings.Fields(strings.ToLower(name)) {
			if utf8.RuneCountInString(token) > 3 {
				idx.add(stringutil.Normalize(token), loc)
			}
		}
	}
	return idx
}

// BuildKnowledgeText renders tables as the markdown-ish block the prompt
// embeds. specs and tables are parallel; nil tables are skipped.
func BuildKnowledgeText(specs []knowledge.TableSpec, tables []*knowledge.Table) string {
	var parts []string
	for i, def := range specs {
		if i >= len(tables) || tables[i].Empty() {
			continue
		}
		t := tables[i]

		var section strings.Builder
		section.WriteString("\n## " + def.Description + "\n\n")
		wrote := false
		for _, row := range t.Rows {
			line := rowText(def.Name, t.Columns, row)
			if line == "" {
				continue
			}
			section.WriteString("- " + line + "\n")
			wrote = true
		}
		if wrote {
			parts = append(parts, section.String())
		}
	}
	return strings.Join(parts, "\n")
}

func rowText(table string, columns []string, row knowledge.Row) string {
	var fields []string
	if table == knowledge.TableNotices {
		if id := strings.TrimSpace(row.Get("id")); id != "" {
			fields = append(fields, "[ID: "+id+"]")
		}
	}
	for _, col := range columns {
		if skippedColumns[col] {
			continue
		}
		value := flattenRichText(row.Get(col))
		if isBlankValue(value) {
			continue
		}
		fields = append(fields, col+": "+value)
	}
	return strings.Join(fields, ", ")
}

func isBlankValue(v string) bool {
	return strings.TrimSpace(v) == "" || v == "nan" || v == "None"
}

func rowPreview(columns []string, row knowledge.Row) string {
	fields := make([]string, 0, len(columns))
	for _, col := range columns {
		fields = append(fields, col+"="+row.Get(col))
	}
	return strings.Join(fields, " ")
}
