package catalog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// flattenRichText turns HTML cell values into plain text. Values without
// markup are returned unchanged.
func flattenRichText(value string) string {
	if !looksLikeHTML(value) {
		return value
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return value
	}
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, li, div, tr, h1, h2, h3, h4").AppendHtml(" ")

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func looksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	if i < 0 {
		return false
	}
	rest := s[i+1:]
	return strings.Contains(rest, ">") && (strings.Contains(s, "</") || strings.Contains(s, "/>") ||
		strings.HasPrefix(strings.ToLower(rest), "br"))
}
