// Package stringutil provides text helpers used for keyword matching.
package stringutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, decomposes it (NFD) and drops combining marks,
// so that accented and unaccented Spanish text compare equal.
//
// Example:
//
//	Normalize("PRESENTACIÓN") returns "presentacion"
//	Normalize("Socio-Económico") returns "socio-economico"
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ContainsWord reports whether phrase occurs in s bounded by non-letter
// characters on both sides. Both arguments are expected to be normalized.
//
// Example:
//
//	ContainsWord("si, por favor", "si") returns true
//	ContainsWord("necesito ayuda", "si") returns false
func ContainsWord(s, phrase string) bool {
	if phrase == "" {
		return false
	}
	for offset := 0; offset < len(s); {
		idx := strings.Index(s[offset:], phrase)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(phrase)
		if isBoundaryBefore(s, start) && isBoundaryAfter(s, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isBoundaryBefore(s string, i int) bool {
	if i <= 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func isBoundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Truncate shortens s to at most n runes, used for log previews.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
