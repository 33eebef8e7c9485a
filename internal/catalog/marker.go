package catalog

import (
	"regexp"
	"strings"
)

var (
	noticeMarker      = regexp.MustCompile(`\[ID:\s*(\d+)\]`)
	noticeMarkerStrip = regexp.MustCompile(`\s*\[ID:\s*\d+\]`)
)

// HasNoticeMarker reports whether text contains an "[ID: <digits>]" marker.
func HasNoticeMarker(text string) bool {
	return noticeMarker.MatchString(text)
}

// NoticeIDs returns the ids of every notice marker in text, in order of
// appearance. Repeated ids are kept.
func NoticeIDs(text string) []string {
	matches := noticeMarker.FindAllStringSubmatch(text, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}

// StripNoticeMarkers removes every marker and the whitespace before it.
func StripNoticeMarkers(text string) string {
	return strings.TrimSpace(noticeMarkerStrip.ReplaceAllString(text, ""))
}
