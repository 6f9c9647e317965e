package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxSanitizeRounds bounds the decode loop for deeply nested encodings.
const maxSanitizeRounds = 8

// PlainText strips all markup from s and trims it.
// Entities are decoded and the result sanitized again until it is stable,
// so entity-encoded markup cannot survive as live tags.
func PlainText(s string) string {
	for range maxSanitizeRounds {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return strings.TrimSpace(next)
		}
		s = next
	}
	// Still changing: keep the escaped form.
	return strings.TrimSpace(strict.Sanitize(s))
}

// PlainTextPtr applies PlainText to an optional value.
func PlainTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := PlainText(*s)
	return &out
}
