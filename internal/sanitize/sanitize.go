// Package sanitize normalizes user-supplied text for messages, chat posts,
// questions and replies. Content is stored verbatim apart from Unicode
// normalization and control characters; escaping is left to renderers.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text normalizes to NFC, drops control characters other than newline and
// tab, and trims surrounding whitespace. Markup and entities are kept as
// typed.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Optional applies Text to a non-nil pointer. Blank results become nil.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	if out == "" {
		return nil
	}
	return &out
}
