// Package textmeasure counts and normalizes text the way a reader perceives
// it: NFC-normalized extended grapheme clusters rather than bytes or runes.
package textmeasure

import (
	"strings"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/graphemes"
	"golang.org/x/text/unicode/norm"
)

// Count returns the number of user-perceived characters in s after trimming
// surrounding whitespace and applying NFC. Whitespace-only input counts 0.
func Count(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = norm.NFC.String(s)
	n := 0
	tokens := graphemes.FromString(s)
	for tokens.Next() {
		n++
	}
	return n
}

// CodePoints returns the number of Unicode code points in s, without
// normalization. Useful next to Count when debugging combining sequences.
func CodePoints(s string) int {
	return utf8.RuneCountInString(s)
}

// Normalize applies NFC and collapses every whitespace run into a single
// space, trimming both ends.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Join concatenates fragments with a single space and normalizes the result.
func Join(fragments []string) string {
	return Normalize(strings.Join(fragments, " "))
}

// Truncate returns the first max user-perceived characters of s, never
// splitting a grapheme cluster. A non-positive max yields "".
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n, end := 0, 0
	tokens := graphemes.FromString(s)
	for tokens.Next() {
		if n == max {
			return s[:end]
		}
		end += len(tokens.Value())
		n++
	}
	return s
}
