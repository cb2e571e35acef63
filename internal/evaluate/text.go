package evaluate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	goldMarkup  = regexp.MustCompile(`<[hlp/]+>`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s']`)
)

// CleanGold turns a gold-standard file into plain text: the first line (the
// page URL) is dropped, <h>, <p> and <l> markup is removed and non-empty
// lines are joined by single spaces.
func CleanGold(raw string) string {
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[i+1:]
	} else {
		raw = ""
	}
	raw = goldMarkup.ReplaceAllString(raw, "")
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, " ")
}

// Normalize replaces punctuation other than apostrophes with spaces,
// collapses whitespace and lower-cases the result.
func Normalize(s string) string {
	s = punctuation.ReplaceAllString(s, " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// LCS returns the longest common subsequence of the words of a and b,
// scaled to characters by the mean word length of both texts plus one for
// the separating space.
func LCS(a, b string) int {
	wa, wb := strings.Fields(a), strings.Fields(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	prev := make([]int, len(wb)+1)
	curr := make([]int, len(wb)+1)
	for i := 1; i <= len(wa); i++ {
		for j := 1; j <= len(wb); j++ {
			if wa[i-1] == wb[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(curr[j-1], prev[j])
			}
		}
		prev, curr = curr, prev
	}
	words := prev[len(wb)]
	if words == 0 {
		return 0
	}
	avg := (meanWordLen(wa) + meanWordLen(wb)) / 2
	return int(float64(words) * (avg + 1))
}

func meanWordLen(words []string) float64 {
	n := 0
	for _, w := range words {
		n += utf8.RuneCountInString(w)
	}
	return float64(n) / float64(len(words))
}
