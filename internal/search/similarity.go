package search

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the Ratcliff/Obershelp similarity of a and b in [0, 1]:
// twice the number of matched characters divided by the total length.
// It is 1 for identical strings, including two empty strings.
//
// Matching runs on code points, not bytes, with difflib's popular-element
// heuristic enabled, so scores agree with SequenceMatcher(None, a, b).ratio().
// Like that implementation the result can differ slightly when a and b are
// swapped; callers always pass the query first.
func Ratio(a, b string) float64 {
	return ratio(splitRunes(a), splitRunes(b))
}

func ratio(a, b []string) float64 {
	return difflib.NewMatcher(a, b).Ratio()
}

// splitRunes splits s into one element per code point.
func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
