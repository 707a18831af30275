// Package textmatch computes character-level similarity between strings
// using the canonical longest-common-subsequence sequence matcher.
package textmatch

import "github.com/pmezard/go-difflib/difflib"

// Ratio returns the sequence-matching similarity of a and b in [0, 1]:
// 2·M/T where M is the total length of matching blocks and T the sum of
// both input lengths. 1.0 iff the strings are equal; 0.0 when either is
// empty and the other is not.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return difflib.NewMatcher(explode(a), explode(b)).Ratio()
}

// explode splits a string into one element per rune so the line-oriented
// matcher operates at character level.
func explode(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
