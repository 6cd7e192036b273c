// internal/similarity/similarity.go

// Package similarity provides the lexical overlap scorer used by the ranking
// engine and the reverse matcher.
package similarity

import "strings"

// Jaccard returns the Jaccard index of the word sets of a and b, in [0,1].
// Both strings are lower-cased and split on whitespace; duplicate tokens
// collapse. Either input being empty yields 0 rather than dividing by an
// empty union.
func Jaccard(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
