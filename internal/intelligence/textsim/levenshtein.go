// Package textsim provides the lightweight text-similarity primitives used by
// identity matching and feature extraction: normalised edit distance and
// hashed character n-gram vectors.
package textsim

import "strings"

// Levenshtein computes the edit distance between a and b with unit costs for
// insertion, deletion, and substitution.  It operates on runes, not bytes, and
// keeps only two rows of the DP table.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity returns 1 - distance/maxLen in [0, 1].  Two empty strings are
// identical (1.0); one empty string against a non-empty one is maximally
// distant (0.0).  Similarity is symmetric in its arguments.
func Similarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}

// SimilarityFold lower-cases both inputs before comparing.  Name matching in
// identity screening uses this variant.
func SimilarityFold(a, b string) float64 {
	return Similarity(strings.ToLower(a), strings.ToLower(b))
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
