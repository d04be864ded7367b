package textsim

import (
	"crypto/md5"
	"math"
	"strings"
)

// VectorBins is the fixed dimensionality of hashed n-gram vectors.  The model
// metadata's text features are trained against this exact binning, so it is a
// wire-format constant rather than a tunable.
const VectorBins = 512

// boundary pads the text so edge trigrams carry positional information.
const boundary = "__"

// NGramVector maps text onto a VectorBins-dimensional count vector of hashed
// character trigrams.  The text is lower-cased and padded with boundary
// sentinels on both sides; each trigram is hashed with MD5 and folded into a
// bin index by XOR-ing the first four digest bytes modulo VectorBins.
//
// Empty or whitespace-only text yields the zero vector.
func NGramVector(text string) []float64 {
	vec := make([]float64, VectorBins)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vec
	}
	padded := boundary + strings.ToLower(trimmed) + boundary
	runes := []rune(padded)
	for i := 0; i+3 <= len(runes); i++ {
		gram := string(runes[i : i+3])
		sum := md5.Sum([]byte(gram))
		idx := int(sum[0]^sum[1]^sum[2]^sum[3]) % VectorBins
		vec[idx]++
	}
	return vec
}

// Cosine returns the cosine similarity of a and b.  Mismatched lengths or a
// zero vector (norm below 1e-8) yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom < 1e-8 {
		return 0
	}
	return dot / denom
}
