package textsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein_KnownDistances(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"maria lopez", "maria lopes", 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Levenshtein(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
	}
}

func TestLevenshtein_Unicode(t *testing.T) {
	// One rune substitution, not a byte-level diff.
	assert.Equal(t, 1, Levenshtein("müller", "muller"))
}

func TestSimilarity_Bounds(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("abc", ""))
	assert.Equal(t, 0.0, Similarity("", "abc"))
	assert.Equal(t, 1.0, Similarity("same", "same"))

	s := Similarity("jonathan", "johnathan")
	assert.Greater(t, s, 0.8)
	assert.LessOrEqual(t, s, 1.0)
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"maria garcia", "mariah garcia"},
		{"abc", "xyz"},
		{"", "nonempty"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]))
	}
}

func TestSimilarityFold(t *testing.T) {
	assert.Equal(t, 1.0, SimilarityFold("John Smith", "john smith"))
}

func TestNGramVector_Deterministic(t *testing.T) {
	a := NGramVector("acute appendicitis")
	b := NGramVector("acute appendicitis")
	assert.Equal(t, a, b)
	assert.Len(t, a, VectorBins)
}

func TestNGramVector_CaseInsensitive(t *testing.T) {
	assert.Equal(t, NGramVector("Chest Pain"), NGramVector("chest pain"))
}

func TestNGramVector_Empty(t *testing.T) {
	vec := NGramVector("   ")
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestNGramVector_CountsGrams(t *testing.T) {
	// "ab" padded becomes "__ab__": six runes, four trigrams in total.
	vec := NGramVector("ab")
	var total float64
	for _, v := range vec {
		total += v
	}
	assert.Equal(t, 4.0, total)
}

func TestCosine(t *testing.T) {
	a := []float64{1, 0, 1}
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	assert.Equal(t, 0.0, Cosine(a, []float64{0, 0, 0}))
	assert.Equal(t, 0.0, Cosine(a, []float64{1, 0}))
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
}

func TestCosine_TextSimilarityOrdering(t *testing.T) {
	base := NGramVector("acute chest pain")
	close := NGramVector("acute chest pains")
	far := NGramVector("routine dental cleaning")

	assert.Greater(t, Cosine(base, close), Cosine(base, far))
}
