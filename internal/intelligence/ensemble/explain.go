package ensemble

import (
	"math"
	"sort"

	"github.com/medledger/claimguard/internal/intelligence/features"
)

// topAttributions is how many features an explanation reports.
const topAttributions = 3

// Attribution is one feature's contribution to the score explanation.
type Attribution struct {
	Feature     string  `json:"feature"`
	Value       float64 `json:"value"`
	ZScore      float64 `json:"zscore"`
	Importance  float64 `json:"importance"`
	Attribution float64 `json:"attribution"`
}

// Explain returns the top-3 feature attributions for a vector, ranked by the
// magnitude of importance[i] * zscore(value[i]).  It works off whatever
// metadata is loaded; with default metadata the ranking degrades to uniform
// importance over raw z-scores, which is still a meaningful ordering.
func (s *Scorer) Explain(featureVec []float64) []Attribution {
	s.mu.RLock()
	meta := s.meta
	s.mu.RUnlock()

	n := len(featureVec)
	if n > features.Count {
		n = features.Count
	}

	attrs := make([]Attribution, 0, n)
	for i := 0; i < n; i++ {
		z := zscore(featureVec[i], meta.FeatureMeans[i], meta.FeatureStds[i])
		attrs = append(attrs, Attribution{
			Feature:     meta.FeatureSpec[i],
			Value:       featureVec[i],
			ZScore:      z,
			Importance:  meta.ShapImportance[i],
			Attribution: meta.ShapImportance[i] * z,
		})
	}

	sort.SliceStable(attrs, func(i, j int) bool {
		return math.Abs(attrs[i].Attribution) > math.Abs(attrs[j].Attribution)
	})

	if len(attrs) > topAttributions {
		attrs = attrs[:topAttributions]
	}
	return attrs
}
