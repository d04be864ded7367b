// Package ensemble implements the ML half of the fraud pipeline: a supervised
// classifier and an unsupervised anomaly detector combined under a decision
// policy, with per-feature attributions for explainability.
//
// The package is built to degrade, never to fail: a missing model, a corrupt
// metadata file, or a backend error reduces the ensemble to whatever is still
// usable, down to "nothing", in which case Score returns nil and the caller
// falls back to rule-only routing.
package ensemble

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/medledger/claimguard/internal/intelligence/features"
)

// Unsupervised model kinds understood by the scorer.
const (
	UnsupervisedIsolationForest = "iforest"
	UnsupervisedAutoencoder     = "autoencoder"
)

// Artifact file names inside the models directory (and the models bucket).
const (
	MetadataFileName = "metadata.json"
	PolicyFileName   = "policy.json"
)

// Metadata describes the deployed model pair.  The JSON shape is shared with
// the training pipeline; absent or malformed fields fall back to safe
// defaults via Normalize so a partial artifact can never crash scoring.
type Metadata struct {
	ModelVersion string `json:"model_version"`

	// UnsupervisedType selects the anomaly normalisation: "iforest" or
	// "autoencoder".
	UnsupervisedType string `json:"unsupervised_type"`

	// Isolation-forest score distribution.
	IFMean float64 `json:"if_mean"`
	IFStd  float64 `json:"if_std"`

	// Autoencoder reconstruction-error distribution.
	AEReconMean float64 `json:"ae_recon_mean"`
	AEReconStd  float64 `json:"ae_recon_std"`

	// FeatureSpec names the features in vector order, for artifact/runtime
	// drift detection.
	FeatureSpec []string `json:"feature_spec"`

	// Per-feature standardisation parameters and global importances, used by
	// zscore normalisation and the explanation output.
	FeatureMeans   []float64 `json:"feature_means"`
	FeatureStds    []float64 `json:"feature_stds"`
	ShapImportance []float64 `json:"shap_importance"`

	// Optional logistic-regression coefficients enabling in-process
	// supervised inference when no external model server is configured.
	RFCoefficients []float64 `json:"rf_coefficients,omitempty"`
	RFIntercept    float64   `json:"rf_intercept,omitempty"`
}

// Normalize pads or defaults every statistical field to the given feature
// count: means default to 0, stds to 1, importances to uniform 1/n.  It is
// idempotent and always leaves the metadata usable.
func (m *Metadata) Normalize(featureCount int) {
	if m.ModelVersion == "" {
		m.ModelVersion = "unknown"
	}
	if m.UnsupervisedType == "" {
		m.UnsupervisedType = UnsupervisedIsolationForest
	}
	m.FeatureMeans = padFloats(m.FeatureMeans, featureCount, 0)
	m.FeatureStds = padFloats(m.FeatureStds, featureCount, 1)
	uniform := 1.0 / float64(featureCount)
	m.ShapImportance = padFloats(m.ShapImportance, featureCount, uniform)
	if len(m.FeatureSpec) != featureCount {
		m.FeatureSpec = features.Names[:]
	}
}

func padFloats(in []float64, n int, fill float64) []float64 {
	if len(in) == n {
		return in
	}
	out := make([]float64, n)
	copy(out, in)
	for i := len(in); i < n; i++ {
		out[i] = fill
	}
	if len(in) > n {
		out = out[:n]
	}
	return out
}

// DefaultMetadata returns metadata with every field at its safe default.
func DefaultMetadata() *Metadata {
	m := &Metadata{}
	m.Normalize(features.Count)
	return m
}

// Policy holds the decision thresholds and the model combination weights.
type Policy struct {
	Thresholds PolicyThresholds `json:"thresholds"`
	Combine    PolicyCombine    `json:"combine"`
}

// PolicyThresholds are the probability cut-offs for the diagnostic decision.
type PolicyThresholds struct {
	AutoApproveMax  float64 `json:"auto_approve_max"`
	ManualReviewMax float64 `json:"manual_review_max"`
}

// PolicyCombine weights the two model outputs in the combined score.
type PolicyCombine struct {
	RFWeight float64 `json:"rf_weight"`
	AEWeight float64 `json:"ae_weight"`
}

// DefaultPolicy returns the production default policy.
func DefaultPolicy() Policy {
	return Policy{
		Thresholds: PolicyThresholds{AutoApproveMax: 0.3, ManualReviewMax: 0.6},
		Combine:    PolicyCombine{RFWeight: 0.6, AEWeight: 0.4},
	}
}

// Normalize fills zero-valued policy fields with defaults.
func (p *Policy) Normalize() {
	def := DefaultPolicy()
	if p.Thresholds.AutoApproveMax <= 0 {
		p.Thresholds.AutoApproveMax = def.Thresholds.AutoApproveMax
	}
	if p.Thresholds.ManualReviewMax <= 0 {
		p.Thresholds.ManualReviewMax = def.Thresholds.ManualReviewMax
	}
	if p.Combine.RFWeight <= 0 && p.Combine.AEWeight <= 0 {
		p.Combine = def.Combine
	}
}

// LoadMetadata reads and normalises metadata.json from dir.  A missing or
// corrupt file yields DefaultMetadata and a nil error: artifact problems are
// a degradation, not a failure.
func LoadMetadata(dir string) *Metadata {
	m := &Metadata{}
	if !readJSONFile(filepath.Join(dir, MetadataFileName), m) {
		return DefaultMetadata()
	}
	m.Normalize(features.Count)
	return m
}

// LoadPolicy reads and normalises policy.json from dir, defaulting on any
// read or parse failure.
func LoadPolicy(dir string) Policy {
	p := Policy{}
	if !readJSONFile(filepath.Join(dir, PolicyFileName), &p) {
		return DefaultPolicy()
	}
	p.Normalize()
	return p
}

func readJSONFile(path string, out interface{}) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}
