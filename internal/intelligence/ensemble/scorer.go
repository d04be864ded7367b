package ensemble

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
)

// Decision is the policy outcome for a combined fraud probability.
type Decision string

const (
	DecisionAutoApprove   Decision = "auto_approve"
	DecisionManualReview  Decision = "manual_review"
	DecisionAutoFlag      Decision = "auto_flag"
	DecisionFallbackRules Decision = "fallback_rule_based"
)

// Result is a successful ensemble pass.  Score returns nil instead of a
// Result when no model produced a usable output.
type Result struct {
	// Combined is the weighted fraud probability in [0, 1].
	Combined float64 `json:"combined"`

	// RFProbability is the supervised classifier's output, nil when the
	// classifier was unavailable or failed.
	RFProbability *float64 `json:"rfProbability,omitempty"`

	// AnomalyScore is the normalised unsupervised output in [0, 1], nil when
	// the anomaly detector was unavailable or failed.
	AnomalyScore *float64 `json:"anomalyScore,omitempty"`

	ModelVersion string   `json:"modelVersion"`
	Backends     []string `json:"backends"`
}

// Scorer combines a supervised classifier with an anomaly detector under the
// configured policy.  Both backends are optional; the scorer degrades to
// whichever is present and returns nil from Score when neither produces a
// value.  Score never returns an error and never panics: every failure mode
// is a logged degradation.
type Scorer struct {
	mu         sync.RWMutex
	meta       *Metadata
	policy     Policy
	classifier InferenceBackend
	anomaly    InferenceBackend

	timeout time.Duration
	log     logging.Logger
}

// Option customises a Scorer.
type Option func(*Scorer)

// WithClassifier installs the supervised backend.
func WithClassifier(b InferenceBackend) Option {
	return func(s *Scorer) { s.classifier = b }
}

// WithAnomalyDetector installs the unsupervised backend.
func WithAnomalyDetector(b InferenceBackend) Option {
	return func(s *Scorer) { s.anomaly = b }
}

// WithTimeout bounds the wall-clock budget of a Score call.
func WithTimeout(d time.Duration) Option {
	return func(s *Scorer) { s.timeout = d }
}

// WithLogger injects the logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Scorer) { s.log = log }
}

// NewScorer constructs a Scorer.  Nil metadata gets safe defaults.
func NewScorer(meta *Metadata, policy Policy, opts ...Option) *Scorer {
	if meta == nil {
		meta = DefaultMetadata()
	}
	policy.Normalize()
	s := &Scorer{
		meta:    meta,
		policy:  policy,
		timeout: 2 * time.Second,
		log:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reload hot-swaps metadata and policy, e.g. after an artifact update on
// disk.  In-flight Score calls finish against the snapshot they started with.
func (s *Scorer) Reload(meta *Metadata, policy Policy) {
	if meta == nil {
		meta = DefaultMetadata()
	}
	policy.Normalize()
	s.mu.Lock()
	s.meta = meta
	s.policy = policy
	s.mu.Unlock()
	s.log.Info("ensemble metadata reloaded", logging.String("modelVersion", meta.ModelVersion))
}

// SwapBackends hot-swaps the inference backends.  Either may be nil.
func (s *Scorer) SwapBackends(classifier, anomaly InferenceBackend) {
	s.mu.Lock()
	s.classifier = classifier
	s.anomaly = anomaly
	s.mu.Unlock()
}

// ModelVersion returns the current metadata's model version.
func (s *Scorer) ModelVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.ModelVersion
}

// Policy returns the current decision policy.
func (s *Scorer) Policy() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Score runs both models on the feature vector and combines their outputs.
//
//   - Both models usable: combined = rf_weight*rf + ae_weight*anomaly.
//   - One model usable: its value is the combined score on its own.
//   - Neither usable: nil.
//
// The call is bounded by the configured timeout regardless of the parent
// context's deadline.
func (s *Scorer) Score(ctx context.Context, featureVec []float64) *Result {
	s.mu.RLock()
	meta := s.meta
	policy := s.policy
	classifier := s.classifier
	anomaly := s.anomaly
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := &Result{ModelVersion: meta.ModelVersion}

	if classifier != nil {
		if out, err := classifier.Run(ctx, featureVec); err != nil {
			s.log.Warn("classifier inference failed",
				logging.String("backend", classifier.Name()), logging.Err(err))
		} else if len(out) == 0 {
			s.log.Warn("classifier returned empty output",
				logging.String("backend", classifier.Name()))
		} else {
			p := clamp01(out[0])
			result.RFProbability = &p
			result.Backends = append(result.Backends, classifier.Name())
		}
	}

	if anomaly != nil {
		if out, err := anomaly.Run(ctx, featureVec); err != nil {
			s.log.Warn("anomaly inference failed",
				logging.String("backend", anomaly.Name()), logging.Err(err))
		} else if a, ok := normalizeAnomaly(meta, featureVec, out); ok {
			result.AnomalyScore = &a
			result.Backends = append(result.Backends, anomaly.Name())
		}
	}

	switch {
	case result.RFProbability != nil && result.AnomalyScore != nil:
		result.Combined = clamp01(
			policy.Combine.RFWeight**result.RFProbability +
				policy.Combine.AEWeight**result.AnomalyScore)
	case result.RFProbability != nil:
		result.Combined = *result.RFProbability
	case result.AnomalyScore != nil:
		result.Combined = *result.AnomalyScore
	default:
		return nil
	}
	return result
}

// normalizeAnomaly maps a raw unsupervised output onto a [0, 1] anomaly
// probability according to the model kind.
//
// Autoencoder: the output is a reconstruction of the input; the RMSE
// reconstruction error is z-scored against the training distribution and
// squashed with a sigmoid, so larger errors mean more anomalous.
//
// Isolation forest: the output is a single score where larger means more
// normal; the z-score is sigmoid-inverted (1/(1+e^z)) so the result again
// grows with anomalousness.
func normalizeAnomaly(meta *Metadata, input, output []float64) (float64, bool) {
	switch meta.UnsupervisedType {
	case UnsupervisedAutoencoder:
		if len(output) == 0 {
			return 0, false
		}
		n := len(input)
		if len(output) < n {
			n = len(output)
		}
		if n == 0 {
			return 0, false
		}
		var sum float64
		for i := 0; i < n; i++ {
			d := output[i] - input[i]
			sum += d * d
		}
		rmse := math.Sqrt(sum / float64(n))
		return sigmoid(zscore(rmse, meta.AEReconMean, meta.AEReconStd)), true

	case UnsupervisedIsolationForest:
		if len(output) == 0 {
			return 0, false
		}
		z := zscore(output[0], meta.IFMean, meta.IFStd)
		return 1 / (1 + math.Exp(z)), true

	default:
		return 0, false
	}
}

// Decide maps an ensemble result onto the policy decision.  A nil result
// means the ensemble produced nothing and routing falls back to rules.
func (s *Scorer) Decide(result *Result) Decision {
	if result == nil {
		return DecisionFallbackRules
	}
	s.mu.RLock()
	t := s.policy.Thresholds
	s.mu.RUnlock()

	switch {
	case result.Combined <= t.AutoApproveMax:
		return DecisionAutoApprove
	case result.Combined <= t.ManualReviewMax:
		return DecisionManualReview
	default:
		return DecisionAutoFlag
	}
}
