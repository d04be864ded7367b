// Package scoring hosts the claim scoring orchestrator: the application
// service that runs the rule engine and the ML ensemble over a submitted
// claim, routes the claim by risk level, and emits the immutable fraud
// report.
package scoring

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medledger/claimguard/internal/config"
	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/domain/event"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	"github.com/medledger/claimguard/internal/intelligence/ensemble"
	"github.com/medledger/claimguard/internal/intelligence/features"
	"github.com/medledger/claimguard/internal/intelligence/rules"
	"github.com/medledger/claimguard/pkg/errors"
)

// HistoryProvider supplies the history aggregates consumed by rules and
// features.  claim.Repository satisfies it directly; the Redis cache adapter
// wraps it for hot provider aggregates.
type HistoryProvider interface {
	CountByPatientSince(ctx context.Context, patientID string, since time.Time) (int, error)
	CountByProviderSince(ctx context.Context, providerID string, since time.Time) (int, error)
	GetProviderStats(ctx context.Context, providerID string) (*claim.ProviderStats, error)
	CountTokenUse(ctx context.Context, token string, excludeClaimID string) (int, error)
	CountPatientHashUse(ctx context.Context, patientHash string, excludePatientID string) (int, error)
	ListPatientDescriptions(ctx context.Context, patientID string, excludeClaimID string) ([]string, error)
}

// Metrics is the observability hook for scoring outcomes.
type Metrics interface {
	ObserveScoring(level string, degraded bool, duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveScoring(string, bool, time.Duration) {}

// Orchestrator runs the full scoring pipeline.  The rule engine always runs;
// feature extraction and the ensemble degrade gracefully, falling back to
// rule-only scoring with the degradation recorded on the report.
type Orchestrator struct {
	repo      claim.Repository
	history   HistoryProvider
	rules     *rules.Scorer
	extractor *features.Extractor
	ml        *ensemble.Scorer
	reports   ReportStore

	events  event.Publisher
	log     logging.Logger
	metrics Metrics

	ruleCfg    config.RuleWeightsConfig
	scoringCfg config.ScoringConfig

	now func() time.Time
}

// OrchestratorOption customises the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithEventPublisher installs the fraud event publisher.
func WithEventPublisher(p event.Publisher) OrchestratorOption {
	return func(o *Orchestrator) { o.events = p }
}

// WithLogger injects the logger.
func WithLogger(log logging.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = log }
}

// WithMetrics installs the metrics recorder.
func WithMetrics(m Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock overrides the time source; tests pin it.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the scoring pipeline.
func NewOrchestrator(
	repo claim.Repository,
	history HistoryProvider,
	ruleScorer *rules.Scorer,
	extractor *features.Extractor,
	ml *ensemble.Scorer,
	reports ReportStore,
	ruleCfg config.RuleWeightsConfig,
	scoringCfg config.ScoringConfig,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		repo:       repo,
		history:    history,
		rules:      ruleScorer,
		extractor:  extractor,
		ml:         ml,
		reports:    reports,
		events:     event.NopPublisher{},
		log:        logging.NewNopLogger(),
		metrics:    nopMetrics{},
		ruleCfg:    ruleCfg,
		scoringCfg: scoringCfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SubmitInput is the claim submission payload.
type SubmitInput struct {
	PatientID     string
	ProviderID    string
	Type          claim.Type
	Amount        float64
	Description   string
	BillingCodes  []string
	Attachments   []claim.Attachment
	ServiceDate   time.Time
	ServiceToken  string
	TokenIssuedAt time.Time
	PatientHash   string
}

// SubmitClaim creates, scores, routes, and persists a claim, storing its
// fraud report and publishing a flag event when the claim lands in admin
// review.  History is counted before the claim is persisted, so the claim
// never inflates its own frequency features.
func (o *Orchestrator) SubmitClaim(ctx context.Context, in SubmitInput) (*claim.Claim, *FraudReport, error) {
	start := time.Now()
	now := o.now()

	c, err := claim.NewClaim(in.PatientID, in.ProviderID, in.Type, in.Amount, now)
	if err != nil {
		return nil, nil, err
	}
	c.Description = in.Description
	c.BillingCodes = in.BillingCodes
	c.Attachments = in.Attachments
	c.ServiceDate = in.ServiceDate
	c.ServiceToken = in.ServiceToken
	c.TokenIssuedAt = in.TokenIssuedAt
	c.PatientHash = in.PatientHash

	report := o.scoreClaim(ctx, c, now)

	if key, storeErr := o.reports.Store(ctx, report); storeErr != nil {
		// The claim still proceeds; a missing audit object is surfaced
		// through logs and metrics rather than blocking the submission.
		o.log.Error("failed to store fraud report",
			logging.String("claimId", c.ID), logging.Err(storeErr))
	} else {
		c.ReportObjectKey = key
	}

	if err := o.repo.Create(ctx, c); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to persist claim")
	}

	if c.RiskLevel == claim.RiskHigh {
		o.publish(ctx, event.FraudEvent{
			Type:       event.TypeClaimFlagged,
			ClaimID:    c.ID,
			PatientID:  c.PatientID,
			ProviderID: c.ProviderID,
			Score:      c.FraudScore,
			RiskLevel:  c.RiskLevel.String(),
			OccurredAt: now,
		})
	}

	o.metrics.ObserveScoring(c.RiskLevel.String(), report.Degraded, time.Since(start))
	o.log.Info("claim scored",
		logging.String("claimId", c.ID),
		logging.Int("score", c.FraudScore),
		logging.String("level", c.RiskLevel.String()),
		logging.Bool("degraded", report.Degraded))

	return c, report, nil
}

// scoreClaim runs the pipeline and mutates the claim with the outcome.
func (o *Orchestrator) scoreClaim(ctx context.Context, c *claim.Claim, now time.Time) *FraudReport {
	hist, degradedReasons := o.gatherHistory(ctx, c)

	ruleRes := o.rules.Evaluate(rules.Input{
		Claim:                 c,
		PatientClaimsInWindow: hist.patientClaims,
		Provider:              hist.provider,
	})

	vec := o.extractor.Extract(features.Context{
		Claim:             c,
		PatientClaims6Mo:  hist.patientClaims,
		ProviderClaims6Mo: hist.providerClaims,
		Provider:          hist.provider,
		PriorDescriptions: hist.priorDescriptions,
		TokenReused:       hist.tokenReused,
		PatientHashReused: hist.patientHashReused,
		ExpectedAmount:    o.expectedAmount(c.Type),
	})

	mlRes := o.ml.Score(ctx, vec)

	finalScore := ruleRes.Score
	var explanation []ensemble.Attribution
	modelVersion := ""
	if mlRes != nil {
		finalScore = int(math.Round(100 * mlRes.Combined))
		modelVersion = mlRes.ModelVersion
		explanation = o.ml.Explain(vec)
	} else {
		degradedReasons = append(degradedReasons, "model ensemble unavailable, rule score used")
	}
	if finalScore < 0 {
		finalScore = 0
	}
	if finalScore > 100 {
		finalScore = 100
	}

	level := claim.ClassifyScore(finalScore, o.ruleCfg.HighRiskLevelMin, o.ruleCfg.MediumRiskLevelMin)

	c.FraudScore = finalScore
	c.RiskLevel = level
	c.FraudFlags = ruleRes.Flags
	c.UpdatedAt = now
	if level == claim.RiskHigh {
		c.Status = claim.StatusAdminReview
		detected := now
		c.FraudDetectedAt = &detected
	} else {
		c.Status = claim.StatusPendingProvider
	}

	report := &FraudReport{
		ReportID:       uuid.NewString(),
		ClaimID:        c.ID,
		RuleScore:      ruleRes.Score,
		RuleFlags:      ruleRes.Flags,
		Ensemble:       mlRes,
		Explanation:    explanation,
		FinalScore:     finalScore,
		RiskLevel:      level,
		Degraded:       len(degradedReasons) > 0,
		DegradedReason: strings.Join(degradedReasons, "; "),
		ModelVersion:   modelVersion,
		GeneratedAt:    now,
	}
	report.Seal()
	return report
}

type historySnapshot struct {
	patientClaims     int
	providerClaims    int
	provider          claim.ProviderStats
	priorDescriptions []string
	tokenReused       bool
	patientHashReused bool
}

// gatherHistory collects the aggregates, degrading each to its zero value on
// failure.  Returned reasons feed the report's degradation record.
func (o *Orchestrator) gatherHistory(ctx context.Context, c *claim.Claim) (historySnapshot, []string) {
	var reasons []string
	snap := historySnapshot{}
	since := o.now().Add(-o.ruleCfg.FrequentClaimsWindow)

	if n, err := o.history.CountByPatientSince(ctx, c.PatientID, since); err != nil {
		reasons = append(reasons, "patient history unavailable")
		o.log.Warn("patient history lookup failed", logging.String("patientId", c.PatientID), logging.Err(err))
	} else {
		snap.patientClaims = n
	}

	if n, err := o.history.CountByProviderSince(ctx, c.ProviderID, since); err != nil {
		reasons = append(reasons, "provider history unavailable")
		o.log.Warn("provider history lookup failed", logging.String("providerId", c.ProviderID), logging.Err(err))
	} else {
		snap.providerClaims = n
	}

	if stats, err := o.history.GetProviderStats(ctx, c.ProviderID); err != nil {
		reasons = append(reasons, "provider aggregates unavailable")
		o.log.Warn("provider stats lookup failed", logging.String("providerId", c.ProviderID), logging.Err(err))
	} else if stats != nil {
		snap.provider = *stats
	}

	if descs, err := o.history.ListPatientDescriptions(ctx, c.PatientID, c.ID); err != nil {
		reasons = append(reasons, "patient description history unavailable")
		o.log.Warn("description history lookup failed", logging.String("patientId", c.PatientID), logging.Err(err))
	} else {
		snap.priorDescriptions = descs
	}

	if c.ServiceToken != "" {
		if n, err := o.history.CountTokenUse(ctx, c.ServiceToken, c.ID); err == nil {
			snap.tokenReused = n > 0
		}
	}
	if c.PatientHash != "" {
		if n, err := o.history.CountPatientHashUse(ctx, c.PatientHash, c.PatientID); err == nil {
			snap.patientHashReused = n > 0
		}
	}

	return snap, reasons
}

func (o *Orchestrator) expectedAmount(t claim.Type) float64 {
	if v, ok := o.scoringCfg.ExpectedAmountByType[string(t)]; ok && v > 0 {
		return v
	}
	return o.scoringCfg.ExpectedAmount
}

func (o *Orchestrator) publish(ctx context.Context, ev event.FraudEvent) {
	if err := o.events.Publish(ctx, ev); err != nil {
		o.log.Warn("fraud event publish failed",
			logging.String("claimId", ev.ClaimID),
			logging.String("type", string(ev.Type)),
			logging.Err(err))
	}
}

// DiagnosticResult is the output of the stateless diagnostic scoring
// endpoint: ML view only, with the policy decision.
type DiagnosticResult struct {
	FraudProbability *float64               `json:"fraudProbability,omitempty"`
	Decision         ensemble.Decision      `json:"decision"`
	ModelVersion     string                 `json:"modelVersion,omitempty"`
	Explanation      []ensemble.Attribution `json:"explanation,omitempty"`
	RuleScore        int                    `json:"ruleScore"`
	RuleFlags        []string               `json:"ruleFlags,omitempty"`
	Degraded         bool                   `json:"degraded"`
}

// ScoreDiagnostic runs features and the ensemble over a claim without
// persisting anything.  Operators and integration tests use it to probe the
// deployed models; a dead ensemble yields the fallback_rule_based decision
// with the rule engine's view attached.
func (o *Orchestrator) ScoreDiagnostic(ctx context.Context, in SubmitInput) (*DiagnosticResult, error) {
	now := o.now()
	c, err := claim.NewClaim(in.PatientID, in.ProviderID, in.Type, in.Amount, now)
	if err != nil {
		return nil, err
	}
	c.Description = in.Description
	c.BillingCodes = in.BillingCodes
	c.Attachments = in.Attachments
	c.ServiceDate = in.ServiceDate
	c.ServiceToken = in.ServiceToken
	c.TokenIssuedAt = in.TokenIssuedAt
	c.PatientHash = in.PatientHash

	hist, _ := o.gatherHistory(ctx, c)

	ruleRes := o.rules.Evaluate(rules.Input{
		Claim:                 c,
		PatientClaimsInWindow: hist.patientClaims,
		Provider:              hist.provider,
	})

	vec := o.extractor.Extract(features.Context{
		Claim:             c,
		PatientClaims6Mo:  hist.patientClaims,
		ProviderClaims6Mo: hist.providerClaims,
		Provider:          hist.provider,
		PriorDescriptions: hist.priorDescriptions,
		TokenReused:       hist.tokenReused,
		PatientHashReused: hist.patientHashReused,
		ExpectedAmount:    o.expectedAmount(c.Type),
	})

	mlRes := o.ml.Score(ctx, vec)
	res := &DiagnosticResult{
		Decision:  o.ml.Decide(mlRes),
		RuleScore: ruleRes.Score,
		RuleFlags: ruleRes.Flags,
		Degraded:  mlRes == nil,
	}
	if mlRes != nil {
		p := mlRes.Combined
		res.FraudProbability = &p
		res.ModelVersion = mlRes.ModelVersion
		res.Explanation = o.ml.Explain(vec)
	}
	return res, nil
}
