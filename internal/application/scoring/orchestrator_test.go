package scoring

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medledger/claimguard/internal/config"
	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/domain/event"
	"github.com/medledger/claimguard/internal/intelligence/ensemble"
	"github.com/medledger/claimguard/internal/intelligence/features"
	"github.com/medledger/claimguard/internal/intelligence/rules"
	appErrors "github.com/medledger/claimguard/pkg/errors"
)

// fakeRepo is an in-memory claim.Repository with overridable behaviour.
type fakeRepo struct {
	claims map[string]*claim.Claim

	createFn           func(ctx context.Context, c *claim.Claim) error
	countPatientFn     func(ctx context.Context, patientID string, since time.Time) (int, error)
	countProviderFn    func(ctx context.Context, providerID string, since time.Time) (int, error)
	providerStatsFn    func(ctx context.Context, providerID string) (*claim.ProviderStats, error)
	countTokenFn       func(ctx context.Context, token, excludeClaimID string) (int, error)
	countPatientHashFn func(ctx context.Context, hash, excludePatientID string) (int, error)
	descriptionsFn     func(ctx context.Context, patientID, excludeClaimID string) ([]string, error)

	createCalls atomic.Int32
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{claims: make(map[string]*claim.Claim)}
}

func (r *fakeRepo) Create(ctx context.Context, c *claim.Claim) error {
	r.createCalls.Add(1)
	if r.createFn != nil {
		return r.createFn(ctx, c)
	}
	r.claims[c.ID] = c
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*claim.Claim, error) {
	c, ok := r.claims[id]
	if !ok {
		return nil, appErrors.New(appErrors.ErrCodeClaimNotFound, "claim not found")
	}
	return c, nil
}

func (r *fakeRepo) TransitionStatus(_ context.Context, id string, from, to claim.Status, reason string, at time.Time) (bool, error) {
	c, ok := r.claims[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	c.DecisionReason = reason
	c.DecidedAt = &at
	return true, nil
}

func (r *fakeRepo) ListPendingByProvider(_ context.Context, providerID string) ([]*claim.Claim, error) {
	var out []*claim.Claim
	for _, c := range r.claims {
		if c.ProviderID == providerID && c.Status == claim.StatusPendingProvider {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAwaitingReview(context.Context) ([]*claim.Claim, error) { return nil, nil }

func (r *fakeRepo) ListReviewTimedOut(context.Context, time.Time) ([]*claim.Claim, error) {
	return nil, nil
}

func (r *fakeRepo) CountByPatientSince(ctx context.Context, patientID string, since time.Time) (int, error) {
	if r.countPatientFn != nil {
		return r.countPatientFn(ctx, patientID, since)
	}
	return 0, nil
}

func (r *fakeRepo) CountByProviderSince(ctx context.Context, providerID string, since time.Time) (int, error) {
	if r.countProviderFn != nil {
		return r.countProviderFn(ctx, providerID, since)
	}
	return 0, nil
}

func (r *fakeRepo) GetProviderStats(ctx context.Context, providerID string) (*claim.ProviderStats, error) {
	if r.providerStatsFn != nil {
		return r.providerStatsFn(ctx, providerID)
	}
	return &claim.ProviderStats{ProviderID: providerID}, nil
}

func (r *fakeRepo) CountTokenUse(ctx context.Context, token, excludeClaimID string) (int, error) {
	if r.countTokenFn != nil {
		return r.countTokenFn(ctx, token, excludeClaimID)
	}
	return 0, nil
}

func (r *fakeRepo) CountPatientHashUse(ctx context.Context, hash, excludePatientID string) (int, error) {
	if r.countPatientHashFn != nil {
		return r.countPatientHashFn(ctx, hash, excludePatientID)
	}
	return 0, nil
}

func (r *fakeRepo) ListPatientDescriptions(ctx context.Context, patientID, excludeClaimID string) ([]string, error) {
	if r.descriptionsFn != nil {
		return r.descriptionsFn(ctx, patientID, excludeClaimID)
	}
	return nil, nil
}

func (r *fakeRepo) StatusCounts(context.Context) ([]claim.StatusCount, error) { return nil, nil }

func (r *fakeRepo) AvgFraudScore(context.Context) (float64, error) { return 0, nil }

// fakeReportStore keeps reports in a map keyed by report ID.
type fakeReportStore struct {
	stored  map[string]*FraudReport
	storeFn func(ctx context.Context, report *FraudReport) (string, error)
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{stored: make(map[string]*FraudReport)}
}

func (s *fakeReportStore) Store(ctx context.Context, report *FraudReport) (string, error) {
	if s.storeFn != nil {
		return s.storeFn(ctx, report)
	}
	key := "reports/" + report.ReportID + ".json"
	s.stored[key] = report
	return key, nil
}

func (s *fakeReportStore) Get(_ context.Context, key string) (*FraudReport, error) {
	rep, ok := s.stored[key]
	if !ok {
		return nil, appErrors.New(appErrors.ErrCodeReportNotFound, "report not found")
	}
	return rep, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	events []event.FraudEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev event.FraudEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

// constInference is an ensemble.InferenceBackend returning fixed outputs.
type constInference struct {
	name string
	out  []float64
	err  error
}

func (b *constInference) Name() string { return b.name }

func (b *constInference) Run(context.Context, []float64) ([]float64, error) {
	return b.out, b.err
}

func testConfigs() (config.RuleWeightsConfig, config.ScoringConfig) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg.Fraud.Rules, cfg.Scoring
}

func classifierEnsemble(p float64) *ensemble.Scorer {
	return ensemble.NewScorer(nil, ensemble.DefaultPolicy(),
		ensemble.WithClassifier(&constInference{name: "rf", out: []float64{p}}))
}

func emptyEnsemble() *ensemble.Scorer {
	return ensemble.NewScorer(nil, ensemble.DefaultPolicy())
}

func testOrchestrator(repo *fakeRepo, ml *ensemble.Scorer, opts ...OrchestratorOption) (*Orchestrator, *fakeReportStore, *fakePublisher) {
	ruleCfg, scoringCfg := testConfigs()
	reports := newFakeReportStore()
	pub := &fakePublisher{}
	base := []OrchestratorOption{
		WithEventPublisher(pub),
		WithClock(func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }),
	}
	o := NewOrchestrator(repo, repo, rules.NewScorer(ruleCfg), features.NewExtractor(), ml,
		reports, ruleCfg, scoringCfg, append(base, opts...)...)
	return o, reports, pub
}

func submitInput() SubmitInput {
	return SubmitInput{
		PatientID:    "patient-1",
		ProviderID:   "provider-1",
		Type:         claim.TypeOutpatient,
		Amount:       1200,
		Description:  "acute bronchitis, consultation and chest x-ray",
		BillingCodes: []string{"B100", "B101"},
		Attachments:  []claim.Attachment{{Name: "invoice.pdf", MimeType: "application/pdf"}},
		ServiceDate:  time.Date(2026, 3, 9, 9, 30, 0, 0, time.UTC),
	}
}

func TestSubmitClaim_HighRiskRoutesToAdminReview(t *testing.T) {
	repo := newFakeRepo()
	o, reports, pub := testOrchestrator(repo, classifierEnsemble(0.85))

	c, report, err := o.SubmitClaim(context.Background(), submitInput())
	require.NoError(t, err)

	assert.Equal(t, 85, c.FraudScore)
	assert.Equal(t, claim.RiskHigh, c.RiskLevel)
	assert.Equal(t, claim.StatusAdminReview, c.Status)
	require.NotNil(t, c.FraudDetectedAt)
	assert.Equal(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), *c.FraudDetectedAt)

	assert.Equal(t, 85, report.FinalScore)
	assert.True(t, report.VerifyDigest())
	assert.NotEmpty(t, c.ReportObjectKey)
	assert.Contains(t, reports.stored, c.ReportObjectKey)

	require.Len(t, pub.events, 1)
	assert.Equal(t, event.TypeClaimFlagged, pub.events[0].Type)
	assert.Equal(t, c.ID, pub.events[0].ClaimID)
	assert.Equal(t, 85, pub.events[0].Score)

	stored, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusAdminReview, stored.Status)
}

func TestSubmitClaim_LowRiskStaysPending(t *testing.T) {
	repo := newFakeRepo()
	o, _, pub := testOrchestrator(repo, classifierEnsemble(0.1))

	c, report, err := o.SubmitClaim(context.Background(), submitInput())
	require.NoError(t, err)

	assert.Equal(t, 10, c.FraudScore)
	assert.Equal(t, claim.RiskLow, c.RiskLevel)
	assert.Equal(t, claim.StatusPendingProvider, c.Status)
	assert.Nil(t, c.FraudDetectedAt)
	assert.Empty(t, pub.events)
	assert.False(t, report.Degraded)
}

func TestSubmitClaim_MediumBoundary(t *testing.T) {
	repo := newFakeRepo()
	o, _, _ := testOrchestrator(repo, classifierEnsemble(0.31))

	c, _, err := o.SubmitClaim(context.Background(), submitInput())
	require.NoError(t, err)
	assert.Equal(t, 31, c.FraudScore)
	assert.Equal(t, claim.RiskMedium, c.RiskLevel)
	assert.Equal(t, claim.StatusPendingProvider, c.Status)
}

func TestSubmitClaim_EnsembleDownFallsBackToRules(t *testing.T) {
	repo := newFakeRepo()
	o, _, _ := testOrchestrator(repo, emptyEnsemble())

	in := submitInput()
	in.Amount = 120000
	in.Type = claim.TypeSurgery
	in.Attachments = nil

	c, report, err := o.SubmitClaim(context.Background(), in)
	require.NoError(t, err)

	// Rule engine alone: high amount 25, surgery 15, no attachments 5.
	assert.Equal(t, 45, c.FraudScore)
	assert.Equal(t, claim.RiskMedium, c.RiskLevel)
	assert.True(t, report.Degraded)
	assert.Contains(t, report.DegradedReason, "model ensemble unavailable")
	assert.Equal(t, 45, report.RuleScore)
	assert.Nil(t, report.Ensemble)
}

func TestSubmitClaim_HistoryFailureDegradesNotFails(t *testing.T) {
	repo := newFakeRepo()
	repo.countPatientFn = func(context.Context, string, time.Time) (int, error) {
		return 0, assert.AnError
	}
	repo.providerStatsFn = func(context.Context, string) (*claim.ProviderStats, error) {
		return nil, assert.AnError
	}
	o, _, _ := testOrchestrator(repo, classifierEnsemble(0.2))

	c, report, err := o.SubmitClaim(context.Background(), submitInput())
	require.NoError(t, err)
	assert.True(t, report.Degraded)
	assert.Contains(t, report.DegradedReason, "patient history unavailable")
	assert.Contains(t, report.DegradedReason, "provider aggregates unavailable")
	assert.Equal(t, claim.StatusPendingProvider, c.Status)
}

func TestSubmitClaim_ReportStoreFailureIsNonFatal(t *testing.T) {
	repo := newFakeRepo()
	o, reports, _ := testOrchestrator(repo, classifierEnsemble(0.9))
	reports.storeFn = func(context.Context, *FraudReport) (string, error) {
		return "", assert.AnError
	}

	c, _, err := o.SubmitClaim(context.Background(), submitInput())
	require.NoError(t, err)
	assert.Empty(t, c.ReportObjectKey)
	assert.Equal(t, int32(1), repo.createCalls.Load())
}

func TestSubmitClaim_PersistFailureIsFatal(t *testing.T) {
	repo := newFakeRepo()
	repo.createFn = func(context.Context, *claim.Claim) error { return assert.AnError }
	o, _, pub := testOrchestrator(repo, classifierEnsemble(0.9))

	_, _, err := o.SubmitClaim(context.Background(), submitInput())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCodeDatabaseError, appErrors.GetCode(err))
	assert.Empty(t, pub.events)
}

func TestSubmitClaim_PublishFailureIsNonFatal(t *testing.T) {
	repo := newFakeRepo()
	o, _, pub := testOrchestrator(repo, classifierEnsemble(0.9))
	pub.err = assert.AnError

	c, _, err := o.SubmitClaim(context.Background(), submitInput())
	require.NoError(t, err)
	assert.Equal(t, claim.StatusAdminReview, c.Status)
}

func TestSubmitClaim_RejectsInvalidInput(t *testing.T) {
	repo := newFakeRepo()
	o, _, _ := testOrchestrator(repo, classifierEnsemble(0.5))

	in := submitInput()
	in.Amount = -5
	_, _, err := o.SubmitClaim(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCodeClaimInvalidAmount, appErrors.GetCode(err))
	assert.Equal(t, int32(0), repo.createCalls.Load())
}

func TestSubmitClaim_TokenReuseFeedsFeatures(t *testing.T) {
	repo := newFakeRepo()
	var gotToken string
	repo.countTokenFn = func(_ context.Context, token, _ string) (int, error) {
		gotToken = token
		return 2, nil
	}
	o, _, _ := testOrchestrator(repo, classifierEnsemble(0.1))

	in := submitInput()
	in.ServiceToken = "tok-123"
	_, _, err := o.SubmitClaim(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", gotToken)
}

func TestSubmitClaim_PriorDescriptionsFeedFeatures(t *testing.T) {
	repo := newFakeRepo()
	var gotPatient, gotExclude string
	repo.descriptionsFn = func(_ context.Context, patientID, excludeClaimID string) ([]string, error) {
		gotPatient = patientID
		gotExclude = excludeClaimID
		return []string{"acute bronchitis, consultation and chest x-ray"}, nil
	}
	o, _, _ := testOrchestrator(repo, classifierEnsemble(0.1))

	c, _, err := o.SubmitClaim(context.Background(), submitInput())
	require.NoError(t, err)
	assert.Equal(t, "patient-1", gotPatient)
	assert.Equal(t, c.ID, gotExclude)
}

func TestSubmitClaim_DescriptionHistoryFailureDegrades(t *testing.T) {
	repo := newFakeRepo()
	repo.descriptionsFn = func(context.Context, string, string) ([]string, error) {
		return nil, assert.AnError
	}
	o, _, _ := testOrchestrator(repo, classifierEnsemble(0.2))

	_, report, err := o.SubmitClaim(context.Background(), submitInput())
	require.NoError(t, err)
	assert.True(t, report.Degraded)
	assert.Contains(t, report.DegradedReason, "patient description history unavailable")
}

func TestScoreDiagnostic_WithModel(t *testing.T) {
	repo := newFakeRepo()
	o, _, _ := testOrchestrator(repo, classifierEnsemble(0.72))

	res, err := o.ScoreDiagnostic(context.Background(), submitInput())
	require.NoError(t, err)

	require.NotNil(t, res.FraudProbability)
	assert.InDelta(t, 0.72, *res.FraudProbability, 1e-9)
	assert.Equal(t, ensemble.DecisionAutoFlag, res.Decision)
	assert.Len(t, res.Explanation, 3)
	assert.False(t, res.Degraded)
	// Nothing persisted on the diagnostic path.
	assert.Equal(t, int32(0), repo.createCalls.Load())
}

func TestScoreDiagnostic_DegradedFallsBackToRules(t *testing.T) {
	repo := newFakeRepo()
	o, _, _ := testOrchestrator(repo, emptyEnsemble())

	in := submitInput()
	in.Amount = 120000
	in.Type = claim.TypeSurgery
	in.Attachments = nil

	res, err := o.ScoreDiagnostic(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, res.FraudProbability)
	assert.Equal(t, ensemble.DecisionFallbackRules, res.Decision)
	assert.True(t, res.Degraded)
	assert.Equal(t, 45, res.RuleScore)
	assert.Contains(t, res.RuleFlags, rules.FlagHighAmount100K)
}
