package review

import (
	"context"
	"time"

	"github.com/medledger/claimguard/internal/application/scoring"
	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	"github.com/medledger/claimguard/pkg/errors"
)

// Stats is the admin dashboard aggregate.
type Stats struct {
	ByStatus      map[claim.Status]int `json:"byStatus"`
	TotalClaims   int                  `json:"totalClaims"`
	AvgFraudScore float64              `json:"avgFraudScore"`
}

// Service exposes the review workflow: work queues, human decisions, report
// retrieval, and the admin stats view.  Admin queue reads run a lazy sweep
// first so an idle worker never leaves expired claims visible.
type Service struct {
	repo    claim.Repository
	reports scoring.ReportStore
	sweeper *Sweeper
	log     logging.Logger
	now     func() time.Time
}

// ServiceOption customises the service.
type ServiceOption func(*Service)

// WithServiceLogger injects the logger.
func WithServiceLogger(log logging.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithServiceClock overrides the time source; tests pin it.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService wires the review workflow.
func NewService(repo claim.Repository, reports scoring.ReportStore, sweeper *Sweeper, opts ...ServiceOption) *Service {
	s := &Service{
		repo:    repo,
		reports: reports,
		sweeper: sweeper,
		log:     logging.NewNopLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetClaim returns a claim by ID.
func (s *Service) GetClaim(ctx context.Context, id string) (*claim.Claim, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProviderQueue returns the provider's work queue.  Only claims in
// PENDING_PROVIDER appear; flagged claims stay invisible to providers until
// an admin clears them.
func (s *Service) ListProviderQueue(ctx context.Context, providerID string) ([]*claim.Claim, error) {
	if providerID == "" {
		return nil, errors.InvalidParam("providerId is required")
	}
	return s.repo.ListPendingByProvider(ctx, providerID)
}

// ListAdminQueue returns the flagged claims awaiting an admin ruling, after
// sweeping out any whose review deadline already passed.
func (s *Service) ListAdminQueue(ctx context.Context) ([]*claim.Claim, error) {
	if s.sweeper != nil {
		if _, err := s.sweeper.Sweep(ctx); err != nil {
			// A failed sweep only means some expired claims may still show up.
			s.log.Warn("lazy sweep before admin listing failed", logging.Err(err))
		}
	}
	return s.repo.ListAwaitingReview(ctx)
}

// Approve moves a claim to APPROVED.  Works from both the provider queue and
// the admin review queue.
func (s *Service) Approve(ctx context.Context, claimID, reason string) (*claim.Claim, error) {
	return s.decide(ctx, claimID, claim.StatusApproved, reason)
}

// Reject moves a claim to REJECTED.  Human rulings always land here;
// REJECTED_FRAUD is written only by the timeout sweeper.
func (s *Service) Reject(ctx context.Context, claimID, reason string) (*claim.Claim, error) {
	return s.decide(ctx, claimID, claim.StatusRejected, reason)
}

// decide applies a human ruling through the same compare-and-swap the sweeper
// uses.  A lost race against the sweeper or another reviewer surfaces as
// CLM_005.
func (s *Service) decide(ctx context.Context, claimID string, to claim.Status, reason string) (*claim.Claim, error) {
	c, err := s.repo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := claim.EnsureTransition(c.Status, to); err != nil {
		return nil, err
	}

	now := s.now()
	swapped, err := s.repo.TransitionStatus(ctx, c.ID, c.Status, to, reason, now)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record decision")
	}
	if !swapped {
		return nil, errors.New(errors.ErrCodeClaimAlreadyDecided,
			"claim was decided concurrently").WithDetail(claimID)
	}

	s.log.Info("claim decided",
		logging.String("claimId", c.ID),
		logging.String("from", string(c.Status)),
		logging.String("to", string(to)))

	c.Status = to
	c.DecidedAt = &now
	c.DecisionReason = reason
	c.UpdatedAt = now
	return c, nil
}

// GetReport loads the fraud report attached to a claim and verifies its
// integrity digest.  A digest mismatch is reported as RPT_003 since it means
// the stored object no longer matches what scoring sealed.
func (s *Service) GetReport(ctx context.Context, claimID string) (*scoring.FraudReport, error) {
	c, err := s.repo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if c.ReportObjectKey == "" {
		return nil, errors.New(errors.ErrCodeReportNotFound,
			"claim has no fraud report").WithDetail(claimID)
	}
	rep, err := s.reports.Get(ctx, c.ReportObjectKey)
	if err != nil {
		return nil, err
	}
	if !rep.VerifyDigest() {
		return nil, errors.New(errors.ErrCodeReportDigestMismatch,
			"fraud report failed integrity verification").WithDetail(c.ReportObjectKey)
	}
	return rep, nil
}

// GetStats aggregates claim counts by status and the mean fraud score.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to aggregate status counts")
	}
	avg, err := s.repo.AvgFraudScore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to compute average fraud score")
	}

	stats := &Stats{ByStatus: make(map[claim.Status]int, len(counts)), AvgFraudScore: avg}
	for _, sc := range counts {
		stats.ByStatus[sc.Status] = sc.Count
		stats.TotalClaims += sc.Count
	}
	return stats, nil
}
