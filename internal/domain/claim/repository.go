package claim

import (
	"context"
	"time"
)

// ProviderStats is the aggregate view of a provider's claim history consumed
// by the rule engine and the feature extractor.
type ProviderStats struct {
	ProviderID     string
	TotalClaims    int
	ApprovedClaims int
	FlaggedClaims  int
	AvgAmount      float64
}

// ApprovalRate returns approved/total, or 1.0 for a provider with no history
// so that new providers are not penalised by the approval-rate rule.
func (s ProviderStats) ApprovalRate() float64 {
	if s.TotalClaims == 0 {
		return 1.0
	}
	return float64(s.ApprovedClaims) / float64(s.TotalClaims)
}

// StatusCount pairs a status with its claim count for the admin stats view.
type StatusCount struct {
	Status Status
	Count  int
}

// Repository is the persistence contract for claims.  The postgres adapter is
// the production implementation; tests use in-memory fakes.
type Repository interface {
	// Create persists a new claim.
	Create(ctx context.Context, c *Claim) error

	// GetByID returns the claim or a CLM_001 not-found error.
	GetByID(ctx context.Context, id string) (*Claim, error)

	// TransitionStatus atomically moves the claim from `from` to `to`,
	// recording the decision reason and timestamp.  It returns false when the
	// claim was not in `from` at update time, which makes sweeps and reviews
	// safe against lost updates.
	TransitionStatus(ctx context.Context, id string, from, to Status, reason string, at time.Time) (bool, error)

	// ListPendingByProvider returns the provider work queue: PENDING_PROVIDER
	// claims only.  Flagged claims must never appear here.
	ListPendingByProvider(ctx context.Context, providerID string) ([]*Claim, error)

	// ListAwaitingReview returns claims in ADMIN_REVIEW_REQUIRED.
	ListAwaitingReview(ctx context.Context) ([]*Claim, error)

	// ListReviewTimedOut returns ADMIN_REVIEW_REQUIRED claims whose
	// fraudDetectedAt is strictly before the cutoff.
	ListReviewTimedOut(ctx context.Context, cutoff time.Time) ([]*Claim, error)

	// CountByPatientSince counts a patient's claims created at or after since.
	CountByPatientSince(ctx context.Context, patientID string, since time.Time) (int, error)

	// CountByProviderSince counts a provider's claims created at or after since.
	CountByProviderSince(ctx context.Context, providerID string, since time.Time) (int, error)

	// GetProviderStats aggregates the provider's claim history.
	GetProviderStats(ctx context.Context, providerID string) (*ProviderStats, error)

	// CountTokenUse counts prior claims submitted with the same service token.
	CountTokenUse(ctx context.Context, token string, excludeClaimID string) (int, error)

	// CountPatientHashUse counts prior claims bound to the same patient hash
	// across different patients.
	CountPatientHashUse(ctx context.Context, patientHash string, excludePatientID string) (int, error)

	// ListPatientDescriptions returns the non-empty free-text descriptions of
	// the patient's prior claims, newest first, for the semantic text diff
	// feature.
	ListPatientDescriptions(ctx context.Context, patientID string, excludeClaimID string) ([]string, error)

	// StatusCounts returns per-status claim counts.
	StatusCounts(ctx context.Context) ([]StatusCount, error)

	// AvgFraudScore returns the mean fraud score across scored claims.
	AvgFraudScore(ctx context.Context) (float64, error)
}
