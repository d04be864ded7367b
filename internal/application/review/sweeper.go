// Package review implements the human review workflow: approve and reject
// decisions over pending and flagged claims, the admin queues, and the
// timeout sweeper that auto-rejects flagged claims nobody decided in time.
package review

import (
	"context"
	"time"

	"github.com/medledger/claimguard/internal/config"
	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/domain/event"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
)

// AutoRejectReason is the decision reason recorded on every claim the
// sweeper rejects.
const AutoRejectReason = "Auto-rejected: fraud review timeout exceeded"

// SweepMetrics counts sweeper outcomes.
type SweepMetrics interface {
	ObserveSweep(rejected int)
}

type nopSweepMetrics struct{}

func (nopSweepMetrics) ObserveSweep(int) {}

// Sweeper auto-rejects claims that sat in admin review past the configured
// timeout.  Every rejection goes through the same compare-and-swap as a human
// decision, so a concurrent admin ruling always wins.
type Sweeper struct {
	repo    claim.Repository
	events  event.Publisher
	log     logging.Logger
	metrics SweepMetrics

	timeout  time.Duration
	interval time.Duration

	now func() time.Time
}

// SweeperOption customises the sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperEvents installs the event publisher.
func WithSweeperEvents(p event.Publisher) SweeperOption {
	return func(s *Sweeper) { s.events = p }
}

// WithSweeperLogger injects the logger.
func WithSweeperLogger(log logging.Logger) SweeperOption {
	return func(s *Sweeper) { s.log = log }
}

// WithSweeperMetrics installs the metrics recorder.
func WithSweeperMetrics(m SweepMetrics) SweeperOption {
	return func(s *Sweeper) { s.metrics = m }
}

// WithSweeperClock overrides the time source; tests pin it.
func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

// NewSweeper builds a sweeper from the review configuration.
func NewSweeper(repo claim.Repository, cfg config.ReviewConfig, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		repo:     repo,
		events:   event.NopPublisher{},
		log:      logging.NewNopLogger(),
		metrics:  nopSweepMetrics{},
		timeout:  cfg.Timeout,
		interval: cfg.SweepInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep rejects every flagged claim whose review deadline passed and returns
// the number rejected.  A claim flagged exactly at the deadline is left
// alone; only claims strictly past it are rejected.  The per-claim
// compare-and-swap makes repeated sweeps idempotent.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	cutoff := now.Add(-s.timeout)

	timedOut, err := s.repo.ListReviewTimedOut(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	rejected := 0
	for _, c := range timedOut {
		swapped, err := s.repo.TransitionStatus(ctx, c.ID,
			claim.StatusAdminReview, claim.StatusRejectedFraud, AutoRejectReason, now)
		if err != nil {
			s.log.Error("auto-reject transition failed",
				logging.String("claimId", c.ID), logging.Err(err))
			continue
		}
		if !swapped {
			// Someone decided the claim between the listing and the swap.
			continue
		}
		rejected++
		s.log.Info("claim auto-rejected after review timeout",
			logging.String("claimId", c.ID),
			logging.Int("fraudScore", c.FraudScore))

		if err := s.events.Publish(ctx, event.FraudEvent{
			Type:       event.TypeClaimAutoRejected,
			ClaimID:    c.ID,
			PatientID:  c.PatientID,
			ProviderID: c.ProviderID,
			Score:      c.FraudScore,
			RiskLevel:  c.RiskLevel.String(),
			OccurredAt: now,
		}); err != nil {
			s.log.Warn("auto-reject event publish failed",
				logging.String("claimId", c.ID), logging.Err(err))
		}
	}

	if rejected > 0 || len(timedOut) > 0 {
		s.log.Info("review timeout sweep finished",
			logging.Int("candidates", len(timedOut)),
			logging.Int("rejected", rejected))
	}
	s.metrics.ObserveSweep(rejected)
	return rejected, nil
}

// Run sweeps on the configured interval until the context is cancelled.
// The worker binary drives this loop.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Error("review timeout sweep failed", logging.Err(err))
			}
		}
	}
}
