// Package registration screens new patient identities against the existing
// population and blocks registrations that look like duplicate identities.
package registration

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medledger/claimguard/internal/config"
	"github.com/medledger/claimguard/internal/domain/identity"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	"github.com/medledger/claimguard/pkg/errors"
)

// Input is the raw registration payload before normalisation.
type Input struct {
	FullName   string
	Email      string
	Phone      string
	NationalID string
}

// Result reports the outcome of a registration attempt.  Screening is
// returned even on success so callers can surface soft signals.
type Result struct {
	Patient   *identity.Patient    `json:"patient,omitempty"`
	Screening identity.MatchResult `json:"screening"`
	Blocked   bool                 `json:"blocked"`
}

// Service registers patients after identity screening.
type Service struct {
	patients       identity.Repository
	matcher        *identity.Matcher
	blockThreshold int
	log            logging.Logger
	now            func() time.Time
}

// ServiceOption customises the service.
type ServiceOption func(*Service)

// WithLogger injects the logger.
func WithLogger(log logging.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the time source; tests pin it.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService builds the registration service from the identity match
// configuration.
func NewService(patients identity.Repository, cfg config.IdentityMatchConfig, opts ...ServiceOption) *Service {
	s := &Service{
		patients: patients,
		matcher: identity.NewMatcher(identity.MatchWeights{
			NationalID:              cfg.NationalIDScore,
			Email:                   cfg.EmailScore,
			Phone:                   cfg.PhoneScore,
			SimilarName:             cfg.SimilarNameScore,
			NameSimilarityThreshold: cfg.NameSimilarityThreshold,
		}),
		blockThreshold: cfg.BlockThreshold,
		log:            logging.NewNopLogger(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register screens the candidate against every existing patient and either
// blocks the registration (IDN_003, score at or above the block threshold) or
// persists the new patient.  The national identifier is stored only as its
// sha256 digest.
func (s *Service) Register(ctx context.Context, in Input) (*Result, error) {
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" || strings.TrimSpace(in.NationalID) == "" {
		return nil, errors.New(errors.ErrCodeIdentityInvalidInput,
			"fullName and nationalId are required")
	}

	population, err := s.patients.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load patient population")
	}

	candidate := identity.NewCandidate(fullName, in.Email, in.Phone, in.NationalID)
	screening := s.matcher.Match(candidate, population)

	if screening.Score >= s.blockThreshold {
		s.log.Warn("registration blocked by identity screening",
			logging.Int("score", screening.Score),
			logging.Any("flags", screening.Flags))
		return &Result{Screening: screening, Blocked: true},
			errors.New(errors.ErrCodeIdentityFraudSuspected,
				"registration blocked by identity screening").
				WithDetail(strings.Join(screening.Reasons, "; "))
	}

	p := &identity.Patient{
		ID:             uuid.NewString(),
		FullName:       fullName,
		Email:          identity.NormalizeEmail(in.Email),
		Phone:          identity.NormalizePhone(in.Phone),
		NationalIDHash: candidate.NationalIDHash,
		CreatedAt:      s.now(),
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to persist patient")
	}

	s.log.Info("patient registered",
		logging.String("patientId", p.ID),
		logging.Int("screeningScore", screening.Score))

	return &Result{Patient: p, Screening: screening, Blocked: false}, nil
}
