// Package repositories provides the PostgreSQL-backed implementations of the
// domain repository interfaces.  Every method takes a context and uses
// parameterised queries exclusively.
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	appErrors "github.com/medledger/claimguard/pkg/errors"
)

const claimColumns = `
	id, patient_id, provider_id, claim_type, amount,
	description, billing_codes, attachments,
	service_token, token_issued_at, patient_hash, service_date,
	status, fraud_score, risk_level, fraud_flags, fraud_detected_at,
	report_object_key, decided_at, decision_reason, created_at, updated_at`

// ClaimRepository is the PostgreSQL implementation of claim.Repository.
type ClaimRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewClaimRepository constructs a ready-to-use ClaimRepository.
func NewClaimRepository(pool *pgxpool.Pool, log logging.Logger) *ClaimRepository {
	return &ClaimRepository{pool: pool, logger: log}
}

// Create persists a new claim.
func (r *ClaimRepository) Create(ctx context.Context, c *claim.Claim) error {
	attachments, err := json.Marshal(c.Attachments)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to encode attachments")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO claims (
			id, patient_id, provider_id, claim_type, amount,
			description, billing_codes, attachments,
			service_token, token_issued_at, patient_hash, service_date,
			status, fraud_score, risk_level, fraud_flags, fraud_detected_at,
			report_object_key, decided_at, decision_reason, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,
			$9,$10,$11,$12,
			$13,$14,$15,$16,$17,
			$18,$19,$20,$21,$22
		)`,
		c.ID, c.PatientID, c.ProviderID, string(c.Type), c.Amount,
		c.Description, c.BillingCodes, attachments,
		c.ServiceToken, nullableTime(c.TokenIssuedAt), c.PatientHash, nullableTime(c.ServiceDate),
		string(c.Status), c.FraudScore, c.RiskLevel.String(), c.FraudFlags, c.FraudDetectedAt,
		c.ReportObjectKey, c.DecidedAt, c.DecisionReason, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("ClaimRepository.Create failed",
			logging.String("claimId", c.ID), logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to insert claim")
	}
	return nil
}

// GetByID returns the claim or a CLM_001 not-found error.
func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*claim.Claim, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	c, err := scanClaim(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeClaimNotFound, "claim not found").WithDetail(id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to load claim")
	}
	return c, nil
}

// TransitionStatus atomically moves the claim between statuses.  The WHERE
// clause carries the expected current status, so a concurrent decision makes
// the update a no-op and the method reports false.
func (r *ClaimRepository) TransitionStatus(ctx context.Context, id string, from, to claim.Status, reason string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE claims SET
			status = $3, decision_reason = $4, decided_at = $5, updated_at = $5
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), reason, at,
	)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to transition claim status")
	}
	return tag.RowsAffected() == 1, nil
}

// ListPendingByProvider returns the provider work queue.  Only
// PENDING_PROVIDER claims are selected; flagged claims never reach providers.
func (r *ClaimRepository) ListPendingByProvider(ctx context.Context, providerID string) ([]*claim.Claim, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+claimColumns+`
		FROM claims
		WHERE provider_id = $1 AND status = $2
		ORDER BY created_at`,
		providerID, string(claim.StatusPendingProvider),
	)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list provider claims")
	}
	return collectClaims(rows)
}

// ListAwaitingReview returns claims in ADMIN_REVIEW_REQUIRED, oldest flag
// first.
func (r *ClaimRepository) ListAwaitingReview(ctx context.Context) ([]*claim.Claim, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+claimColumns+`
		FROM claims
		WHERE status = $1
		ORDER BY fraud_detected_at`,
		string(claim.StatusAdminReview),
	)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list claims awaiting review")
	}
	return collectClaims(rows)
}

// ListReviewTimedOut returns flagged claims whose fraud_detected_at is
// strictly before the cutoff.
func (r *ClaimRepository) ListReviewTimedOut(ctx context.Context, cutoff time.Time) ([]*claim.Claim, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+claimColumns+`
		FROM claims
		WHERE status = $1 AND fraud_detected_at < $2
		ORDER BY fraud_detected_at`,
		string(claim.StatusAdminReview), cutoff,
	)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list timed out claims")
	}
	return collectClaims(rows)
}

// CountByPatientSince counts a patient's claims created at or after since.
func (r *ClaimRepository) CountByPatientSince(ctx context.Context, patientID string, since time.Time) (int, error) {
	return r.count(ctx,
		`SELECT COUNT(*) FROM claims WHERE patient_id = $1 AND created_at >= $2`,
		patientID, since)
}

// CountByProviderSince counts a provider's claims created at or after since.
func (r *ClaimRepository) CountByProviderSince(ctx context.Context, providerID string, since time.Time) (int, error) {
	return r.count(ctx,
		`SELECT COUNT(*) FROM claims WHERE provider_id = $1 AND created_at >= $2`,
		providerID, since)
}

// GetProviderStats aggregates the provider's claim history in one query.
func (r *ClaimRepository) GetProviderStats(ctx context.Context, providerID string) (*claim.ProviderStats, error) {
	stats := &claim.ProviderStats{ProviderID: providerID}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE risk_level = 'HIGH'),
			COALESCE(AVG(amount), 0)
		FROM claims
		WHERE provider_id = $1`,
		providerID, string(claim.StatusApproved),
	).Scan(&stats.TotalClaims, &stats.ApprovedClaims, &stats.FlaggedClaims, &stats.AvgAmount)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to aggregate provider stats")
	}
	return stats, nil
}

// CountTokenUse counts other claims submitted with the same service token.
func (r *ClaimRepository) CountTokenUse(ctx context.Context, token, excludeClaimID string) (int, error) {
	return r.count(ctx,
		`SELECT COUNT(*) FROM claims WHERE service_token = $1 AND id <> $2`,
		token, excludeClaimID)
}

// CountPatientHashUse counts claims carrying the same patient hash under a
// different patient.
func (r *ClaimRepository) CountPatientHashUse(ctx context.Context, patientHash, excludePatientID string) (int, error) {
	return r.count(ctx,
		`SELECT COUNT(*) FROM claims WHERE patient_hash = $1 AND patient_id <> $2`,
		patientHash, excludePatientID)
}

// ListPatientDescriptions returns the patient's prior claim descriptions,
// newest first, skipping empty text.
func (r *ClaimRepository) ListPatientDescriptions(ctx context.Context, patientID, excludeClaimID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT description
		FROM claims
		WHERE patient_id = $1 AND id <> $2 AND description <> ''
		ORDER BY created_at DESC`,
		patientID, excludeClaimID,
	)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list claim descriptions")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan claim description")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to iterate claim descriptions")
	}
	return out, nil
}

// StatusCounts returns per-status claim counts.
func (r *ClaimRepository) StatusCounts(ctx context.Context) ([]claim.StatusCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM claims GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to count claims by status")
	}
	defer rows.Close()

	var out []claim.StatusCount
	for rows.Next() {
		var sc claim.StatusCount
		var status string
		if err := rows.Scan(&status, &sc.Count); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan status count")
		}
		sc.Status = claim.Status(status)
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to iterate status counts")
	}
	return out, nil
}

// AvgFraudScore returns the mean fraud score across all claims.
func (r *ClaimRepository) AvgFraudScore(ctx context.Context) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(fraud_score), 0) FROM claims`).Scan(&avg)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to compute average fraud score")
	}
	return avg, nil
}

func (r *ClaimRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "count query failed")
	}
	return n, nil
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func scanClaim(row pgx.Row) (*claim.Claim, error) {
	var (
		c             claim.Claim
		claimType     string
		status        string
		riskLevel     string
		attachments   []byte
		tokenIssuedAt *time.Time
		serviceDate   *time.Time
	)

	err := row.Scan(
		&c.ID, &c.PatientID, &c.ProviderID, &claimType, &c.Amount,
		&c.Description, &c.BillingCodes, &attachments,
		&c.ServiceToken, &tokenIssuedAt, &c.PatientHash, &serviceDate,
		&status, &c.FraudScore, &riskLevel, &c.FraudFlags, &c.FraudDetectedAt,
		&c.ReportObjectKey, &c.DecidedAt, &c.DecisionReason, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Type = claim.Type(claimType)
	c.Status = claim.Status(status)
	c.RiskLevel = claim.ParseRiskLevel(riskLevel)
	c.TokenIssuedAt = timeOrZero(tokenIssuedAt)
	c.ServiceDate = timeOrZero(serviceDate)

	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &c.Attachments); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to decode attachments")
		}
	}
	return &c, nil
}

func collectClaims(rows pgx.Rows) ([]*claim.Claim, error) {
	defer rows.Close()

	var out []*claim.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan claim")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to iterate claims")
	}
	return out, nil
}
