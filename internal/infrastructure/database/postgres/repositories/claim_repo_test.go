//go:build integration

// Package repositories_test provides integration tests for the PostgreSQL
// repository implementations.  Tests require Docker and are gated behind the
// "integration" build tag.
package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/infrastructure/database/postgres/repositories"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
)

// startPostgres launches a PostgreSQL 16 container and returns a connected pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "claimguard_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/claimguard_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applyClaimSchema(t, pool)
	return pool
}

func applyClaimSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	ddl := `
	CREATE TABLE IF NOT EXISTS patients (
		id               UUID PRIMARY KEY,
		full_name        TEXT        NOT NULL,
		email            TEXT        NOT NULL DEFAULT '',
		phone            TEXT        NOT NULL DEFAULT '',
		national_id_hash CHAR(64)    NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS claims (
		id                UUID PRIMARY KEY,
		patient_id        UUID        NOT NULL REFERENCES patients (id),
		provider_id       TEXT        NOT NULL,
		claim_type        TEXT        NOT NULL,
		amount            NUMERIC(14, 2) NOT NULL CHECK (amount > 0),
		description       TEXT        NOT NULL DEFAULT '',
		billing_codes     TEXT[]      NOT NULL DEFAULT '{}',
		attachments       JSONB       NOT NULL DEFAULT '[]',
		service_token     TEXT        NOT NULL DEFAULT '',
		token_issued_at   TIMESTAMPTZ,
		patient_hash      TEXT        NOT NULL DEFAULT '',
		service_date      TIMESTAMPTZ,
		status            TEXT        NOT NULL,
		fraud_score       INTEGER     NOT NULL DEFAULT 0,
		risk_level        TEXT        NOT NULL DEFAULT 'LOW',
		fraud_flags       TEXT[]      NOT NULL DEFAULT '{}',
		fraud_detected_at TIMESTAMPTZ,
		report_object_key TEXT        NOT NULL DEFAULT '',
		decided_at        TIMESTAMPTZ,
		decision_reason   TEXT        NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	);
	`
	_, err := pool.Exec(ctx, ddl)
	require.NoError(t, err)
}

func createTestPatient(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO patients (id, full_name, national_id_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		id, "Test Patient", fmt.Sprintf("%064d", 1), time.Now().UTC())
	require.NoError(t, err)
	return id
}

func newTestClaim(patientID, providerID string) *claim.Claim {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &claim.Claim{
		ID:           uuid.NewString(),
		PatientID:    patientID,
		ProviderID:   providerID,
		Type:         claim.TypeOutpatient,
		Amount:       1500,
		Description:  "acute bronchitis, consultation and chest x-ray",
		BillingCodes: []string{"B100", "B101"},
		Attachments:  []claim.Attachment{{Name: "invoice.pdf", MimeType: "application/pdf", SizeBytes: 2048}},
		FraudFlags:   []string{},
		ServiceDate:  now.Add(-24 * time.Hour),
		Status:       claim.StatusPendingProvider,
		RiskLevel:    claim.RiskLow,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestClaimRepository_CreateAndGetByID(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewClaimRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	patientID := createTestPatient(t, pool)
	c := newTestClaim(patientID, "provider-1")
	require.NoError(t, repo.Create(ctx, c))

	found, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.PatientID, found.PatientID)
	assert.Equal(t, c.Type, found.Type)
	assert.InDelta(t, c.Amount, found.Amount, 1e-9)
	assert.Equal(t, c.Description, found.Description)
	assert.Equal(t, c.BillingCodes, found.BillingCodes)
	require.Len(t, found.Attachments, 1)
	assert.Equal(t, "invoice.pdf", found.Attachments[0].Name)
	assert.Equal(t, claim.StatusPendingProvider, found.Status)
}

func TestClaimRepository_GetByID_NotFound(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewClaimRepository(pool, logging.NewNopLogger())

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	require.Error(t, err)
}

func TestClaimRepository_TransitionStatus_CompareAndSwap(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewClaimRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	patientID := createTestPatient(t, pool)
	c := newTestClaim(patientID, "provider-1")
	c.Status = claim.StatusAdminReview
	require.NoError(t, repo.Create(ctx, c))

	now := time.Now().UTC().Truncate(time.Microsecond)
	ok, err := repo.TransitionStatus(ctx, c.ID, claim.StatusAdminReview, claim.StatusRejected, "documents inconsistent", now)
	require.NoError(t, err)
	assert.True(t, ok)

	// A concurrent ruling already moved the claim: the stale expectation must
	// not overwrite the decision.
	ok, err = repo.TransitionStatus(ctx, c.ID, claim.StatusAdminReview, claim.StatusApproved, "late approval", now)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusRejected, found.Status)
	assert.Equal(t, "documents inconsistent", found.DecisionReason)
	require.NotNil(t, found.DecidedAt)
}

func TestClaimRepository_ListReviewTimedOut_StrictCutoff(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewClaimRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	patientID := createTestPatient(t, pool)
	cutoff := time.Now().UTC().Truncate(time.Microsecond)

	expired := newTestClaim(patientID, "provider-1")
	expired.Status = claim.StatusAdminReview
	before := cutoff.Add(-time.Second)
	expired.FraudDetectedAt = &before
	require.NoError(t, repo.Create(ctx, expired))

	// Flagged exactly at the cutoff: still within the window.
	boundary := newTestClaim(patientID, "provider-1")
	boundary.Status = claim.StatusAdminReview
	at := cutoff
	boundary.FraudDetectedAt = &at
	require.NoError(t, repo.Create(ctx, boundary))

	timedOut, err := repo.ListReviewTimedOut(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, timedOut, 1)
	assert.Equal(t, expired.ID, timedOut[0].ID)
}

func TestClaimRepository_ListPendingByProvider_ExcludesFlagged(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewClaimRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	patientID := createTestPatient(t, pool)

	pending := newTestClaim(patientID, "provider-1")
	require.NoError(t, repo.Create(ctx, pending))

	flagged := newTestClaim(patientID, "provider-1")
	flagged.Status = claim.StatusAdminReview
	require.NoError(t, repo.Create(ctx, flagged))

	other := newTestClaim(patientID, "provider-2")
	require.NoError(t, repo.Create(ctx, other))

	queue, err := repo.ListPendingByProvider(ctx, "provider-1")
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, pending.ID, queue[0].ID)
}

func TestClaimRepository_ListPatientDescriptions(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewClaimRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	patientID := createTestPatient(t, pool)

	older := newTestClaim(patientID, "provider-1")
	older.Description = "fractured left wrist, cast applied"
	older.CreatedAt = older.CreatedAt.Add(-48 * time.Hour)
	require.NoError(t, repo.Create(ctx, older))

	blank := newTestClaim(patientID, "provider-1")
	blank.Description = ""
	require.NoError(t, repo.Create(ctx, blank))

	current := newTestClaim(patientID, "provider-1")
	require.NoError(t, repo.Create(ctx, current))

	descs, err := repo.ListPatientDescriptions(ctx, patientID, current.ID)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, older.Description, descs[0])
}

func TestClaimRepository_GetProviderStats(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewClaimRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	patientID := createTestPatient(t, pool)

	approved := newTestClaim(patientID, "provider-1")
	approved.Status = claim.StatusApproved
	approved.Amount = 1000
	require.NoError(t, repo.Create(ctx, approved))

	high := newTestClaim(patientID, "provider-1")
	high.Status = claim.StatusAdminReview
	high.RiskLevel = claim.RiskHigh
	high.Amount = 3000
	require.NoError(t, repo.Create(ctx, high))

	stats, err := repo.GetProviderStats(ctx, "provider-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalClaims)
	assert.Equal(t, 1, stats.ApprovedClaims)
	assert.Equal(t, 1, stats.FlaggedClaims)
	assert.InDelta(t, 2000, stats.AvgAmount, 1e-6)
}
