package repositories

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medledger/claimguard/internal/domain/identity"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	appErrors "github.com/medledger/claimguard/pkg/errors"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// PatientRepository is the PostgreSQL implementation of identity.Repository.
type PatientRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPatientRepository constructs a ready-to-use PatientRepository.
func NewPatientRepository(pool *pgxpool.Pool, log logging.Logger) *PatientRepository {
	return &PatientRepository{pool: pool, logger: log}
}

// Create persists a new patient.  A duplicate national ID digest surfaces as
// IDN_002 thanks to the unique index, closing the race between screening and
// insert.
func (r *PatientRepository) Create(ctx context.Context, p *identity.Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, full_name, email, phone, national_id_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.FullName, p.Email, p.Phone, p.NationalIDHash, p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return appErrors.New(appErrors.ErrCodePatientAlreadyExists,
				"national ID is already registered")
		}
		r.logger.Error("PatientRepository.Create failed",
			logging.String("patientId", p.ID), logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to insert patient")
	}
	return nil
}

// GetByID returns the patient or an IDN_001 not-found error.
func (r *PatientRepository) GetByID(ctx context.Context, id string) (*identity.Patient, error) {
	var p identity.Patient
	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, email, phone, national_id_hash, created_at
		FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.NationalIDHash, &p.CreatedAt)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodePatientNotFound, "patient not found").WithDetail(id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to load patient")
	}
	return &p, nil
}

// ListAll returns the full registered population for identity screening.
func (r *PatientRepository) ListAll(ctx context.Context) ([]*identity.Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, email, phone, national_id_hash, created_at
		FROM patients ORDER BY created_at`)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list patients")
	}
	defer rows.Close()

	var out []*identity.Patient
	for rows.Next() {
		var p identity.Patient
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.NationalIDHash, &p.CreatedAt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan patient")
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to iterate patients")
	}
	return out, nil
}

// ExistsByNationalIDHash reports whether the digest is already registered.
func (r *PatientRepository) ExistsByNationalIDHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE national_id_hash = $1)`, hash,
	).Scan(&exists)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to check national ID digest")
	}
	return exists, nil
}
