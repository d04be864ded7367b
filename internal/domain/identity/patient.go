// Package identity holds the patient identity aggregate and the
// identity-fraud matcher that screens new registrations against the existing
// population.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"
)

// Patient is a registered insured person.  The raw national identifier is
// never stored; only its sha256 digest is kept for duplicate detection.
type Patient struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	NationalIDHash string    `json:"nationalIdHash"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HashNationalID returns the lower-case hex sha256 digest of the trimmed
// national identifier.
func HashNationalID(nationalID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(nationalID)))
	return hex.EncodeToString(sum[:])
}

// NormalizeEmail lower-cases and trims an email for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips everything but digits so that formatting differences
// ("+1 (555) 010-0100" vs "15550100100") do not defeat duplicate detection.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Repository is the persistence contract for patients.
type Repository interface {
	// Create persists a new patient.
	Create(ctx context.Context, p *Patient) error

	// GetByID returns the patient or an IDN_001 not-found error.
	GetByID(ctx context.Context, id string) (*Patient, error)

	// ListAll returns the full registered population for identity screening.
	ListAll(ctx context.Context) ([]*Patient, error)

	// ExistsByNationalIDHash reports whether the digest is already registered.
	ExistsByNationalIDHash(ctx context.Context, hash string) (bool, error)
}
