package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/intelligence/ensemble"
)

// FraudReport is the immutable audit record produced for every scored claim.
// Once stored it is never modified; the integrity digest lets auditors detect
// tampering with the persisted copy.
type FraudReport struct {
	ReportID string `json:"reportId"`
	ClaimID  string `json:"claimId"`

	RuleScore int      `json:"ruleScore"`
	RuleFlags []string `json:"ruleFlags,omitempty"`

	// Ensemble is nil when the ML path produced nothing.
	Ensemble    *ensemble.Result        `json:"ensemble,omitempty"`
	Explanation []ensemble.Attribution  `json:"explanation,omitempty"`

	FinalScore int             `json:"finalScore"`
	RiskLevel  claim.RiskLevel `json:"riskLevel"`

	Degraded       bool   `json:"degraded"`
	DegradedReason string `json:"degradedReason,omitempty"`
	ModelVersion   string `json:"modelVersion,omitempty"`

	GeneratedAt time.Time `json:"generatedAt"`

	// Digest is the sha256 over the canonical score/timestamp pair, written
	// at generation time.
	Digest string `json:"digest"`
}

// computeDigest hashes the canonical representation of the report's score and
// generation timestamp.  The canonical form is a fixed format string rather
// than marshalled JSON so that field ordering can never silently change the
// digest.
func computeDigest(score int, generatedAt time.Time) string {
	canonical := fmt.Sprintf(`{"score":%d,"timestamp":%q}`, score, generatedAt.UTC().Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// Seal stamps the integrity digest.  Call exactly once, after all scoring
// fields are final.
func (r *FraudReport) Seal() {
	r.Digest = computeDigest(r.FinalScore, r.GeneratedAt)
}

// VerifyDigest recomputes the digest and compares it to the stored value.
func (r *FraudReport) VerifyDigest() bool {
	return r.Digest == computeDigest(r.FinalScore, r.GeneratedAt)
}

// ReportStore persists fraud reports in content-addressed storage and
// retrieves them by key.  The MinIO adapter is the production implementation.
type ReportStore interface {
	// Store writes the report and returns its object key.
	Store(ctx context.Context, report *FraudReport) (string, error)

	// Get loads a report by object key, returning RPT_001 when absent.
	Get(ctx context.Context, key string) (*FraudReport, error)
}
