// Package claim defines the core claim aggregate: the entity itself, its
// status state machine, risk classification, and the repository contract.
// Everything here is persistence-agnostic; infrastructure adapters implement
// the Repository interface.
package claim

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medledger/claimguard/pkg/errors"
)

// Type is an open claim category.  The named constants are the categories the
// rule engine weights; any other non-empty value is accepted and simply
// contributes no type-rule points.
type Type string

const (
	TypeOutpatient      Type = "OUTPATIENT"
	TypePharmacy        Type = "PHARMACY"
	TypeSurgery         Type = "SURGERY"
	TypeHospitalization Type = "HOSPITALIZATION"
	TypeAccident        Type = "ACCIDENT"
	TypeOther           Type = "OTHER"
)

// AllowedAttachmentMIMETypes is the closed set of attachment content types
// that do not raise a rule flag.
var AllowedAttachmentMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
}

// Attachment is a supporting document submitted with a claim.
type Attachment struct {
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
	ObjectKey string `json:"objectKey,omitempty"`
}

// Allowed reports whether the attachment's MIME type is in the accepted set.
func (a Attachment) Allowed() bool {
	_, ok := AllowedAttachmentMIMETypes[strings.ToLower(a.MimeType)]
	return ok
}

// Claim is the aggregate root for an insurance claim moving through the fraud
// pipeline and the review workflow.
type Claim struct {
	ID         string `json:"id"`
	PatientID  string `json:"patientId"`
	ProviderID string `json:"providerId"`

	Type         Type         `json:"type"`
	Amount       float64      `json:"amount"`
	Description  string       `json:"description"`
	BillingCodes []string     `json:"billingCodes"`
	Attachments  []Attachment `json:"attachments"`

	// ServiceToken is the one-time token the patient presented at the point of
	// care; its age and reuse feed the feature extractor.
	ServiceToken  string    `json:"serviceToken,omitempty"`
	TokenIssuedAt time.Time `json:"tokenIssuedAt,omitempty"`
	// PatientHash is the sha256 of the patient's national identifier as bound
	// to the service token.
	PatientHash string `json:"patientHash,omitempty"`

	ServiceDate time.Time `json:"serviceDate"`
	CreatedAt   time.Time `json:"createdAt"`

	Status Status `json:"status"`

	// Scoring outcome, populated once by the orchestrator.
	FraudScore      int        `json:"fraudScore"`
	RiskLevel       RiskLevel  `json:"riskLevel"`
	FraudFlags      []string   `json:"fraudFlags,omitempty"`
	FraudDetectedAt *time.Time `json:"fraudDetectedAt,omitempty"`
	ReportObjectKey string     `json:"reportObjectKey,omitempty"`

	// Review outcome.
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`
	DecisionReason string     `json:"decisionReason,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewClaim constructs a claim in its initial state with a fresh UUID.
// Validation failures return CLM_* coded errors.
func NewClaim(patientID, providerID string, typ Type, amount float64, createdAt time.Time) (*Claim, error) {
	if amount <= 0 {
		return nil, errors.New(errors.ErrCodeClaimInvalidAmount, "claim amount must be positive")
	}
	typ = Type(strings.ToUpper(strings.TrimSpace(string(typ))))
	if typ == "" {
		return nil, errors.New(errors.ErrCodeClaimInvalidType, "claim type is required")
	}
	if patientID == "" || providerID == "" {
		return nil, errors.InvalidParam("patientId and providerId are required")
	}
	return &Claim{
		ID:         uuid.NewString(),
		PatientID:  patientID,
		ProviderID: providerID,
		Type:       typ,
		Amount:     amount,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
		Status:     StatusPendingProvider,
	}, nil
}

// HighRiskType reports whether the claim type contributes rule points.
// Surgery carries its own weight; hospitalization and accident share a lower one.
func (c *Claim) HighRiskType() bool {
	switch c.Type {
	case TypeSurgery, TypeHospitalization, TypeAccident:
		return true
	}
	return false
}
