package client

import "time"

// Claim mirrors the claim resource on the wire.
type Claim struct {
	ID         string  `json:"id"`
	PatientID  string  `json:"patientId"`
	ProviderID string  `json:"providerId"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`

	Description  string       `json:"description,omitempty"`
	BillingCodes []string     `json:"billingCodes,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`

	ServiceDate   time.Time `json:"serviceDate"`
	ServiceToken  string    `json:"serviceToken,omitempty"`
	TokenIssuedAt time.Time `json:"tokenIssuedAt,omitempty"`
	PatientHash   string    `json:"patientHash,omitempty"`

	Status string `json:"status"`

	FraudScore int      `json:"fraudScore"`
	RiskLevel  string   `json:"riskLevel"`
	FraudFlags []string `json:"fraudFlags,omitempty"`

	FraudDetectedAt *time.Time `json:"fraudDetectedAt,omitempty"`
	ReportObjectKey string     `json:"reportObjectKey,omitempty"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
	DecisionReason  string     `json:"decisionReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Attachment is claim supporting-document metadata.
type Attachment struct {
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// SubmitClaimRequest is the claim submission payload.
type SubmitClaimRequest struct {
	PatientID     string       `json:"patientId"`
	ProviderID    string       `json:"providerId"`
	Type          string       `json:"type"`
	Amount        float64      `json:"amount"`
	Description   string       `json:"description,omitempty"`
	BillingCodes  []string     `json:"billingCodes,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	ServiceDate   time.Time    `json:"serviceDate,omitempty"`
	ServiceToken  string       `json:"serviceToken,omitempty"`
	TokenIssuedAt time.Time    `json:"tokenIssuedAt,omitempty"`
	PatientHash   string       `json:"patientHash,omitempty"`
}

// SubmitClaimResponse carries the scored claim and the degraded marker.
type SubmitClaimResponse struct {
	Claim    *Claim `json:"claim"`
	Degraded bool   `json:"degraded"`
}

// ClaimList is a queue listing.
type ClaimList struct {
	Claims []*Claim `json:"claims"`
	Count  int      `json:"count"`
}

// FraudReport is the admin-facing scoring evidence for one claim.
type FraudReport struct {
	ReportID string `json:"reportId"`
	ClaimID  string `json:"claimId"`

	RuleScore int      `json:"ruleScore"`
	RuleFlags []string `json:"ruleFlags,omitempty"`

	Ensemble    *EnsembleResult `json:"ensemble,omitempty"`
	Explanation []Attribution   `json:"explanation,omitempty"`

	FinalScore int    `json:"finalScore"`
	RiskLevel  string `json:"riskLevel"`

	Degraded       bool   `json:"degraded"`
	DegradedReason string `json:"degradedReason,omitempty"`
	ModelVersion   string `json:"modelVersion,omitempty"`

	GeneratedAt time.Time `json:"generatedAt"`
	Digest      string    `json:"digest"`
}

// EnsembleResult is the combined model output inside a fraud report.
type EnsembleResult struct {
	Combined      float64  `json:"combined"`
	RFProbability *float64 `json:"rfProbability,omitempty"`
	AnomalyScore  *float64 `json:"anomalyScore,omitempty"`
	ModelVersion  string   `json:"modelVersion"`
	Backends      []string `json:"backends"`
}

// Attribution is one feature's contribution to the model score.
type Attribution struct {
	Feature     string  `json:"feature"`
	Value       float64 `json:"value"`
	ZScore      float64 `json:"zscore"`
	Importance  float64 `json:"importance"`
	Attribution float64 `json:"attribution"`
}

// DiagnosticResult is the stateless scoring probe output.
type DiagnosticResult struct {
	FraudProbability *float64      `json:"fraudProbability,omitempty"`
	Decision         string        `json:"decision"`
	ModelVersion     string        `json:"modelVersion,omitempty"`
	Explanation      []Attribution `json:"explanation,omitempty"`
	RuleScore        int           `json:"ruleScore"`
	RuleFlags        []string      `json:"ruleFlags,omitempty"`
	Degraded         bool          `json:"degraded"`
}

// Patient mirrors the patient resource on the wire.  The national ID is
// stored and returned only as a digest.
type Patient struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	NationalIDHash string    `json:"nationalIdHash"`
	CreatedAt      time.Time `json:"createdAt"`
}

// RegisterPatientRequest is the registration payload.
type RegisterPatientRequest struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	NationalID string `json:"nationalId"`
}

// RegisterPatientResult reports the registration outcome including the
// identity screening verdict.
type RegisterPatientResult struct {
	Patient   *Patient        `json:"patient,omitempty"`
	Screening ScreeningResult `json:"screening"`
	Blocked   bool            `json:"blocked"`
}

// ScreeningResult is the identity match verdict.
type ScreeningResult struct {
	Score   int      `json:"score"`
	Flags   []string `json:"flags,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	ByStatus      map[string]int `json:"byStatus"`
	TotalClaims   int            `json:"totalClaims"`
	AvgFraudScore float64        `json:"avgFraudScore"`
}

// DecisionRequest carries the reviewer's reason for a ruling.
type DecisionRequest struct {
	Reason string `json:"reason,omitempty"`
}
