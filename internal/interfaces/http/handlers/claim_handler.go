package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medledger/claimguard/internal/application/review"
	"github.com/medledger/claimguard/internal/application/scoring"
	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
)

// ClaimScorer is the scoring use case consumed by the handler.
type ClaimScorer interface {
	SubmitClaim(ctx context.Context, in scoring.SubmitInput) (*claim.Claim, *scoring.FraudReport, error)
	ScoreDiagnostic(ctx context.Context, in scoring.SubmitInput) (*scoring.DiagnosticResult, error)
}

// Reviewer is the review workflow consumed by the claim and admin handlers.
type Reviewer interface {
	GetClaim(ctx context.Context, id string) (*claim.Claim, error)
	ListProviderQueue(ctx context.Context, providerID string) ([]*claim.Claim, error)
	ListAdminQueue(ctx context.Context) ([]*claim.Claim, error)
	Approve(ctx context.Context, claimID, reason string) (*claim.Claim, error)
	Reject(ctx context.Context, claimID, reason string) (*claim.Claim, error)
	GetReport(ctx context.Context, claimID string) (*scoring.FraudReport, error)
	GetStats(ctx context.Context) (*review.Stats, error)
}

// ClaimHandler serves claim submission, lookup, queues, and provider
// decisions.
type ClaimHandler struct {
	scorer ClaimScorer
	review Reviewer
	logger logging.Logger
}

// NewClaimHandler constructs the handler.
func NewClaimHandler(scorer ClaimScorer, review Reviewer, log logging.Logger) *ClaimHandler {
	return &ClaimHandler{scorer: scorer, review: review, logger: log}
}

type attachmentPayload struct {
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

type submitClaimRequest struct {
	PatientID     string              `json:"patientId"`
	ProviderID    string              `json:"providerId"`
	Type          string              `json:"type"`
	Amount        float64             `json:"amount"`
	Description   string              `json:"description"`
	BillingCodes  []string            `json:"billingCodes"`
	Attachments   []attachmentPayload `json:"attachments"`
	ServiceDate   time.Time           `json:"serviceDate"`
	ServiceToken  string              `json:"serviceToken"`
	TokenIssuedAt time.Time           `json:"tokenIssuedAt"`
	PatientHash   string              `json:"patientHash"`
}

func (req submitClaimRequest) toInput() scoring.SubmitInput {
	attachments := make([]claim.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, claim.Attachment{
			Name: a.Name, MimeType: a.MimeType, SizeBytes: a.SizeBytes,
		})
	}
	return scoring.SubmitInput{
		PatientID:     req.PatientID,
		ProviderID:    req.ProviderID,
		Type:          claim.Type(req.Type),
		Amount:        req.Amount,
		Description:   req.Description,
		BillingCodes:  req.BillingCodes,
		Attachments:   attachments,
		ServiceDate:   req.ServiceDate,
		ServiceToken:  req.ServiceToken,
		TokenIssuedAt: req.TokenIssuedAt,
		PatientHash:   req.PatientHash,
	}
}

// submitClaimResponse returns the claim with its score and routing outcome.
// The full fraud report stays on the admin surface.
type submitClaimResponse struct {
	Claim    *claim.Claim `json:"claim"`
	Degraded bool         `json:"degraded"`
}

// Submit handles POST /api/v1/claims.  Every claim is scored synchronously
// before it is persisted, so the response already carries the routing
// outcome.
func (h *ClaimHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	c, report, err := h.scorer.SubmitClaim(r.Context(), req.toInput())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitClaimResponse{Claim: c, Degraded: report.Degraded})
}

// Get handles GET /api/v1/claims/{claimID}.
func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.review.GetClaim(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ProviderQueue handles GET /api/v1/providers/{providerID}/claims.
func (h *ClaimHandler) ProviderQueue(w http.ResponseWriter, r *http.Request) {
	claims, err := h.review.ListProviderQueue(r.Context(), chi.URLParam(r, "providerID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claims": claims, "count": len(claims)})
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

// Approve handles POST /api/v1/claims/{claimID}/approve.
func (h *ClaimHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.review.Approve)
}

// Reject handles POST /api/v1/claims/{claimID}/reject.
func (h *ClaimHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.review.Reject)
}

func (h *ClaimHandler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, string) (*claim.Claim, error)) {
	var req decisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	c, err := fn(r.Context(), chi.URLParam(r, "claimID"), req.Reason)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ScoreDiagnostic handles POST /api/v1/score-claim: the stateless scoring
// probe.  Nothing is persisted.
func (h *ClaimHandler) ScoreDiagnostic(w http.ResponseWriter, r *http.Request) {
	var req submitClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	res, err := h.scorer.ScoreDiagnostic(r.Context(), req.toInput())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
