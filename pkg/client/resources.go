package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SubmitClaim submits a claim for synchronous scoring.
func (c *Client) SubmitClaim(ctx context.Context, req SubmitClaimRequest) (*SubmitClaimResponse, error) {
	var out SubmitClaimResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/claims", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetClaim fetches one claim by ID.
func (c *Client) GetClaim(ctx context.Context, claimID string) (*Claim, error) {
	var out Claim
	if err := c.do(ctx, http.MethodGet, "/api/v1/claims/"+url.PathEscape(claimID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApproveClaim records a provider approval.
func (c *Client) ApproveClaim(ctx context.Context, claimID, reason string) (*Claim, error) {
	return c.decide(ctx, fmt.Sprintf("/api/v1/claims/%s/approve", url.PathEscape(claimID)), reason)
}

// RejectClaim records a provider rejection.
func (c *Client) RejectClaim(ctx context.Context, claimID, reason string) (*Claim, error) {
	return c.decide(ctx, fmt.Sprintf("/api/v1/claims/%s/reject", url.PathEscape(claimID)), reason)
}

// ProviderQueue lists claims awaiting the given provider's decision.
func (c *Client) ProviderQueue(ctx context.Context, providerID string) (*ClaimList, error) {
	var out ClaimList
	path := fmt.Sprintf("/api/v1/providers/%s/claims", url.PathEscape(providerID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScoreDiagnostic scores a claim without persisting anything.
func (c *Client) ScoreDiagnostic(ctx context.Context, req SubmitClaimRequest) (*DiagnosticResult, error) {
	var out DiagnosticResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/score-claim", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminQueue lists flagged claims awaiting an admin ruling.
func (c *Client) AdminQueue(ctx context.Context) (*ClaimList, error) {
	var out ClaimList
	if err := c.do(ctx, http.MethodGet, "/api/v1/admin/claims", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminApprove clears a flagged claim as a false positive.
func (c *Client) AdminApprove(ctx context.Context, claimID, reason string) (*Claim, error) {
	return c.decide(ctx, fmt.Sprintf("/api/v1/admin/claims/%s/approve", url.PathEscape(claimID)), reason)
}

// AdminReject rejects a flagged claim after review.
func (c *Client) AdminReject(ctx context.Context, claimID, reason string) (*Claim, error) {
	return c.decide(ctx, fmt.Sprintf("/api/v1/admin/claims/%s/reject", url.PathEscape(claimID)), reason)
}

// GetReport fetches the fraud report behind a flagged claim.
func (c *Client) GetReport(ctx context.Context, claimID string) (*FraudReport, error) {
	var out FraudReport
	path := fmt.Sprintf("/api/v1/admin/claims/%s/report", url.PathEscape(claimID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStats fetches the admin dashboard aggregate.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/api/v1/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterPatient registers a patient.  A screening block comes back as an
// *APIError with HTTP 409.
func (c *Client) RegisterPatient(ctx context.Context, req RegisterPatientRequest) (*RegisterPatientResult, error) {
	var out RegisterPatientResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/patients", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPatient fetches one patient by ID.
func (c *Client) GetPatient(ctx context.Context, patientID string) (*Patient, error) {
	var out Patient
	if err := c.do(ctx, http.MethodGet, "/api/v1/patients/"+url.PathEscape(patientID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Healthy pings the readiness probe.
func (c *Client) Healthy(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/readyz", nil, nil)
}

func (c *Client) decide(ctx context.Context, path, reason string) (*Claim, error) {
	var out Claim
	if err := c.do(ctx, http.MethodPost, path, DecisionRequest{Reason: reason}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
