package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
)

// AdminHandler serves the admin review surface: the flagged queue, final
// rulings on flagged claims, fraud reports, and dashboard stats.
type AdminHandler struct {
	review Reviewer
	logger logging.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(review Reviewer, log logging.Logger) *AdminHandler {
	return &AdminHandler{review: review, logger: log}
}

// Queue handles GET /api/v1/admin/claims: claims awaiting an admin ruling.
// Expired claims are swept out before the listing is built.
func (h *AdminHandler) Queue(w http.ResponseWriter, r *http.Request) {
	claims, err := h.review.ListAdminQueue(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claims": claims, "count": len(claims)})
}

// Approve handles POST /api/v1/admin/claims/{claimID}/approve: clears a
// flagged claim as a false positive.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	c, err := h.review.Approve(r.Context(), chi.URLParam(r, "claimID"), req.Reason)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Reject handles POST /api/v1/admin/claims/{claimID}/reject.  The claim lands
// in REJECTED; REJECTED_FRAUD is reserved for the timeout sweeper.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	c, err := h.review.Reject(r.Context(), chi.URLParam(r, "claimID"), req.Reason)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Report handles GET /api/v1/admin/claims/{claimID}/report.
func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.review.GetReport(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.review.GetStats(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
