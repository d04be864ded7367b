package claim

import (
	"fmt"

	"github.com/medledger/claimguard/pkg/errors"
)

// Status is the claim workflow state.
type Status string

const (
	// StatusPendingProvider: scored below the review threshold; visible in
	// the provider's work queue awaiting a provider decision.
	StatusPendingProvider Status = "PENDING_PROVIDER"

	// StatusAdminReview: flagged HIGH by scoring; withheld from providers and
	// awaiting an administrator decision.
	StatusAdminReview Status = "ADMIN_REVIEW_REQUIRED"

	// StatusApproved is terminal.
	StatusApproved Status = "APPROVED"

	// StatusRejected is terminal; rejected by a human reviewer.
	StatusRejected Status = "REJECTED"

	// StatusRejectedFraud is terminal; auto-rejected by the review timeout
	// sweeper.  Never set by a human.
	StatusRejectedFraud Status = "REJECTED_FRAUD"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPendingProvider, StatusAdminReview, StatusApproved, StatusRejected, StatusRejectedFraud:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusRejectedFraud:
		return true
	}
	return false
}

// transitions is the complete state machine.  REJECTED_FRAUD is reachable only
// from ADMIN_REVIEW_REQUIRED and only via the sweeper.
var transitions = map[Status]map[Status]struct{}{
	StatusPendingProvider: {
		StatusApproved: {},
		StatusRejected: {},
	},
	StatusAdminReview: {
		StatusApproved:      {},
		StatusRejected:      {},
		StatusRejectedFraud: {},
	},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// EnsureTransition returns a CLM_004 error when from → to is illegal.
func EnsureTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return errors.New(errors.ErrCodeClaimIllegalTransition,
			fmt.Sprintf("cannot transition claim from %s to %s", from, to))
	}
	return nil
}
