// Package rules implements the deterministic claim risk scorer.  It is the
// always-available half of the fraud pipeline: when the ML ensemble is down
// the rule score alone drives routing.
package rules

import (
	"github.com/medledger/claimguard/internal/config"
	"github.com/medledger/claimguard/internal/domain/claim"
)

// Rule flags emitted by the scorer.  Flag names are part of the stored fraud
// report format and must stay stable.
const (
	FlagHighAmount100K          = "HIGH_AMOUNT_100K"
	FlagHighAmount50K           = "HIGH_AMOUNT_50K"
	FlagSurgeryClaim            = "SURGERY_CLAIM"
	FlagHighRiskClaimType       = "HIGH_RISK_CLAIM_TYPE"
	FlagNoAttachments           = "NO_ATTACHMENTS"
	FlagInvalidAttachmentType   = "INVALID_ATTACHMENT_TYPE"
	FlagFrequentClaims          = "FREQUENT_CLAIMS"
	FlagLowProviderApprovalRate = "LOW_PROVIDER_APPROVAL_RATE"
	FlagProviderFlaggedHistory  = "PROVIDER_FLAGGED_HISTORY"
)

// maxScore caps the additive rule total.
const maxScore = 100

// Input carries the claim and the history aggregates the rules consume.  The
// caller (orchestrator) assembles it; the scorer itself never touches storage.
type Input struct {
	Claim *claim.Claim

	// PatientClaimsInWindow is the patient's claim count over the trailing
	// frequent-claims window, excluding the claim being scored.
	PatientClaimsInWindow int

	// Provider is the submitting provider's aggregate history.
	Provider claim.ProviderStats
}

// Result is the rule engine outcome.
type Result struct {
	Score int              `json:"score"`
	Level claim.RiskLevel  `json:"level"`
	Flags []string         `json:"flags"`
}

// Scorer applies the configured rule weights to a claim.  Evaluation is
// order-independent: every rule fires on the original input and the triggered
// points are summed, so the same claim always produces the same score.
type Scorer struct {
	weights config.RuleWeightsConfig
}

// NewScorer constructs a Scorer with the supplied weights.
func NewScorer(weights config.RuleWeightsConfig) *Scorer {
	return &Scorer{weights: weights}
}

// Evaluate scores the claim, capping at 100 and classifying the level with
// the shared cut-offs.
func (s *Scorer) Evaluate(in Input) Result {
	w := s.weights
	c := in.Claim

	score := 0
	var flags []string
	add := func(points int, flag string) {
		score += points
		flags = append(flags, flag)
	}

	// Amount band: the two thresholds are mutually exclusive.
	switch {
	case c.Amount > w.AmountHighThreshold:
		add(w.HighAmount100K, FlagHighAmount100K)
	case c.Amount > w.AmountMediumThreshold:
		add(w.HighAmount50K, FlagHighAmount50K)
	}

	// Claim type: surgery carries its own weight.
	switch {
	case c.Type == claim.TypeSurgery:
		add(w.SurgeryClaim, FlagSurgeryClaim)
	case c.HighRiskType():
		add(w.HighRiskClaimType, FlagHighRiskClaimType)
	}

	// Attachments: missing entirely beats malformed.
	switch {
	case len(c.Attachments) == 0:
		add(w.NoAttachments, FlagNoAttachments)
	case hasDisallowedAttachment(c.Attachments):
		add(w.InvalidAttachmentType, FlagInvalidAttachmentType)
	}

	if in.PatientClaimsInWindow > w.FrequentClaimsMax {
		add(w.FrequentClaims, FlagFrequentClaims)
	}

	if in.Provider.ApprovalRate() < w.LowApprovalRate {
		add(w.LowProviderApprovalRate, FlagLowProviderApprovalRate)
	}

	if in.Provider.FlaggedClaims > 0 {
		add(w.ProviderFlaggedHistory, FlagProviderFlaggedHistory)
	}

	if score > maxScore {
		score = maxScore
	}

	return Result{
		Score: score,
		Level: claim.ClassifyScore(score, w.HighRiskLevelMin, w.MediumRiskLevelMin),
		Flags: flags,
	}
}

func hasDisallowedAttachment(attachments []claim.Attachment) bool {
	for _, a := range attachments {
		if !a.Allowed() {
			return true
		}
	}
	return false
}
