// Package features turns a claim plus its history aggregates into the fixed
// 15-dimensional vector consumed by the model ensemble.  The ordering and
// semantics of the vector are a contract with the trained model artifacts and
// must never change without a model version bump.
package features

import (
	"math"
	"strings"

	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/intelligence/textsim"
)

// Count is the fixed vector dimensionality.
const Count = 15

// Names lists the features in vector order.  Index i of every extracted
// vector corresponds to Names[i]; explanation output joins on this ordering.
var Names = [Count]string{
	"claim_amount",
	"amount_over_expected_ratio",
	"num_claims_last_6mo_by_patient",
	"num_claims_last_6mo_by_provider",
	"avg_claim_amount_by_provider",
	"billing_code_variability_score",
	"distinct_billing_codes_count",
	"time_between_service_and_claim",
	"token_age_seconds",
	"service_token_reuse_flag",
	"patient_hash_reuse_flag",
	"provider_risk_score",
	"semantic_text_diff",
	"is_new_provider_flag",
	"claim_weekday_hour",
}

// newProviderMaxClaims is the prior-claim count below which a provider is
// considered new.
const newProviderMaxClaims = 3

// Context carries the claim and every history aggregate the features need.
// The orchestrator assembles it; extraction itself is pure and deterministic.
type Context struct {
	Claim *claim.Claim

	// PatientClaims6Mo and ProviderClaims6Mo count claims created in the
	// trailing six months, excluding the claim being scored.
	PatientClaims6Mo  int
	ProviderClaims6Mo int

	// Provider is the submitting provider's aggregate history, including the
	// billing codes seen across its past claims.
	Provider claim.ProviderStats

	// PriorDescriptions holds the free-text descriptions of the patient's
	// earlier claims, consumed by the semantic text diff.
	PriorDescriptions []string

	// TokenReused is true when the claim's service token appears on another claim.
	TokenReused bool

	// PatientHashReused is true when the claim's patient hash is bound to a
	// different patient elsewhere.
	PatientHashReused bool

	// ExpectedAmount is the expected claim amount for this claim's type,
	// resolved from configuration by the caller.
	ExpectedAmount float64
}

// Extractor computes feature vectors.
type Extractor struct{}

// NewExtractor constructs an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the 15 features in canonical order.  Missing history data
// degrades individual features to 0; every output value is finite.
func (e *Extractor) Extract(ctx Context) []float64 {
	c := ctx.Claim
	vec := make([]float64, Count)

	vec[0] = c.Amount

	vec[1] = amountOverExpected(c.Amount, ctx.Provider, ctx.ExpectedAmount)

	vec[2] = float64(ctx.PatientClaims6Mo)
	vec[3] = float64(ctx.ProviderClaims6Mo)
	vec[4] = ctx.Provider.AvgAmount

	vec[5] = billingVariability(c.BillingCodes)
	vec[6] = float64(distinctCount(c.BillingCodes))

	if !c.ServiceDate.IsZero() && !c.CreatedAt.IsZero() {
		delta := c.CreatedAt.Sub(c.ServiceDate).Seconds()
		if delta < 0 {
			delta = 0
		}
		vec[7] = delta
	}

	if !c.TokenIssuedAt.IsZero() && !c.CreatedAt.IsZero() {
		age := c.CreatedAt.Sub(c.TokenIssuedAt).Seconds()
		if age < 0 {
			age = 0
		}
		vec[8] = age
	}

	vec[9] = boolFlag(ctx.TokenReused)
	vec[10] = boolFlag(ctx.PatientHashReused)

	vec[11] = providerRisk(ctx.Provider)

	vec[12] = semanticTextDiff(c.Description, ctx.PriorDescriptions)

	if ctx.Provider.TotalClaims < newProviderMaxClaims {
		vec[13] = 1
	}

	if !c.CreatedAt.IsZero() {
		utc := c.CreatedAt.UTC()
		vec[14] = float64(int(utc.Weekday())*24 + utc.Hour())
	}

	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vec[i] = 0
		}
	}
	return vec
}

// providerRisk combines the approval-rate complement with a capped flagged
// ratio: (1 - approvalRate) + min(1, flagged/max(1, total)).
func providerRisk(p claim.ProviderStats) float64 {
	flaggedRatio := float64(p.FlaggedClaims) / math.Max(1, float64(p.TotalClaims))
	return (1 - p.ApprovalRate()) + math.Min(1, flaggedRatio)
}

// amountOverExpected returns the claim amount relative to the provider's mean
// claim amount.  A provider with no history falls back to the configured
// expected amount for the claim's type; a non-positive denominator yields a
// neutral ratio of 1.
func amountOverExpected(amount float64, provider claim.ProviderStats, fallback float64) float64 {
	expected := fallback
	if provider.TotalClaims > 0 {
		expected = provider.AvgAmount
	}
	if expected <= 0 {
		return 1
	}
	return amount / expected
}

// billingVariability is the share of distinct codes among the claim's billing
// codes.  Claims with at most one code score 0.
func billingVariability(codes []string) float64 {
	if len(codes) <= 1 {
		return 0
	}
	return float64(distinctCount(codes)) / float64(len(codes))
}

// semanticTextDiff is 1 minus the mean trigram cosine similarity between the
// claim's description and each prior description.  With no prior text the
// similarity is 0, so a patient's first described claim reads as maximally
// novel.
func semanticTextDiff(current string, prior []string) float64 {
	if len(prior) == 0 {
		return 1
	}
	cur := textsim.NGramVector(current)
	var total float64
	for _, p := range prior {
		total += textsim.Cosine(cur, textsim.NGramVector(p))
	}
	mean := total / float64(len(prior))
	if mean < 0 {
		mean = 0
	}
	if mean > 1 {
		mean = 1
	}
	return 1 - mean
}

func distinctCount(codes []string) int {
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		normalized := strings.ToUpper(strings.TrimSpace(code))
		if normalized == "" {
			continue
		}
		seen[normalized] = struct{}{}
	}
	return len(seen)
}

func boolFlag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
