package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medledger/claimguard/internal/config"
	"github.com/medledger/claimguard/internal/domain/claim"
)

func testWeights() config.RuleWeightsConfig {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg.Fraud.Rules
}

func baseClaim(typ claim.Type, amount float64) *claim.Claim {
	return &claim.Claim{
		Type:   typ,
		Amount: amount,
		Attachments: []claim.Attachment{
			{Name: "invoice.pdf", MimeType: "application/pdf"},
		},
	}
}

func cleanProvider() claim.ProviderStats {
	return claim.ProviderStats{TotalClaims: 20, ApprovedClaims: 18}
}

func TestEvaluate_CleanClaimScoresZero(t *testing.T) {
	s := NewScorer(testWeights())

	res := s.Evaluate(Input{
		Claim:    baseClaim(claim.TypeOutpatient, 500),
		Provider: cleanProvider(),
	})

	assert.Equal(t, 0, res.Score)
	assert.Equal(t, claim.RiskLow, res.Level)
	assert.Empty(t, res.Flags)
}

func TestEvaluate_AmountBands(t *testing.T) {
	s := NewScorer(testWeights())

	high := s.Evaluate(Input{Claim: baseClaim(claim.TypeOutpatient, 100001), Provider: cleanProvider()})
	assert.Equal(t, 25, high.Score)
	assert.Equal(t, []string{FlagHighAmount100K}, high.Flags)

	mid := s.Evaluate(Input{Claim: baseClaim(claim.TypeOutpatient, 50001), Provider: cleanProvider()})
	assert.Equal(t, 15, mid.Score)
	assert.Equal(t, []string{FlagHighAmount50K}, mid.Flags)

	// Boundary values do not trigger: thresholds are strict.
	atHigh := s.Evaluate(Input{Claim: baseClaim(claim.TypeOutpatient, 100000), Provider: cleanProvider()})
	assert.Equal(t, []string{FlagHighAmount50K}, atHigh.Flags)
	atMid := s.Evaluate(Input{Claim: baseClaim(claim.TypeOutpatient, 50000), Provider: cleanProvider()})
	assert.Empty(t, atMid.Flags)
}

func TestEvaluate_ClaimTypeWeights(t *testing.T) {
	s := NewScorer(testWeights())

	surgery := s.Evaluate(Input{Claim: baseClaim(claim.TypeSurgery, 100), Provider: cleanProvider()})
	assert.Equal(t, 10, surgery.Score)
	assert.Equal(t, []string{FlagSurgeryClaim}, surgery.Flags)

	hosp := s.Evaluate(Input{Claim: baseClaim(claim.TypeHospitalization, 100), Provider: cleanProvider()})
	assert.Equal(t, 5, hosp.Score)
	assert.Equal(t, []string{FlagHighRiskClaimType}, hosp.Flags)

	accident := s.Evaluate(Input{Claim: baseClaim(claim.TypeAccident, 100), Provider: cleanProvider()})
	assert.Equal(t, []string{FlagHighRiskClaimType}, accident.Flags)
}

func TestEvaluate_Attachments(t *testing.T) {
	s := NewScorer(testWeights())

	none := baseClaim(claim.TypeOutpatient, 100)
	none.Attachments = nil
	res := s.Evaluate(Input{Claim: none, Provider: cleanProvider()})
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, []string{FlagNoAttachments}, res.Flags)

	bad := baseClaim(claim.TypeOutpatient, 100)
	bad.Attachments = []claim.Attachment{
		{Name: "doc.pdf", MimeType: "application/pdf"},
		{Name: "archive.zip", MimeType: "application/zip"},
	}
	res = s.Evaluate(Input{Claim: bad, Provider: cleanProvider()})
	assert.Equal(t, 15, res.Score)
	assert.Equal(t, []string{FlagInvalidAttachmentType}, res.Flags)
}

func TestEvaluate_FrequentClaims(t *testing.T) {
	s := NewScorer(testWeights())

	at := s.Evaluate(Input{Claim: baseClaim(claim.TypeOutpatient, 100), PatientClaimsInWindow: 3, Provider: cleanProvider()})
	assert.Empty(t, at.Flags)

	over := s.Evaluate(Input{Claim: baseClaim(claim.TypeOutpatient, 100), PatientClaimsInWindow: 4, Provider: cleanProvider()})
	assert.Equal(t, 10, over.Score)
	assert.Equal(t, []string{FlagFrequentClaims}, over.Flags)
}

func TestEvaluate_ProviderSignals(t *testing.T) {
	s := NewScorer(testWeights())

	lowApproval := claim.ProviderStats{TotalClaims: 10, ApprovedClaims: 3}
	res := s.Evaluate(Input{Claim: baseClaim(claim.TypeOutpatient, 100), Provider: lowApproval})
	assert.Equal(t, 5, res.Score)
	assert.Equal(t, []string{FlagLowProviderApprovalRate}, res.Flags)

	flagged := claim.ProviderStats{TotalClaims: 10, ApprovedClaims: 9, FlaggedClaims: 2}
	res = s.Evaluate(Input{Claim: baseClaim(claim.TypeOutpatient, 100), Provider: flagged})
	assert.Equal(t, 15, res.Score)
	assert.Equal(t, []string{FlagProviderFlaggedHistory}, res.Flags)

	// A provider with no history is not penalised on approval rate.
	res = s.Evaluate(Input{Claim: baseClaim(claim.TypeOutpatient, 100), Provider: claim.ProviderStats{}})
	assert.Empty(t, res.Flags)
}

func TestEvaluate_ReferenceScenario(t *testing.T) {
	// 100,001 surgery claim with no attachments from a clean provider:
	// 25 + 10 + 10 = 45 → MEDIUM.
	s := NewScorer(testWeights())

	c := baseClaim(claim.TypeSurgery, 100001)
	c.Attachments = nil

	res := s.Evaluate(Input{Claim: c, Provider: cleanProvider()})

	assert.Equal(t, 45, res.Score)
	assert.Equal(t, claim.RiskMedium, res.Level)
	assert.ElementsMatch(t,
		[]string{FlagHighAmount100K, FlagSurgeryClaim, FlagNoAttachments},
		res.Flags)
}

func TestEvaluate_CapAt100(t *testing.T) {
	w := testWeights()
	w.HighAmount100K = 90
	w.SurgeryClaim = 90
	s := NewScorer(w)

	c := baseClaim(claim.TypeSurgery, 200000)
	res := s.Evaluate(Input{Claim: c, Provider: cleanProvider()})
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, claim.RiskHigh, res.Level)
}

func TestEvaluate_Deterministic(t *testing.T) {
	s := NewScorer(testWeights())
	in := Input{
		Claim:                 baseClaim(claim.TypeSurgery, 120000),
		PatientClaimsInWindow: 5,
		Provider:              claim.ProviderStats{TotalClaims: 10, ApprovedClaims: 2, FlaggedClaims: 1},
	}

	first := s.Evaluate(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Evaluate(in))
	}
}

func TestEvaluate_LevelThresholds(t *testing.T) {
	// 100,001 surgery claim, no attachments, frequent claims, flagged
	// provider with low approval: 25+10+10+10+5+15 = 75 → HIGH.
	s := NewScorer(testWeights())

	c := baseClaim(claim.TypeSurgery, 100001)
	c.Attachments = nil
	res := s.Evaluate(Input{
		Claim:                 c,
		PatientClaimsInWindow: 4,
		Provider:              claim.ProviderStats{TotalClaims: 10, ApprovedClaims: 3, FlaggedClaims: 1},
	})

	assert.Equal(t, 75, res.Score)
	assert.Equal(t, claim.RiskHigh, res.Level)
}
