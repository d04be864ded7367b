package claim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medledger/claimguard/pkg/errors"
)

func TestNewClaim_Valid(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c, err := NewClaim("p-1", "prov-1", TypeSurgery, 1200.50, now)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, StatusPendingProvider, c.Status)
	assert.Equal(t, now, c.CreatedAt)
}

func TestNewClaim_InvalidAmount(t *testing.T) {
	_, err := NewClaim("p-1", "prov-1", TypeSurgery, 0, time.Now())
	assert.True(t, errors.IsCode(err, errors.ErrCodeClaimInvalidAmount))

	_, err = NewClaim("p-1", "prov-1", TypeSurgery, -10, time.Now())
	assert.True(t, errors.IsCode(err, errors.ErrCodeClaimInvalidAmount))
}

func TestNewClaim_EmptyType(t *testing.T) {
	_, err := NewClaim("p-1", "prov-1", Type(""), 100, time.Now())
	assert.True(t, errors.IsCode(err, errors.ErrCodeClaimInvalidType))

	_, err = NewClaim("p-1", "prov-1", Type("   "), 100, time.Now())
	assert.True(t, errors.IsCode(err, errors.ErrCodeClaimInvalidType))
}

func TestNewClaim_OpenTypeVocabulary(t *testing.T) {
	c, err := NewClaim("p-1", "prov-1", Type("dental"), 100, time.Now())
	require.NoError(t, err)
	assert.Equal(t, Type("DENTAL"), c.Type)
	assert.False(t, c.HighRiskType())

	c, err = NewClaim("p-1", "prov-1", TypeOther, 100, time.Now())
	require.NoError(t, err)
	assert.Equal(t, TypeOther, c.Type)
}

func TestNewClaim_MissingParties(t *testing.T) {
	_, err := NewClaim("", "prov-1", TypeOutpatient, 100, time.Now())
	assert.Error(t, err)
	_, err = NewClaim("p-1", "", TypeOutpatient, 100, time.Now())
	assert.Error(t, err)
}

func TestHighRiskType(t *testing.T) {
	cases := map[Type]bool{
		TypeSurgery:         true,
		TypeHospitalization: true,
		TypeAccident:        true,
		TypeOutpatient:      false,
		TypePharmacy:        false,
	}
	for typ, want := range cases {
		c := &Claim{Type: typ}
		assert.Equal(t, want, c.HighRiskType(), "type %s", typ)
	}
}

func TestAttachment_Allowed(t *testing.T) {
	assert.True(t, Attachment{MimeType: "application/pdf"}.Allowed())
	assert.True(t, Attachment{MimeType: "image/JPEG"}.Allowed())
	assert.True(t, Attachment{MimeType: "image/png"}.Allowed())
	assert.False(t, Attachment{MimeType: "application/zip"}.Allowed())
	assert.False(t, Attachment{MimeType: ""}.Allowed())
}

func TestStatus_Transitions(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusPendingProvider, StatusApproved},
		{StatusPendingProvider, StatusRejected},
		{StatusAdminReview, StatusApproved},
		{StatusAdminReview, StatusRejected},
		{StatusAdminReview, StatusRejectedFraud},
	}
	for _, tc := range legal {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
		assert.NoError(t, EnsureTransition(tc.from, tc.to))
	}

	illegal := []struct{ from, to Status }{
		{StatusPendingProvider, StatusRejectedFraud},
		{StatusPendingProvider, StatusAdminReview},
		{StatusApproved, StatusRejected},
		{StatusRejected, StatusApproved},
		{StatusRejectedFraud, StatusApproved},
		{StatusRejectedFraud, StatusAdminReview},
	}
	for _, tc := range illegal {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
		err := EnsureTransition(tc.from, tc.to)
		assert.True(t, errors.IsCode(err, errors.ErrCodeClaimIllegalTransition))
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusRejectedFraud.Terminal())
	assert.False(t, StatusPendingProvider.Terminal())
	assert.False(t, StatusAdminReview.Terminal())
}

func TestClassifyScore_Boundaries(t *testing.T) {
	const highMin, mediumMin = 61, 31

	assert.Equal(t, RiskLow, ClassifyScore(0, highMin, mediumMin))
	assert.Equal(t, RiskLow, ClassifyScore(30, highMin, mediumMin))
	assert.Equal(t, RiskMedium, ClassifyScore(31, highMin, mediumMin))
	assert.Equal(t, RiskMedium, ClassifyScore(60, highMin, mediumMin))
	assert.Equal(t, RiskHigh, ClassifyScore(61, highMin, mediumMin))
	assert.Equal(t, RiskHigh, ClassifyScore(100, highMin, mediumMin))
}

func TestRiskLevel_StringAndJSON(t *testing.T) {
	assert.Equal(t, "HIGH", RiskHigh.String())
	b, err := RiskMedium.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"MEDIUM"`, string(b))
	assert.Equal(t, RiskHigh, ParseRiskLevel("HIGH"))
	assert.Equal(t, RiskLow, ParseRiskLevel("whatever"))
}

func TestProviderStats_ApprovalRate(t *testing.T) {
	assert.Equal(t, 1.0, ProviderStats{}.ApprovalRate())
	s := ProviderStats{TotalClaims: 10, ApprovedClaims: 3}
	assert.InDelta(t, 0.3, s.ApprovalRate(), 1e-9)
}
