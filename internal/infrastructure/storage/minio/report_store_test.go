package minio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medledger/claimguard/internal/application/scoring"
	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	"github.com/medledger/claimguard/internal/intelligence/ensemble"
	appErrors "github.com/medledger/claimguard/pkg/errors"
)

// memByteStore is an in-memory ByteStore.
type memByteStore struct {
	objects map[string][]byte
	putErr  error
}

func newMemByteStore() *memByteStore {
	return &memByteStore{objects: make(map[string][]byte)}
}

func (s *memByteStore) PutBytes(_ context.Context, bucket, key string, data []byte, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[bucket+"/"+key] = data
	return nil
}

func (s *memByteStore) GetBytes(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, appErrors.New(appErrors.ErrCodeNotFound, "object not found").WithDetail(key)
	}
	return data, nil
}

func sampleReport() *scoring.FraudReport {
	rep := &scoring.FraudReport{
		ReportID:    "rep-1",
		ClaimID:     "claim-1",
		RuleScore:   45,
		RuleFlags:   []string{"HIGH_AMOUNT_100K"},
		FinalScore:  72,
		RiskLevel:   claim.RiskHigh,
		GeneratedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	rep.Seal()
	return rep
}

func TestReportStore_RoundTrip(t *testing.T) {
	store := newMemByteStore()
	rs := NewReportStore(store, "claim-audit", logging.NewNopLogger())

	rep := sampleReport()
	key, err := rs.Store(context.Background(), rep)
	require.NoError(t, err)
	assert.Equal(t, "reports/2026/03/10/claim-1/rep-1.json", key)

	got, err := rs.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, rep.FinalScore, got.FinalScore)
	assert.Equal(t, rep.RiskLevel, got.RiskLevel)
	assert.Equal(t, rep.Digest, got.Digest)
	assert.True(t, got.VerifyDigest())
}

func TestReportStore_PutFailure(t *testing.T) {
	store := newMemByteStore()
	store.putErr = assert.AnError
	rs := NewReportStore(store, "claim-audit", logging.NewNopLogger())

	_, err := rs.Store(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCodeReportStoreFailed, appErrors.GetCode(err))
}

func TestReportStore_MissingKey(t *testing.T) {
	rs := NewReportStore(newMemByteStore(), "claim-audit", logging.NewNopLogger())

	_, err := rs.Get(context.Background(), "reports/nope.json")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCodeReportNotFound, appErrors.GetCode(err))
}

func TestArtifactSync_WritesArtifacts(t *testing.T) {
	store := newMemByteStore()
	store.objects["models/"+ensemble.MetadataFileName] = []byte(`{"model_version":"2026-03-01"}`)
	store.objects["models/"+ensemble.PolicyFileName] = []byte(`{"thresholds":{"auto_approve_max":0.25}}`)

	dir := t.TempDir()
	sync := NewArtifactSync(store, "models", dir, logging.NewNopLogger())
	require.NoError(t, sync.Sync(context.Background()))

	meta, err := os.ReadFile(filepath.Join(dir, ensemble.MetadataFileName))
	require.NoError(t, err)
	assert.Contains(t, string(meta), "2026-03-01")

	m := ensemble.LoadMetadata(dir)
	assert.Equal(t, "2026-03-01", m.ModelVersion)
}

func TestArtifactSync_MissingRemoteSkipped(t *testing.T) {
	dir := t.TempDir()
	sync := NewArtifactSync(newMemByteStore(), "models", dir, logging.NewNopLogger())
	require.NoError(t, sync.Sync(context.Background()))

	_, err := os.Stat(filepath.Join(dir, ensemble.MetadataFileName))
	assert.True(t, os.IsNotExist(err))
}
