package ensemble

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medledger/claimguard/internal/intelligence/features"
)

func writeArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestNormalize_SafeDefaults(t *testing.T) {
	m := &Metadata{}
	m.Normalize(features.Count)

	assert.Equal(t, "unknown", m.ModelVersion)
	assert.Equal(t, UnsupervisedIsolationForest, m.UnsupervisedType)
	require.Len(t, m.FeatureMeans, features.Count)
	require.Len(t, m.FeatureStds, features.Count)
	require.Len(t, m.ShapImportance, features.Count)
	assert.Equal(t, 0.0, m.FeatureMeans[0])
	assert.Equal(t, 1.0, m.FeatureStds[0])
	assert.InDelta(t, 1.0/features.Count, m.ShapImportance[0], 1e-12)
	assert.Equal(t, features.Names[:], m.FeatureSpec)
}

func TestNormalize_PadsAndTruncates(t *testing.T) {
	m := &Metadata{
		FeatureMeans: []float64{5, 6},
		FeatureStds:  make([]float64, features.Count+4),
	}
	m.Normalize(features.Count)

	require.Len(t, m.FeatureMeans, features.Count)
	assert.Equal(t, 5.0, m.FeatureMeans[0])
	assert.Equal(t, 0.0, m.FeatureMeans[2])
	require.Len(t, m.FeatureStds, features.Count)
}

func TestLoadMetadata_MissingFileDefaults(t *testing.T) {
	m := LoadMetadata(t.TempDir())
	assert.Equal(t, "unknown", m.ModelVersion)
}

func TestLoadMetadata_CorruptFileDefaults(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, MetadataFileName, "{not json")

	m := LoadMetadata(dir)
	assert.Equal(t, "unknown", m.ModelVersion)
	require.Len(t, m.FeatureStds, features.Count)
}

func TestLoadMetadata_ValidFile(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, MetadataFileName, `{
		"model_version": "2026-02-11",
		"unsupervised_type": "autoencoder",
		"ae_recon_mean": 0.8,
		"ae_recon_std": 0.2
	}`)

	m := LoadMetadata(dir)
	assert.Equal(t, "2026-02-11", m.ModelVersion)
	assert.Equal(t, UnsupervisedAutoencoder, m.UnsupervisedType)
	assert.Equal(t, 0.8, m.AEReconMean)
	require.Len(t, m.ShapImportance, features.Count)
}

func TestLoadPolicy_DefaultsAndOverrides(t *testing.T) {
	assert.Equal(t, DefaultPolicy(), LoadPolicy(t.TempDir()))

	dir := t.TempDir()
	writeArtifact(t, dir, PolicyFileName, `{
		"thresholds": {"auto_approve_max": 0.2, "manual_review_max": 0.7},
		"combine": {"rf_weight": 0.5, "ae_weight": 0.5}
	}`)

	p := LoadPolicy(dir)
	assert.Equal(t, 0.2, p.Thresholds.AutoApproveMax)
	assert.Equal(t, 0.7, p.Thresholds.ManualReviewMax)
	assert.Equal(t, 0.5, p.Combine.RFWeight)
}

func TestLoadPolicy_PartialFileNormalized(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, PolicyFileName, `{"thresholds": {"auto_approve_max": 0.25}}`)

	p := LoadPolicy(dir)
	assert.Equal(t, 0.25, p.Thresholds.AutoApproveMax)
	assert.Equal(t, DefaultPolicy().Thresholds.ManualReviewMax, p.Thresholds.ManualReviewMax)
	assert.Equal(t, DefaultPolicy().Combine, p.Combine)
}
