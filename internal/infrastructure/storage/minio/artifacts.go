package minio

import (
	"context"
	"os"
	"path/filepath"

	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	"github.com/medledger/claimguard/internal/intelligence/ensemble"
	"github.com/medledger/claimguard/pkg/errors"
)

// ArtifactSync pulls scorer model artifacts from the models bucket into the
// local models directory, where the ensemble loader and its file watcher pick
// them up.  Writes go through a temp file and rename so the watcher never
// sees a half-written artifact.
type ArtifactSync struct {
	store  ByteStore
	bucket string
	dir    string
	logger logging.Logger
}

// NewArtifactSync builds the sync over the models bucket.
func NewArtifactSync(store ByteStore, bucket, dir string, log logging.Logger) *ArtifactSync {
	return &ArtifactSync{store: store, bucket: bucket, dir: dir, logger: log}
}

// Sync downloads the metadata and policy artifacts.  A missing remote
// artifact is skipped rather than treated as fatal; the ensemble falls back
// to defaults for whatever is absent.
func (s *ArtifactSync) Sync(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to create models directory")
	}

	for _, name := range []string{ensemble.MetadataFileName, ensemble.PolicyFileName} {
		data, err := s.store.GetBytes(ctx, s.bucket, name)
		if err != nil {
			if errors.IsNotFound(err) {
				s.logger.Warn("model artifact absent in bucket", logging.String("artifact", name))
				continue
			}
			return err
		}
		if err := s.writeAtomic(name, data); err != nil {
			return err
		}
		s.logger.Info("model artifact synced",
			logging.String("artifact", name), logging.Int("bytes", len(data)))
	}
	return nil
}

func (s *ArtifactSync) writeAtomic(name string, data []byte) error {
	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to create temp artifact")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to write artifact")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to close artifact")
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to install artifact")
	}
	return nil
}
