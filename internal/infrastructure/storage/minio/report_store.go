package minio

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medledger/claimguard/internal/application/scoring"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	"github.com/medledger/claimguard/pkg/errors"
)

// ByteStore is the byte-level object access the store needs; *Client
// implements it and tests stub it.
type ByteStore interface {
	PutBytes(ctx context.Context, bucket, key string, data []byte, contentType string) error
	GetBytes(ctx context.Context, bucket, key string) ([]byte, error)
}

// ReportStore is the MinIO implementation of scoring.ReportStore.  Reports
// are written once under a key derived from the claim, report ID, and
// generation date, and never rewritten.
type ReportStore struct {
	store  ByteStore
	bucket string
	logger logging.Logger
}

// NewReportStore builds the store over the audit bucket.
func NewReportStore(store ByteStore, bucket string, log logging.Logger) *ReportStore {
	return &ReportStore{store: store, bucket: bucket, logger: log}
}

// objectKey partitions reports by generation date for retention tooling.
func objectKey(rep *scoring.FraudReport) string {
	return fmt.Sprintf("reports/%s/%s/%s.json",
		rep.GeneratedAt.UTC().Format("2006/01/02"), rep.ClaimID, rep.ReportID)
}

// Store implements scoring.ReportStore.
func (s *ReportStore) Store(ctx context.Context, rep *scoring.FraudReport) (string, error) {
	payload, err := json.Marshal(rep)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode fraud report")
	}

	key := objectKey(rep)
	if err := s.store.PutBytes(ctx, s.bucket, key, payload, "application/json"); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeReportStoreFailed, "failed to store fraud report")
	}

	s.logger.Debug("fraud report stored",
		logging.String("claimId", rep.ClaimID),
		logging.String("key", key))
	return key, nil
}

// Get implements scoring.ReportStore.
func (s *ReportStore) Get(ctx context.Context, key string) (*scoring.FraudReport, error) {
	data, err := s.store.GetBytes(ctx, s.bucket, key)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.New(errors.ErrCodeReportNotFound, "fraud report not found").WithDetail(key)
		}
		return nil, err
	}

	var rep scoring.FraudReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode fraud report")
	}
	return &rep, nil
}

var _ scoring.ReportStore = (*ReportStore)(nil)
