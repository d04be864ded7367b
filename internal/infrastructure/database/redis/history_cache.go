package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/medledger/claimguard/internal/application/scoring"
	"github.com/medledger/claimguard/internal/domain/claim"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
)

// providerStatsTTL keeps provider aggregates hot across a scoring burst
// without letting them go stale for long.
const providerStatsTTL = time.Minute

// CachedHistory wraps a scoring.HistoryProvider and caches the provider
// aggregate, the most expensive lookup on the scoring path.  Per-claim counts
// and token checks stay uncached since they must reflect the current claim.
type CachedHistory struct {
	next   scoring.HistoryProvider
	cache  *Cache
	logger logging.Logger
}

// NewCachedHistory builds the caching decorator.
func NewCachedHistory(next scoring.HistoryProvider, cache *Cache, log logging.Logger) *CachedHistory {
	return &CachedHistory{next: next, cache: cache, logger: log}
}

// GetProviderStats serves the aggregate from cache when possible.  Cache
// failures fall through to the database; scoring never degrades because Redis
// is down.
func (h *CachedHistory) GetProviderStats(ctx context.Context, providerID string) (*claim.ProviderStats, error) {
	key := fmt.Sprintf("provider:%s:stats", providerID)

	var stats claim.ProviderStats
	err := h.cache.GetOrLoad(ctx, key, &stats, providerStatsTTL, func(ctx context.Context) (any, error) {
		return h.next.GetProviderStats(ctx, providerID)
	})
	if err != nil {
		h.logger.Warn("provider stats cache bypass",
			logging.String("providerId", providerID), logging.Err(err))
		return h.next.GetProviderStats(ctx, providerID)
	}
	return &stats, nil
}

// InvalidateProvider drops the cached aggregate, called after a decision
// changes the provider's approval history.
func (h *CachedHistory) InvalidateProvider(ctx context.Context, providerID string) {
	key := fmt.Sprintf("provider:%s:stats", providerID)
	if err := h.cache.Delete(ctx, key); err != nil {
		h.logger.Warn("provider stats invalidation failed",
			logging.String("providerId", providerID), logging.Err(err))
	}
}

// CountByPatientSince delegates to the underlying provider.
func (h *CachedHistory) CountByPatientSince(ctx context.Context, patientID string, since time.Time) (int, error) {
	return h.next.CountByPatientSince(ctx, patientID, since)
}

// CountByProviderSince delegates to the underlying provider.
func (h *CachedHistory) CountByProviderSince(ctx context.Context, providerID string, since time.Time) (int, error) {
	return h.next.CountByProviderSince(ctx, providerID, since)
}

// CountTokenUse delegates to the underlying provider.
func (h *CachedHistory) CountTokenUse(ctx context.Context, token, excludeClaimID string) (int, error) {
	return h.next.CountTokenUse(ctx, token, excludeClaimID)
}

// CountPatientHashUse delegates to the underlying provider.
func (h *CachedHistory) CountPatientHashUse(ctx context.Context, patientHash, excludePatientID string) (int, error) {
	return h.next.CountPatientHashUse(ctx, patientHash, excludePatientID)
}

// ListPatientDescriptions delegates to the underlying provider; prior text
// must always reflect the latest submissions.
func (h *CachedHistory) ListPatientDescriptions(ctx context.Context, patientID, excludeClaimID string) ([]string, error) {
	return h.next.ListPatientDescriptions(ctx, patientID, excludeClaimID)
}
