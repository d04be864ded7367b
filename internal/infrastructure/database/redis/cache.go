package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	"github.com/medledger/claimguard/pkg/errors"
)

var (
	// ErrCacheMiss is returned by Get when the key is absent.
	ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

	// ErrNullCached is returned when the key holds the null sentinel, meaning
	// the loader recently reported "no such value".
	ErrNullCached = errors.New(errors.ErrCodeNotFound, "null value cached")
)

// nullSentinel marks a cached "value does not exist" so repeated misses do
// not hammer the database.
const nullSentinel = "__null__"

// Cache is a JSON cache over Redis with singleflight loading.
type Cache struct {
	client       *Client
	logger       logging.Logger
	prefix       string
	defaultTTL   time.Duration
	nullCacheTTL time.Duration
	group        singleflight.Group
}

// CacheOption customises the cache.
type CacheOption func(*Cache)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) { c.prefix = prefix }
}

// WithDefaultTTL overrides the default entry lifetime.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// WithNullCacheTTL overrides the lifetime of cached nulls.
func WithNullCacheTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.nullCacheTTL = ttl }
}

// NewCache builds a cache on top of the client.
func NewCache(client *Client, log logging.Logger, opts ...CacheOption) *Cache {
	c := &Cache{
		client:       client,
		logger:       log,
		prefix:       "claimguard:",
		defaultTTL:   15 * time.Minute,
		nullCacheTTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expirations by +/- 10% so hot keys do not expire in
// lockstep.
func (c *Cache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return c.defaultTTL
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

// Get loads and decodes the value at key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.client.Raw().Get(ctx, c.fullKey(key)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache get failed")
	}
	if string(raw) == nullSentinel {
		return ErrNullCached
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cache decode failed")
	}
	return nil
}

// Set encodes and stores the value with a jittered TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cache encode failed")
	}
	if err := c.client.Raw().Set(ctx, c.fullKey(key), raw, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache set failed")
	}
	return nil
}

// SetNull caches the absence of a value.
func (c *Cache) SetNull(ctx context.Context, key string) error {
	if err := c.client.Raw().Set(ctx, c.fullKey(key), nullSentinel, c.nullCacheTTL).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache set failed")
	}
	return nil
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.client.Raw().Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
	}
	return nil
}

// GetOrLoad returns the cached value or runs the loader, collapsing
// concurrent loads of the same key into one call.  Loader results are cached
// with the given TTL; a loader not-found error caches the null sentinel.
func (c *Cache) GetOrLoad(ctx context.Context, key string, dest any, ttl time.Duration, loader func(ctx context.Context) (any, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	} else if stderrors.Is(err, ErrNullCached) {
		return err
	}

	raw, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			if errors.IsNotFound(err) {
				if nerr := c.SetNull(ctx, key); nerr != nil {
					c.logger.Warn("failed to cache null", logging.String("key", key), logging.Err(nerr))
				}
			}
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "cache encode failed")
		}
		if serr := c.client.Raw().Set(ctx, c.fullKey(key), encoded, c.jitterTTL(ttl)).Err(); serr != nil {
			c.logger.Warn("failed to populate cache", logging.String("key", key), logging.Err(serr))
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}
