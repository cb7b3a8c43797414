package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"propvest/internal/metrics"
)

// Cache is the subset of the redis client the calculators need.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type resultCache struct {
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger
}

// cacheKey hashes the JSON encoding of the input tuple. Struct field order makes it canonical.
func cacheKey(kind string, input any) (string, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	sum := sha256.Sum256(raw)
	return kind + ":" + hex.EncodeToString(sum[:]), nil
}

// cached returns the stored result for key or computes and stores it. Cache failures
// never fail the calculation.
func cached[T any](ctx context.Context, c resultCache, key string, compute func() (T, error)) (T, error) {
	if c.cache == nil || c.ttl <= 0 {
		return compute()
	}

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var out T
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			c.metrics.CacheHit()
			return out, nil
		}
		c.log.Warn("discarding undecodable cache entry", "key", key)
	}
	c.metrics.CacheMiss()

	out, err := compute()
	if err != nil {
		return out, err
	}
	if raw, err := json.Marshal(out); err == nil {
		if err := c.cache.Set(ctx, key, string(raw), c.ttl); err != nil {
			c.log.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return out, nil
}
