// Package cache implements the fail-open result cache. A cache-store failure
// is always treated as a miss: a read must never fail merely because the
// cache is down.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cinemahub/catalog-service/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Store is the key-value contract the cache runs over. The Redis client in
// pkg/redis satisfies it; tests substitute in-memory fakes.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ResultCache serializes entities and entity lists to JSON under derived
// keys with a uniform TTL.
type ResultCache struct {
	store  Store
	ttl    time.Duration
	flight singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a ResultCache with the given store and entry TTL.
func New(store Store, ttl time.Duration) *ResultCache {
	return &ResultCache{
		store:  store,
		ttl:    ttl,
		logger: logger.WithComponent("result-cache"),
	}
}

// Get loads and deserializes the payload under key into out. It returns
// false on a miss, on any store error, and on a corrupt payload.
func (c *ResultCache) Get(ctx context.Context, key string, out any) bool {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed, treating as miss", "key", key, "error", err)
		c.misses.Add(1)
		return false
	}
	if !found {
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		c.logger.Error("cache unmarshal failed, treating as miss", "key", key, "error", err)
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return true
}

// Set stores the serialized value under key. Errors are logged, never
// surfaced. No write happens once the request's context is done: a write
// must never race past its own request's cancellation.
func (c *ResultCache) Set(ctx context.Context, key string, value any) {
	if ctx.Err() != nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// Stats returns the hit and miss counters.
func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// GetOrCompute returns the cached value under key or computes it, collapsing
// concurrent misses for the same key into one backend call. The compute
// function is responsible for populating the cache on success; correctness
// does not depend on the de-duplication. The boolean reports a cache hit.
func GetOrCompute[T any](ctx context.Context, c *ResultCache, key string, compute func() (T, error)) (T, bool, error) {
	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, true, nil
	}
	val, err, _ := c.flight.Do(key, func() (any, error) {
		var again T
		if c.Get(ctx, key, &again) {
			return again, nil
		}
		return compute()
	})
	if err != nil {
		// The flight leader's cancellation is shared with every follower.
		// A follower whose own request is still live must not fail with a
		// foreign context error; it fetches for itself instead.
		if ctx.Err() == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			retried, retryErr := compute()
			if retryErr != nil {
				var zero T
				return zero, false, retryErr
			}
			return retried, false, nil
		}
		var zero T
		return zero, false, err
	}
	return val.(T), false, nil
}
