package providers

import (
	"context"
	"time"

	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
	"github.com/dukapulse/dukapulse/internal/infrastructure/cache"
)

// Cached wraps a provider with a shared snapshot cache. A hit skips the
// database entirely; a miss fetches and repopulates the cache for the
// other dashboard processes.
type Cached struct {
	inner interface {
		Fetch(ctx context.Context) (snapshot.Snapshot, error)
	}
	cache cache.SnapshotCache
	ttl   time.Duration
}

// NewCached builds the caching wrapper. A non-positive TTL disables
// expiry on the cached entry.
func NewCached(inner interface {
	Fetch(ctx context.Context) (snapshot.Snapshot, error)
}, c cache.SnapshotCache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: c, ttl: ttl}
}

// Fetch returns the cached snapshot when fresh, otherwise falls through to
// the inner provider.
func (c *Cached) Fetch(ctx context.Context) (snapshot.Snapshot, error) {
	if snap, ok := c.cache.Get(ctx); ok {
		return snap, nil
	}
	snap, err := c.inner.Fetch(ctx)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	c.cache.Set(ctx, snap, c.ttl)
	return snap, nil
}

// Static always returns a fixed snapshot; used by the evaluate command and
// by tests.
type Static struct{ Snapshot snapshot.Snapshot }

// Fetch returns the fixed snapshot.
func (s Static) Fetch(context.Context) (snapshot.Snapshot, error) {
	return s.Snapshot, nil
}
