package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
)

// SnapshotCache shares the latest metrics snapshot between dashboard
// processes so each browser session does not hammer the hosted database.
type SnapshotCache interface {
	Get(ctx context.Context) (snapshot.Snapshot, bool)
	Set(ctx context.Context, snap snapshot.Snapshot, ttl time.Duration)
}

const cacheKey = "dukapulse:snapshot:latest"

type memory struct {
	mu   sync.Mutex
	snap snapshot.Snapshot
	set  bool
	exp  time.Time
}

// NewMemory creates an in-process cache for single-instance deployments.
func NewMemory() SnapshotCache { return &memory{} }

func (c *memory) Get(_ context.Context) (snapshot.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set || (!c.exp.IsZero() && time.Now().After(c.exp)) {
		return snapshot.Snapshot{}, false
	}
	return c.snap, true
}

func (c *memory) Set(_ context.Context, snap snapshot.Snapshot, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.set = true
	c.exp = time.Time{}
	if ttl > 0 {
		c.exp = time.Now().Add(ttl)
	}
}

type redisCache struct{ r *redis.Client }

// NewRedis creates a cache backed by the given Redis client.
func NewRedis(client *redis.Client) SnapshotCache { return &redisCache{r: client} }

// NewAuto returns a Redis-backed cache when an address is configured,
// falling back to the in-process cache otherwise.
func NewAuto(addr string) SnapshotCache {
	if addr != "" {
		return NewRedis(redis.NewClient(&redis.Options{Addr: addr}))
	}
	return NewMemory()
}

func (c *redisCache) Get(ctx context.Context) (snapshot.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	data, err := c.r.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return snapshot.Snapshot{}, false
	}
	var snap snapshot.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot.Snapshot{}, false
	}
	return snap, true
}

func (c *redisCache) Set(ctx context.Context, snap snapshot.Snapshot, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = c.r.Set(ctx, cacheKey, data, ttl).Err()
}
