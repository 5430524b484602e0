package transfer

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	claimPrefix     = "transferclaim:v1:"
	defaultClaimTTL = 2 * time.Minute
)

// Guard reserves an idempotency key for the duration of a pipeline run so that
// concurrent duplicate submissions cannot both execute. The committed ledger
// entry is the durable record; the claim only covers the in-flight window and
// is released when the pipeline ends, successful or not.
type Guard interface {
	// Claim reserves the key. It returns false when another pipeline already
	// holds it.
	Claim(ctx context.Context, key string) (bool, error)
	// Release frees the reservation.
	Release(ctx context.Context, key string) error
}

// RedisGuard implements Guard with a SETNX reservation, giving cross-process
// exclusivity. The TTL bounds how long a crashed pipeline can wedge a key.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard constructs a Redis-backed guard.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Claim reserves the key via SETNX.
func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, claimPrefix+key, "1", g.ttl).Result()
}

// Release deletes the reservation.
func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, claimPrefix+key).Err()
}

// MemoryGuard is a single-process Guard for tests and local development.
type MemoryGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemoryGuard constructs an in-memory guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{keys: make(map[string]struct{})}
}

// Claim reserves the key if free.
func (g *MemoryGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.keys[key]; held {
		return false, nil
	}
	g.keys[key] = struct{}{}
	return true, nil
}

// Release frees the reservation.
func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}
