package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisGuard(t *testing.T, ttl time.Duration) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGuard(client, ttl), mr
}

func TestRedisGuardClaimRelease(t *testing.T) {
	guard, _ := newRedisGuard(t, time.Minute)
	ctx := context.Background()

	ok, err := guard.Claim(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = guard.Claim(ctx, "k1")
	if err != nil || ok {
		t.Fatalf("second claim must fail: ok=%v err=%v", ok, err)
	}

	// A different key is unaffected.
	ok, err = guard.Claim(ctx, "k2")
	if err != nil || !ok {
		t.Fatalf("independent key: ok=%v err=%v", ok, err)
	}

	if err := guard.Release(ctx, "k1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = guard.Claim(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("claim after release: ok=%v err=%v", ok, err)
	}
}

func TestRedisGuardClaimExpires(t *testing.T) {
	guard, mr := newRedisGuard(t, 30*time.Second)
	ctx := context.Background()

	if ok, _ := guard.Claim(ctx, "k1"); !ok {
		t.Fatalf("first claim refused")
	}

	// A crashed holder never releases; the TTL frees the key.
	mr.FastForward(31 * time.Second)

	ok, err := guard.Claim(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("claim after expiry: ok=%v err=%v", ok, err)
	}
}

func TestMemoryGuard(t *testing.T) {
	guard := NewMemoryGuard()
	ctx := context.Background()

	if ok, _ := guard.Claim(ctx, "k1"); !ok {
		t.Fatalf("first claim refused")
	}
	if ok, _ := guard.Claim(ctx, "k1"); ok {
		t.Fatalf("duplicate claim accepted")
	}
	if err := guard.Release(ctx, "k1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := guard.Claim(ctx, "k1"); !ok {
		t.Fatalf("claim after release refused")
	}
}
