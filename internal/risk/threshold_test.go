package risk

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/guard-pay/guard_pay/internal/ledger"
)

func TestThresholdWithinJitterBand(t *testing.T) {
	l := ledger.NewInMemory()
	gen := NewGenerator(l, rand.New(rand.NewSource(1)).Intn)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 200; i++ {
		applied, err := gen.Applied(ctx, now)
		if err != nil {
			t.Fatalf("applied: %v", err)
		}
		if applied < BaseThreshold-ThresholdJitter || applied > BaseThreshold+ThresholdJitter {
			t.Fatalf("threshold %d outside [%d,%d]", applied, BaseThreshold-ThresholdJitter, BaseThreshold+ThresholdJitter)
		}
	}
}

func TestThresholdTightensWithGlobalBlocks(t *testing.T) {
	l := ledger.NewInMemory()
	now := time.Now().UTC()
	ledger.SeedBlocked(l, "various", now.Add(-10*time.Minute), 5)

	// Fixed jitter of zero isolates the adaptive base.
	gen := NewGenerator(l, func(n int) int { return ThresholdJitter })

	applied, err := gen.Applied(context.Background(), now)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if applied != BaseThreshold-2*5 {
		t.Fatalf("expected base %d, got %d", BaseThreshold-10, applied)
	}
}

func TestThresholdFloorsAtMinimum(t *testing.T) {
	l := ledger.NewInMemory()
	now := time.Now().UTC()
	ledger.SeedBlocked(l, "various", now.Add(-10*time.Minute), 50)

	gen := NewGenerator(l, func(n int) int { return ThresholdJitter })

	applied, err := gen.Applied(context.Background(), now)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if applied != MinThreshold {
		t.Fatalf("expected floor %d, got %d", MinThreshold, applied)
	}
}

func TestThresholdIgnoresStaleBlocks(t *testing.T) {
	l := ledger.NewInMemory()
	now := time.Now().UTC()
	ledger.SeedBlocked(l, "various", now.Add(-2*time.Hour), 10)

	gen := NewGenerator(l, func(n int) int { return ThresholdJitter })

	applied, err := gen.Applied(context.Background(), now)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if applied != BaseThreshold {
		t.Fatalf("blocks outside the window must not tighten the base: got %d", applied)
	}
}
