package risk

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/guard-pay/guard_pay/internal/ledger"
)

const (
	// BaseThreshold is the resting block threshold before global adaptation.
	BaseThreshold = 60

	// MinThreshold is the floor the adaptive base never drops below.
	MinThreshold = 30

	// ThresholdJitter is the spread of the uniform jitter added to the base,
	// sampled from [-ThresholdJitter, +ThresholdJitter]. The jitter exists to
	// resist probing for the exact block limit.
	ThresholdJitter = 3

	// GlobalBlockWindow is the trailing interval over which global blocks
	// tighten the base threshold.
	GlobalBlockWindow = time.Hour
)

// Intn is the randomness source for threshold jitter. Tests inject a seeded
// implementation; production keeps a non-deterministic one on purpose.
type Intn func(n int) int

// Generator computes the randomized, globally-responsive block threshold.
type Generator struct {
	ledger ledger.Ledger
	intn   Intn
}

// NewGenerator constructs a threshold generator. A nil intn gets a
// time-seeded source.
func NewGenerator(l ledger.Ledger, intn Intn) *Generator {
	if intn == nil {
		intn = rand.New(rand.NewSource(time.Now().UnixNano())).Intn
	}
	return &Generator{ledger: l, intn: intn}
}

// Applied returns the threshold for a decision made at now: the adaptive base
// (each block in the trailing hour lowers it by 2, floored at MinThreshold)
// plus uniform integer jitter.
func (g *Generator) Applied(ctx context.Context, now time.Time) (int, error) {
	blocked, err := g.ledger.CountGlobal(ctx, ledger.StateBlocked, now.Add(-GlobalBlockWindow))
	if err != nil {
		return 0, fmt.Errorf("global block count: %w", err)
	}

	base := BaseThreshold - 2*blocked
	if base < MinThreshold {
		base = MinThreshold
	}

	jitter := g.intn(2*ThresholdJitter+1) - ThresholdJitter
	return base + jitter, nil
}
