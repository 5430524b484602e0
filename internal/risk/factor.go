// Package risk evaluates weighted fraud signals against the transaction log,
// the blacklist and the sender's profile, and produces the randomized adaptive
// threshold the decision engine compares scores against.
package risk

import "time"

// Risk weights (score contribution per triggered factor).
const (
	WeightLowReputation  = 20
	WeightBlacklist      = 80
	WeightVelocitySpike  = 45
	WeightBlockedAttempt = 10
	WeightAnomaly        = 25
	WeightLargeAmount    = 15
)

const (
	// MaxRiskCap bounds the final score to [0,100].
	MaxRiskCap = 100

	// LowReputationFloor is the trust score below which the reputation factor fires.
	LowReputationFloor = 50.0

	// LargeAmountThreshold marks high-value transfers. The cooling-off gate
	// reuses it as the new-account cap.
	LargeAmountThreshold = 5000.0

	// VelocityWindow is the trailing interval for velocity counting.
	VelocityWindow = 60 * time.Second

	// MaxTransactionsPerWindow is the baseline approved-transfer allowance per window.
	MaxTransactionsPerWindow = 3

	// AnomalyMultiplier triggers the fallback outlier check when a sender has
	// too little history for the 3-sigma rule.
	AnomalyMultiplier = 3

	// FingerprintMinSamples is the approved-transfer count at which the
	// 3-sigma rule replaces the fallback multiplier check.
	FingerprintMinSamples = 5
)

// Factor is one triggered risk signal: its score weight and a human-readable label.
type Factor struct {
	Weight int
	Label  string
}

// Labels extracts the label list for responses and logs.
func Labels(factors []Factor) []string {
	labels := make([]string, 0, len(factors))
	for _, f := range factors {
		labels = append(labels, f.Label)
	}
	return labels
}

// Score sums the triggered weights and caps the result at MaxRiskCap.
func Score(factors []Factor) int {
	total := 0
	for _, f := range factors {
		total += f.Weight
	}
	if total > MaxRiskCap {
		return MaxRiskCap
	}
	return total
}
