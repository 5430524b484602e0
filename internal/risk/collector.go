package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/guard-pay/guard_pay/internal/blacklist"
	"github.com/guard-pay/guard_pay/internal/identity"
	"github.com/guard-pay/guard_pay/internal/ledger"
)

// Collector evaluates the independent risk factors for one transfer request.
// Factors are additive and never short-circuit: the flat and adaptive velocity
// checks may both fire on the same window breach, double-counting the weight.
type Collector struct {
	ledger    ledger.Ledger
	blacklist blacklist.Repository
}

// NewCollector constructs a signal collector over the given stores.
func NewCollector(l ledger.Ledger, b blacklist.Repository) *Collector {
	return &Collector{ledger: l, blacklist: b}
}

// Collect returns the list of triggered factors for the sender's transfer of
// amount to recipient, evaluated at now.
func (c *Collector) Collect(ctx context.Context, sender identity.User, recipient string, amount float64, now time.Time) ([]Factor, error) {
	var factors []Factor

	// Reputation baseline.
	if sender.TrustScore < LowReputationFloor {
		factors = append(factors, Factor{
			Weight: WeightLowReputation,
			Label:  fmt.Sprintf("Low User Reputation (+%d)", WeightLowReputation),
		})
	}

	// Blacklisted recipient.
	listed, err := c.blacklist.Contains(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("blacklist lookup: %w", err)
	}
	if listed {
		factors = append(factors, Factor{
			Weight: WeightBlacklist,
			Label:  fmt.Sprintf("Blacklisted Recipient (+%d)", WeightBlacklist),
		})
	}

	// Sliding-window velocity, approved and blocked.
	windowStart := now.Add(-VelocityWindow)
	approvedCount, err := c.ledger.CountBySender(ctx, sender.Username, ledger.StateApproved, windowStart)
	if err != nil {
		return nil, fmt.Errorf("approved window count: %w", err)
	}
	blockedCount, err := c.ledger.CountBySender(ctx, sender.Username, ledger.StateBlocked, windowStart)
	if err != nil {
		return nil, fmt.Errorf("blocked window count: %w", err)
	}

	if approvedCount >= MaxTransactionsPerWindow {
		factors = append(factors, Factor{
			Weight: WeightVelocitySpike,
			Label:  fmt.Sprintf("Velocity Spike: %d successful tx (+%d)", approvedCount, WeightVelocitySpike),
		})
	}

	if blockedCount > 0 {
		penalty := blockedCount * WeightBlockedAttempt
		factors = append(factors, Factor{
			Weight: penalty,
			Label:  fmt.Sprintf("Recent Failed/Blocked Attempts Found (+%d)", penalty),
		})
	}

	// Behavioral fingerprint, 3-sigma rule with an early-history fallback.
	if sender.ApprovedCount >= FingerprintMinSamples {
		limit := sender.AvgAmount + 3*sender.StdDevAmount
		if amount > limit {
			factors = append(factors, Factor{
				Weight: WeightAnomaly,
				Label:  fmt.Sprintf("Behavioral Outlier: Exceeds 3-sigma personal limit (+%d)", WeightAnomaly),
			})
		}
	} else {
		amounts, err := c.ledger.ApprovedAmounts(ctx, sender.Username)
		if err != nil {
			return nil, fmt.Errorf("approved amounts: %w", err)
		}
		if len(amounts) > 0 {
			mean := 0.0
			for _, a := range amounts {
				mean += a
			}
			mean /= float64(len(amounts))
			if amount > mean*AnomalyMultiplier {
				factors = append(factors, Factor{
					Weight: WeightAnomaly,
					Label:  fmt.Sprintf("Anomalous Amount vs Early Avg (+%d)", WeightAnomaly),
				})
			}
		}
	}

	// High-value transfer.
	if amount > LargeAmountThreshold {
		factors = append(factors, Factor{
			Weight: WeightLargeAmount,
			Label:  fmt.Sprintf("High Value Transaction (+%d)", WeightLargeAmount),
		})
	}

	// Adaptive velocity: long-term trust scales the short-term allowance.
	if approvedCount >= adaptiveAllowance(sender.TrustScore) {
		factors = append(factors, Factor{
			Weight: WeightVelocitySpike,
			Label:  fmt.Sprintf("Adaptive Velocity: trust-scaled window limit reached (+%d)", WeightVelocitySpike),
		})
	}

	return factors, nil
}

// adaptiveAllowance maps trust score to the per-window approved-transfer allowance.
func adaptiveAllowance(trust float64) int {
	switch {
	case trust > 90:
		return MaxTransactionsPerWindow + 2
	case trust < 40:
		return 1
	default:
		return MaxTransactionsPerWindow
	}
}
