package ledger

import (
	"context"
	"fmt"
	"time"
)

// SeedApproved is a test helper that appends APPROVED payment entries for a
// sender at the given instant, one per amount.
func SeedApproved(l Ledger, sender string, at time.Time, amounts ...float64) {
	for i, amount := range amounts {
		_ = l.Append(context.Background(), Entry{
			IdempotencyKey: fmt.Sprintf("seed-%s-approved-%d-%d", sender, at.UnixNano(), i),
			Sender:         sender,
			Recipient:      "seed-recipient",
			Amount:         amount,
			Kind:           KindPayment,
			State:          StateApproved,
			Timestamp:      at,
		})
	}
}

// SeedBlocked is a test helper that appends n BLOCKED payment entries for a
// sender at the given instant.
func SeedBlocked(l Ledger, sender string, at time.Time, n int) {
	for i := 0; i < n; i++ {
		_ = l.Append(context.Background(), Entry{
			IdempotencyKey: fmt.Sprintf("seed-%s-blocked-%d-%d", sender, at.UnixNano(), i),
			Sender:         sender,
			Recipient:      "seed-recipient",
			Amount:         1,
			Kind:           KindPayment,
			State:          StateBlocked,
			Timestamp:      at,
		})
	}
}
