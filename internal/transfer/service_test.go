package transfer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/guard-pay/guard_pay/internal/blacklist"
	"github.com/guard-pay/guard_pay/internal/identity"
	"github.com/guard-pay/guard_pay/internal/ledger"
	"github.com/guard-pay/guard_pay/internal/risk"
)

type fixture struct {
	svc   *Service
	led   ledger.Ledger
	users identity.Repository
	black blacklist.Repository
}

// newFixture wires the pipeline over in-memory stores with zero threshold
// jitter, so the applied threshold equals the adaptive base.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	led := ledger.NewInMemory()
	users := identity.NewMemoryRepository()
	black := blacklist.NewMemoryRepository()

	svc := NewService(Deps{
		Ledger:     led,
		Users:      users,
		Collector:  risk.NewCollector(led, black),
		Thresholds: risk.NewGenerator(led, func(n int) int { return risk.ThresholdJitter }),
	})

	return &fixture{svc: svc, led: led, users: users, black: black}
}

func (f *fixture) createUser(t *testing.T, username string, trust float64, age time.Duration) {
	t.Helper()
	now := time.Now().UTC()
	err := f.users.Create(context.Background(), identity.User{
		Username:             username,
		TrustScore:           trust,
		CreatedAt:            now.Add(-age),
		FingerprintUpdatedAt: now.Add(-age),
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
}

func TestCleanNewUserTransferAllows(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "alice", 100, 0)

	res, err := f.svc.Submit(context.Background(), SubmitInput{
		Sender: "alice", Recipient: "bob@upi", Amount: 100, IdempotencyKey: "k1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if res.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (%s)", res.Status, res.Message)
	}
	if res.RiskScore != 0 {
		t.Fatalf("expected risk 0, got %d (%v)", res.RiskScore, res.RiskFactors)
	}
	if res.AppliedThreshold != risk.BaseThreshold {
		t.Fatalf("expected threshold %d, got %d", risk.BaseThreshold, res.AppliedThreshold)
	}

	// Fingerprint and streak committed with the log entry.
	alice, err := f.users.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if alice.SafeStreak != 1 || alice.ApprovedCount != 1 {
		t.Fatalf("unexpected counters: %+v", alice)
	}
	if alice.AvgAmount != 100 || alice.StdDevAmount != 0 {
		t.Fatalf("unexpected fingerprint: avg=%v stddev=%v", alice.AvgAmount, alice.StdDevAmount)
	}
}

func TestBlacklistedRecipientBlocksAndPenalizes(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "mallory", 30, 48*time.Hour)
	if err := f.black.Add(context.Background(), blacklist.Entry{RecipientID: "scammer@upi", Reason: "reported"}); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	res, err := f.svc.Submit(context.Background(), SubmitInput{
		Sender: "mallory", Recipient: "scammer@upi", Amount: 6000, IdempotencyKey: "k1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// 20 + 80 + 15 = 115 capped to 100, over any threshold.
	if res.Status != StatusDenied {
		t.Fatalf("expected DENIED, got %s", res.Status)
	}
	if res.RiskScore != risk.MaxRiskCap {
		t.Fatalf("expected capped score, got %d", res.RiskScore)
	}
	if res.TrustScore != 25 {
		t.Fatalf("expected trust 25 after penalty, got %v", res.TrustScore)
	}

	entry, err := f.led.FindByKey(context.Background(), "k1")
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	if entry.State != ledger.StateBlocked || entry.Kind != ledger.KindPayment {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestDuplicateEchoesOriginalOutcome(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "alice", 100, 48*time.Hour)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, SubmitInput{Sender: "alice", Recipient: "bob@upi", Amount: 200, IdempotencyKey: "dup-key"})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", first.Status)
	}

	second, err := f.svc.Submit(ctx, SubmitInput{Sender: "alice", Recipient: "bob@upi", Amount: 200, IdempotencyKey: "dup-key"})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Status != StatusDuplicate {
		t.Fatalf("expected DUPLICATE, got %s", second.Status)
	}
	if second.OriginalState != ledger.StateApproved {
		t.Fatalf("expected original state APPROVED, got %s", second.OriginalState)
	}

	// No second pipeline ran: streak unchanged, one primary entry.
	alice, _ := f.users.FindByUsername(ctx, "alice")
	if alice.SafeStreak != 1 {
		t.Fatalf("duplicate must not mutate user state: %+v", alice)
	}
	history, _ := f.led.HistoryBySender(ctx, "alice")
	if len(history) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(history))
	}
}

func TestCoolingOffGate(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "newbie", 100, time.Hour)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, SubmitInput{Sender: "newbie", Recipient: "bob@upi", Amount: 6000, IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != StatusLimitExceeded {
		t.Fatalf("expected LIMIT_EXCEEDED, got %s", res.Status)
	}

	newbie, _ := f.users.FindByUsername(ctx, "newbie")
	wantLift := newbie.CreatedAt.Add(CoolingOffPeriod)
	if !res.LimitLiftsAt.Equal(wantLift) {
		t.Fatalf("expected lift at %v, got %v", wantLift, res.LimitLiftsAt)
	}

	// Policy rejections are not logged and charge no penalty.
	if _, err := f.led.FindByKey(ctx, "k1"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("cooling-off must not log: %v", err)
	}
	if newbie.TrustScore != 100 {
		t.Fatalf("cooling-off must not touch trust: %v", newbie.TrustScore)
	}

	// The same key remains usable once the request is shaped legally.
	res, err = f.svc.Submit(ctx, SubmitInput{Sender: "newbie", Recipient: "bob@upi", Amount: 4000, IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS after lowering amount, got %s", res.Status)
	}
}

func TestTenthSafeTransferGrantsBonus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := f.users.Create(ctx, identity.User{
		Username:   "steady",
		TrustScore: 96,
		SafeStreak: 9,
		// Two warnings pending forgiveness.
		WarningCount:         2,
		CreatedAt:            now.Add(-72 * time.Hour),
		FingerprintUpdatedAt: now.Add(-72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := f.svc.Submit(ctx, SubmitInput{Sender: "steady", Recipient: "bob@upi", Amount: 150, IdempotencyKey: "streak-10"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (%v)", res.Status, res.RiskFactors)
	}

	steady, _ := f.users.FindByUsername(ctx, "steady")
	if steady.TrustScore != 98 {
		t.Fatalf("expected trust 98, got %v", steady.TrustScore)
	}
	if steady.SafeStreak != 0 || steady.WarningCount != 0 {
		t.Fatalf("expected counters reset, got %+v", steady)
	}

	bonus, err := f.led.FindByKey(ctx, bonusKeyPrefix+"streak-10")
	if err != nil {
		t.Fatalf("bonus entry: %v", err)
	}
	if bonus.Kind != ledger.KindReward || bonus.Amount != 0 || bonus.State != ledger.StateApproved {
		t.Fatalf("unexpected bonus entry: %+v", bonus)
	}
}

func TestStreakBonusCapsAtHundred(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = f.users.Create(ctx, identity.User{
		Username: "maxed", TrustScore: 100, SafeStreak: 9,
		CreatedAt: now.Add(-72 * time.Hour), FingerprintUpdatedAt: now,
	})

	if _, err := f.svc.Submit(ctx, SubmitInput{Sender: "maxed", Recipient: "bob@upi", Amount: 50, IdempotencyKey: "k1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	maxed, _ := f.users.FindByUsername(ctx, "maxed")
	if maxed.TrustScore != identity.TrustCeil {
		t.Fatalf("expected trust capped at %v, got %v", identity.TrustCeil, maxed.TrustScore)
	}
}

func TestFourthTransferInWindowFlagsVelocity(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "rapid", 100, 48*time.Hour)
	ctx := context.Background()

	ledger.SeedApproved(f.led, "rapid", time.Now().UTC().Add(-20*time.Second), 100, 100, 100)

	res, err := f.svc.Submit(ctx, SubmitInput{Sender: "rapid", Recipient: "bob@upi", Amount: 100, IdempotencyKey: "k4"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Flat velocity fires at the baseline of 3; the trust-scaled allowance of
	// 5 does not, so the transfer stays under the threshold.
	if res.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (%v)", res.Status, res.RiskFactors)
	}
	if res.RiskScore != risk.WeightVelocitySpike {
		t.Fatalf("expected score %d, got %d (%v)", risk.WeightVelocitySpike, res.RiskScore, res.RiskFactors)
	}
}

func TestUnknownSenderRejectedBeforeScoring(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(context.Background(), SubmitInput{Sender: "ghost", Recipient: "bob@upi", Amount: 10, IdempotencyKey: "k1"})
	if !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected identity.ErrNotFound, got %v", err)
	}
}

func TestInvalidInputRejectedBeforeScoring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, SubmitInput{Sender: "alice", Recipient: "bob@upi", Amount: 0, IdempotencyKey: "k1"}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := f.svc.Submit(ctx, SubmitInput{Sender: "alice", Recipient: "bob@upi", Amount: -5, IdempotencyKey: "k1"}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := f.svc.Submit(ctx, SubmitInput{Sender: "alice", Recipient: "bob@upi", Amount: 10}); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}

func TestConcurrentDuplicatesRunOnePipeline(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "alice", 100, 48*time.Hour)
	ctx := context.Background()

	const workers = 8
	results := make([]Result, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Submit(ctx, SubmitInput{
				Sender: "alice", Recipient: "bob@upi", Amount: 100, IdempotencyKey: "same-key",
			})
		}(i)
	}
	wg.Wait()

	success, duplicate := 0, 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		switch results[i].Status {
		case StatusSuccess:
			success++
		case StatusDuplicate:
			duplicate++
			if results[i].OriginalState != ledger.StateApproved {
				t.Fatalf("loser must observe the winner's outcome: %+v", results[i])
			}
		default:
			t.Fatalf("unexpected status %s", results[i].Status)
		}
	}
	if success != 1 || duplicate != workers-1 {
		t.Fatalf("expected 1 winner and %d duplicates, got %d/%d", workers-1, success, duplicate)
	}

	history, _ := f.led.HistoryBySender(ctx, "alice")
	if len(history) != 1 {
		t.Fatalf("expected a single committed entry, got %d", len(history))
	}
}

func TestConcurrentTransfersSameSenderLoseNoUpdates(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "alice", 100, 48*time.Hour)
	ctx := context.Background()

	const n = 3
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Submit(ctx, SubmitInput{
				Sender: "alice", Recipient: "bob@upi", Amount: 100, IdempotencyKey: fmt.Sprintf("key-%d", i),
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}

	alice, _ := f.users.FindByUsername(ctx, "alice")
	if alice.SafeStreak != n || alice.ApprovedCount != n {
		t.Fatalf("lost update: %+v", alice)
	}
}

// failingLedger forces the first append to fail, simulating a store outage
// mid-pipeline.
type failingLedger struct {
	ledger.Ledger
	mu       sync.Mutex
	failNext bool
}

func (f *failingLedger) Append(ctx context.Context, entry ledger.Entry) error {
	f.mu.Lock()
	fail := f.failNext
	f.failNext = false
	f.mu.Unlock()
	if fail {
		return errors.New("store unavailable")
	}
	return f.Ledger.Append(ctx, entry)
}

func TestFailedCommitLeavesKeyResubmittable(t *testing.T) {
	led := &failingLedger{Ledger: ledger.NewInMemory(), failNext: true}
	users := identity.NewMemoryRepository()
	black := blacklist.NewMemoryRepository()
	svc := NewService(Deps{
		Ledger:     led,
		Users:      users,
		Collector:  risk.NewCollector(led, black),
		Thresholds: risk.NewGenerator(led, func(n int) int { return risk.ThresholdJitter }),
	})

	ctx := context.Background()
	now := time.Now().UTC()
	_ = users.Create(ctx, identity.User{Username: "alice", TrustScore: 100, CreatedAt: now.Add(-48 * time.Hour), FingerprintUpdatedAt: now})

	if _, err := svc.Submit(ctx, SubmitInput{Sender: "alice", Recipient: "bob@upi", Amount: 100, IdempotencyKey: "retry-key"}); err == nil {
		t.Fatalf("expected commit failure")
	}

	// No partial mutation is visible.
	alice, _ := users.FindByUsername(ctx, "alice")
	if alice.SafeStreak != 0 || alice.TrustScore != 100 {
		t.Fatalf("partial mutation after failed commit: %+v", alice)
	}

	// The caller retries with the same key and succeeds.
	res, err := svc.Submit(ctx, SubmitInput{Sender: "alice", Recipient: "bob@upi", Amount: 100, IdempotencyKey: "retry-key"})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS on retry, got %s", res.Status)
	}
}

func TestFingerprintPopulationStdDev(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	amounts := []float64{100, 200, 300}
	mean, stdDev := fingerprint(amounts)
	if mean != 200 {
		t.Fatalf("expected mean 200, got %v", mean)
	}
	// Population variance: ((100)^2 + 0 + (100)^2) / 3.
	want := math.Sqrt(20000.0 / 3.0)
	if math.Abs(stdDev-want) > 1e-9 {
		t.Fatalf("expected population stddev %v, got %v", want, stdDev)
	}

	f.createUser(t, "alice", 100, 48*time.Hour)
	for i, amount := range []float64{50, 150} {
		res, err := f.svc.Submit(ctx, SubmitInput{Sender: "alice", Recipient: "bob@upi", Amount: amount, IdempotencyKey: fmt.Sprintf("fp-%d", i)})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if res.Status != StatusSuccess {
			t.Fatalf("submit %d: %s", i, res.Status)
		}
	}

	alice, _ := f.users.FindByUsername(ctx, "alice")
	if alice.AvgAmount != 100 || alice.StdDevAmount != 50 {
		t.Fatalf("unexpected fingerprint: avg=%v stddev=%v", alice.AvgAmount, alice.StdDevAmount)
	}
	if alice.ApprovedCount != 2 {
		t.Fatalf("expected approved count 2, got %d", alice.ApprovedCount)
	}
}
