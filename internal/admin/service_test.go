package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guard-pay/guard_pay/internal/blacklist"
	"github.com/guard-pay/guard_pay/internal/card"
	"github.com/guard-pay/guard_pay/internal/escrow"
	"github.com/guard-pay/guard_pay/internal/identity"
	"github.com/guard-pay/guard_pay/internal/ledger"
	"github.com/guard-pay/guard_pay/internal/logging"
)

type stores struct {
	users   identity.Repository
	led     ledger.Ledger
	black   blacklist.Repository
	escrows escrow.Repository
	cards   card.Repository
}

func newTestService(t *testing.T) (*Service, stores) {
	t.Helper()
	s := stores{
		users:   identity.NewMemoryRepository(),
		led:     ledger.NewInMemory(),
		black:   blacklist.NewMemoryRepository(),
		escrows: escrow.NewMemoryRepository(),
		cards:   card.NewMemoryRepository(),
	}
	return NewService(s.users, s.led, s.black, s.escrows, s.cards, logging.Discard()), s
}

func TestDashboardCounts(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = s.users.Create(ctx, identity.User{Username: "alice", TrustScore: 100, CreatedAt: now})
	_ = s.users.Create(ctx, identity.User{Username: "bob", TrustScore: 80, CreatedAt: now})

	_ = s.cards.Create(ctx, card.Card{ID: "ghost_aa0001", Status: card.StatusActive, Owner: "alice"})
	_ = s.cards.Create(ctx, card.Card{ID: "ghost_aa0002", Status: card.StatusDestroyed, Owner: "alice"})
	_ = s.escrows.Create(ctx, escrow.Payment{ID: "escrow_aa0001", Sender: "alice", Recipient: "bob", Amount: 100, Status: escrow.StatusLocked})
	_ = s.escrows.Create(ctx, escrow.Payment{ID: "escrow_aa0002", Sender: "alice", Recipient: "bob", Amount: 100, Status: escrow.StatusReleased})

	dashboard, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	want := Dashboard{UsersRegistered: 2, ActiveCards: 1, DestroyedCards: 1, LockedEscrows: 1}
	if dashboard != want {
		t.Fatalf("expected %+v, got %+v", want, dashboard)
	}
}

func TestGlobalStats(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = s.users.Create(ctx, identity.User{Username: "alice", TrustScore: 100, CreatedAt: now})
	_ = s.users.Create(ctx, identity.User{Username: "bob", TrustScore: 60, CreatedAt: now})

	ledger.SeedApproved(s.led, "alice", now, 100, 250)
	ledger.SeedBlocked(s.led, "bob", now, 3)
	_ = s.black.Add(ctx, blacklist.Entry{RecipientID: "scammer@upi", Reason: "reported", AddedOn: now})

	stats, err := svc.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("global stats: %v", err)
	}
	want := GlobalStats{TotalUsers: 2, FraudBlocked: 3, SafeVolume: 350, AverageTrust: 80, BlacklistEntries: 1}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}
}

func TestBlockRecipient(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	if err := svc.BlockRecipient(ctx, "scammer@upi", ""); err != nil {
		t.Fatalf("block: %v", err)
	}
	blocked, err := s.black.Contains(ctx, "scammer@upi")
	if err != nil || !blocked {
		t.Fatalf("expected blacklisted, got %v %v", blocked, err)
	}

	if err := svc.BlockRecipient(ctx, "scammer@upi", "again"); !errors.Is(err, blacklist.ErrExists) {
		t.Fatalf("expected blacklist.ErrExists, got %v", err)
	}
}

func TestPenalizeUser(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	_ = s.users.Create(ctx, identity.User{Username: "alice", TrustScore: 50, CreatedAt: time.Now().UTC()})

	trust, err := svc.PenalizeUser(ctx, "alice")
	if err != nil {
		t.Fatalf("penalize: %v", err)
	}
	if trust != 40 {
		t.Fatalf("expected trust 40, got %v", trust)
	}

	if _, err := svc.PenalizeUser(ctx, "ghost"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected identity.ErrNotFound, got %v", err)
	}
}
