package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guard-pay/guard_pay/internal/card"
	"github.com/guard-pay/guard_pay/internal/escrow"
	"github.com/guard-pay/guard_pay/internal/identity"
	"github.com/guard-pay/guard_pay/internal/ledger"
)

func TestGetAggregatesProfile(t *testing.T) {
	users := identity.NewMemoryRepository()
	led := ledger.NewInMemory()
	cards := card.NewMemoryRepository()
	escrows := escrow.NewMemoryRepository()
	svc := NewService(users, led, cards, escrows)
	ctx := context.Background()

	_ = users.Create(ctx, identity.User{
		Username: "alice", TrustScore: 95, WarningCount: 1, SafeStreak: 4,
		CreatedAt: time.Now().UTC(),
	})
	_ = cards.Create(ctx, card.Card{ID: "ghost_aa0001", Status: card.StatusActive, Owner: "alice"})
	_ = cards.Create(ctx, card.Card{ID: "ghost_aa0002", Status: card.StatusDestroyed, Owner: "alice"})
	_ = escrows.Create(ctx, escrow.Payment{ID: "escrow_aa0001", Sender: "alice", Recipient: "bob", Status: escrow.StatusLocked})
	_ = escrows.Create(ctx, escrow.Payment{ID: "escrow_aa0002", Sender: "bob", Recipient: "alice", Status: escrow.StatusLocked})

	prof, err := svc.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prof.TrustRating.Status != "Elite" {
		t.Fatalf("expected Elite tier, got %q", prof.TrustRating.Status)
	}
	if prof.TrustRating.BonusProgress != "4/10" {
		t.Fatalf("unexpected bonus progress %q", prof.TrustRating.BonusProgress)
	}
	want := AccountSummary{TotalGhostCards: 2, IncomingEscrows: 1, OutgoingEscrows: 1}
	if prof.AccountSummary != want {
		t.Fatalf("expected %+v, got %+v", want, prof.AccountSummary)
	}
}

func TestHistoryRequiresUser(t *testing.T) {
	svc := NewService(identity.NewMemoryRepository(), ledger.NewInMemory(), card.NewMemoryRepository(), escrow.NewMemoryRepository())

	if _, err := svc.History(context.Background(), "ghost"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected identity.ErrNotFound, got %v", err)
	}
}
