package profile

import (
	"context"
	"fmt"

	"github.com/guard-pay/guard_pay/internal/card"
	"github.com/guard-pay/guard_pay/internal/escrow"
	"github.com/guard-pay/guard_pay/internal/identity"
	"github.com/guard-pay/guard_pay/internal/ledger"
	"github.com/guard-pay/guard_pay/internal/transfer"
)

// TrustRating summarizes where a user stands with the risk engine.
type TrustRating struct {
	TrustScore    float64 `json:"trust_score"`
	WarningCount  int     `json:"warning_count"`
	Status        string  `json:"status"`
	BonusProgress string  `json:"bonus_progress"`
}

// AccountSummary counts a user's assets across the system.
type AccountSummary struct {
	TotalGhostCards int `json:"total_ghost_cards"`
	IncomingEscrows int `json:"incoming_escrow_payments"`
	OutgoingEscrows int `json:"outgoing_escrow_payments"`
}

// Profile is the aggregated user view.
type Profile struct {
	Username       string         `json:"username"`
	TrustRating    TrustRating    `json:"trust_rating"`
	AccountSummary AccountSummary `json:"account_summary"`
}

// Service aggregates per-user views over identity, cards, escrows and the
// transaction log.
type Service struct {
	users   identity.Repository
	led     ledger.Ledger
	cards   card.Repository
	escrows escrow.Repository
}

// NewService builds the profile service.
func NewService(users identity.Repository, led ledger.Ledger, cards card.Repository, escrows escrow.Repository) *Service {
	return &Service{users: users, led: led, cards: cards, escrows: escrows}
}

// Get assembles the aggregated profile for one user.
func (s *Service) Get(ctx context.Context, username string) (Profile, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return Profile{}, err
	}
	cardCount, err := s.cards.CountByOwner(ctx, username)
	if err != nil {
		return Profile{}, fmt.Errorf("count cards: %w", err)
	}
	incoming, err := s.escrows.IncomingFor(ctx, username)
	if err != nil {
		return Profile{}, fmt.Errorf("incoming escrows: %w", err)
	}
	outgoing, err := s.escrows.SentBy(ctx, username)
	if err != nil {
		return Profile{}, fmt.Errorf("outgoing escrows: %w", err)
	}

	return Profile{
		Username: user.Username,
		TrustRating: TrustRating{
			TrustScore:    user.TrustScore,
			WarningCount:  user.WarningCount,
			Status:        user.Tier(),
			BonusProgress: fmt.Sprintf("%d/%d", user.SafeStreak, transfer.SafeStreakTarget),
		},
		AccountSummary: AccountSummary{
			TotalGhostCards: cardCount,
			IncomingEscrows: len(incoming),
			OutgoingEscrows: len(outgoing),
		},
	}, nil
}

// History lists a user's transaction log entries, oldest first.
func (s *Service) History(ctx context.Context, username string) ([]ledger.Entry, error) {
	if _, err := s.users.FindByUsername(ctx, username); err != nil {
		return nil, err
	}
	return s.led.HistoryBySender(ctx, username)
}
