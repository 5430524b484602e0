package card

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guard-pay/guard_pay/internal/identity"
	"github.com/guard-pay/guard_pay/internal/metrics"
)

// Service issues and spends single-use ghost cards.
type Service struct {
	repo   Repository
	users  identity.Repository
	logger *slog.Logger
}

// NewService builds the card service.
func NewService(repo Repository, users identity.Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger}
}

// Issue creates an active ghost card for an existing user.
func (s *Service) Issue(ctx context.Context, owner, label string, amountLimit float64) (Card, error) {
	if amountLimit <= 0 {
		return Card{}, ErrInvalidLimit
	}
	if _, err := s.users.FindByUsername(ctx, owner); err != nil {
		return Card{}, err
	}

	card := Card{
		ID:          newID(),
		Number:      newPAN(),
		CVV:         randomDigits(3),
		Label:       label,
		AmountLimit: amountLimit,
		Status:      StatusActive,
		Owner:       owner,
	}
	if err := s.repo.Create(ctx, card); err != nil {
		return Card{}, fmt.Errorf("issue ghost card: %w", err)
	}

	metrics.Cards.WithLabelValues("issued").Inc()
	s.logger.Info("ghost card issued", "card_id", card.ID, "owner", owner, "limit", amountLimit)
	return card, nil
}

// Spend pays a merchant with the card and destroys it. A declined payment
// leaves the card active.
func (s *Service) Spend(ctx context.Context, cardID string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	card, err := s.repo.FindByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card.Status == StatusDestroyed {
		metrics.Cards.WithLabelValues("declined").Inc()
		return ErrDestroyed
	}
	if amount > card.AmountLimit {
		metrics.Cards.WithLabelValues("declined").Inc()
		return ErrLimitExceeded
	}
	if err := s.repo.Destroy(ctx, cardID); err != nil {
		return err
	}

	metrics.Cards.WithLabelValues("spent").Inc()
	s.logger.Info("ghost card spent", "card_id", cardID, "owner", card.Owner, "amount", amount)
	return nil
}

// OwnedBy lists a user's cards.
func (s *Service) OwnedBy(ctx context.Context, owner string) ([]Card, error) {
	if _, err := s.users.FindByUsername(ctx, owner); err != nil {
		return nil, err
	}
	return s.repo.OwnedBy(ctx, owner)
}
