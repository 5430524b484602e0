package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/guard-pay/guard_pay/internal/identity"
	"github.com/guard-pay/guard_pay/internal/metrics"
)

// releaseTrustBonus rewards the sender for a safely completed escrow deal.
const releaseTrustBonus = 2.0

// ReleaseResult reports the resolved escrow and the sender's recovered trust.
type ReleaseResult struct {
	Payment    Payment
	TrustScore float64
}

// Service manages escrowed payments and the trust recovery tied to them.
type Service struct {
	repo   Repository
	users  identity.Repository
	logger *slog.Logger
}

// NewService builds the escrow service.
func NewService(repo Repository, users identity.Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger}
}

// Create locks an amount from sender toward recipient.
func (s *Service) Create(ctx context.Context, sender, recipient string, amount float64) (Payment, error) {
	if amount <= 0 {
		return Payment{}, ErrInvalidAmount
	}
	if _, err := s.users.FindByUsername(ctx, sender); err != nil {
		return Payment{}, err
	}

	payment := Payment{
		ID:        newID(),
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Status:    StatusLocked,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return Payment{}, fmt.Errorf("create escrow: %w", err)
	}

	metrics.Escrows.WithLabelValues(string(StatusLocked)).Inc()
	s.logger.Info("escrow locked", "escrow_id", payment.ID, "sender", sender, "recipient", recipient, "amount", amount)
	return payment, nil
}

// Release hands the held funds to the recipient and rewards the sender for a
// clean deal: trust climbs and one pending warning is forgiven.
func (s *Service) Release(ctx context.Context, id string) (ReleaseResult, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ReleaseResult{}, err
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusReleased); err != nil {
		return ReleaseResult{}, err
	}
	payment.Status = StatusReleased

	result := ReleaseResult{Payment: payment}
	sender, err := s.users.FindByUsername(ctx, payment.Sender)
	if err == nil {
		sender.AdjustTrust(releaseTrustBonus)
		if sender.WarningCount > 0 {
			sender.WarningCount--
		}
		if err := s.users.UpdateProfile(ctx, sender); err != nil {
			return ReleaseResult{}, fmt.Errorf("reward sender: %w", err)
		}
		result.TrustScore = sender.TrustScore
	} else if !errors.Is(err, identity.ErrNotFound) {
		return ReleaseResult{}, err
	}

	metrics.Escrows.WithLabelValues(string(StatusReleased)).Inc()
	s.logger.Info("escrow released", "escrow_id", id, "recipient", payment.Recipient)
	return result, nil
}

// Refund returns locked funds to the sender. Only the sender may refund, and
// only while the escrow is still locked.
func (s *Service) Refund(ctx context.Context, id, requester string) (Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if payment.Sender != requester {
		return Payment{}, ErrNotSender
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusRefunded); err != nil {
		return Payment{}, err
	}
	payment.Status = StatusRefunded

	metrics.Escrows.WithLabelValues(string(StatusRefunded)).Inc()
	s.logger.Info("escrow refunded", "escrow_id", id, "sender", payment.Sender)
	return payment, nil
}

// Get returns one escrow by id.
func (s *Service) Get(ctx context.Context, id string) (Payment, error) {
	return s.repo.FindByID(ctx, id)
}

// SentBy lists the escrows a user created.
func (s *Service) SentBy(ctx context.Context, username string) ([]Payment, error) {
	return s.repo.SentBy(ctx, username)
}

// IncomingFor lists the escrows addressed to a user.
func (s *Service) IncomingFor(ctx context.Context, username string) ([]Payment, error) {
	return s.repo.IncomingFor(ctx, username)
}
