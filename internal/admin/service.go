package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guard-pay/guard_pay/internal/blacklist"
	"github.com/guard-pay/guard_pay/internal/card"
	"github.com/guard-pay/guard_pay/internal/escrow"
	"github.com/guard-pay/guard_pay/internal/identity"
	"github.com/guard-pay/guard_pay/internal/ledger"
)

// penaltyDelta is the manual trust deduction for flagged accounts.
const penaltyDelta = -10.0

// Dashboard summarizes operational counts for the admin panel.
type Dashboard struct {
	UsersRegistered int `json:"users_registered"`
	ActiveCards     int `json:"active_ghost_cards"`
	DestroyedCards  int `json:"destroyed_ghost_cards"`
	LockedEscrows   int `json:"total_locked_escrows"`
}

// GlobalStats aggregates fraud prevention metrics across the whole system.
type GlobalStats struct {
	TotalUsers       int     `json:"total_registered_users"`
	FraudBlocked     int     `json:"fraud_attempts_blocked"`
	SafeVolume       float64 `json:"total_safe_volume_processed"`
	AverageTrust     float64 `json:"system_trust_average"`
	BlacklistEntries int     `json:"active_blacklist_entries"`
}

// Service aggregates cross-domain reads and manual interventions for operators.
type Service struct {
	users   identity.Repository
	ledger  ledger.Ledger
	black   blacklist.Repository
	escrows escrow.Repository
	cards   card.Repository
	logger  *slog.Logger
}

// NewService builds the admin service.
func NewService(users identity.Repository, l ledger.Ledger, black blacklist.Repository, escrows escrow.Repository, cards card.Repository, logger *slog.Logger) *Service {
	return &Service{users: users, ledger: l, black: black, escrows: escrows, cards: cards, logger: logger}
}

// Dashboard reports the operational counters.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count users: %w", err)
	}
	active, err := s.cards.CountByStatus(ctx, card.StatusActive)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count active cards: %w", err)
	}
	destroyed, err := s.cards.CountByStatus(ctx, card.StatusDestroyed)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count destroyed cards: %w", err)
	}
	locked, err := s.escrows.CountByStatus(ctx, escrow.StatusLocked)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count locked escrows: %w", err)
	}
	return Dashboard{
		UsersRegistered: users,
		ActiveCards:     active,
		DestroyedCards:  destroyed,
		LockedEscrows:   locked,
	}, nil
}

// GlobalStats reports fraud prevention totals.
func (s *Service) GlobalStats(ctx context.Context) (GlobalStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return GlobalStats{}, fmt.Errorf("count users: %w", err)
	}
	blocked, err := s.ledger.CountByState(ctx, ledger.StateBlocked)
	if err != nil {
		return GlobalStats{}, fmt.Errorf("count blocked: %w", err)
	}
	volume, err := s.ledger.SumAmountByState(ctx, ledger.StateApproved)
	if err != nil {
		return GlobalStats{}, fmt.Errorf("sum approved volume: %w", err)
	}
	avgTrust, err := s.users.AverageTrust(ctx)
	if err != nil {
		return GlobalStats{}, fmt.Errorf("average trust: %w", err)
	}
	entries, err := s.black.Count(ctx)
	if err != nil {
		return GlobalStats{}, fmt.Errorf("count blacklist: %w", err)
	}
	return GlobalStats{
		TotalUsers:       users,
		FraudBlocked:     blocked,
		SafeVolume:       volume,
		AverageTrust:     avgTrust,
		BlacklistEntries: entries,
	}, nil
}

// BlockRecipient adds an identifier to the scam blacklist.
func (s *Service) BlockRecipient(ctx context.Context, recipientID, reason string) error {
	if reason == "" {
		reason = "Reported Fraud"
	}
	err := s.black.Add(ctx, blacklist.Entry{
		RecipientID: recipientID,
		Reason:      reason,
		AddedOn:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	s.logger.Info("recipient blacklisted", "recipient", recipientID, "reason", reason)
	return nil
}

// PenalizeUser deducts trust from an account flagged for suspicious activity.
func (s *Service) PenalizeUser(ctx context.Context, username string) (float64, error) {
	trust, err := s.users.AdjustTrust(ctx, username, penaltyDelta)
	if err != nil {
		return 0, err
	}
	s.logger.Info("user penalized", "username", username, "trust", trust)
	return trust, nil
}
