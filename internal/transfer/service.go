package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/guard-pay/guard_pay/internal/identity"
	"github.com/guard-pay/guard_pay/internal/ledger"
	"github.com/guard-pay/guard_pay/internal/logging"
	"github.com/guard-pay/guard_pay/internal/metrics"
	"github.com/guard-pay/guard_pay/internal/notification"
	"github.com/guard-pay/guard_pay/internal/risk"
)

// Status is the outcome reported to the caller.
type Status string

const (
	// StatusSuccess means the transfer passed risk screening.
	StatusSuccess Status = "SUCCESS"
	// StatusDenied means the risk engine blocked the transfer.
	StatusDenied Status = "DENIED"
	// StatusDuplicate means the idempotency key was already processed; the
	// original outcome is echoed.
	StatusDuplicate Status = "DUPLICATE"
	// StatusLimitExceeded means the new-account cooling-off cap rejected the
	// transfer before scoring.
	StatusLimitExceeded Status = "LIMIT_EXCEEDED"
)

var (
	// ErrInvalidAmount rejects non-positive amounts before any scoring.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrMissingKey rejects requests without an idempotency key.
	ErrMissingKey = errors.New("idempotency key is required")

	// ErrInFlight indicates another pipeline currently holds this idempotency
	// key; the caller should retry and will then observe the committed outcome.
	ErrInFlight = errors.New("duplicate request currently processing")
)

const (
	// CoolingOffPeriod is how long the new-account transfer cap applies.
	CoolingOffPeriod = 24 * time.Hour

	// SafeStreakTarget is the consecutive-approval count that earns a trust bonus.
	SafeStreakTarget = 10

	trustPenaltyOnBlock = 5.0
	streakBonusTrust    = 2.0

	bonusKeyPrefix = "BONUS-"
	bonusRecipient = "SYSTEM"
)

// SubmitInput captures one transfer screening request.
type SubmitInput struct {
	Sender         string
	Recipient      string
	Amount         float64
	IdempotencyKey string
}

// Result is the decision response. RiskScore, AppliedThreshold and
// RiskFactors are only meaningful for SUCCESS and DENIED outcomes.
type Result struct {
	Status           Status
	RiskScore        int
	AppliedThreshold int
	RiskFactors      []string
	LatencyMS        float64
	Message          string

	// TrustScore is the sender's score after the decision (SUCCESS, DENIED).
	TrustScore float64
	// OriginalState echoes the stored outcome for DUPLICATE results.
	OriginalState ledger.State
	// LimitLiftsAt is when the cooling-off cap expires (LIMIT_EXCEEDED).
	LimitLiftsAt time.Time
}

// Deps aggregates the collaborators the pipeline needs.
type Deps struct {
	Ledger     ledger.Ledger
	Users      identity.Repository
	Collector  *risk.Collector
	Thresholds *risk.Generator
	Guard      Guard
	Transactor Transactor
	Notifier   notification.Notifier
	Logger     *slog.Logger
}

// Service runs the transfer risk pipeline: idempotency guard, cooling-off
// gate, signal collection, adaptive threshold, decision commit, reputation
// feedback and fingerprint update.
type Service struct {
	ledger     ledger.Ledger
	users      identity.Repository
	collector  *risk.Collector
	thresholds *risk.Generator
	guard      Guard
	tx         Transactor
	notifier   notification.Notifier
	logger     *slog.Logger

	keys    *keyedMutex
	senders *keyedMutex
}

// NewService constructs the pipeline service. Guard, Transactor and Logger
// default to in-process implementations when nil.
func NewService(d Deps) *Service {
	if d.Guard == nil {
		d.Guard = NewMemoryGuard()
	}
	if d.Transactor == nil {
		d.Transactor = NopTransactor{}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	return &Service{
		ledger:     d.Ledger,
		users:      d.Users,
		collector:  d.Collector,
		thresholds: d.Thresholds,
		guard:      d.Guard,
		tx:         d.Transactor,
		notifier:   d.Notifier,
		logger:     d.Logger,
		keys:       newKeyedMutex(),
		senders:    newKeyedMutex(),
	}
}

// Submit screens one transfer and commits its outcome. Exactly one pipeline
// executes per idempotency key; later and concurrent duplicates observe the
// committed outcome. A failed commit leaves the key unclaimed so the caller
// may safely resubmit.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Result, error) {
	start := time.Now()

	if in.IdempotencyKey == "" {
		return Result{}, ErrMissingKey
	}
	if in.Amount <= 0 {
		return Result{}, ErrInvalidAmount
	}

	// Serialize per key: a concurrent duplicate parks here and then finds the
	// winner's committed entry.
	unlockKey := s.keys.lock(in.IdempotencyKey)
	defer unlockKey()

	if prior, err := s.ledger.FindByKey(ctx, in.IdempotencyKey); err == nil {
		return s.finish(duplicateResult(prior, start)), nil
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return Result{}, fmt.Errorf("idempotency lookup: %w", err)
	}

	claimed, err := s.guard.Claim(ctx, in.IdempotencyKey)
	if err != nil {
		return Result{}, fmt.Errorf("claim idempotency key: %w", err)
	}
	if !claimed {
		return Result{}, ErrInFlight
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), in.IdempotencyKey); err != nil {
			s.logger.Warn("release idempotency claim", "key", in.IdempotencyKey, "error", err)
		}
	}()

	// Serialize per sender: trust, streak and fingerprint see no concurrent writers.
	unlockSender := s.senders.lock(in.Sender)
	defer unlockSender()

	sender, err := s.users.FindByUsername(ctx, in.Sender)
	if err != nil {
		return Result{}, err
	}

	now := time.Now().UTC()

	// Cooling-off gate: hard cap before any scoring, never logged.
	if sender.Age(now) < CoolingOffPeriod && in.Amount > risk.LargeAmountThreshold {
		liftAt := sender.CreatedAt.Add(CoolingOffPeriod)
		return s.finish(Result{
			Status:       StatusLimitExceeded,
			LimitLiftsAt: liftAt,
			LatencyMS:    latencyMS(start),
			Message: fmt.Sprintf("New accounts may send at most %.0f during their first 24 hours. The limit lifts at %s.",
				risk.LargeAmountThreshold, liftAt.Format("2006-01-02 15:04 UTC")),
		}), nil
	}

	factors, err := s.collector.Collect(ctx, sender, in.Recipient, in.Amount, now)
	if err != nil {
		return Result{}, fmt.Errorf("collect signals: %w", err)
	}

	applied, err := s.thresholds.Applied(ctx, now)
	if err != nil {
		return Result{}, fmt.Errorf("compute threshold: %w", err)
	}

	final := risk.Score(factors)
	labels := risk.Labels(factors)

	if final >= applied {
		return s.commitBlocked(ctx, in, sender, final, applied, labels, now, start)
	}
	return s.commitApproved(ctx, in, sender, final, applied, labels, now, start)
}

func (s *Service) commitBlocked(ctx context.Context, in SubmitInput, sender identity.User, final, applied int, labels []string, now time.Time, start time.Time) (Result, error) {
	var newTrust float64
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ledger.Append(txCtx, ledger.Entry{
			IdempotencyKey: in.IdempotencyKey,
			Sender:         in.Sender,
			Recipient:      in.Recipient,
			Amount:         in.Amount,
			Kind:           ledger.KindPayment,
			State:          ledger.StateBlocked,
			Timestamp:      now,
		}); err != nil {
			return err
		}
		trust, err := s.users.AdjustTrust(txCtx, sender.Username, -trustPenaltyOnBlock)
		if err != nil {
			return err
		}
		newTrust = trust
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("commit blocked outcome: %w", err)
	}

	s.logger.Info("transfer blocked",
		"sender", in.Sender, "recipient", in.Recipient, "amount", in.Amount,
		"risk_score", final, "threshold", applied, "factors", labels)

	return s.finish(Result{
		Status:           StatusDenied,
		RiskScore:        final,
		AppliedThreshold: applied,
		RiskFactors:      labels,
		LatencyMS:        latencyMS(start),
		Message:          "Transaction blocked due to high risk profile.",
		TrustScore:       newTrust,
	}), nil
}

func (s *Service) commitApproved(ctx context.Context, in SubmitInput, sender identity.User, final, applied int, labels []string, now time.Time, start time.Time) (Result, error) {
	sender.SafeStreak++
	rewarded := false
	if sender.SafeStreak >= SafeStreakTarget {
		sender.AdjustTrust(streakBonusTrust)
		sender.SafeStreak = 0
		sender.WarningCount = 0
		rewarded = true
	}

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if rewarded {
			if err := s.ledger.Append(txCtx, ledger.Entry{
				IdempotencyKey: bonusKeyPrefix + in.IdempotencyKey,
				Sender:         in.Sender,
				Recipient:      bonusRecipient,
				Amount:         0,
				Kind:           ledger.KindReward,
				State:          ledger.StateApproved,
				Timestamp:      now,
			}); err != nil {
				return err
			}
		}

		if err := s.ledger.Append(txCtx, ledger.Entry{
			IdempotencyKey: in.IdempotencyKey,
			Sender:         in.Sender,
			Recipient:      in.Recipient,
			Amount:         in.Amount,
			Kind:           ledger.KindPayment,
			State:          ledger.StateApproved,
			Timestamp:      now,
		}); err != nil {
			return err
		}

		// Fingerprint baseline over the full approved history, including the
		// entry just appended.
		amounts, err := s.ledger.ApprovedAmounts(txCtx, sender.Username)
		if err != nil {
			return err
		}
		mean, stdDev := fingerprint(amounts)
		sender.AvgAmount = mean
		sender.StdDevAmount = stdDev
		sender.ApprovedCount = len(amounts)
		sender.FingerprintUpdatedAt = now

		return s.users.UpdateProfile(txCtx, sender)
	})
	if err != nil {
		return Result{}, fmt.Errorf("commit approved outcome: %w", err)
	}

	message := fmt.Sprintf("%.2f sent safely.", in.Amount)
	if rewarded {
		message += " Bonus: +2 trust points earned!"
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: in.Recipient,
			Body:        fmt.Sprintf("You received %.2f from %s", in.Amount, in.Sender),
		})
		if rewarded {
			_ = s.notifier.Send(ctx, notification.Message{
				Kind:        notification.KindStreakBonus,
				Destination: in.Sender,
				Body:        fmt.Sprintf("%d safe transfers in a row. +%.0f trust points.", SafeStreakTarget, streakBonusTrust),
			})
		}
	}

	s.logger.Info("transfer approved",
		"sender", in.Sender, "recipient", in.Recipient, "amount", in.Amount,
		"risk_score", final, "threshold", applied, "rewarded", rewarded)

	return s.finish(Result{
		Status:           StatusSuccess,
		RiskScore:        final,
		AppliedThreshold: applied,
		RiskFactors:      labels,
		LatencyMS:        latencyMS(start),
		Message:          message,
		TrustScore:       sender.TrustScore,
	}), nil
}

// finish records metrics for a completed pipeline run.
func (s *Service) finish(res Result) Result {
	metrics.TransferDecisions.WithLabelValues(string(res.Status)).Inc()
	metrics.TransferDuration.Observe(res.LatencyMS / 1000)
	if res.Status == StatusSuccess || res.Status == StatusDenied {
		metrics.RiskScores.Observe(float64(res.RiskScore))
	}
	return res
}

func duplicateResult(prior ledger.Entry, start time.Time) Result {
	return Result{
		Status:        StatusDuplicate,
		OriginalState: prior.State,
		LatencyMS:     latencyMS(start),
		Message:       "Transaction already processed.",
	}
}

func latencyMS(start time.Time) float64 {
	return math.Round(float64(time.Since(start).Microseconds())/10) / 100
}
