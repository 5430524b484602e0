package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateKey indicates an entry with the same idempotency key has
	// already been committed. The log is append-only: one key maps to exactly
	// one outcome forever.
	ErrDuplicateKey = errors.New("duplicate idempotency key")

	// ErrNotFound indicates no entry exists for the requested key.
	ErrNotFound = errors.New("log entry not found")

	// ErrInvalidEntry indicates the entry fails basic validation and must not
	// be appended.
	ErrInvalidEntry = errors.New("invalid log entry")
)

// Kind classifies what a log entry records.
type Kind string

const (
	// KindPayment is a regular peer-to-peer transfer attempt.
	KindPayment Kind = "PAYMENT"
	// KindReward is a zero-amount bonus entry appended when a safe streak completes.
	KindReward Kind = "REWARD"
	// KindOther covers entries written by external collaborators.
	KindOther Kind = "OTHER"
)

// Valid reports whether the kind is one of the closed set of variants.
func (k Kind) Valid() bool {
	switch k {
	case KindPayment, KindReward, KindOther:
		return true
	default:
		return false
	}
}

// State is the terminal outcome recorded for an entry.
type State string

const (
	// StateApproved marks a transfer that passed risk screening.
	StateApproved State = "APPROVED"
	// StateBlocked marks a transfer denied by the risk engine.
	StateBlocked State = "BLOCKED"
)

// Valid reports whether the state is one of the closed set of variants.
func (s State) Valid() bool {
	switch s {
	case StateApproved, StateBlocked:
		return true
	default:
		return false
	}
}

// Entry is a single immutable transaction log record.
type Entry struct {
	IdempotencyKey string
	Sender         string
	Recipient      string
	Amount         float64
	Kind           Kind
	State          State
	Timestamp      time.Time
}

// Validate checks the closed-variant fields and amount before an append.
func (e Entry) Validate() error {
	if e.IdempotencyKey == "" || e.Sender == "" {
		return ErrInvalidEntry
	}
	if e.Amount < 0 {
		return ErrInvalidEntry
	}
	if !e.Kind.Valid() || !e.State.Valid() {
		return ErrInvalidEntry
	}
	return nil
}

// Ledger is the append-only store of transaction outcomes. It is the source of
// truth for velocity windows, behavioral fingerprints and global block
// statistics.
type Ledger interface {
	// Append commits an entry. It returns ErrDuplicateKey if the idempotency
	// key is already present.
	Append(ctx context.Context, entry Entry) error

	// FindByKey returns the entry committed under the given idempotency key.
	FindByKey(ctx context.Context, key string) (Entry, error)

	// CountBySender counts the sender's entries in the given state since the
	// provided instant.
	CountBySender(ctx context.Context, sender string, state State, since time.Time) (int, error)

	// CountGlobal counts entries in the given state across all senders since
	// the provided instant.
	CountGlobal(ctx context.Context, state State, since time.Time) (int, error)

	// ApprovedAmounts returns the amounts of every APPROVED entry for the
	// sender, oldest first.
	ApprovedAmounts(ctx context.Context, sender string) ([]float64, error)

	// HistoryBySender returns all of the sender's entries, oldest first.
	HistoryBySender(ctx context.Context, sender string) ([]Entry, error)

	// CountByState counts all entries in the given state.
	CountByState(ctx context.Context, state State) (int, error)

	// SumAmountByState sums the amounts of all entries in the given state.
	SumAmountByState(ctx context.Context, state State) (float64, error)
}
