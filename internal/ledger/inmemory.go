package ledger

import (
	"context"
	"sync"
	"time"
)

type inMemoryLedger struct {
	mu      sync.RWMutex
	entries []Entry
	byKey   map[string]int
}

// NewInMemory creates a concurrency-safe in-memory transaction log useful for
// unit tests and local development without Postgres.
func NewInMemory() Ledger {
	return &inMemoryLedger{byKey: make(map[string]int)}
}

func (l *inMemoryLedger) Append(_ context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byKey[entry.IdempotencyKey]; exists {
		return ErrDuplicateKey
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.byKey[entry.IdempotencyKey] = len(l.entries)
	l.entries = append(l.entries, entry)
	return nil
}

func (l *inMemoryLedger) FindByKey(_ context.Context, key string) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.byKey[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return l.entries[idx], nil
}

func (l *inMemoryLedger) CountBySender(_ context.Context, sender string, state State, since time.Time) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, e := range l.entries {
		if e.Sender == sender && e.State == state && !e.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (l *inMemoryLedger) CountGlobal(_ context.Context, state State, since time.Time) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, e := range l.entries {
		if e.State == state && !e.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (l *inMemoryLedger) ApprovedAmounts(_ context.Context, sender string) ([]float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var amounts []float64
	for _, e := range l.entries {
		if e.Sender == sender && e.State == StateApproved {
			amounts = append(amounts, e.Amount)
		}
	}
	return amounts, nil
}

func (l *inMemoryLedger) HistoryBySender(_ context.Context, sender string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var history []Entry
	for _, e := range l.entries {
		if e.Sender == sender {
			history = append(history, e)
		}
	}
	return history, nil
}

func (l *inMemoryLedger) CountByState(_ context.Context, state State) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, e := range l.entries {
		if e.State == state {
			count++
		}
	}
	return count, nil
}

func (l *inMemoryLedger) SumAmountByState(_ context.Context, state State) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0.0
	for _, e := range l.entries {
		if e.State == state {
			total += e.Amount
		}
	}
	return total, nil
}
