package escrow

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	payments map[string]Payment
}

// NewMemoryRepository builds an in-memory escrow store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{payments: make(map[string]Payment)}
}

func (r *memoryRepository) Create(_ context.Context, payment Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.payments[payment.ID]; exists {
		return ErrExists
	}
	r.payments[payment.ID] = payment
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.payments[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return payment, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return ErrNotFound
	}
	if payment.Status != StatusLocked {
		return ErrNotLocked
	}
	payment.Status = status
	r.payments[id] = payment
	return nil
}

func (r *memoryRepository) SentBy(_ context.Context, username string) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var payments []Payment
	for _, payment := range r.payments {
		if payment.Sender == username {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

func (r *memoryRepository) IncomingFor(_ context.Context, username string) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var payments []Payment
	for _, payment := range r.payments {
		if payment.Recipient == username {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

func (r *memoryRepository) CountByStatus(_ context.Context, status Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, payment := range r.payments {
		if payment.Status == status {
			count++
		}
	}
	return count, nil
}
