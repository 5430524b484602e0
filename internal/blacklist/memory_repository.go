package blacklist

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryRepository builds an in-memory blacklist for testing and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{entries: make(map[string]Entry)}
}

func (r *memoryRepository) Add(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[entry.RecipientID]; exists {
		return ErrExists
	}
	if entry.AddedOn.IsZero() {
		entry.AddedOn = time.Now().UTC()
	}
	r.entries[entry.RecipientID] = entry
	return nil
}

func (r *memoryRepository) Contains(_ context.Context, recipientID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.entries[recipientID]
	return exists, nil
}

func (r *memoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}
