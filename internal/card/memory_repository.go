package card

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	cards map[string]Card
}

// NewMemoryRepository builds an in-memory card store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{cards: make(map[string]Card)}
}

func (r *memoryRepository) Create(_ context.Context, card Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cards[card.ID]; exists {
		return ErrExists
	}
	r.cards[card.ID] = card
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	card, ok := r.cards[id]
	if !ok {
		return Card{}, ErrNotFound
	}
	return card, nil
}

func (r *memoryRepository) Destroy(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, ok := r.cards[id]
	if !ok {
		return ErrNotFound
	}
	if card.Status != StatusActive {
		return ErrDestroyed
	}
	card.Status = StatusDestroyed
	r.cards[id] = card
	return nil
}

func (r *memoryRepository) OwnedBy(_ context.Context, owner string) ([]Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var cards []Card
	for _, card := range r.cards {
		if card.Owner == owner {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

func (r *memoryRepository) CountByStatus(_ context.Context, status Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, card := range r.cards {
		if card.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepository) CountByOwner(_ context.Context, owner string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, card := range r.cards {
		if card.Owner == owner {
			count++
		}
	}
	return count, nil
}
