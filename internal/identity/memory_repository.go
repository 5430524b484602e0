package identity

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return ErrExists
	}
	r.users[user.Username] = user
	return nil
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) UpdateProfile(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.Username]
	if !ok {
		return ErrNotFound
	}
	stored.TrustScore = ClampTrust(user.TrustScore)
	stored.WarningCount = user.WarningCount
	stored.SafeStreak = user.SafeStreak
	stored.AvgAmount = user.AvgAmount
	stored.StdDevAmount = user.StdDevAmount
	stored.ApprovedCount = user.ApprovedCount
	stored.FingerprintUpdatedAt = user.FingerprintUpdatedAt
	r.users[user.Username] = stored
	return nil
}

func (r *memoryRepository) AdjustTrust(_ context.Context, username string, delta float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return 0, ErrNotFound
	}
	user.AdjustTrust(delta)
	r.users[username] = user
	return user.TrustScore, nil
}

func (r *memoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *memoryRepository) AverageTrust(_ context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.users) == 0 {
		return 0, nil
	}
	total := 0.0
	for _, user := range r.users {
		total += user.TrustScore
	}
	return total / float64(len(r.users)), nil
}
