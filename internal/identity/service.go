package identity

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidPassword indicates a failed credential check.
var ErrInvalidPassword = errors.New("invalid password")

// Service manages the user lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new user with a hashed password and the starting trust score.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	if creds.Username == "" {
		return User{}, errors.New("username is required")
	}
	if len(creds.Password) < 4 {
		return User{}, errors.New("password must be at least 4 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	user := User{
		Username:             creds.Username,
		PasswordHash:         hash,
		TrustScore:           StartingTrust,
		CreatedAt:            now,
		FingerprintUpdatedAt: now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies the username/password pair.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByUsername(ctx, creds.Username)
	if err != nil {
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidPassword
	}

	return user, nil
}

// Get fetches a user profile by username.
func (s *Service) Get(ctx context.Context, username string) (User, error) {
	return s.repo.FindByUsername(ctx, username)
}
