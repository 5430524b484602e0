package auth

import (
	"errors"
	"time"
)

// defaultTokenTTL bounds how long an issued session token stays valid.
const defaultTokenTTL = 24 * time.Hour

// ErrExpiredToken indicates a well-signed token past its expiry.
var ErrExpiredToken = errors.New("token expired")

// TokenService issues and verifies session tokens bound to a username.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a token service. A non-positive ttl falls back to
// the default of 24 hours.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given username.
func (s *TokenService) Issue(username string) (string, error) {
	now := s.now().UTC()
	return signHS256(map[string]any{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}, s.secret)
}

// Verify checks the token and returns the username it was issued to.
func (s *TokenService) Verify(token string) (string, error) {
	claims, err := parseAndVerifyHS256(token, s.secret)
	if err != nil {
		return "", err
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return "", ErrInvalidToken
	}
	if s.now().UTC().Unix() >= int64(exp) {
		return "", ErrExpiredToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
