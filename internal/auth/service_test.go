package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	username, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if username != "alice" {
		t.Fatalf("expected alice, got %q", username)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	other := NewTokenService("other-secret", time.Hour)

	token, _ := svc.Issue("alice")

	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := svc.Verify(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for mangled token, got %v", err)
	}
	if _, err := svc.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	issued := time.Now()
	svc.now = func() time.Time { return issued }
	token, _ := svc.Issue("alice")

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := svc.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}
