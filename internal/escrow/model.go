package escrow

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Status tracks where escrowed funds sit.
type Status string

const (
	// StatusLocked means funds are held and the recipient may safely ship.
	StatusLocked Status = "LOCKED"
	// StatusReleased means funds were handed to the recipient.
	StatusReleased Status = "RELEASED"
	// StatusRefunded means funds were returned to the sender.
	StatusRefunded Status = "REFUNDED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusLocked, StatusReleased, StatusRefunded:
		return true
	}
	return false
}

// Payment is one escrowed transfer.
type Payment struct {
	ID        string    `json:"escrow_id"`
	Sender    string    `json:"sender_id"`
	Recipient string    `json:"receiver_id"`
	Amount    float64   `json:"amount"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CanShipItem reports whether the recipient can rely on the held funds.
func (p Payment) CanShipItem() bool {
	return p.Status == StatusLocked
}

var (
	// ErrNotFound indicates no escrow exists with the given id.
	ErrNotFound = errors.New("escrow not found")
	// ErrExists indicates an id collision on create.
	ErrExists = errors.New("escrow already exists")
	// ErrNotLocked indicates the escrow was already resolved.
	ErrNotLocked = errors.New("escrow is not locked")
	// ErrNotSender indicates someone other than the sender asked for a refund.
	ErrNotSender = errors.New("only the sender may refund an escrow")
	// ErrInvalidAmount rejects non-positive escrow amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// newID returns an identifier like "escrow_a1b2c3".
func newID() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return "escrow_" + hex.EncodeToString(buf)
}
