package card

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
)

// Status tracks a ghost card's lifecycle. Cards are single use: the first
// successful payment destroys them.
type Status string

const (
	// StatusActive means the card can still pay once.
	StatusActive Status = "Active"
	// StatusDestroyed means the card already paid and is dead.
	StatusDestroyed Status = "Destroyed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusDestroyed
}

// Card is a disposable virtual card tied to one owner with a spend cap.
type Card struct {
	ID          string  `json:"card_id"`
	Number      string  `json:"card_number"`
	CVV         string  `json:"cvv"`
	Label       string  `json:"label"`
	AmountLimit float64 `json:"amount_limit"`
	Status      Status  `json:"status"`
	Owner       string  `json:"owner"`
}

var (
	// ErrNotFound indicates no card exists with the given id.
	ErrNotFound = errors.New("ghost card not found")
	// ErrExists indicates an id collision on create.
	ErrExists = errors.New("ghost card already exists")
	// ErrDestroyed declines payments on a card that already self-destructed.
	ErrDestroyed = errors.New("card already self-destructed")
	// ErrLimitExceeded declines payments above the card's cap.
	ErrLimitExceeded = errors.New("limit exceeded")
	// ErrInvalidLimit rejects non-positive spend caps.
	ErrInvalidLimit = errors.New("amount limit must be positive")
	// ErrInvalidAmount rejects non-positive payment amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// newID returns an identifier like "ghost_a1b2c3".
func newID() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return "ghost_" + hex.EncodeToString(buf)
}

// randomDigits returns n decimal digits from a CSPRNG.
func randomDigits(n int) string {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			panic(err)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}

// newPAN returns a Visa-shaped 16 digit card number.
func newPAN() string {
	return "4" + randomDigits(15)
}
