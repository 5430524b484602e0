package blacklist

import (
	"context"
	"errors"
	"time"
)

// ErrExists indicates the recipient identifier is already blacklisted.
var ErrExists = errors.New("recipient already blacklisted")

// Entry records a known-bad recipient identifier. The risk core only reads
// the list; writes come from the admin surface.
type Entry struct {
	RecipientID string
	Reason      string
	AddedOn     time.Time
}

// Repository persists blacklist entries.
type Repository interface {
	Add(ctx context.Context, entry Entry) error
	Contains(ctx context.Context, recipientID string) (bool, error)
	Count(ctx context.Context) (int, error)
}
