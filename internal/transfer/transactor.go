package transfer

import "context"

// Transactor runs a function within one storage transaction so the ledger
// append and the associated user mutation commit atomically. The Postgres
// wiring uses the pgx transactor; the in-memory wiring relies on the
// pipeline's per-sender serialization instead.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTransactor runs the function directly without transactional semantics.
type NopTransactor struct{}

// WithinTransaction invokes fn with the unchanged context.
func (NopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
