package ledger

import (
	"context"
	"errors"
	"time"

	txpgx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// PostgresLedger persists transaction log entries in PostgreSQL. The
// idempotency key carries a unique constraint, so concurrent appends of the
// same key cannot both commit. Queries run against the transaction bound to
// the context when one is active, which keeps fingerprint reads consistent
// with the append they follow.
type PostgresLedger struct {
	db txpgx.DBGetter
}

// NewPostgresLedger constructs a Postgres-backed transaction log.
func NewPostgresLedger(db txpgx.DBGetter) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Append commits a new entry, surfacing ErrDuplicateKey on key collision.
func (l *PostgresLedger) Append(ctx context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := l.db(ctx).Exec(ctx, `INSERT INTO transaction_logs (idempotency_key, sender, recipient, amount, kind, state, ts)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.IdempotencyKey, entry.Sender, entry.Recipient, entry.Amount, string(entry.Kind), string(entry.State), entry.Timestamp.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// FindByKey fetches the entry stored under the idempotency key.
func (l *PostgresLedger) FindByKey(ctx context.Context, key string) (Entry, error) {
	row := l.db(ctx).QueryRow(ctx, `SELECT idempotency_key, sender, recipient, amount, kind, state, ts
        FROM transaction_logs WHERE idempotency_key = $1`, key)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// CountBySender counts a sender's entries in the given state since an instant.
func (l *PostgresLedger) CountBySender(ctx context.Context, sender string, state State, since time.Time) (int, error) {
	var count int
	err := l.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM transaction_logs
        WHERE sender = $1 AND state = $2 AND ts >= $3`, sender, string(state), since.UTC()).Scan(&count)
	return count, err
}

// CountGlobal counts entries in the given state across all senders since an instant.
func (l *PostgresLedger) CountGlobal(ctx context.Context, state State, since time.Time) (int, error) {
	var count int
	err := l.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM transaction_logs
        WHERE state = $1 AND ts >= $2`, string(state), since.UTC()).Scan(&count)
	return count, err
}

// ApprovedAmounts returns every APPROVED amount for the sender, oldest first.
func (l *PostgresLedger) ApprovedAmounts(ctx context.Context, sender string) ([]float64, error) {
	rows, err := l.db(ctx).Query(ctx, `SELECT amount FROM transaction_logs
        WHERE sender = $1 AND state = $2 ORDER BY ts`, sender, string(StateApproved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var amounts []float64
	for rows.Next() {
		var amount float64
		if err := rows.Scan(&amount); err != nil {
			return nil, err
		}
		amounts = append(amounts, amount)
	}
	return amounts, rows.Err()
}

// HistoryBySender returns all of the sender's entries, oldest first.
func (l *PostgresLedger) HistoryBySender(ctx context.Context, sender string) ([]Entry, error) {
	rows, err := l.db(ctx).Query(ctx, `SELECT idempotency_key, sender, recipient, amount, kind, state, ts
        FROM transaction_logs WHERE sender = $1 ORDER BY ts`, sender)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

// CountByState counts all entries in the given state.
func (l *PostgresLedger) CountByState(ctx context.Context, state State) (int, error) {
	var count int
	err := l.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM transaction_logs WHERE state = $1`, string(state)).Scan(&count)
	return count, err
}

// SumAmountByState sums the amounts of all entries in the given state.
func (l *PostgresLedger) SumAmountByState(ctx context.Context, state State) (float64, error) {
	var total float64
	err := l.db(ctx).QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transaction_logs WHERE state = $1`, string(state)).Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry Entry
		kind  string
		state string
		ts    time.Time
	)
	if err := row.Scan(&entry.IdempotencyKey, &entry.Sender, &entry.Recipient, &entry.Amount, &kind, &state, &ts); err != nil {
		return Entry{}, err
	}
	entry.Kind = Kind(kind)
	entry.State = State(state)
	entry.Timestamp = ts.UTC()
	return entry, nil
}
