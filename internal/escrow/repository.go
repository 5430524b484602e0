package escrow

import (
	"context"
	"errors"
	"fmt"

	txpgx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists escrowed payments.
type Repository interface {
	Create(ctx context.Context, payment Payment) error
	FindByID(ctx context.Context, id string) (Payment, error)
	// UpdateStatus resolves a locked escrow. It fails with ErrNotLocked when
	// the escrow was already resolved.
	UpdateStatus(ctx context.Context, id string, status Status) error
	SentBy(ctx context.Context, username string) ([]Payment, error)
	IncomingFor(ctx context.Context, username string) ([]Payment, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
}

// PostgresRepository stores escrows in the escrow_payments table.
type PostgresRepository struct {
	db txpgx.DBGetter
}

// NewPostgresRepository builds a Postgres-backed escrow store.
func NewPostgresRepository(db txpgx.DBGetter) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, payment Payment) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO escrow_payments (escrow_id, sender_id, receiver_id, amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID, payment.Sender, payment.Recipient, payment.Amount, string(payment.Status), payment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrExists
		}
		return fmt.Errorf("insert escrow: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Payment, error) {
	row := r.db(ctx).QueryRow(ctx,
		`SELECT escrow_id, sender_id, receiver_id, amount, status, created_at
		 FROM escrow_payments WHERE escrow_id = $1`, id)
	return scanPayment(row)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE escrow_payments SET status = $1 WHERE escrow_id = $2 AND status = $3`,
		string(status), id, string(StatusLocked))
	if err != nil {
		return fmt.Errorf("update escrow status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrNotLocked
	}
	return nil
}

func (r *PostgresRepository) SentBy(ctx context.Context, username string) ([]Payment, error) {
	return r.list(ctx, "sender_id", username)
}

func (r *PostgresRepository) IncomingFor(ctx context.Context, username string) ([]Payment, error) {
	return r.list(ctx, "receiver_id", username)
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	err := r.db(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM escrow_payments WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count escrows: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) list(ctx context.Context, column, username string) ([]Payment, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT escrow_id, sender_id, receiver_id, amount, status, created_at
		 FROM escrow_payments WHERE `+column+` = $1 ORDER BY created_at DESC`, username)
	if err != nil {
		return nil, fmt.Errorf("list escrows: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (Payment, error) {
	var payment Payment
	var status string
	err := row.Scan(&payment.ID, &payment.Sender, &payment.Recipient, &payment.Amount, &status, &payment.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, fmt.Errorf("scan escrow: %w", err)
	}
	payment.Status = Status(status)
	return payment, nil
}
