package blacklist

import (
	"context"
	"errors"
	"time"

	txpgx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db txpgx.DBGetter
}

// NewPostgresRepository builds a Postgres-backed blacklist repository.
func NewPostgresRepository(db txpgx.DBGetter) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add inserts a blacklist entry, surfacing ErrExists on conflict.
func (r *PostgresRepository) Add(ctx context.Context, entry Entry) error {
	if entry.AddedOn.IsZero() {
		entry.AddedOn = time.Now().UTC()
	}
	_, err := r.db(ctx).Exec(ctx, `INSERT INTO scam_blacklist (recipient_id, reason, added_on)
        VALUES ($1, $2, $3)`, entry.RecipientID, entry.Reason, entry.AddedOn.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrExists
		}
		return err
	}
	return nil
}

// Contains reports whether the recipient identifier is blacklisted.
func (r *PostgresRepository) Contains(ctx context.Context, recipientID string) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM scam_blacklist WHERE recipient_id = $1)`, recipientID).Scan(&exists)
	return exists, err
}

// Count returns the number of blacklisted identifiers.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM scam_blacklist`).Scan(&count)
	return count, err
}
