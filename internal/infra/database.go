package infra

import (
	"context"
	"fmt"

	txpgx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres bundles the connection pool with the transactor used to span
// multi-repository commits (ledger append + user mutation in one transaction).
type Postgres struct {
	Pool       *pgxpool.Pool
	Transactor *txpgx.Transactor
	DB         txpgx.DBGetter
}

// NewPostgres configures a PostgreSQL connection pool, verifies connectivity
// and ensures the schema exists.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	transactor, dbGetter := txpgx.NewTransactorFromPool(pool)

	return &Postgres{Pool: pool, Transactor: transactor, DB: dbGetter}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash BYTEA NOT NULL,
			trust_score DOUBLE PRECISION NOT NULL DEFAULT 100,
			warning_count INTEGER NOT NULL DEFAULT 0,
			safe_streak INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			avg_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			std_dev_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			approved_count INTEGER NOT NULL DEFAULT 0,
			fingerprint_updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transaction_logs (
			idempotency_key TEXT PRIMARY KEY,
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			kind TEXT NOT NULL,
			state TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS transaction_logs_sender_ts_idx ON transaction_logs (sender, ts)`,
		`CREATE INDEX IF NOT EXISTS transaction_logs_state_ts_idx ON transaction_logs (state, ts)`,
		`CREATE TABLE IF NOT EXISTS scam_blacklist (
			recipient_id TEXT PRIMARY KEY,
			reason TEXT NOT NULL,
			added_on TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS escrow_payments (
			escrow_id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS ghost_cards (
			card_id TEXT PRIMARY KEY,
			card_number TEXT NOT NULL,
			cvv TEXT NOT NULL,
			label TEXT NOT NULL,
			amount_limit DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			owner TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
