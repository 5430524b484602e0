package identity

import (
	"context"
	"errors"
	"time"

	txpgx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrExists indicates the username is already taken.
	ErrExists = errors.New("username already taken")
)

// Repository persists user profiles. UpdateProfile writes the mutable
// aggregate fields; AdjustTrust is the shared clamped trust primitive reused
// by the risk core, escrow settlement and manual penalties.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByUsername(ctx context.Context, username string) (User, error)
	UpdateProfile(ctx context.Context, user User) error
	AdjustTrust(ctx context.Context, username string, delta float64) (float64, error)
	Count(ctx context.Context) (int, error)
	AverageTrust(ctx context.Context) (float64, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db txpgx.DBGetter
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db txpgx.DBGetter) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	_, err := r.db(ctx).Exec(ctx, `INSERT INTO users
        (username, password_hash, trust_score, warning_count, safe_streak, created_at, avg_amount, std_dev_amount, approved_count, fingerprint_updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.Username, user.PasswordHash, user.TrustScore, user.WarningCount, user.SafeStreak,
		user.CreatedAt.UTC(), user.AvgAmount, user.StdDevAmount, user.ApprovedCount, user.FingerprintUpdatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrExists
		}
		return err
	}
	return nil
}

// FindByUsername fetches a user profile.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	row := r.db(ctx).QueryRow(ctx, `SELECT username, password_hash, trust_score, warning_count, safe_streak, created_at,
        avg_amount, std_dev_amount, approved_count, fingerprint_updated_at FROM users WHERE username = $1`, username)

	var (
		user          User
		createdAt     time.Time
		fingerprintAt time.Time
	)
	if err := row.Scan(&user.Username, &user.PasswordHash, &user.TrustScore, &user.WarningCount, &user.SafeStreak,
		&createdAt, &user.AvgAmount, &user.StdDevAmount, &user.ApprovedCount, &fingerprintAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.CreatedAt = createdAt.UTC()
	user.FingerprintUpdatedAt = fingerprintAt.UTC()
	return user, nil
}

// UpdateProfile writes the mutable aggregate fields back to the user row.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, user User) error {
	cmd, err := r.db(ctx).Exec(ctx, `UPDATE users SET trust_score = $1, warning_count = $2, safe_streak = $3,
        avg_amount = $4, std_dev_amount = $5, approved_count = $6, fingerprint_updated_at = $7 WHERE username = $8`,
		ClampTrust(user.TrustScore), user.WarningCount, user.SafeStreak,
		user.AvgAmount, user.StdDevAmount, user.ApprovedCount, user.FingerprintUpdatedAt.UTC(), user.Username)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustTrust shifts a user's trust score by delta with the clamp applied in
// SQL, and returns the new score.
func (r *PostgresRepository) AdjustTrust(ctx context.Context, username string, delta float64) (float64, error) {
	row := r.db(ctx).QueryRow(ctx, `UPDATE users
        SET trust_score = GREATEST($1, LEAST($2, trust_score + $3))
        WHERE username = $4 RETURNING trust_score`, TrustFloor, TrustCeil, delta, username)

	var score float64
	if err := row.Scan(&score); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return score, nil
}

// Count returns the number of registered users.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// AverageTrust returns the mean trust score across all users.
func (r *PostgresRepository) AverageTrust(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db(ctx).QueryRow(ctx, `SELECT COALESCE(AVG(trust_score), 0) FROM users`).Scan(&avg)
	return avg, err
}
