package card

import (
	"context"
	"errors"
	"fmt"

	txpgx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists ghost cards.
type Repository interface {
	Create(ctx context.Context, card Card) error
	FindByID(ctx context.Context, id string) (Card, error)
	// Destroy marks an active card as spent. It fails with ErrDestroyed when
	// the card already paid.
	Destroy(ctx context.Context, id string) error
	OwnedBy(ctx context.Context, owner string) ([]Card, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
	CountByOwner(ctx context.Context, owner string) (int, error)
}

// PostgresRepository stores cards in the ghost_cards table.
type PostgresRepository struct {
	db txpgx.DBGetter
}

// NewPostgresRepository builds a Postgres-backed card store.
func NewPostgresRepository(db txpgx.DBGetter) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, card Card) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO ghost_cards (card_id, card_number, cvv, label, amount_limit, status, owner)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		card.ID, card.Number, card.CVV, card.Label, card.AmountLimit, string(card.Status), card.Owner)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrExists
		}
		return fmt.Errorf("insert ghost card: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Card, error) {
	row := r.db(ctx).QueryRow(ctx,
		`SELECT card_id, card_number, cvv, label, amount_limit, status, owner
		 FROM ghost_cards WHERE card_id = $1`, id)
	return scanCard(row)
}

func (r *PostgresRepository) Destroy(ctx context.Context, id string) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE ghost_cards SET status = $1 WHERE card_id = $2 AND status = $3`,
		string(StatusDestroyed), id, string(StatusActive))
	if err != nil {
		return fmt.Errorf("destroy ghost card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrDestroyed
	}
	return nil
}

func (r *PostgresRepository) OwnedBy(ctx context.Context, owner string) ([]Card, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT card_id, card_number, cvv, label, amount_limit, status, owner
		 FROM ghost_cards WHERE owner = $1 ORDER BY card_id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list ghost cards: %w", err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	err := r.db(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM ghost_cards WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ghost cards: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	var count int
	err := r.db(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM ghost_cards WHERE owner = $1`, owner).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ghost cards: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (Card, error) {
	var card Card
	var status string
	err := row.Scan(&card.ID, &card.Number, &card.CVV, &card.Label, &card.AmountLimit, &status, &card.Owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return Card{}, ErrNotFound
	}
	if err != nil {
		return Card{}, fmt.Errorf("scan ghost card: %w", err)
	}
	card.Status = Status(status)
	return card, nil
}
