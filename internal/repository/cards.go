package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
)

// CreateCard creates a new card. Only the last four digits and the PIN
// hash are persisted; full number and CVV live on the returned struct
// for the single issuance response.
func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO bank.cards (account_id, last_four, expiry_date, pin_hash, spend_limit, limit_current, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		card.AccountID, card.LastFour, card.ExpiryDate, card.PINHash,
		card.Limit, card.LimitCurrent).
		Scan(&card.ID, &card.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

const cardColumns = `id, account_id, last_four, expiry_date, spend_limit, limit_current, created_at`

// FindCardByID retrieves a card by id
func (r *Repository) FindCardByID(ctx context.Context, id int64) (*models.Card, error) {
	c := &models.Card{}
	query := `SELECT ` + cardColumns + ` FROM bank.cards WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.AccountID, &c.LastFour, &c.ExpiryDate, &c.Limit, &c.LimitCurrent, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Resource: "card"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return c, nil
}

// ListCardsByAccount retrieves all cards of an account
func (r *Repository) ListCardsByAccount(ctx context.Context, accountID int64) ([]models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM bank.cards WHERE account_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		c := models.Card{}
		if err := rows.Scan(&c.ID, &c.AccountID, &c.LastFour, &c.ExpiryDate,
			&c.Limit, &c.LimitCurrent, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
