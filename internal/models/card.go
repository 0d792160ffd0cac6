package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card belongs to exactly one account. Number, CVV and PIN are returned
// once at issuance and hidden afterwards; only LastFour stays readable.
type Card struct {
	ID           int64           `json:"id"`
	AccountID    int64           `json:"account_id"`
	LastFour     string          `json:"last_four"`
	Number       *string         `json:"number,omitempty"`
	CVV          *string         `json:"cvv,omitempty"`
	PIN          *string         `json:"pin,omitempty"`
	PINHash      string          `json:"-"`
	ExpiryDate   string          `json:"expiry_date"`
	Limit        decimal.Decimal `json:"limit"`
	LimitCurrent decimal.Decimal `json:"limit_current"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CardTransaction is an immutable record of a card-driven debit.
type CardTransaction struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	CardID    int64           `json:"card_id"`
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Merchant  string          `json:"merchant"`
	CreatedAt time.Time       `json:"created_at"`
}
