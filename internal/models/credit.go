package models

import "github.com/shopspring/decimal"

// CreditOffer is the bank's credit product for one currency: the range
// of limits a user may request and the interest rate that applies.
type CreditOffer struct {
	ID           int64           `json:"id"`
	Currency     string          `json:"currency"`
	MinAmount    decimal.Decimal `json:"min_amount"`
	MaxAmount    decimal.Decimal `json:"max_amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
}
