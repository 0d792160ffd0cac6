package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is a closed set; type-specific behavior branches on the tag.
type AccountType string

const (
	AccountDebit   AccountType = "debit"
	AccountSavings AccountType = "savings"
	AccountCredit  AccountType = "credit"
)

// Account is a bank account. Balance may go negative down to -CreditLimit
// for credit accounts; CreditLimit is zero for every other type.
type Account struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	IBAN         string          `json:"iban"`
	Type         AccountType     `json:"type"`
	Name         string          `json:"name"`
	Color        string          `json:"color"`
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	CreditLimit  decimal.Decimal `json:"credit_limit"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Default      bool            `json:"default"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Spendable is the remaining usable balance, credit limit included.
func (a *Account) Spendable() decimal.Decimal {
	return a.Balance.Add(a.CreditLimit)
}

// CanDebit reports whether debiting amount keeps balance >= -CreditLimit.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.Sub(amount).GreaterThanOrEqual(a.CreditLimit.Neg())
}
