package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityKind discriminates the union carried by ActivityItem.
type ActivityKind string

const (
	ActivityTransfer        ActivityKind = "transfer"
	ActivityCardTransaction ActivityKind = "card_transaction"
	ActivityRequest         ActivityKind = "transfer_request"
)

// ActivityItem is one row of the unified recent-activity feed. Exactly
// one of the payload pointers is set, matching Kind.
type ActivityItem struct {
	Kind            ActivityKind     `json:"kind"`
	At              time.Time        `json:"at"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	Transfer        *BankTransfer    `json:"transfer,omitempty"`
	CardTransaction *CardTransaction `json:"card_transaction,omitempty"`
	Request         *TransferRequest `json:"request,omitempty"`
}
