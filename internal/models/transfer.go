package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferDirection tells which side of a settled transfer a history
// row records.
type TransferDirection string

const (
	TransferSent     TransferDirection = "sent"
	TransferReceived TransferDirection = "received"
)

// BankTransfer is an immutable history row written once per side when a
// transfer settles.
type BankTransfer struct {
	ID             int64             `json:"id"`
	Reference      string            `json:"reference"`
	AccountID      int64             `json:"account_id"`
	UserID         int64             `json:"user_id"`
	CounterpartID  int64             `json:"counterpart_id"`
	CounterpartTag string            `json:"counterpart_tag"`
	Direction      TransferDirection `json:"direction"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	Note           string            `json:"note"`
	CreatedAt      time.Time         `json:"created_at"`
}

// RequestStatus is the lifecycle state of a TransferRequest or a
// PartyMember. Pending is the only non-terminal state.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusDeclined RequestStatus = "declined"
)

// Terminal reports whether the status can no longer change.
func (s RequestStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// TransferRequest is a transfer awaiting the recipient's response. A
// plain request settles from the requester's stored account into the
// account the accepting recipient picks; a party-linked request is the
// member's share, paid the other way into the host account. Either way
// it reaches a terminal status exactly once, and acceptance settles the
// balances in the same atomic unit that flips the status.
type TransferRequest struct {
	ID                 int64           `json:"id"`
	RequesterID        int64           `json:"requester_id"`
	RequesterTag       string          `json:"requester_tag"`
	RecipientID        int64           `json:"recipient_id"`
	RecipientTag       string          `json:"recipient_tag"`
	RequesterAccountID int64           `json:"requester_account_id"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Note               string          `json:"note"`
	PartyID            *int64          `json:"party_id,omitempty"`
	Status             RequestStatus   `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
}
