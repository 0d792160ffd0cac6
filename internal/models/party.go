package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Party is a group bill split: the host fronts the bill and each member
// owes their share. Total always equals the sum of member amounts.
type Party struct {
	ID            int64           `json:"id"`
	HostID        int64           `json:"host_id"`
	HostAccountID int64           `json:"host_account_id"`
	Note          string          `json:"note"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Members       []PartyMember   `json:"members,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PartyMember is one invited user's share of a party bill.
type PartyMember struct {
	ID        int64           `json:"id"`
	PartyID   int64           `json:"party_id"`
	UserID    int64           `json:"user_id"`
	UserTag   string          `json:"user_tag"`
	Amount    decimal.Decimal `json:"amount"`
	Status    RequestStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Complete reports whether every member reached a terminal status.
// Derived on read so it cannot race member-status writes.
func (p *Party) Complete() bool {
	for _, m := range p.Members {
		if !m.Status.Terminal() {
			return false
		}
	}
	return true
}
