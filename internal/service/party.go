package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
	"github.com/andrei-d/partybank/internal/notify"
)

// MemberShare is one invited tag and the amount they owe.
type MemberShare struct {
	Tag    string          `json:"tag"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateParty creates a group bill split. Every share must be
// positive, every tag must resolve, and duplicate tags collapse into
// one member. The party total is the sum of the kept shares and its
// currency is the host account's. Each member gets a pending,
// party-linked transfer request they settle their share through.
func (s *Service) CreateParty(ctx context.Context, hostID, hostAccountID int64, note string, shares []MemberShare) (*models.Party, error) {
	if len(note) == 0 || len(note) > maxNoteLength {
		return nil, &apperrors.ValidationError{Field: "note", Reason: "must be 1-120 characters"}
	}
	if len(shares) == 0 {
		return nil, &apperrors.ValidationError{Field: "members", Reason: "at least one member required"}
	}

	hostAccount, err := s.ownedAccount(ctx, hostID, hostAccountID)
	if err != nil {
		return nil, err
	}
	host, err := s.store.FindUserByID(ctx, hostID)
	if err != nil {
		return nil, err
	}

	party := &models.Party{
		HostID:        hostID,
		HostAccountID: hostAccountID,
		Note:          note,
		Currency:      hostAccount.Currency,
		Total:         decimal.Zero,
	}

	seen := make(map[int64]bool)
	var invited []*models.User
	for _, share := range shares {
		if err := validAmount(share.Amount); err != nil {
			return nil, err
		}
		member, err := s.store.FindUserByTag(ctx, share.Tag)
		if err != nil {
			var nf *apperrors.NotFoundError
			if errors.As(err, &nf) {
				return nil, &apperrors.NotFoundError{Resource: fmt.Sprintf("user %q", share.Tag)}
			}
			return nil, err
		}
		if seen[member.ID] {
			continue
		}
		seen[member.ID] = true
		party.Members = append(party.Members, models.PartyMember{
			UserID:  member.ID,
			UserTag: member.Tag,
			Amount:  share.Amount,
			Status:  models.StatusPending,
		})
		party.Total = party.Total.Add(share.Amount)
		invited = append(invited, member)
	}

	if err := s.store.CreateParty(ctx, party); err != nil {
		return nil, err
	}

	s.log.Infof("Party %d created by user %d: %s %s across %d members",
		party.ID, hostID, party.Total, party.Currency, len(party.Members))
	for i, member := range invited {
		if member.ID == hostID {
			continue
		}
		s.notifier.Notify(member, notify.EventPartyInvite, map[string]string{
			"from":     "@" + host.Tag,
			"amount":   party.Members[i].Amount.String(),
			"currency": party.Currency,
			"note":     note,
		})
	}
	return party, nil
}

// RespondToParty settles or declines the caller's share of the party.
// Acceptance moves the share from the chosen account to the host
// account under the same atomicity and idempotency rules as a plain
// transfer request.
func (s *Service) RespondToParty(ctx context.Context, callerID, partyID int64, action RespondAction, accountID int64) (*models.TransferRequest, error) {
	request, err := s.store.FindPartyRequest(ctx, partyID, callerID)
	if err != nil {
		return nil, err
	}
	return s.respondToRequest(ctx, callerID, request, action, accountID)
}

// GetParty returns the party with its members; only the host and
// members may see it.
func (s *Service) GetParty(ctx context.Context, callerID, partyID int64) (*models.Party, error) {
	party, err := s.store.FindPartyByID(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if party.HostID != callerID {
		allowed := false
		for _, m := range party.Members {
			if m.UserID == callerID {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, &apperrors.NotFoundError{Resource: "party"}
		}
	}
	return party, nil
}
