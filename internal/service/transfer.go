package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
	"github.com/andrei-d/partybank/internal/notify"
	"github.com/andrei-d/partybank/internal/repository"
)

const maxNoteLength = 120

// RespondAction is what a recipient does with a pending request.
type RespondAction string

const (
	ActionAccept  RespondAction = "accept"
	ActionDecline RespondAction = "decline"
)

// SendResult is the outcome of Send: either the transfer settled
// immediately (Transfer holds the sender-side history row) or a
// pending request was created instead.
type SendResult struct {
	Transfer *models.BankTransfer    `json:"transfer,omitempty"`
	Request  *models.TransferRequest `json:"request,omitempty"`
}

// Send moves money to the user addressed by tag. It settles
// immediately when the recipient's default account matches the
// transfer currency and the sender-side conversion is resolvable;
// otherwise it creates a pending TransferRequest with no balance
// effect. Amount is denominated in currency; a sender account held in
// a different currency is debited via reverse conversion so the
// recipient receives exactly amount.
func (s *Service) Send(ctx context.Context, senderID, senderAccountID int64, recipientTag string, amount decimal.Decimal, currency, note string) (*SendResult, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	if len(note) > maxNoteLength {
		return nil, &apperrors.ValidationError{Field: "note", Reason: "too long"}
	}

	senderAccount, err := s.ownedAccount(ctx, senderID, senderAccountID)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = senderAccount.Currency
	}

	recipient, err := s.store.FindUserByTag(ctx, recipientTag)
	if err != nil {
		return nil, err
	}
	if recipient.ID == senderID {
		return nil, &apperrors.ValidationError{Field: "recipient_tag", Reason: "cannot send to yourself"}
	}
	sender, err := s.store.FindUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	debitAmount, debitOK := s.debitAmountFor(senderAccount.Currency, currency, amount)

	target, err := s.store.DefaultAccount(ctx, recipient.ID)
	eligible := err == nil && target.Currency == currency
	if err != nil {
		var nf *apperrors.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	if !eligible || !debitOK {
		request := &models.TransferRequest{
			RequesterID:        senderID,
			RecipientID:        recipient.ID,
			RecipientTag:       recipient.Tag,
			RequesterAccountID: senderAccountID,
			Amount:             amount,
			Currency:           currency,
			Note:               note,
			Status:             models.StatusPending,
		}
		if err := s.store.CreateTransferRequest(ctx, request); err != nil {
			return nil, err
		}
		s.log.Infof("Transfer request %d created: user %d -> @%s, %s %s",
			request.ID, senderID, recipientTag, amount, currency)
		s.notifier.Notify(recipient, notify.EventTransferRequest, map[string]string{
			"from": "@" + sender.Tag, "amount": amount.String(), "currency": currency,
		})
		return &SendResult{Request: request}, nil
	}

	sent, _, err := s.settle(ctx, settlement{
		payerUserID:    senderID,
		payerAccountID: senderAccountID,
		payeeUserID:    recipient.ID,
		payeeAccountID: target.ID,
		debitAmount:    debitAmount,
		debitCurrency:  senderAccount.Currency,
		creditAmount:   amount,
		creditCurrency: currency,
		note:           note,
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Transfer %s settled: user %d -> @%s, %s %s",
		sent.Reference, senderID, recipientTag, amount, currency)
	s.notifier.Notify(recipient, notify.EventTransferReceived, map[string]string{
		"from": "@" + sender.Tag, "amount": amount.String(), "currency": currency,
	})
	return &SendResult{Transfer: sent}, nil
}

// Respond settles or declines a pending transfer request. Only the
// designated recipient may respond, and only once: a second respond
// hits the compare-and-set and fails with ConflictError, balances
// untouched.
func (s *Service) Respond(ctx context.Context, callerID, requestID int64, action RespondAction, accountID int64) (*models.TransferRequest, error) {
	request, err := s.store.FindTransferRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.respondToRequest(ctx, callerID, request, action, accountID)
}

// respondToRequest is shared by Respond and RespondToParty. A
// party-linked request is paid by the caller into the host account;
// a plain request is paid by the requester into the caller's chosen
// account.
func (s *Service) respondToRequest(ctx context.Context, callerID int64, request *models.TransferRequest, action RespondAction, accountID int64) (*models.TransferRequest, error) {
	if request.RecipientID != callerID {
		return nil, &apperrors.ValidationError{Field: "request_id", Reason: "caller is not the recipient"}
	}
	if request.Status != models.StatusPending {
		return nil, &apperrors.ConflictError{Reason: "transfer request already settled"}
	}

	var member *models.PartyMember
	if request.PartyID != nil {
		party, err := s.store.FindPartyByID(ctx, *request.PartyID)
		if err != nil {
			return nil, err
		}
		for i := range party.Members {
			if party.Members[i].UserID == callerID {
				member = &party.Members[i]
				break
			}
		}
		if member == nil {
			return nil, &apperrors.NotFoundError{Resource: "party member"}
		}
	}

	switch action {
	case ActionDecline:
		err := s.store.InTx(ctx, func(tx repository.LedgerTx) error {
			if err := tx.SettleRequestStatus(request.ID, models.StatusDeclined); err != nil {
				return err
			}
			if member != nil {
				return tx.SettlePartyMemberStatus(member.ID, models.StatusDeclined)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		request.Status = models.StatusDeclined
	case ActionAccept:
		if err := s.acceptRequest(ctx, callerID, request, member, accountID); err != nil {
			return nil, err
		}
		request.Status = models.StatusAccepted
	default:
		return nil, &apperrors.ValidationError{Field: "action", Reason: "must be accept or decline"}
	}

	s.log.Infof("Transfer request %d %s by user %d", request.ID, request.Status, callerID)
	if requester, err := s.store.FindUserByID(ctx, request.RequesterID); err == nil {
		event := notify.EventRequestAccepted
		if request.Status == models.StatusDeclined {
			event = notify.EventRequestDeclined
		}
		if request.PartyID != nil {
			event = notify.EventPartyResponse
		}
		s.notifier.Notify(requester, event, map[string]string{
			"amount": request.Amount.String(), "currency": request.Currency,
			"status": string(request.Status),
		})
	}
	return request, nil
}

// acceptRequest performs the balance mutation for an accepted request
// in one atomic unit together with the status compare-and-set.
func (s *Service) acceptRequest(ctx context.Context, callerID int64, request *models.TransferRequest, member *models.PartyMember, accountID int64) error {
	callerAccount, err := s.ownedAccount(ctx, callerID, accountID)
	if err != nil {
		return err
	}

	st := settlement{note: request.Note}
	if member != nil {
		// Party share: the caller pays their share into the host
		// account, which is held in the request currency.
		debit, ok := s.debitAmountFor(callerAccount.Currency, request.Currency, request.Amount)
		if !ok {
			return &apperrors.ExchangeUnavailableError{From: callerAccount.Currency, To: request.Currency}
		}
		st.payerUserID = callerID
		st.payerAccountID = callerAccount.ID
		st.payeeUserID = request.RequesterID
		st.payeeAccountID = request.RequesterAccountID
		st.debitAmount = debit
		st.debitCurrency = callerAccount.Currency
		st.creditAmount = request.Amount
		st.creditCurrency = request.Currency
	} else {
		// Plain request: the requester's stored account pays into the
		// account the caller picked to receive with.
		requesterAccount, err := s.store.FindAccountByID(ctx, request.RequesterAccountID)
		if err != nil {
			return err
		}
		debit, ok := s.debitAmountFor(requesterAccount.Currency, request.Currency, request.Amount)
		if !ok {
			return &apperrors.ExchangeUnavailableError{From: requesterAccount.Currency, To: request.Currency}
		}
		credit := request.Amount
		if callerAccount.Currency != request.Currency {
			credit, err = s.fx.Convert(request.Currency, callerAccount.Currency, request.Amount)
			if err != nil {
				return err
			}
		}
		st.payerUserID = request.RequesterID
		st.payerAccountID = requesterAccount.ID
		st.payeeUserID = callerID
		st.payeeAccountID = callerAccount.ID
		st.debitAmount = debit
		st.debitCurrency = requesterAccount.Currency
		st.creditAmount = credit
		st.creditCurrency = callerAccount.Currency
	}

	_, _, err = s.settleWithStatus(ctx, st, func(tx repository.LedgerTx) error {
		if err := tx.SettleRequestStatus(request.ID, models.StatusAccepted); err != nil {
			return err
		}
		if member != nil {
			return tx.SettlePartyMemberStatus(member.ID, models.StatusAccepted)
		}
		return nil
	})
	return err
}

// settlement describes one atomic balance move plus its history rows.
type settlement struct {
	payerUserID    int64
	payerAccountID int64
	payeeUserID    int64
	payeeAccountID int64
	debitAmount    decimal.Decimal
	debitCurrency  string
	creditAmount   decimal.Decimal
	creditCurrency string
	note           string
}

// settle runs one settlement in a single transaction.
func (s *Service) settle(ctx context.Context, st settlement) (*models.BankTransfer, *models.BankTransfer, error) {
	return s.settleWithStatus(ctx, st, nil)
}

// settleWithStatus runs the optional status transition first (the
// compare-and-set makes the loser of a race fail before any balance is
// read), then locks both accounts in id order, checks funds, moves the
// balances and appends the two history rows. Any error rolls back the
// whole unit.
func (s *Service) settleWithStatus(ctx context.Context, st settlement, status func(repository.LedgerTx) error) (*models.BankTransfer, *models.BankTransfer, error) {
	if st.payerAccountID == st.payeeAccountID {
		return nil, nil, &apperrors.ValidationError{Field: "account_id", Reason: "source and target are the same account"}
	}

	reference := uuid.NewString()
	sent := &models.BankTransfer{
		Reference:     reference,
		AccountID:     st.payerAccountID,
		UserID:        st.payerUserID,
		CounterpartID: st.payeeUserID,
		Direction:     models.TransferSent,
		Amount:        st.debitAmount,
		Currency:      st.debitCurrency,
		Note:          st.note,
	}
	received := &models.BankTransfer{
		Reference:     reference,
		AccountID:     st.payeeAccountID,
		UserID:        st.payeeUserID,
		CounterpartID: st.payerUserID,
		Direction:     models.TransferReceived,
		Amount:        st.creditAmount,
		Currency:      st.creditCurrency,
		Note:          st.note,
	}

	err := s.store.InTx(ctx, func(tx repository.LedgerTx) error {
		if status != nil {
			if err := status(tx); err != nil {
				return err
			}
		}

		// Lock in id order so two opposite settlements cannot deadlock.
		first, second := st.payerAccountID, st.payeeAccountID
		if second < first {
			first, second = second, first
		}
		a1, err := tx.AccountForUpdate(first)
		if err != nil {
			return err
		}
		a2, err := tx.AccountForUpdate(second)
		if err != nil {
			return err
		}
		payer := a1
		if a2.ID == st.payerAccountID {
			payer = a2
		}
		if !payer.CanDebit(st.debitAmount) {
			return &apperrors.InsufficientFundsError{AccountID: payer.ID}
		}

		if err := tx.AddToBalance(st.payerAccountID, st.debitAmount.Neg()); err != nil {
			return err
		}
		if err := tx.AddToBalance(st.payeeAccountID, st.creditAmount); err != nil {
			return err
		}
		if err := tx.InsertBankTransfer(sent); err != nil {
			return err
		}
		return tx.InsertBankTransfer(received)
	})
	if err != nil {
		return nil, nil, err
	}
	return sent, received, nil
}

// debitAmountFor computes how much of fromCurrency must be debited to
// deliver amount of toCurrency. Same currency passes through; a
// missing rate reports false.
func (s *Service) debitAmountFor(fromCurrency, toCurrency string, amount decimal.Decimal) (decimal.Decimal, bool) {
	if fromCurrency == toCurrency {
		return amount, true
	}
	debit, err := s.fx.ReverseConvert(fromCurrency, toCurrency, amount)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return debit, true
}
