package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
	"github.com/andrei-d/partybank/internal/repository"
	"github.com/andrei-d/partybank/internal/utils"
)

// CreateAccount opens a new account for the user. Credit accounts get
// their limit from the currency's credit offer; every account starts
// at balance zero. The user's first account becomes the default.
func (s *Service) CreateAccount(ctx context.Context, userID int64, accType models.AccountType, name, color, currency string, creditAmount decimal.Decimal) (*models.Account, error) {
	if len(name) < 2 || len(name) > 30 {
		return nil, &apperrors.ValidationError{Field: "name", Reason: "must be 2-30 characters"}
	}
	switch accType {
	case models.AccountDebit, models.AccountSavings, models.AccountCredit:
	default:
		return nil, &apperrors.ValidationError{Field: "type", Reason: "must be debit, savings or credit"}
	}

	account := &models.Account{
		UserID:   userID,
		Type:     accType,
		Name:     name,
		Color:    color,
		Currency: currency,
		Balance:  decimal.Zero,
	}

	if accType == models.AccountCredit {
		offer, err := s.store.FindCreditOffer(ctx, currency)
		if err != nil {
			var nf *apperrors.NotFoundError
			if errors.As(err, &nf) {
				return nil, &apperrors.ValidationError{Field: "currency", Reason: "no credit offer for currency"}
			}
			return nil, err
		}
		if creditAmount.LessThan(offer.MinAmount) || creditAmount.GreaterThan(offer.MaxAmount) {
			return nil, &apperrors.ValidationError{
				Field:  "credit_amount",
				Reason: fmt.Sprintf("must be between %s and %s %s", offer.MinAmount, offer.MaxAmount, currency),
			}
		}
		account.CreditLimit = creditAmount
		account.InterestRate = offer.InterestRate
	}

	iban, err := utils.GenerateIBAN("RO")
	if err != nil {
		return nil, fmt.Errorf("failed to generate IBAN: %w", err)
	}
	account.IBAN = iban

	if _, err := s.store.DefaultAccount(ctx, userID); err != nil {
		var nf *apperrors.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
		account.Default = true
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.log.Infof("Account %d (%s, %s) created for user %d", account.ID, account.Type, account.Currency, userID)
	return account, nil
}

// ListAccounts returns the user's open accounts.
func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	return s.store.ListAccountsByUser(ctx, userID)
}

// SetDefaultAccount designates the account receiving unsolicited
// incoming transfers.
func (s *Service) SetDefaultAccount(ctx context.Context, userID, accountID int64) error {
	if _, err := s.ownedAccount(ctx, userID, accountID); err != nil {
		return err
	}
	return s.store.SetDefaultAccount(ctx, userID, accountID)
}

// CloseAccount closes the account. It must hold exactly zero and no
// pending request or party share may still reference it.
func (s *Service) CloseAccount(ctx context.Context, userID, accountID int64) error {
	account, err := s.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}
	if !account.Balance.IsZero() {
		return &apperrors.ConflictError{Reason: "account balance must be zero"}
	}
	pending, err := s.store.CountPendingForAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return &apperrors.ConflictError{Reason: "account has pending transfer requests"}
	}
	if err := s.store.CloseAccount(ctx, accountID); err != nil {
		return err
	}
	s.log.Infof("Account %d closed by user %d", accountID, userID)
	return nil
}

// IssueCard issues a card on the account. Number, CVV and PIN are
// present on the returned card only; the store keeps the last four
// digits and a bcrypt hash of the PIN.
func (s *Service) IssueCard(ctx context.Context, userID, accountID int64, limit decimal.Decimal) (*models.Card, error) {
	if _, err := s.ownedAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}
	if limit.LessThanOrEqual(decimal.Zero) {
		return nil, &apperrors.ValidationError{Field: "limit", Reason: "must be positive"}
	}

	number, err := utils.GenerateCardNumber("400000", 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate card number: %w", err)
	}
	cvv := utils.GenerateCVV()
	pin := utils.GeneratePIN()

	pinHash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	card := &models.Card{
		AccountID:  accountID,
		LastFour:   number[len(number)-4:],
		Number:     &number,
		CVV:        &cvv,
		PIN:        &pin,
		PINHash:    string(pinHash),
		ExpiryDate: utils.GenerateExpiryDate(),
		Limit:      limit,
	}

	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, err
	}

	s.log.Infof("Card %d issued on account %d", card.ID, accountID)
	return card, nil
}

// ListCards returns the cards issued on the account, secrets hidden.
func (s *Service) ListCards(ctx context.Context, userID, accountID int64) ([]models.Card, error) {
	if _, err := s.ownedAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}
	return s.store.ListCardsByAccount(ctx, accountID)
}

// ApplyCardTransaction records a card-driven debit: the account
// balance drops and the card's running spend rises in one atomic unit.
func (s *Service) ApplyCardTransaction(ctx context.Context, userID, cardID int64, amount decimal.Decimal, merchant string) (*models.CardTransaction, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	card, err := s.store.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedAccount(ctx, userID, card.AccountID); err != nil {
		return nil, err
	}

	transaction := &models.CardTransaction{
		Reference: uuid.NewString(),
		CardID:    card.ID,
		AccountID: card.AccountID,
		Amount:    amount,
		Merchant:  merchant,
	}

	err = s.store.InTx(ctx, func(tx repository.LedgerTx) error {
		account, err := tx.AccountForUpdate(card.AccountID)
		if err != nil {
			return err
		}
		if !account.CanDebit(amount) {
			return &apperrors.InsufficientFundsError{AccountID: account.ID}
		}
		transaction.Currency = account.Currency
		if err := tx.AddCardSpend(card.ID, amount); err != nil {
			return err
		}
		if err := tx.AddToBalance(account.ID, amount.Neg()); err != nil {
			return err
		}
		return tx.InsertCardTransaction(transaction)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Card transaction %s: %s %s at %s", transaction.Reference, amount, transaction.Currency, merchant)
	return transaction, nil
}

// ownedAccount loads the account and verifies ownership.
func (s *Service) ownedAccount(ctx context.Context, userID, accountID int64) (*models.Account, error) {
	account, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, &apperrors.ValidationError{Field: "account_id", Reason: "account does not belong to user"}
	}
	return account, nil
}

// validAmount rejects non-positive amounts and more than two decimal
// places on any balance-affecting input.
func validAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &apperrors.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if !amount.Equal(amount.Round(2)) {
		return &apperrors.ValidationError{Field: "amount", Reason: "at most two decimal places"}
	}
	return nil
}
