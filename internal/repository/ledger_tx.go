package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
)

// ledgerTx implements LedgerTx on one sql.Tx.
type ledgerTx struct {
	ctx context.Context
	tx  *sql.Tx
}

// AccountForUpdate reads an account under a row lock. Two settlements
// racing on the same account block here and see each other's writes.
func (t *ledgerTx) AccountForUpdate(id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bank.accounts
		WHERE id = $1 AND closed_at IS NULL FOR UPDATE`
	return scanAccount(t.tx.QueryRowContext(t.ctx, query, id))
}

// AddToBalance applies a signed delta to an account balance.
func (t *ledgerTx) AddToBalance(accountID int64, delta decimal.Decimal) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE bank.accounts SET balance = balance + $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND closed_at IS NULL`, delta, accountID)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperrors.NotFoundError{Resource: "account"}
	}
	return nil
}

// InsertBankTransfer appends one immutable history row.
func (t *ledgerTx) InsertBankTransfer(transfer *models.BankTransfer) error {
	err := t.tx.QueryRowContext(t.ctx, `
		INSERT INTO bank.bank_transfers
			(reference, account_id, user_id, counterpart_id, direction, amount, currency, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		RETURNING id, created_at`,
		transfer.Reference, transfer.AccountID, transfer.UserID, transfer.CounterpartID,
		transfer.Direction, transfer.Amount, transfer.Currency, transfer.Note).
		Scan(&transfer.ID, &transfer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	return nil
}

// SettleRequestStatus moves a request from pending to a terminal
// status. Compare-and-set: if the row is no longer pending the update
// matches nothing and the caller gets a ConflictError, so the loser of
// a double-accept race always finds out.
func (t *ledgerTx) SettleRequestStatus(requestID int64, to models.RequestStatus) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE bank.transfer_requests SET status = $1
		WHERE id = $2 AND status = 'pending'`, to, requestID)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperrors.ConflictError{Reason: "transfer request already settled"}
	}
	return nil
}

// SettlePartyMemberStatus is the same compare-and-set for a party
// member's share.
func (t *ledgerTx) SettlePartyMemberStatus(memberID int64, to models.RequestStatus) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE bank.party_members SET status = $1
		WHERE id = $2 AND status = 'pending'`, to, memberID)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperrors.ConflictError{Reason: "party member already responded"}
	}
	return nil
}

// InsertCardTransaction appends one immutable card debit row.
func (t *ledgerTx) InsertCardTransaction(transaction *models.CardTransaction) error {
	err := t.tx.QueryRowContext(t.ctx, `
		INSERT INTO bank.card_transactions
			(reference, card_id, account_id, amount, currency, merchant, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING id, created_at`,
		transaction.Reference, transaction.CardID, transaction.AccountID,
		transaction.Amount, transaction.Currency, transaction.Merchant).
		Scan(&transaction.ID, &transaction.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert card transaction: %w", err)
	}
	return nil
}

// AddCardSpend bumps the card's running spend, guarded by the card
// limit in the same statement.
func (t *ledgerTx) AddCardSpend(cardID int64, amount decimal.Decimal) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE bank.cards SET limit_current = limit_current + $1
		WHERE id = $2 AND limit_current + $1 <= spend_limit`, amount, cardID)
	if err != nil {
		return fmt.Errorf("failed to update card spend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperrors.ConflictError{Reason: "card limit exceeded"}
	}
	return nil
}

var _ LedgerTx = (*ledgerTx)(nil)
