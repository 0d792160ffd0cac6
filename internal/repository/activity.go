package repository

import (
	"context"
	"fmt"

	"github.com/andrei-d/partybank/internal/models"
)

// ListBankTransfers lists a user's transfer history, newest first,
// optionally filtered to one counterpart.
func (r *Repository) ListBankTransfers(ctx context.Context, userID int64, counterpartID *int64, limit, offset int) ([]models.BankTransfer, error) {
	query := `
		SELECT t.id, t.reference, t.account_id, t.user_id, t.counterpart_id, u.tag,
			t.direction, t.amount, t.currency, t.note, t.created_at
		FROM bank.bank_transfers t
		JOIN bank.users u ON u.id = t.counterpart_id
		WHERE t.user_id = $1 AND ($2::bigint IS NULL OR t.counterpart_id = $2)
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, userID, counterpartID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []models.BankTransfer
	for rows.Next() {
		t := models.BankTransfer{}
		if err := rows.Scan(&t.ID, &t.Reference, &t.AccountID, &t.UserID,
			&t.CounterpartID, &t.CounterpartTag, &t.Direction, &t.Amount,
			&t.Currency, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// ListCardTransactions lists card debits across all of the user's
// accounts, newest first.
func (r *Repository) ListCardTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.CardTransaction, error) {
	query := `
		SELECT t.id, t.reference, t.card_id, t.account_id, t.amount, t.currency, t.merchant, t.created_at
		FROM bank.card_transactions t
		JOIN bank.accounts a ON a.id = t.account_id
		WHERE a.user_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list card transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.CardTransaction
	for rows.Next() {
		t := models.CardTransaction{}
		if err := rows.Scan(&t.ID, &t.Reference, &t.CardID, &t.AccountID,
			&t.Amount, &t.Currency, &t.Merchant, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// ListTransferRequests lists requests where the user is either side,
// newest first, optionally filtered to one counterpart.
func (r *Repository) ListTransferRequests(ctx context.Context, userID int64, counterpartID *int64, limit, offset int) ([]models.TransferRequest, error) {
	query := `
		SELECT r.id, r.requester_id, ru.tag, r.recipient_id, cu.tag,
			r.requester_account_id, r.amount, r.currency, r.note, r.party_id, r.status, r.created_at
		FROM bank.transfer_requests r
		JOIN bank.users ru ON ru.id = r.requester_id
		JOIN bank.users cu ON cu.id = r.recipient_id
		WHERE (r.requester_id = $1 OR r.recipient_id = $1)
			AND ($2::bigint IS NULL OR r.requester_id = $2 OR r.recipient_id = $2)
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, userID, counterpartID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfer requests: %w", err)
	}
	defer rows.Close()

	var requests []models.TransferRequest
	for rows.Next() {
		req := models.TransferRequest{}
		if err := rows.Scan(&req.ID, &req.RequesterID, &req.RequesterTag,
			&req.RecipientID, &req.RecipientTag, &req.RequesterAccountID,
			&req.Amount, &req.Currency, &req.Note, &req.PartyID,
			&req.Status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
