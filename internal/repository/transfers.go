package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
)

// CreateTransferRequest creates a pending transfer request. No balance
// is touched until the recipient responds.
func (r *Repository) CreateTransferRequest(ctx context.Context, req *models.TransferRequest) error {
	query := `
		INSERT INTO bank.transfer_requests
			(requester_id, recipient_id, requester_account_id, amount, currency, note, party_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		req.RequesterID, req.RecipientID, req.RequesterAccountID,
		req.Amount, req.Currency, req.Note, req.PartyID, req.Status).
		Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transfer request: %w", err)
	}
	return nil
}

const requestSelect = `
	SELECT r.id, r.requester_id, ru.tag, r.recipient_id, cu.tag,
		r.requester_account_id, r.amount, r.currency, r.note, r.party_id, r.status, r.created_at
	FROM bank.transfer_requests r
	JOIN bank.users ru ON ru.id = r.requester_id
	JOIN bank.users cu ON cu.id = r.recipient_id`

func scanRequest(row *sql.Row) (*models.TransferRequest, error) {
	req := &models.TransferRequest{}
	err := row.Scan(&req.ID, &req.RequesterID, &req.RequesterTag, &req.RecipientID, &req.RecipientTag,
		&req.RequesterAccountID, &req.Amount, &req.Currency, &req.Note, &req.PartyID,
		&req.Status, &req.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Resource: "transfer request"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transfer request: %w", err)
	}
	return req, nil
}

// FindTransferRequestByID retrieves a transfer request with the
// requester and recipient tags joined in.
func (r *Repository) FindTransferRequestByID(ctx context.Context, id int64) (*models.TransferRequest, error) {
	return scanRequest(r.db.QueryRowContext(ctx, requestSelect+` WHERE r.id = $1`, id))
}

// FindPartyRequest retrieves the request a party member settles their
// share through.
func (r *Repository) FindPartyRequest(ctx context.Context, partyID, recipientID int64) (*models.TransferRequest, error) {
	return scanRequest(r.db.QueryRowContext(ctx,
		requestSelect+` WHERE r.party_id = $1 AND r.recipient_id = $2`, partyID, recipientID))
}
