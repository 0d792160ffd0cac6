package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
)

// CreateParty creates a party, its member rows and one party-linked
// transfer request per member, all in one transaction; any failed
// insert leaves nothing behind. The linked request is the vehicle a
// member settles their share through, so its status transition and the
// member row's stay in lockstep inside the settlement transaction.
func (r *Repository) CreateParty(ctx context.Context, party *models.Party) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bank.parties (host_id, host_account_id, note, total, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		party.HostID, party.HostAccountID, party.Note, party.Total, party.Currency).
		Scan(&party.ID, &party.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create party: %w", err)
	}

	for i := range party.Members {
		m := &party.Members[i]
		m.PartyID = party.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO bank.party_members (party_id, user_id, amount, status, created_at)
			VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
			RETURNING id, created_at`,
			m.PartyID, m.UserID, m.Amount, m.Status).
			Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create party member: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO bank.transfer_requests
				(requester_id, recipient_id, requester_account_id, amount, currency, note, party_id, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', CURRENT_TIMESTAMP)`,
			party.HostID, m.UserID, party.HostAccountID, m.Amount, party.Currency, party.Note, party.ID)
		if err != nil {
			return fmt.Errorf("failed to create party member request: %w", err)
		}
	}
	return tx.Commit()
}

// FindPartyByID retrieves a party with its members.
func (r *Repository) FindPartyByID(ctx context.Context, id int64) (*models.Party, error) {
	party := &models.Party{}
	query := `SELECT id, host_id, host_account_id, note, total, currency, created_at
		FROM bank.parties WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&party.ID, &party.HostID, &party.HostAccountID, &party.Note,
			&party.Total, &party.Currency, &party.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Resource: "party"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find party: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.party_id, m.user_id, u.tag, m.amount, m.status, m.created_at
		FROM bank.party_members m
		JOIN bank.users u ON u.id = m.user_id
		WHERE m.party_id = $1
		ORDER BY m.id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list party members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := models.PartyMember{}
		if err := rows.Scan(&m.ID, &m.PartyID, &m.UserID, &m.UserTag,
			&m.Amount, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan party member: %w", err)
		}
		party.Members = append(party.Members, m)
	}
	return party, rows.Err()
}
