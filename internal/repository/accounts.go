package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
)

const accountColumns = `id, user_id, iban, type, name, color, currency, balance,
	credit_limit, interest_rate, is_default, created_at, updated_at`

func scanAccount(row interface {
	Scan(dest ...interface{}) error
}) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.UserID, &a.IBAN, &a.Type, &a.Name, &a.Color,
		&a.Currency, &a.Balance, &a.CreditLimit, &a.InterestRate,
		&a.Default, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Resource: "account"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return a, nil
}

// CreateAccount creates a new account in the database
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO bank.accounts
			(user_id, iban, type, name, color, currency, balance, credit_limit, interest_rate, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		account.UserID, account.IBAN, account.Type, account.Name, account.Color,
		account.Currency, account.Balance, account.CreditLimit, account.InterestRate,
		account.Default).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindAccountByID retrieves an account by id
func (r *Repository) FindAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bank.accounts WHERE id = $1 AND closed_at IS NULL`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// ListAccountsByUser retrieves all open accounts of a user
func (r *Repository) ListAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bank.accounts
		WHERE user_id = $1 AND closed_at IS NULL ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// DefaultAccount retrieves the account designated to receive
// unsolicited incoming transfers.
func (r *Repository) DefaultAccount(ctx context.Context, userID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bank.accounts
		WHERE user_id = $1 AND is_default AND closed_at IS NULL`
	return scanAccount(r.db.QueryRowContext(ctx, query, userID))
}

// SetDefaultAccount moves the default flag to the given account.
func (r *Repository) SetDefaultAccount(ctx context.Context, userID, accountID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE bank.accounts SET is_default = FALSE WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear default flag: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE bank.accounts SET is_default = TRUE WHERE id = $1 AND user_id = $2 AND closed_at IS NULL`,
		accountID, userID)
	if err != nil {
		return fmt.Errorf("failed to set default flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperrors.NotFoundError{Resource: "account"}
	}
	return tx.Commit()
}

// CloseAccount marks the account closed. The service verifies the
// zero-balance and no-pending-reference preconditions first.
func (r *Repository) CloseAccount(ctx context.Context, accountID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank.accounts SET closed_at = CURRENT_TIMESTAMP WHERE id = $1 AND closed_at IS NULL`,
		accountID)
	if err != nil {
		return fmt.Errorf("failed to close account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperrors.NotFoundError{Resource: "account"}
	}
	return nil
}

// CountPendingForAccount counts pending transfer requests and party
// memberships that reference the account as source or target.
func (r *Repository) CountPendingForAccount(ctx context.Context, accountID int64) (int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM bank.transfer_requests
				WHERE requester_account_id = $1 AND status = 'pending')
			+
			(SELECT COUNT(*) FROM bank.parties p
				JOIN bank.party_members m ON m.party_id = p.id
				WHERE p.host_account_id = $1 AND m.status = 'pending')`
	var n int
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending references: %w", err)
	}
	return n, nil
}

// FindCreditOffer retrieves the credit product for a currency
func (r *Repository) FindCreditOffer(ctx context.Context, currency string) (*models.CreditOffer, error) {
	offer := &models.CreditOffer{}
	query := `SELECT id, currency, min_amount, max_amount, interest_rate
		FROM bank.credit_offers WHERE currency = $1`
	err := r.db.QueryRowContext(ctx, query, currency).
		Scan(&offer.ID, &offer.Currency, &offer.MinAmount, &offer.MaxAmount, &offer.InterestRate)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Resource: "credit offer"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find credit offer: %w", err)
	}
	return offer, nil
}
