// Package repository provides database operations. Store is the
// surface the services depend on; Repository implements it on
// Postgres. Every balance-mutating operation runs inside InTx, which
// gives the closure row-locked reads and compare-and-set status
// transitions so racing settlements serialize on the storage layer.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andrei-d/partybank/internal/models"
)

// Store is the persistence surface used by the service layer.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByTag(ctx context.Context, tag string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)

	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccountByID(ctx context.Context, id int64) (*models.Account, error)
	ListAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error)
	DefaultAccount(ctx context.Context, userID int64) (*models.Account, error)
	SetDefaultAccount(ctx context.Context, userID, accountID int64) error
	CloseAccount(ctx context.Context, accountID int64) error
	CountPendingForAccount(ctx context.Context, accountID int64) (int, error)

	FindCreditOffer(ctx context.Context, currency string) (*models.CreditOffer, error)

	CreateCard(ctx context.Context, card *models.Card) error
	FindCardByID(ctx context.Context, id int64) (*models.Card, error)
	ListCardsByAccount(ctx context.Context, accountID int64) ([]models.Card, error)

	CreateTransferRequest(ctx context.Context, req *models.TransferRequest) error
	FindTransferRequestByID(ctx context.Context, id int64) (*models.TransferRequest, error)
	FindPartyRequest(ctx context.Context, partyID, recipientID int64) (*models.TransferRequest, error)

	CreateParty(ctx context.Context, party *models.Party) error
	FindPartyByID(ctx context.Context, id int64) (*models.Party, error)

	ListBankTransfers(ctx context.Context, userID int64, counterpartID *int64, limit, offset int) ([]models.BankTransfer, error)
	ListCardTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.CardTransaction, error)
	ListTransferRequests(ctx context.Context, userID int64, counterpartID *int64, limit, offset int) ([]models.TransferRequest, error)

	InTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the view of one atomic unit. AccountForUpdate takes a
// row lock, so two settlements racing on the same account serialize;
// the status updates are compare-and-set from pending and fail with
// ConflictError when the row already reached a terminal state.
type LedgerTx interface {
	AccountForUpdate(id int64) (*models.Account, error)
	AddToBalance(accountID int64, delta decimal.Decimal) error
	InsertBankTransfer(t *models.BankTransfer) error
	SettleRequestStatus(requestID int64, to models.RequestStatus) error
	SettlePartyMemberStatus(memberID int64, to models.RequestStatus) error
	InsertCardTransaction(t *models.CardTransaction) error
	AddCardSpend(cardID int64, amount decimal.Decimal) error
}

// Repository implements Store on Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InTx runs fn inside a single database transaction; any error rolls
// back every write made by the closure.
func (r *Repository) InTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&ledgerTx{ctx: ctx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var _ Store = (*Repository)(nil)
