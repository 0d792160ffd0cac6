package service_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/andrei-d/partybank/internal/config"
	"github.com/andrei-d/partybank/internal/exchange"
	"github.com/andrei-d/partybank/internal/models"
	"github.com/andrei-d/partybank/internal/notify"
	"github.com/andrei-d/partybank/internal/repository"
	"github.com/andrei-d/partybank/internal/service"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	ctx   context.Context
	svc   *service.Service
	store *repository.Memory
	fx    *exchange.Table
}

// newFixture wires the service against the in-memory store with a
// small rate table: 1 EUR = 5 RON and the inverse.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewMemory()
	store.SeedCreditOffer(models.CreditOffer{
		Currency: "RON", MinAmount: dec("500"), MaxAmount: dec("20000"), InterestRate: dec("14.5"),
	})

	fx := exchange.NewTable()
	fx.SetRate("RON", "EUR", dec("0.2"))
	fx.SetRate("EUR", "RON", dec("5"))

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{JWTSecret: "test-secret"}
	svc := service.NewService(store, fx, notify.NopNotifier{}, log, cfg)

	return &fixture{ctx: context.Background(), svc: svc, store: store, fx: fx}
}

// user creates a user directly in the store, skipping bcrypt.
func (f *fixture) user(t *testing.T, tag string) *models.User {
	t.Helper()
	u := &models.User{Tag: tag, Email: tag + "@example.com", FirstName: tag, PasswordHash: "x"}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

// account opens an account through the service and optionally funds it.
func (f *fixture) account(t *testing.T, userID int64, currency, balance string) *models.Account {
	t.Helper()
	name := fmt.Sprintf("%s account", currency)
	account, err := f.svc.CreateAccount(f.ctx, userID, models.AccountDebit, name, "#3f51b5", currency, decimal.Zero)
	require.NoError(t, err)
	if balance != "0" {
		f.fund(t, account.ID, balance)
		account.Balance = dec(balance)
	}
	return account
}

// fund credits an account outside the engines, for test setup only.
func (f *fixture) fund(t *testing.T, accountID int64, amount string) {
	t.Helper()
	err := f.store.InTx(context.Background(), func(tx repository.LedgerTx) error {
		return tx.AddToBalance(accountID, dec(amount))
	})
	require.NoError(t, err)
}

// balance reads the current balance of an account.
func (f *fixture) balance(t *testing.T, accountID int64) decimal.Decimal {
	t.Helper()
	account, err := f.store.FindAccountByID(context.Background(), accountID)
	require.NoError(t, err)
	return account.Balance
}
