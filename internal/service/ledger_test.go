package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
	"github.com/andrei-d/partybank/internal/utils"
)

func TestCreateAccountDefaults(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	first, err := f.svc.CreateAccount(f.ctx, alice.ID, models.AccountDebit, "Main", "#3f51b5", "RON", decimal.Zero)
	require.NoError(t, err)
	assert.True(t, first.Default, "first account becomes the default")
	assert.True(t, first.Balance.IsZero())
	assert.True(t, utils.ValidateIBAN(first.IBAN), "IBAN %s must validate", first.IBAN)

	second, err := f.svc.CreateAccount(f.ctx, alice.ID, models.AccountSavings, "Rainy day", "", "EUR", decimal.Zero)
	require.NoError(t, err)
	assert.False(t, second.Default)
	assert.NotEqual(t, first.IBAN, second.IBAN)
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	var validation *apperrors.ValidationError

	_, err := f.svc.CreateAccount(f.ctx, alice.ID, models.AccountDebit, "X", "", "RON", decimal.Zero)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "name", validation.Field)

	_, err = f.svc.CreateAccount(f.ctx, alice.ID, "checking", "Main", "", "RON", decimal.Zero)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "type", validation.Field)
}

func TestCreateCreditAccount(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	var validation *apperrors.ValidationError

	// Below the offer minimum of 500.
	_, err := f.svc.CreateAccount(f.ctx, alice.ID, models.AccountCredit, "Credit", "", "RON", dec("100"))
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "credit_amount", validation.Field)

	// Above the maximum of 20000.
	_, err = f.svc.CreateAccount(f.ctx, alice.ID, models.AccountCredit, "Credit", "", "RON", dec("50000"))
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "credit_amount", validation.Field)

	// No offer for the currency at all.
	_, err = f.svc.CreateAccount(f.ctx, alice.ID, models.AccountCredit, "Credit", "", "GBP", dec("1000"))
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "currency", validation.Field)

	account, err := f.svc.CreateAccount(f.ctx, alice.ID, models.AccountCredit, "Credit", "", "RON", dec("1000"))
	require.NoError(t, err)
	assert.True(t, account.CreditLimit.Equal(dec("1000")))
	assert.True(t, account.InterestRate.Equal(dec("14.5")))
	assert.True(t, account.Spendable().Equal(dec("1000")))
}

func TestSetDefaultAccount(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	first := f.account(t, alice.ID, "RON", "0")
	second := f.account(t, alice.ID, "EUR", "0")

	require.NoError(t, f.svc.SetDefaultAccount(f.ctx, alice.ID, second.ID))

	def, err := f.store.DefaultAccount(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)

	// Exactly one default at a time.
	refreshed, err := f.store.FindAccountByID(f.ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.Default)
}

func TestSetDefaultAccountForeignAccount(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.account(t, alice.ID, "RON", "0")
	bobAccount := f.account(t, bob.ID, "RON", "0")

	var validation *apperrors.ValidationError
	err := f.svc.SetDefaultAccount(f.ctx, alice.ID, bobAccount.ID)
	assert.ErrorAs(t, err, &validation)
}

func TestCloseAccount(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	account := f.account(t, alice.ID, "RON", "0")

	require.NoError(t, f.svc.CloseAccount(f.ctx, alice.ID, account.ID))

	var notFound *apperrors.NotFoundError
	_, err := f.store.FindAccountByID(f.ctx, account.ID)
	assert.ErrorAs(t, err, &notFound)
}

func TestCloseAccountNonZeroBalance(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	account := f.account(t, alice.ID, "RON", "25")

	var conflict *apperrors.ConflictError
	err := f.svc.CloseAccount(f.ctx, alice.ID, account.ID)
	require.ErrorAs(t, err, &conflict)
}

func TestCloseAccountPendingRequest(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	source := f.account(t, alice.ID, "RON", "100")
	f.account(t, bob.ID, "EUR", "0")

	// Leaves a pending request referencing the source account.
	result, err := f.svc.Send(f.ctx, alice.ID, source.ID, "bob", dec("100"), "RON", "")
	require.NoError(t, err)
	require.NotNil(t, result.Request)

	f.fund(t, source.ID, "-100")

	var conflict *apperrors.ConflictError
	err = f.svc.CloseAccount(f.ctx, alice.ID, source.ID)
	require.ErrorAs(t, err, &conflict)
}

func TestIssueCard(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	account := f.account(t, alice.ID, "RON", "0")

	card, err := f.svc.IssueCard(f.ctx, alice.ID, account.ID, dec("2000"))
	require.NoError(t, err)

	// Plaintext secrets appear once on the issue response only.
	require.NotNil(t, card.Number)
	require.NotNil(t, card.CVV)
	require.NotNil(t, card.PIN)
	assert.Equal(t, (*card.Number)[12:], card.LastFour)
	assert.NotEmpty(t, card.PINHash)
	assert.NotEqual(t, *card.PIN, card.PINHash)

	stored, err := f.store.FindCardByID(f.ctx, card.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Number)
	assert.Nil(t, stored.CVV)
	assert.Nil(t, stored.PIN)
	assert.Equal(t, card.LastFour, stored.LastFour)
}

func TestIssueCardValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	account := f.account(t, alice.ID, "RON", "0")

	var validation *apperrors.ValidationError
	_, err := f.svc.IssueCard(f.ctx, alice.ID, account.ID, decimal.Zero)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "limit", validation.Field)
}

func TestApplyCardTransaction(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	account := f.account(t, alice.ID, "RON", "100")
	card, err := f.svc.IssueCard(f.ctx, alice.ID, account.ID, dec("2000"))
	require.NoError(t, err)

	transaction, err := f.svc.ApplyCardTransaction(f.ctx, alice.ID, card.ID, dec("35.50"), "Mega Image")
	require.NoError(t, err)
	assert.Equal(t, "RON", transaction.Currency)
	assert.Equal(t, "Mega Image", transaction.Merchant)
	assert.True(t, f.balance(t, account.ID).Equal(dec("64.50")))

	stored, err := f.store.FindCardByID(f.ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, stored.LimitCurrent.Equal(dec("35.50")))
}

func TestApplyCardTransactionInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	account := f.account(t, alice.ID, "RON", "20")
	card, err := f.svc.IssueCard(f.ctx, alice.ID, account.ID, dec("2000"))
	require.NoError(t, err)

	var insufficient *apperrors.InsufficientFundsError
	_, err = f.svc.ApplyCardTransaction(f.ctx, alice.ID, card.ID, dec("50"), "Mega Image")
	require.ErrorAs(t, err, &insufficient)

	// Nothing moved: balance and running spend both untouched.
	assert.True(t, f.balance(t, account.ID).Equal(dec("20")))
	stored, err := f.store.FindCardByID(f.ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, stored.LimitCurrent.IsZero())
}

func TestApplyCardTransactionSpendLimit(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	account := f.account(t, alice.ID, "RON", "500")
	card, err := f.svc.IssueCard(f.ctx, alice.ID, account.ID, dec("100"))
	require.NoError(t, err)

	_, err = f.svc.ApplyCardTransaction(f.ctx, alice.ID, card.ID, dec("80"), "shop")
	require.NoError(t, err)

	// The next spend would push the running total past the card limit;
	// the balance debit rolls back with it.
	var conflict *apperrors.ConflictError
	_, err = f.svc.ApplyCardTransaction(f.ctx, alice.ID, card.ID, dec("30"), "shop")
	require.ErrorAs(t, err, &conflict)
	assert.True(t, f.balance(t, account.ID).Equal(dec("420")))
}

func TestApplyCardTransactionForeignCard(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	account := f.account(t, alice.ID, "RON", "100")
	card, err := f.svc.IssueCard(f.ctx, alice.ID, account.ID, dec("2000"))
	require.NoError(t, err)
	f.account(t, bob.ID, "RON", "0")

	var validation *apperrors.ValidationError
	_, err = f.svc.ApplyCardTransaction(f.ctx, bob.ID, card.ID, dec("10"), "shop")
	assert.ErrorAs(t, err, &validation)
}
