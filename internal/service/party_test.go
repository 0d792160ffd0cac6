package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
	"github.com/andrei-d/partybank/internal/service"
)

func TestCreatePartySplit(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	carol := f.user(t, "carol")
	dave := f.user(t, "dave")
	hostAccount := f.account(t, host.ID, "RON", "0")

	party, err := f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "dinner at ivy", []service.MemberShare{
		{Tag: "carol", Amount: dec("60")},
		{Tag: "dave", Amount: dec("40")},
	})
	require.NoError(t, err)

	assert.True(t, party.Total.Equal(dec("100")))
	assert.Equal(t, "RON", party.Currency)
	require.Len(t, party.Members, 2)
	for _, m := range party.Members {
		assert.Equal(t, models.StatusPending, m.Status)
	}
	assert.False(t, party.Complete())

	// Each member got a pending party-linked request.
	for _, id := range []int64{carol.ID, dave.ID} {
		request, err := f.store.FindPartyRequest(f.ctx, party.ID, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, request.Status)
		require.NotNil(t, request.PartyID)
		assert.Equal(t, party.ID, *request.PartyID)
	}
}

func TestCreatePartyUnknownTag(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	hostAccount := f.account(t, host.ID, "RON", "0")

	_, err := f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "dinner", []service.MemberShare{
		{Tag: "ghost", Amount: dec("60")},
	})
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Resource, "ghost")
}

func TestCreatePartyDedupesTags(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	f.user(t, "carol")
	hostAccount := f.account(t, host.ID, "RON", "0")

	party, err := f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "drinks", []service.MemberShare{
		{Tag: "carol", Amount: dec("30")},
		{Tag: "carol", Amount: dec("70")},
	})
	require.NoError(t, err)

	// Only the first share per tag is kept.
	require.Len(t, party.Members, 1)
	assert.True(t, party.Total.Equal(dec("30")))
}

func TestCreatePartyValidation(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	f.user(t, "carol")
	hostAccount := f.account(t, host.ID, "RON", "0")

	var validation *apperrors.ValidationError

	_, err := f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "", []service.MemberShare{
		{Tag: "carol", Amount: dec("30")},
	})
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "note", validation.Field)

	_, err = f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "dinner", nil)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "members", validation.Field)

	_, err = f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "dinner", []service.MemberShare{
		{Tag: "carol", Amount: dec("-5")},
	})
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "amount", validation.Field)
}

func TestPartyAcceptMovesShareToHost(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	carol := f.user(t, "carol")
	dave := f.user(t, "dave")
	hostAccount := f.account(t, host.ID, "RON", "0")
	carolAccount := f.account(t, carol.ID, "RON", "100")
	f.account(t, dave.ID, "RON", "100")

	party, err := f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "dinner", []service.MemberShare{
		{Tag: "carol", Amount: dec("60")},
		{Tag: "dave", Amount: dec("40")},
	})
	require.NoError(t, err)

	settled, err := f.svc.RespondToParty(f.ctx, carol.ID, party.ID, service.ActionAccept, carolAccount.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, settled.Status)

	assert.True(t, f.balance(t, carolAccount.ID).Equal(dec("40")))
	assert.True(t, f.balance(t, hostAccount.ID).Equal(dec("60")))

	// Member status moved with the request, party not complete while
	// dave is still pending.
	fresh, err := f.svc.GetParty(f.ctx, host.ID, party.ID)
	require.NoError(t, err)
	assert.False(t, fresh.Complete())
	for _, m := range fresh.Members {
		if m.UserID == carol.ID {
			assert.Equal(t, models.StatusAccepted, m.Status)
		}
	}
}

func TestPartyCompletesWhenAllSettle(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	carol := f.user(t, "carol")
	dave := f.user(t, "dave")
	hostAccount := f.account(t, host.ID, "RON", "0")
	carolAccount := f.account(t, carol.ID, "RON", "100")
	f.account(t, dave.ID, "RON", "100")

	party, err := f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "dinner", []service.MemberShare{
		{Tag: "carol", Amount: dec("60")},
		{Tag: "dave", Amount: dec("40")},
	})
	require.NoError(t, err)

	_, err = f.svc.RespondToParty(f.ctx, carol.ID, party.ID, service.ActionAccept, carolAccount.ID)
	require.NoError(t, err)

	// A decline is terminal too; completion does not require payment.
	_, err = f.svc.RespondToParty(f.ctx, dave.ID, party.ID, service.ActionDecline, 0)
	require.NoError(t, err)

	fresh, err := f.svc.GetParty(f.ctx, host.ID, party.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Complete())
	assert.True(t, f.balance(t, hostAccount.ID).Equal(dec("60")))
}

func TestPartyDoubleAcceptConflicts(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	carol := f.user(t, "carol")
	hostAccount := f.account(t, host.ID, "RON", "0")
	carolAccount := f.account(t, carol.ID, "RON", "100")

	party, err := f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "dinner", []service.MemberShare{
		{Tag: "carol", Amount: dec("60")},
	})
	require.NoError(t, err)

	_, err = f.svc.RespondToParty(f.ctx, carol.ID, party.ID, service.ActionAccept, carolAccount.ID)
	require.NoError(t, err)

	var conflict *apperrors.ConflictError
	_, err = f.svc.RespondToParty(f.ctx, carol.ID, party.ID, service.ActionAccept, carolAccount.ID)
	require.ErrorAs(t, err, &conflict)

	// Paid exactly once.
	assert.True(t, f.balance(t, carolAccount.ID).Equal(dec("40")))
	assert.True(t, f.balance(t, hostAccount.ID).Equal(dec("60")))
}

func TestPartyCrossCurrencyShare(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	carol := f.user(t, "carol")
	hostAccount := f.account(t, host.ID, "RON", "0")
	carolAccount := f.account(t, carol.ID, "EUR", "50")

	party, err := f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "dinner", []service.MemberShare{
		{Tag: "carol", Amount: dec("60")},
	})
	require.NoError(t, err)

	_, err = f.svc.RespondToParty(f.ctx, carol.ID, party.ID, service.ActionAccept, carolAccount.ID)
	require.NoError(t, err)

	// Carol owes 60 RON; at 1 EUR = 5 RON that is 12 EUR.
	assert.True(t, f.balance(t, carolAccount.ID).Equal(dec("38")))
	assert.True(t, f.balance(t, hostAccount.ID).Equal(dec("60")))
}

func TestPartyInsufficientShareRollsBack(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	carol := f.user(t, "carol")
	hostAccount := f.account(t, host.ID, "RON", "0")
	carolAccount := f.account(t, carol.ID, "RON", "10")

	party, err := f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "dinner", []service.MemberShare{
		{Tag: "carol", Amount: dec("60")},
	})
	require.NoError(t, err)

	var insufficient *apperrors.InsufficientFundsError
	_, err = f.svc.RespondToParty(f.ctx, carol.ID, party.ID, service.ActionAccept, carolAccount.ID)
	require.ErrorAs(t, err, &insufficient)

	// Request and member share both stayed pending.
	request, err := f.store.FindPartyRequest(f.ctx, party.ID, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, request.Status)
	fresh, err := f.svc.GetParty(f.ctx, host.ID, party.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, fresh.Members[0].Status)
	assert.True(t, f.balance(t, carolAccount.ID).Equal(dec("10")))
}

func TestGetPartyVisibility(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	carol := f.user(t, "carol")
	outsider := f.user(t, "outsider")
	hostAccount := f.account(t, host.ID, "RON", "0")

	party, err := f.svc.CreateParty(f.ctx, host.ID, hostAccount.ID, "dinner", []service.MemberShare{
		{Tag: "carol", Amount: dec("60")},
	})
	require.NoError(t, err)

	_, err = f.svc.GetParty(f.ctx, host.ID, party.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetParty(f.ctx, carol.ID, party.ID)
	assert.NoError(t, err)

	var notFound *apperrors.NotFoundError
	_, err = f.svc.GetParty(f.ctx, outsider.ID, party.ID)
	assert.ErrorAs(t, err, &notFound)
}
