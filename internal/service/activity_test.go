package service_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrei-d/partybank/internal/models"
)

func TestRecentActivityMergesSources(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	source := f.account(t, alice.ID, "RON", "1000")
	f.account(t, bob.ID, "EUR", "0")

	card, err := f.svc.IssueCard(f.ctx, alice.ID, source.ID, dec("2000"))
	require.NoError(t, err)

	// One pending request (bob's default is EUR), then a card spend.
	_, err = f.svc.Send(f.ctx, alice.ID, source.ID, "bob", dec("50"), "RON", "tickets")
	require.NoError(t, err)
	_, err = f.svc.ApplyCardTransaction(f.ctx, alice.ID, card.ID, dec("19.99"), "Mega Image")
	require.NoError(t, err)

	items, err := f.svc.RecentActivity(f.ctx, alice.ID, "", "", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Newest first.
	assert.Equal(t, models.ActivityCardTransaction, items[0].Kind)
	assert.True(t, items[0].Amount.Equal(dec("19.99")))
	assert.Equal(t, models.ActivityRequest, items[1].Kind)
	require.NotNil(t, items[1].Request)
	assert.Equal(t, models.StatusPending, items[1].Request.Status)
}

func TestRecentActivityIncludesSettledTransfers(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	source := f.account(t, alice.ID, "RON", "1000")
	target := f.account(t, bob.ID, "RON", "0")

	_, err := f.svc.Send(f.ctx, alice.ID, source.ID, "bob", dec("100"), "RON", "rent")
	require.NoError(t, err)

	// Both sides see their own history row.
	sent, err := f.svc.RecentActivity(f.ctx, alice.ID, "", "", 0)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, models.ActivityTransfer, sent[0].Kind)
	assert.Equal(t, models.TransferSent, sent[0].Transfer.Direction)
	assert.Equal(t, "bob", sent[0].Transfer.CounterpartTag)

	received, err := f.svc.RecentActivity(f.ctx, bob.ID, "", "", 0)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, models.TransferReceived, received[0].Transfer.Direction)
	assert.Equal(t, "alice", received[0].Transfer.CounterpartTag)
	assert.Equal(t, target.ID, received[0].Transfer.AccountID)
}

func TestRecentActivityShortView(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	source := f.account(t, alice.ID, "RON", "1000")
	f.account(t, bob.ID, "RON", "0")

	for i := 0; i < 8; i++ {
		_, err := f.svc.Send(f.ctx, alice.ID, source.ID, "bob", dec("10"), "RON", fmt.Sprintf("n%d", i))
		require.NoError(t, err)
	}

	items, err := f.svc.RecentActivity(f.ctx, alice.ID, "", "short", 0)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "n7", items[0].Transfer.Note)
	assert.Equal(t, "n3", items[4].Transfer.Note)
}

func TestRecentActivityPaging(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	source := f.account(t, alice.ID, "RON", "1000")
	f.account(t, bob.ID, "RON", "0")

	for i := 0; i < 25; i++ {
		_, err := f.svc.Send(f.ctx, alice.ID, source.ID, "bob", dec("10"), "RON", fmt.Sprintf("n%d", i))
		require.NoError(t, err)
	}

	page0, err := f.svc.RecentActivity(f.ctx, alice.ID, "", "", 0)
	require.NoError(t, err)
	require.Len(t, page0, 20)
	assert.Equal(t, "n24", page0[0].Transfer.Note)

	page1, err := f.svc.RecentActivity(f.ctx, alice.ID, "", "", 1)
	require.NoError(t, err)
	require.Len(t, page1, 5)
	assert.Equal(t, "n4", page1[0].Transfer.Note)
	assert.Equal(t, "n0", page1[4].Transfer.Note)

	empty, err := f.svc.RecentActivity(f.ctx, alice.ID, "", "", 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecentActivityCounterpartFilter(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	source := f.account(t, alice.ID, "RON", "1000")
	f.account(t, bob.ID, "RON", "0")
	f.account(t, carol.ID, "RON", "0")

	card, err := f.svc.IssueCard(f.ctx, alice.ID, source.ID, dec("2000"))
	require.NoError(t, err)

	_, err = f.svc.Send(f.ctx, alice.ID, source.ID, "bob", dec("10"), "RON", "to bob")
	require.NoError(t, err)
	_, err = f.svc.Send(f.ctx, alice.ID, source.ID, "carol", dec("20"), "RON", "to carol")
	require.NoError(t, err)
	_, err = f.svc.ApplyCardTransaction(f.ctx, alice.ID, card.ID, dec("5"), "shop")
	require.NoError(t, err)

	// Filtering by counterpart drops card spends and the other peer.
	items, err := f.svc.RecentActivity(f.ctx, alice.ID, "bob", "", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ActivityTransfer, items[0].Kind)
	assert.Equal(t, "to bob", items[0].Transfer.Note)
}

func TestListTransfersByCounterpart(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	source := f.account(t, alice.ID, "RON", "1000")
	f.account(t, bob.ID, "RON", "0")
	f.account(t, carol.ID, "RON", "0")

	_, err := f.svc.Send(f.ctx, alice.ID, source.ID, "bob", dec("10"), "RON", "")
	require.NoError(t, err)
	_, err = f.svc.Send(f.ctx, alice.ID, source.ID, "carol", dec("20"), "RON", "")
	require.NoError(t, err)

	all, err := f.svc.ListTransfers(f.ctx, alice.ID, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyBob, err := f.svc.ListTransfers(f.ctx, alice.ID, "bob", 0)
	require.NoError(t, err)
	require.Len(t, onlyBob, 1)
	assert.Equal(t, "bob", onlyBob[0].CounterpartTag)
	assert.True(t, onlyBob[0].Amount.Equal(dec("10")))
}
