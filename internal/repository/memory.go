package repository

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrei-d/partybank/internal/apperrors"
	"github.com/andrei-d/partybank/internal/models"
)

// Memory is an in-memory Store used by tests and local development
// without Postgres. A single mutex serializes every operation, so the
// InTx closure gets the same read-then-write atomicity the database
// transaction provides; rollback restores a deep copy of the state.
type Memory struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]*models.User
	accounts  map[int64]*models.Account
	cards     map[int64]*models.Card
	offers    map[string]*models.CreditOffer
	requests  map[int64]*models.TransferRequest
	parties   map[int64]*models.Party
	transfers []models.BankTransfer
	cardTxs   []models.CardTransaction
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int64]*models.User),
		accounts: make(map[int64]*models.Account),
		cards:    make(map[int64]*models.Card),
		offers:   make(map[string]*models.CreditOffer),
		requests: make(map[int64]*models.TransferRequest),
		parties:  make(map[int64]*models.Party),
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// SeedCreditOffer installs a credit product, mirroring the seed rows
// of the SQL migration.
func (m *Memory) SeedCreditOffer(offer models.CreditOffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	offer.ID = m.id()
	m.offers[offer.Currency] = &offer
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = m.id()
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &apperrors.NotFoundError{Resource: "user"}
}

func (m *Memory) FindUserByTag(_ context.Context, tag string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Tag == tag {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &apperrors.NotFoundError{Resource: "user"}
}

func (m *Memory) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "user"}
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) CreateAccount(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account.ID = m.id()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *Memory) FindAccountByID(_ context.Context, id int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account(id)
}

// account returns a copy; callers hold the lock.
func (m *Memory) account(id int64) (*models.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "account"}
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) ListAccountsByUser(_ context.Context, userID int64) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Account
	for id := int64(1); id <= m.nextID; id++ {
		if a, ok := m.accounts[id]; ok && a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *Memory) DefaultAccount(_ context.Context, userID int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.UserID == userID && a.Default {
			cp := *a
			return &cp, nil
		}
	}
	return nil, &apperrors.NotFoundError{Resource: "account"}
}

func (m *Memory) SetDefaultAccount(_ context.Context, userID, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.accounts[accountID]
	if !ok || target.UserID != userID {
		return &apperrors.NotFoundError{Resource: "account"}
	}
	for _, a := range m.accounts {
		if a.UserID == userID {
			a.Default = false
		}
	}
	target.Default = true
	return nil
}

func (m *Memory) CloseAccount(_ context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[accountID]; !ok {
		return &apperrors.NotFoundError{Resource: "account"}
	}
	delete(m.accounts, accountID)
	return nil
}

func (m *Memory) CountPendingForAccount(_ context.Context, accountID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.RequesterAccountID == accountID && r.Status == models.StatusPending {
			n++
		}
	}
	for _, p := range m.parties {
		if p.HostAccountID != accountID {
			continue
		}
		for _, mem := range p.Members {
			if mem.Status == models.StatusPending {
				n++
			}
		}
	}
	return n, nil
}

func (m *Memory) FindCreditOffer(_ context.Context, currency string) (*models.CreditOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[currency]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "credit offer"}
	}
	cp := *o
	return &cp, nil
}

func (m *Memory) CreateCard(_ context.Context, card *models.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	card.ID = m.id()
	card.CreatedAt = time.Now()
	cp := *card
	cp.Number, cp.CVV, cp.PIN = nil, nil, nil
	m.cards[card.ID] = &cp
	return nil
}

func (m *Memory) FindCardByID(_ context.Context, id int64) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "card"}
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) ListCardsByAccount(_ context.Context, accountID int64) ([]models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Card
	for id := int64(1); id <= m.nextID; id++ {
		if c, ok := m.cards[id]; ok && c.AccountID == accountID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *Memory) CreateTransferRequest(_ context.Context, req *models.TransferRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = m.id()
	req.CreatedAt = time.Now()
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *Memory) FindTransferRequestByID(_ context.Context, id int64) (*models.TransferRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "transfer request"}
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) FindPartyRequest(_ context.Context, partyID, recipientID int64) (*models.TransferRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.PartyID != nil && *r.PartyID == partyID && r.RecipientID == recipientID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, &apperrors.NotFoundError{Resource: "transfer request"}
}

func (m *Memory) CreateParty(_ context.Context, party *models.Party) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	party.ID = m.id()
	party.CreatedAt = time.Now()
	for i := range party.Members {
		mem := &party.Members[i]
		mem.ID = m.id()
		mem.PartyID = party.ID
		mem.CreatedAt = party.CreatedAt

		reqID := m.id()
		partyID := party.ID
		m.requests[reqID] = &models.TransferRequest{
			ID:                 reqID,
			RequesterID:        party.HostID,
			RecipientID:        mem.UserID,
			RequesterAccountID: party.HostAccountID,
			Amount:             mem.Amount,
			Currency:           party.Currency,
			Note:               party.Note,
			PartyID:            &partyID,
			Status:             models.StatusPending,
			CreatedAt:          party.CreatedAt,
		}
	}
	cp := *party
	cp.Members = append([]models.PartyMember(nil), party.Members...)
	m.parties[party.ID] = &cp
	return nil
}

func (m *Memory) FindPartyByID(_ context.Context, id int64) (*models.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parties[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "party"}
	}
	cp := *p
	cp.Members = append([]models.PartyMember(nil), p.Members...)
	for i := range cp.Members {
		if u, ok := m.users[cp.Members[i].UserID]; ok {
			cp.Members[i].UserTag = u.Tag
		}
	}
	return &cp, nil
}

func (m *Memory) ListBankTransfers(_ context.Context, userID int64, counterpartID *int64, limit, offset int) ([]models.BankTransfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BankTransfer
	for i := len(m.transfers) - 1; i >= 0; i-- {
		t := m.transfers[i]
		if t.UserID != userID {
			continue
		}
		if counterpartID != nil && t.CounterpartID != *counterpartID {
			continue
		}
		if u, ok := m.users[t.CounterpartID]; ok {
			t.CounterpartTag = u.Tag
		}
		out = append(out, t)
	}
	return window(out, limit, offset), nil
}

func (m *Memory) ListCardTransactions(_ context.Context, userID int64, limit, offset int) ([]models.CardTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CardTransaction
	for i := len(m.cardTxs) - 1; i >= 0; i-- {
		t := m.cardTxs[i]
		if a, ok := m.accounts[t.AccountID]; ok && a.UserID == userID {
			out = append(out, t)
		}
	}
	return window(out, limit, offset), nil
}

func (m *Memory) ListTransferRequests(_ context.Context, userID int64, counterpartID *int64, limit, offset int) ([]models.TransferRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TransferRequest
	for id := m.nextID; id >= 1; id-- {
		r, ok := m.requests[id]
		if !ok {
			continue
		}
		if r.RequesterID != userID && r.RecipientID != userID {
			continue
		}
		if counterpartID != nil && r.RequesterID != *counterpartID && r.RecipientID != *counterpartID {
			continue
		}
		out = append(out, *r)
	}
	return window(out, limit, offset), nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

// InTx runs fn atomically. State is deep-copied first and restored if
// the closure fails, matching the SQL rollback.
func (m *Memory) InTx(_ context.Context, fn func(tx LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	backup := m.snapshot()
	if err := fn(&memTx{m: m}); err != nil {
		m.restore(backup)
		return err
	}
	return nil
}

type memState struct {
	accounts  map[int64]*models.Account
	cards     map[int64]*models.Card
	requests  map[int64]*models.TransferRequest
	parties   map[int64]*models.Party
	transfers []models.BankTransfer
	cardTxs   []models.CardTransaction
	nextID    int64
}

func (m *Memory) snapshot() memState {
	st := memState{
		accounts:  make(map[int64]*models.Account, len(m.accounts)),
		cards:     make(map[int64]*models.Card, len(m.cards)),
		requests:  make(map[int64]*models.TransferRequest, len(m.requests)),
		parties:   make(map[int64]*models.Party, len(m.parties)),
		transfers: append([]models.BankTransfer(nil), m.transfers...),
		cardTxs:   append([]models.CardTransaction(nil), m.cardTxs...),
		nextID:    m.nextID,
	}
	for id, a := range m.accounts {
		cp := *a
		st.accounts[id] = &cp
	}
	for id, c := range m.cards {
		cp := *c
		st.cards[id] = &cp
	}
	for id, r := range m.requests {
		cp := *r
		st.requests[id] = &cp
	}
	for id, p := range m.parties {
		cp := *p
		cp.Members = append([]models.PartyMember(nil), p.Members...)
		st.parties[id] = &cp
	}
	return st
}

func (m *Memory) restore(st memState) {
	m.accounts = st.accounts
	m.cards = st.cards
	m.requests = st.requests
	m.parties = st.parties
	m.transfers = st.transfers
	m.cardTxs = st.cardTxs
	m.nextID = st.nextID
}

// memTx implements LedgerTx directly on the locked store.
type memTx struct {
	m *Memory
}

func (t *memTx) AccountForUpdate(id int64) (*models.Account, error) {
	return t.m.account(id)
}

func (t *memTx) AddToBalance(accountID int64, delta decimal.Decimal) error {
	a, ok := t.m.accounts[accountID]
	if !ok {
		return &apperrors.NotFoundError{Resource: "account"}
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) InsertBankTransfer(transfer *models.BankTransfer) error {
	transfer.ID = t.m.id()
	transfer.CreatedAt = time.Now()
	t.m.transfers = append(t.m.transfers, *transfer)
	return nil
}

func (t *memTx) SettleRequestStatus(requestID int64, to models.RequestStatus) error {
	r, ok := t.m.requests[requestID]
	if !ok || r.Status != models.StatusPending {
		return &apperrors.ConflictError{Reason: "transfer request already settled"}
	}
	r.Status = to
	return nil
}

func (t *memTx) SettlePartyMemberStatus(memberID int64, to models.RequestStatus) error {
	for _, p := range t.m.parties {
		for i := range p.Members {
			if p.Members[i].ID == memberID {
				if p.Members[i].Status != models.StatusPending {
					return &apperrors.ConflictError{Reason: "party member already responded"}
				}
				p.Members[i].Status = to
				return nil
			}
		}
	}
	return &apperrors.NotFoundError{Resource: "party member"}
}

func (t *memTx) InsertCardTransaction(transaction *models.CardTransaction) error {
	transaction.ID = t.m.id()
	transaction.CreatedAt = time.Now()
	t.m.cardTxs = append(t.m.cardTxs, *transaction)
	return nil
}

func (t *memTx) AddCardSpend(cardID int64, amount decimal.Decimal) error {
	c, ok := t.m.cards[cardID]
	if !ok {
		return &apperrors.NotFoundError{Resource: "card"}
	}
	next := c.LimitCurrent.Add(amount)
	if next.GreaterThan(c.Limit) {
		return &apperrors.ConflictError{Reason: "card limit exceeded"}
	}
	c.LimitCurrent = next
	return nil
}

var (
	_ Store    = (*Memory)(nil)
	_ LedgerTx = (*memTx)(nil)
)
