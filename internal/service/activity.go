package service

import (
	"context"
	"sort"

	"github.com/andrei-d/partybank/internal/models"
)

const (
	shortActivityLimit = 5
	activityPageSize   = 20
)

// RecentActivity merges transfers, card transactions and transfer
// requests into one feed, newest first. view "short" returns the most
// recent handful for summary screens; anything else pages through the
// full feed. counterpartTag optionally narrows transfers and requests
// to one counterpart. Pure read, mutates nothing.
func (s *Service) RecentActivity(ctx context.Context, userID int64, counterpartTag, view string, page int) ([]models.ActivityItem, error) {
	var counterpartID *int64
	if counterpartTag != "" {
		counterpart, err := s.store.FindUserByTag(ctx, counterpartTag)
		if err != nil {
			return nil, err
		}
		counterpartID = &counterpart.ID
	}

	limit, offset := activityPageSize, 0
	if view == "short" {
		limit = shortActivityLimit
	} else if page > 0 {
		offset = page * activityPageSize
	}

	// Each source is over-fetched to offset+limit; the merged slice is
	// then cut to the requested window.
	fetch := offset + limit

	transfers, err := s.store.ListBankTransfers(ctx, userID, counterpartID, fetch, 0)
	if err != nil {
		return nil, err
	}
	requests, err := s.store.ListTransferRequests(ctx, userID, counterpartID, fetch, 0)
	if err != nil {
		return nil, err
	}

	var transactions []models.CardTransaction
	if counterpartID == nil {
		transactions, err = s.store.ListCardTransactions(ctx, userID, fetch, 0)
		if err != nil {
			return nil, err
		}
	}

	items := make([]models.ActivityItem, 0, len(transfers)+len(requests)+len(transactions))
	for i := range transfers {
		t := transfers[i]
		items = append(items, models.ActivityItem{
			Kind: models.ActivityTransfer, At: t.CreatedAt,
			Amount: t.Amount, Currency: t.Currency, Transfer: &t,
		})
	}
	for i := range requests {
		r := requests[i]
		items = append(items, models.ActivityItem{
			Kind: models.ActivityRequest, At: r.CreatedAt,
			Amount: r.Amount, Currency: r.Currency, Request: &r,
		})
	}
	for i := range transactions {
		c := transactions[i]
		items = append(items, models.ActivityItem{
			Kind: models.ActivityCardTransaction, At: c.CreatedAt,
			Amount: c.Amount, Currency: c.Currency, CardTransaction: &c,
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].At.After(items[j].At) })

	if offset >= len(items) {
		return []models.ActivityItem{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

// ListTransfers returns the user's settled transfer history, optionally
// filtered by counterpart tag.
func (s *Service) ListTransfers(ctx context.Context, userID int64, counterpartTag string, page int) ([]models.BankTransfer, error) {
	var counterpartID *int64
	if counterpartTag != "" {
		counterpart, err := s.store.FindUserByTag(ctx, counterpartTag)
		if err != nil {
			return nil, err
		}
		counterpartID = &counterpart.ID
	}
	if page < 0 {
		page = 0
	}
	return s.store.ListBankTransfers(ctx, userID, counterpartID, activityPageSize, page*activityPageSize)
}
