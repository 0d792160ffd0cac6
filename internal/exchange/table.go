// Package exchange holds the directed currency rate table. An entry
// (X, Y, r) means 1 X = r Y. The table is not required to be symmetric
// or fully connected and a missing pair is always a hard failure:
// conversion is never chained through an intermediate currency.
package exchange

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andrei-d/partybank/internal/apperrors"
)

// Scale is the number of fractional digits kept on every converted
// amount. All balances use the same scale.
const Scale = 2

// Table is safe for concurrent use; the feed refresher replaces rates
// while request handlers read them.
type Table struct {
	mu    sync.RWMutex
	rates map[string]map[string]decimal.Decimal
}

func NewTable() *Table {
	return &Table{rates: make(map[string]map[string]decimal.Decimal)}
}

// SetRate sets the rate for one directed pair.
func (t *Table) SetRate(from, to string, rate decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rates[from] == nil {
		t.rates[from] = make(map[string]decimal.Decimal)
	}
	t.rates[from][to] = rate
}

// Replace swaps the whole table in one step, used by the feed refresh
// so readers never observe a half-loaded table.
func (t *Table) Replace(rates map[string]map[string]decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates = rates
}

// Rate returns the directed rate for the pair, or false if no entry
// exists.
func (t *Table) Rate(from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rates[from][to]
	return r, ok
}

// Pairs returns a snapshot of every configured pair, for the public
// rates endpoint.
func (t *Table) Pairs() map[string]map[string]decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]map[string]decimal.Decimal, len(t.rates))
	for from, row := range t.rates {
		cp := make(map[string]decimal.Decimal, len(row))
		for to, r := range row {
			cp[to] = r
		}
		out[from] = cp
	}
	return out
}

// Convert converts amount of from into to, rounded to Scale.
func (t *Table) Convert(from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	r, ok := t.Rate(from, to)
	if !ok {
		return decimal.Decimal{}, &apperrors.ExchangeUnavailableError{From: from, To: to}
	}
	return amount.Mul(r).Round(Scale), nil
}

// ReverseConvert computes how much of from must be debited to deliver
// exactly targetAmount of to.
func (t *Table) ReverseConvert(from, to string, targetAmount decimal.Decimal) (decimal.Decimal, error) {
	r, ok := t.Rate(from, to)
	if !ok {
		return decimal.Decimal{}, &apperrors.ExchangeUnavailableError{From: from, To: to}
	}
	return targetAmount.DivRound(r, Scale), nil
}
