// Package ledger holds the two balance ledgers: the share-ownership ledger
// mutated by registration and settlement, and an in-memory token ledger
// satisfying the external payment interface.
package ledger

import (
	"sync"

	"github.com/dmelo/sharebook/internal/domain"
)

// Ownership tracks per-symbol, per-holder share balances. Entries default
// to zero and are created implicitly on first credit; balances never go
// negative. Safe for concurrent use.
type Ownership struct {
	mu     sync.RWMutex
	shares map[string]map[string]int64 // symbol → holder → shares
}

// NewOwnership creates an empty ownership ledger.
func NewOwnership() *Ownership {
	return &Ownership{
		shares: make(map[string]map[string]int64),
	}
}

// Balance returns the shares held for the symbol, 0 for unknown entries.
func (l *Ownership) Balance(symbol, holder string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.shares[symbol][holder]
}

// Credit adds shares to a holder, creating the entry if needed.
func (l *Ownership) Credit(symbol, holder string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shares[symbol] == nil {
		l.shares[symbol] = make(map[string]int64)
	}
	l.shares[symbol][holder] += amount
}

// Debit removes shares from a holder. It returns domain.ErrShareUnderflow
// if the holder's balance is smaller than amount; the balance is left
// untouched in that case.
func (l *Ownership) Debit(symbol, holder string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shares[symbol][holder] < amount {
		return domain.ErrShareUnderflow
	}
	l.shares[symbol][holder] -= amount
	return nil
}

// Set writes a holder's balance unconditionally. Only used when a new
// symbol is registered, where no prior balance can exist.
func (l *Ownership) Set(symbol, holder string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shares[symbol] == nil {
		l.shares[symbol] = make(map[string]int64)
	}
	l.shares[symbol][holder] = amount
}

// Holders returns a copy of all holder balances for a symbol.
func (l *Ownership) Holders(symbol string) map[string]int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]int64, len(l.shares[symbol]))
	for holder, shares := range l.shares[symbol] {
		out[holder] = shares
	}
	return out
}

// Total returns the sum of all balances for a symbol. For a registered
// instrument this always equals the instrument's total shares.
func (l *Ownership) Total(symbol string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total int64
	for _, shares := range l.shares[symbol] {
		total += shares
	}
	return total
}
