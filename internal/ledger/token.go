package ledger

import (
	"errors"
	"sync"
)

// Errors returned by the in-memory token ledger.
var (
	ErrTokenInsufficientBalance = errors.New("token balance too low")
	ErrTokenInvalidAmount       = errors.New("token amount must be positive")
)

// reserveAccount holds the unallocated token supply that Transfer pays out of.
const reserveAccount = "__reserve__"

// MemoryTokenLedger is an in-memory implementation of domain.TokenLedger.
// Accounts are opaque strings with int64 balances; the ledger starts with
// the whole supply in an internal reserve account. Safe for concurrent use.
type MemoryTokenLedger struct {
	mu       sync.RWMutex
	balances map[string]int64
}

// NewMemoryTokenLedger creates a token ledger with the given reserve supply.
func NewMemoryTokenLedger(reserve int64) *MemoryTokenLedger {
	return &MemoryTokenLedger{
		balances: map[string]int64{reserveAccount: reserve},
	}
}

// TransferFrom moves amount between two accounts. A zero-amount transfer
// is a no-op; negative amounts and overdrafts fail without mutating state.
func (l *MemoryTokenLedger) TransferFrom(from, to string, amount int64) error {
	if amount < 0 {
		return ErrTokenInvalidAmount
	}
	if amount == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return ErrTokenInsufficientBalance
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Transfer moves amount from the reserve account to an account.
func (l *MemoryTokenLedger) Transfer(to string, amount int64) error {
	return l.TransferFrom(reserveAccount, to, amount)
}

// BalanceOf returns the account's balance, 0 for unknown accounts.
func (l *MemoryTokenLedger) BalanceOf(account string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances[account], nil
}

// SetBalance writes an account balance directly. Test helper.
func (l *MemoryTokenLedger) SetBalance(account string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[account] = amount
}
