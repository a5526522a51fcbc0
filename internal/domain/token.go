package domain

// TokenLedger is the external payment ledger used for trade settlement.
// Implementations may be backed by anything that can move tokens between
// opaque accounts; every call is fallible and a failed TransferFrom during
// settlement must be treated as a settlement failure by the caller.
type TokenLedger interface {
	// TransferFrom moves amount from one account to another.
	TransferFrom(from, to string, amount int64) error
	// Transfer moves amount from the ledger's reserve account to an
	// account. Used to fund participants; never called by matching.
	Transfer(to string, amount int64) error
	// BalanceOf returns the account's current token balance.
	BalanceOf(account string) (int64, error)
}
