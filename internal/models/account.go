package models

import "github.com/shopspring/decimal"

// Account is a named holder of balance, transaction history, and
// active loans. The username is immutable once created. Transactions
// are append-only in chronological order; the balance always equals
// the sum of their signed amounts.
type Account struct {
	Username     string          `json:"username"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
	Loans        []Loan          `json:"loans"`
	// SettledPeriods records billing periods (YYYY-MM) that have
	// already been through monthly settlement, so a duplicate
	// settlement of the same period can be rejected instead of
	// double-charging.
	SettledPeriods map[string]bool `json:"settled_periods,omitempty"`
}

// Clone returns a deep copy. The ledger hands copies to callers so no
// external code ever holds a mutable reference into ledger state.
func (a *Account) Clone() Account {
	cp := Account{
		Username: a.Username,
		Balance:  a.Balance,
	}
	if len(a.Transactions) > 0 {
		cp.Transactions = make([]Transaction, len(a.Transactions))
		copy(cp.Transactions, a.Transactions)
	}
	if len(a.Loans) > 0 {
		cp.Loans = make([]Loan, len(a.Loans))
		copy(cp.Loans, a.Loans)
	}
	if len(a.SettledPeriods) > 0 {
		cp.SettledPeriods = make(map[string]bool, len(a.SettledPeriods))
		for k, v := range a.SettledPeriods {
			cp.SettledPeriods[k] = v
		}
	}
	return cp
}

// Snapshot is a point-in-time export of the whole ledger, suitable for
// handing to a SnapshotStore. NextTransactionID preserves id
// monotonicity across a restore.
type Snapshot struct {
	NextTransactionID int64     `json:"next_transaction_id"`
	Accounts          []Account `json:"accounts"`
}
