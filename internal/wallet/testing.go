package wallet

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that registers a user with the given balance
// when using the in-memory ledger.
func SeedBalance(l Ledger, userID string, amount decimal.Decimal) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.balances[userID] = amount
	}
}
