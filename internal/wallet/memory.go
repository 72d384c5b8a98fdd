package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]decimal.Decimal
	entries  map[string][]Transaction
	payments map[string]struct{}
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests. Users exist once seeded via SeedBalance.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances: make(map[string]decimal.Decimal),
		entries:  make(map[string][]Transaction),
		payments: make(map[string]struct{}),
	}
}

func (l *inMemoryLedger) Balance(_ context.Context, userID string) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, ok := l.balances[userID]
	if !ok {
		return decimal.Zero, ErrUserNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Credit(_ context.Context, input CreditInput) (Transaction, error) {
	if !input.Amount.IsPositive() {
		return Transaction{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[input.UserID]
	if !ok {
		return Transaction{}, ErrUserNotFound
	}
	if input.PaymentID != "" {
		if _, seen := l.payments[input.PaymentID]; seen {
			return Transaction{}, ErrDuplicatePayment
		}
		l.payments[input.PaymentID] = struct{}{}
	}

	l.balances[input.UserID] = balance.Add(input.Amount)
	entry := Transaction{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Type:      TypeCredit,
		Amount:    input.Amount,
		Purpose:   input.Purpose,
		PaymentID: input.PaymentID,
		CreatedAt: time.Now().UTC(),
	}
	l.entries[input.UserID] = append(l.entries[input.UserID], entry)
	return entry, nil
}

func (l *inMemoryLedger) Debit(_ context.Context, input DebitInput) (Transaction, error) {
	if !input.Amount.IsPositive() {
		return Transaction{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[input.UserID]
	if !ok {
		return Transaction{}, ErrUserNotFound
	}
	if balance.LessThan(input.Amount) {
		return Transaction{}, ErrInsufficientBalance
	}

	l.balances[input.UserID] = balance.Sub(input.Amount)
	entry := Transaction{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Type:      TypeDebit,
		Amount:    input.Amount,
		Purpose:   input.Purpose,
		CreatedAt: time.Now().UTC(),
	}
	l.entries[input.UserID] = append(l.entries[input.UserID], entry)
	return entry, nil
}

func (l *inMemoryLedger) Transactions(_ context.Context, userID string) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.balances[userID]; !ok {
		return nil, ErrUserNotFound
	}
	entries := make([]Transaction, len(l.entries[userID]))
	copy(entries, l.entries[userID])
	return entries, nil
}
