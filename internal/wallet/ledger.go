package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUserNotFound indicates the wallet owner does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidAmount rejects zero or negative amounts. Callers passing one
	// have a programming error; the ledger never coerces.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance occurs when a debit exceeds the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDuplicatePayment indicates the gateway payment id was already
	// credited and the delivery should be treated as idempotent.
	ErrDuplicatePayment = errors.New("duplicate payment")
)

// Transaction types recorded in the ledger.
const (
	TypeCredit = "credit"
	TypeDebit  = "debit"
)

// Transaction is one append-only ledger entry. Entries are never mutated or
// deleted.
type Transaction struct {
	ID        string
	UserID    string
	Type      string
	Amount    decimal.Decimal
	Purpose   string
	PaymentID string // gateway payment id, set only for webhook credits
	CreatedAt time.Time
}

// CreditInput captures a balance increase. PaymentID, when set, deduplicates
// webhook deliveries.
type CreditInput struct {
	UserID    string
	Amount    decimal.Decimal
	Purpose   string
	PaymentID string
}

// DebitInput captures a balance decrease.
type DebitInput struct {
	UserID  string
	Amount  decimal.Decimal
	Purpose string
}

// Ledger exposes wallet bookkeeping scoped to one user id. Implementations
// must apply the balance mutation and the log append atomically so that the
// stored balance always equals credits minus debits.
type Ledger interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	Credit(ctx context.Context, input CreditInput) (Transaction, error)
	Debit(ctx context.Context, input DebitInput) (Transaction, error)
	Transactions(ctx context.Context, userID string) ([]Transaction, error)
}
