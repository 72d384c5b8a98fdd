package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresLedger persists wallet state in PostgreSQL. The balance column on
// users and the transactions log are written inside one transaction with the
// user row locked, which serializes concurrent mutations per user and keeps
// balance == sum(credits) - sum(debits) across crashes.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Balance returns the stored balance for the user.
func (l *PostgresLedger) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return decimal.Zero, ErrUserNotFound
	}
	var balanceStr string
	if err := l.db.QueryRow(ctx, `SELECT balance::text FROM users WHERE id = $1`, id).Scan(&balanceStr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance: %w", err)
	}
	return balance, nil
}

// Credit appends a credit entry and increases the stored balance atomically.
func (l *PostgresLedger) Credit(ctx context.Context, input CreditInput) (Transaction, error) {
	if !input.Amount.IsPositive() {
		return Transaction{}, ErrInvalidAmount
	}
	return l.post(ctx, input.UserID, TypeCredit, input.Amount, input.Purpose, input.PaymentID)
}

// Debit appends a debit entry and decreases the stored balance atomically,
// rejecting amounts above the current balance.
func (l *PostgresLedger) Debit(ctx context.Context, input DebitInput) (Transaction, error) {
	if !input.Amount.IsPositive() {
		return Transaction{}, ErrInvalidAmount
	}
	return l.post(ctx, input.UserID, TypeDebit, input.Amount, input.Purpose, "")
}

// Transactions lists the user's ledger entries, newest first.
func (l *PostgresLedger) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	rows, err := l.db.Query(ctx, `SELECT id, user_id, type, amount::text, purpose, COALESCE(payment_id, ''), created_at
        FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Transaction
	for rows.Next() {
		var (
			txID      uuid.UUID
			ownerID   uuid.UUID
			amountStr string
			createdAt time.Time
			entry     Transaction
		)
		if err := rows.Scan(&txID, &ownerID, &entry.Type, &amountStr, &entry.Purpose, &entry.PaymentID, &createdAt); err != nil {
			return nil, err
		}
		entry.ID = txID.String()
		entry.UserID = ownerID.String()
		entry.CreatedAt = createdAt.UTC()
		if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (l *PostgresLedger) post(ctx context.Context, userID, kind string, amount decimal.Decimal, purpose, paymentID string) (Transaction, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return Transaction{}, ErrUserNotFound
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var balanceStr string
	if err := tx.QueryRow(ctx, `SELECT balance::text FROM users WHERE id = $1 FOR UPDATE`, ownerID).Scan(&balanceStr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrUserNotFound
		}
		return Transaction{}, err
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse balance: %w", err)
	}

	if paymentID != "" {
		var existing uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM transactions WHERE payment_id = $1`, paymentID).Scan(&existing)
		if err == nil {
			return Transaction{}, ErrDuplicatePayment
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, err
		}
	}

	var next decimal.Decimal
	switch kind {
	case TypeCredit:
		next = balance.Add(amount)
	case TypeDebit:
		if balance.LessThan(amount) {
			return Transaction{}, ErrInsufficientBalance
		}
		next = balance.Sub(amount)
	default:
		return Transaction{}, fmt.Errorf("unknown transaction type %q", kind)
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET balance = $1 WHERE id = $2`, next.String(), ownerID); err != nil {
		return Transaction{}, err
	}

	entry := Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Amount:    amount,
		Purpose:   purpose,
		PaymentID: paymentID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, user_id, type, amount, purpose, payment_id, created_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`,
		entry.ID, ownerID, entry.Type, entry.Amount.String(), entry.Purpose, entry.PaymentID, entry.CreatedAt); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return entry, nil
}
