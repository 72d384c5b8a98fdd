package activation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zepno/zepno/internal/catalog"
	"github.com/zepno/zepno/internal/logging"
	"github.com/zepno/zepno/internal/notification"
	"github.com/zepno/zepno/internal/smsactivate"
	"github.com/zepno/zepno/internal/wallet"
)

type fakeProvider struct {
	mu sync.Mutex

	lease    smsactivate.Lease
	leaseErr error

	status    smsactivate.Status
	statusErr error

	leaseCalls     int
	getStatusCalls int
	setStatusCalls []int
}

func (f *fakeProvider) GetPrices(_ context.Context, _ string) (map[string]decimal.Decimal, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) LeaseNumber(_ context.Context, _, _ string) (smsactivate.Lease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaseCalls++
	if f.leaseErr != nil {
		return smsactivate.Lease{}, f.leaseErr
	}
	return f.lease, nil
}

func (f *fakeProvider) GetStatus(_ context.Context, _ string) (smsactivate.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getStatusCalls++
	if f.statusErr != nil {
		return smsactivate.Status{}, f.statusErr
	}
	return f.status, nil
}

func (f *fakeProvider) SetStatus(_ context.Context, _ string, status int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setStatusCalls = append(f.setStatusCalls, status)
	return nil
}

func (f *fakeProvider) sentStatus(code int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sent := range f.setStatusCalls {
		if sent == code {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	mu   sync.Mutex
	last notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = msg
	return nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(catalog.DefaultServices(), nil, "22", logging.Discard())
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return cat
}

func newFixture(t *testing.T, provider *fakeProvider, balance decimal.Decimal) (*Service, wallet.Ledger, Store, string) {
	t.Helper()
	ledger := wallet.NewInMemory()
	store := NewMemoryStore()
	userID := uuid.NewString()
	wallet.SeedBalance(ledger, userID, balance)
	svc := NewService(provider, testCatalog(t), ledger, store, &recordingNotifier{}, "22", logging.Discard())
	return svc, ledger, store, userID
}

func TestPurchaseDebitsWalletAndRecordsSession(t *testing.T) {
	provider := &fakeProvider{lease: smsactivate.Lease{ID: "12345", Number: "79998887766"}}
	svc, ledger, store, userID := newFixture(t, provider, decimal.NewFromInt(20))

	ctx := context.Background()
	session, err := svc.Purchase(ctx, userID, "1") // Flipkart, price 20
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if session.ID != "12345" || session.Number != "79998887766" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.Status != StatusPending || session.SessionToken != session.ID {
		t.Fatalf("unexpected session state: %+v", session)
	}
	if session.OperatorID != DefaultOperatorID {
		t.Fatalf("expected default operator, got %q", session.OperatorID)
	}

	balance, err := ledger.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", balance)
	}

	entries, err := ledger.Transactions(ctx, userID)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one transaction, got %d", len(entries))
	}
	if entries[0].Type != wallet.TypeDebit || !entries[0].Amount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected transaction: %+v", entries[0])
	}
	if !strings.Contains(entries[0].Purpose, "Flipkart") {
		t.Fatalf("purpose should name the service, got %q", entries[0].Purpose)
	}

	if !provider.sentStatus(smsactivate.StatusReady) {
		t.Fatal("provider was not told the lease is ready")
	}
	if _, err := store.Find(ctx, session.ID); err != nil {
		t.Fatalf("session not recorded: %v", err)
	}
}

func TestPurchaseInsufficientBalanceSkipsProvider(t *testing.T) {
	provider := &fakeProvider{lease: smsactivate.Lease{ID: "12345", Number: "79998887766"}}
	svc, ledger, _, userID := newFixture(t, provider, decimal.NewFromInt(10))

	ctx := context.Background()
	if _, err := svc.Purchase(ctx, userID, "1"); !errors.Is(err, wallet.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	if provider.leaseCalls != 0 {
		t.Fatalf("no provider call expected, got %d", provider.leaseCalls)
	}
	entries, _ := ledger.Transactions(ctx, userID)
	if len(entries) != 0 {
		t.Fatalf("no transaction expected, got %d", len(entries))
	}
}

func TestPurchaseNoNumbersMakesNoDebit(t *testing.T) {
	provider := &fakeProvider{leaseErr: smsactivate.ErrNoNumbers}
	svc, ledger, _, userID := newFixture(t, provider, decimal.NewFromInt(100))

	ctx := context.Background()
	if _, err := svc.Purchase(ctx, userID, "1"); !errors.Is(err, smsactivate.ErrNoNumbers) {
		t.Fatalf("expected ErrNoNumbers, got %v", err)
	}

	balance, _ := ledger.Balance(ctx, userID)
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance must be untouched, got %s", balance)
	}
}

// debitRejectingLedger delegates to an inner ledger but refuses debits,
// simulating a ledger failure after a successful lease.
type debitRejectingLedger struct {
	wallet.Ledger
}

func (l *debitRejectingLedger) Debit(_ context.Context, _ wallet.DebitInput) (wallet.Transaction, error) {
	return wallet.Transaction{}, errors.New("ledger write failed")
}

func TestPurchaseDebitFailureCancelsLease(t *testing.T) {
	provider := &fakeProvider{lease: smsactivate.Lease{ID: "12345", Number: "79998887766"}}
	inner := wallet.NewInMemory()
	userID := uuid.NewString()
	wallet.SeedBalance(inner, userID, decimal.NewFromInt(100))
	store := NewMemoryStore()
	svc := NewService(provider, testCatalog(t), &debitRejectingLedger{Ledger: inner}, store, nil, "22", logging.Discard())

	ctx := context.Background()
	if _, err := svc.Purchase(ctx, userID, "1"); err == nil {
		t.Fatal("expected purchase to fail")
	}

	if !provider.sentStatus(smsactivate.StatusCancel) {
		t.Fatal("expected compensating cancel to reach the provider")
	}
	if _, err := store.Find(ctx, "12345"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("no session should be recorded, got %v", err)
	}
}

func TestRefreshAppliesReceivedCode(t *testing.T) {
	provider := &fakeProvider{
		lease:  smsactivate.Lease{ID: "12345", Number: "79998887766"},
		status: smsactivate.Status{State: smsactivate.StateReceived, Code: "483920"},
	}
	notifier := &recordingNotifier{}
	ledger := wallet.NewInMemory()
	store := NewMemoryStore()
	userID := uuid.NewString()
	wallet.SeedBalance(ledger, userID, decimal.NewFromInt(20))
	svc := NewService(provider, testCatalog(t), ledger, store, notifier, "22", logging.Discard())

	ctx := context.Background()
	session, err := svc.Purchase(ctx, userID, "1")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, session.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", refreshed.Status)
	}
	if refreshed.OTP != "483920" {
		t.Fatalf("expected otp 483920, got %q", refreshed.OTP)
	}
	if notifier.last.Kind != notification.KindOTPReceived {
		t.Fatalf("expected OTP notification, got %+v", notifier.last)
	}
}

func TestRefreshWaitingLeavesSessionPending(t *testing.T) {
	provider := &fakeProvider{
		lease:  smsactivate.Lease{ID: "12345", Number: "79998887766"},
		status: smsactivate.Status{State: smsactivate.StateWaiting},
	}
	svc, _, store, userID := newFixture(t, provider, decimal.NewFromInt(20))

	ctx := context.Background()
	session, err := svc.Purchase(ctx, userID, "1")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, session.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Status != StatusPending || refreshed.OTP != "" {
		t.Fatalf("expected untouched pending session, got %+v", refreshed)
	}
	if _, err := store.Find(ctx, session.ID); err != nil {
		t.Fatalf("session lost: %v", err)
	}
}

func TestCancelThenRefreshIsNoOp(t *testing.T) {
	provider := &fakeProvider{
		lease:  smsactivate.Lease{ID: "12345", Number: "79998887766"},
		status: smsactivate.Status{State: smsactivate.StateWaiting},
	}
	svc, _, _, userID := newFixture(t, provider, decimal.NewFromInt(20))

	ctx := context.Background()
	session, err := svc.Purchase(ctx, userID, "1")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	canceled, err := svc.Cancel(ctx, session.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if canceled.Status != StatusCanceled {
		t.Fatalf("expected canceled, got %s", canceled.Status)
	}
	if !provider.sentStatus(smsactivate.StatusCancel) {
		t.Fatal("provider did not receive status code 8")
	}

	polls := provider.getStatusCalls
	refreshed, err := svc.Refresh(ctx, session.ID)
	if err != nil {
		t.Fatalf("refresh after cancel: %v", err)
	}
	if refreshed.Status != StatusCanceled {
		t.Fatalf("expected canceled to stick, got %s", refreshed.Status)
	}
	if provider.getStatusCalls != polls {
		t.Fatal("terminal session must not be polled against the provider")
	}

	if _, err := svc.Cancel(ctx, session.ID); !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("second cancel should be rejected, got %v", err)
	}
}

func TestRefreshUnknownSession(t *testing.T) {
	provider := &fakeProvider{}
	svc, _, _, _ := newFixture(t, provider, decimal.Zero)

	if _, err := svc.Refresh(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
