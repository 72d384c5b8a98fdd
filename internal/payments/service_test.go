package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zepno/zepno/internal/logging"
	"github.com/zepno/zepno/internal/notification"
	"github.com/zepno/zepno/internal/wallet"
)

const testSecret = "whsec_test"

func captureEvent(t *testing.T, paymentID, userID string, paise int64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": "payment.captured",
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":     paymentID,
					"amount": paise,
					"notes":  map[string]any{"user_id": userID},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return body
}

func newWebhookFixture(t *testing.T) (*Service, wallet.Ledger, *recordingNotifier, string) {
	t.Helper()
	ledger := wallet.NewInMemory()
	userID := uuid.NewString()
	wallet.SeedBalance(ledger, userID, decimal.Zero)
	notifier := &recordingNotifier{}
	svc := NewService(ledger, StaticGateway{}, notifier, testSecret, logging.Discard())
	return svc, ledger, notifier, userID
}

type recordingNotifier struct {
	last notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.last = msg
	return nil
}

func TestWebhookCreditsWallet(t *testing.T) {
	svc, ledger, notifier, userID := newWebhookFixture(t)

	body := captureEvent(t, "pay_abc", userID, 50000) // 500.00 in paise
	result, err := svc.HandleWebhook(context.Background(), body, Sign(body, testSecret))
	if err != nil {
		t.Fatalf("handle webhook: %v", err)
	}
	if !result.Credited || result.Duplicate {
		t.Fatalf("unexpected result: %+v", result)
	}

	balance, err := ledger.Balance(context.Background(), userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected balance 500, got %s", balance)
	}

	entries, _ := ledger.Transactions(context.Background(), userID)
	if len(entries) != 1 || entries[0].Type != wallet.TypeCredit || entries[0].PaymentID != "pay_abc" {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
	if notifier.last.Kind != notification.KindWalletCredit {
		t.Fatalf("expected wallet credit notification, got %+v", notifier.last)
	}
}

func TestWebhookDuplicateDeliveryCreditsOnce(t *testing.T) {
	svc, ledger, _, userID := newWebhookFixture(t)

	body := captureEvent(t, "pay_dup", userID, 10000)
	signature := Sign(body, testSecret)

	if _, err := svc.HandleWebhook(context.Background(), body, signature); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	result, err := svc.HandleWebhook(context.Background(), body, signature)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !result.Duplicate || result.Credited {
		t.Fatalf("expected duplicate acknowledgement, got %+v", result)
	}

	balance, _ := ledger.Balance(context.Background(), userID)
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected single credit of 100, got %s", balance)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, ledger, _, userID := newWebhookFixture(t)

	body := captureEvent(t, "pay_bad", userID, 10000)
	if _, err := svc.HandleWebhook(context.Background(), body, "deadbeef"); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
	if _, err := svc.HandleWebhook(context.Background(), body, ""); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid for missing header, got %v", err)
	}

	balance, _ := ledger.Balance(context.Background(), userID)
	if !balance.IsZero() {
		t.Fatalf("no credit expected, got %s", balance)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	svc, ledger, _, userID := newWebhookFixture(t)

	body, _ := json.Marshal(map[string]any{"event": "payment.failed"})
	result, err := svc.HandleWebhook(context.Background(), body, Sign(body, testSecret))
	if err != nil {
		t.Fatalf("handle webhook: %v", err)
	}
	if result.Credited || result.Duplicate {
		t.Fatalf("unexpected result: %+v", result)
	}

	balance, _ := ledger.Balance(context.Background(), userID)
	if !balance.IsZero() {
		t.Fatalf("no credit expected, got %s", balance)
	}
}

func TestCreateTopupQRValidation(t *testing.T) {
	svc, _, _, userID := newWebhookFixture(t)
	ctx := context.Background()

	if _, err := svc.CreateTopupQR(ctx, userID, decimal.Zero); !errors.Is(err, wallet.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.CreateTopupQR(ctx, uuid.NewString(), decimal.NewFromInt(100)); !errors.Is(err, wallet.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	qr, err := svc.CreateTopupQR(ctx, userID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("create qr: %v", err)
	}
	if qr.ID == "" || qr.ImageURL == "" {
		t.Fatalf("incomplete qr: %+v", qr)
	}
}
