package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/zepno/zepno/internal/notification"
	"github.com/zepno/zepno/internal/wallet"
)

const (
	eventPaymentCaptured = "payment.captured"
	topupPurpose         = "Wallet top-up"
)

// Service handles gateway webhooks and top-up QR creation against the wallet
// ledger.
type Service struct {
	ledger        wallet.Ledger
	gateway       Gateway
	notifier      notification.Notifier
	webhookSecret string
	logger        *slog.Logger
}

// NewService wires the payment collaborator.
func NewService(ledger wallet.Ledger, gateway Gateway, notifier notification.Notifier, webhookSecret string, logger *slog.Logger) *Service {
	if gateway == nil {
		gateway = StaticGateway{}
	}
	return &Service{
		ledger:        ledger,
		gateway:       gateway,
		notifier:      notifier,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// webhookEvent mirrors the gateway's event envelope.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type paymentEntity struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"` // minor units (paise)
	Notes  struct {
		UserID string `json:"user_id"`
	} `json:"notes"`
}

// WebhookResult reports what a delivery did.
type WebhookResult struct {
	Event     string
	PaymentID string
	Credited  bool
	Duplicate bool
}

// HandleWebhook verifies the signature, then credits the wallet for captured
// payments. Re-delivery of an already-credited payment id is acknowledged
// without crediting again.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) (WebhookResult, error) {
	if err := VerifySignature(body, signature, s.webhookSecret); err != nil {
		return WebhookResult{}, err
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return WebhookResult{}, fmt.Errorf("decode webhook payload: %w", err)
	}

	result := WebhookResult{Event: event.Event}
	if event.Event != eventPaymentCaptured {
		return result, nil
	}

	entity := event.Payload.Payment.Entity
	if entity.ID == "" || entity.Notes.UserID == "" {
		return WebhookResult{}, fmt.Errorf("capture event missing payment id or user id")
	}
	result.PaymentID = entity.ID

	amount := decimal.New(entity.Amount, -2) // paise to rupees

	if _, err := s.ledger.Credit(ctx, wallet.CreditInput{
		UserID:    entity.Notes.UserID,
		Amount:    amount,
		Purpose:   topupPurpose,
		PaymentID: entity.ID,
	}); err != nil {
		if errors.Is(err, wallet.ErrDuplicatePayment) {
			s.logger.Info("duplicate webhook delivery ignored", slog.String("payment_id", entity.ID))
			result.Duplicate = true
			return result, nil
		}
		return WebhookResult{}, err
	}

	result.Credited = true
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWalletCredit,
			Destination: entity.Notes.UserID,
			Body:        fmt.Sprintf("Wallet credited with %s", amount),
		})
	}
	return result, nil
}

// CreateTopupQR asks the gateway for a payment QR funding the user's wallet.
func (s *Service) CreateTopupQR(ctx context.Context, userID string, amount decimal.Decimal) (QRCode, error) {
	if !amount.IsPositive() {
		return QRCode{}, wallet.ErrInvalidAmount
	}
	// The user must exist before a QR references them in payment notes.
	if _, err := s.ledger.Balance(ctx, userID); err != nil {
		return QRCode{}, err
	}
	return s.gateway.CreateQR(ctx, QRInput{UserID: userID, Amount: amount})
}
