package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const qrValidity = time.Hour

// QRInput captures what the gateway needs to mint a top-up QR code.
type QRInput struct {
	UserID string
	Amount decimal.Decimal
}

// QRCode is the gateway's handle for a payment QR: the payment id later
// echoed by the capture webhook, plus the image the UI renders.
type QRCode struct {
	ID       string
	ImageURL string
}

// Gateway represents the external payment processor used to fund wallets.
type Gateway interface {
	CreateQR(ctx context.Context, input QRInput) (QRCode, error)
}

// RazorpayGateway creates single-use UPI QR codes through the Razorpay API.
type RazorpayGateway struct {
	baseURL    string
	keyID      string
	keySecret  string
	appName    string
	httpClient *http.Client
}

// NewRazorpayGateway builds a gateway client with basic-auth credentials.
func NewRazorpayGateway(baseURL, keyID, keySecret, appName string) *RazorpayGateway {
	return &RazorpayGateway{
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		appName:    appName,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type qrRequest struct {
	Type          string            `json:"type"`
	Name          string            `json:"name"`
	Usage         string            `json:"usage"`
	FixedAmount   bool              `json:"fixed_amount"`
	PaymentAmount int64             `json:"payment_amount"`
	Description   string            `json:"description"`
	CloseBy       int64             `json:"close_by"`
	Notes         map[string]string `json:"notes"`
}

type qrResponse struct {
	ID       string `json:"id"`
	ImageURL string `json:"image_url"`
}

// CreateQR mints a fixed-amount single-use UPI QR that expires after an hour.
// The amount is converted to the gateway's minor unit (paise).
func (g *RazorpayGateway) CreateQR(ctx context.Context, input QRInput) (QRCode, error) {
	payload := qrRequest{
		Type:          "upi_qr",
		Name:          fmt.Sprintf("%s Wallet", g.appName),
		Usage:         "single_use",
		FixedAmount:   true,
		PaymentAmount: input.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Description:   fmt.Sprintf("Add funds to %s wallet", g.appName),
		CloseBy:       time.Now().Add(qrValidity).Unix(),
		Notes: map[string]string{
			"user_id": input.UserID,
			"purpose": "wallet_topup",
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return QRCode{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payments/qr_codes", bytes.NewReader(raw))
	if err != nil {
		return QRCode{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return QRCode{}, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return QRCode{}, fmt.Errorf("gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return QRCode{}, fmt.Errorf("gateway status %d: %s", resp.StatusCode, body)
	}

	var qr qrResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return QRCode{}, fmt.Errorf("decode gateway response: %w", err)
	}
	return QRCode{ID: qr.ID, ImageURL: qr.ImageURL}, nil
}

// StaticGateway simulates a successful gateway integration for tests and
// local development.
type StaticGateway struct{}

// CreateQR returns a synthetic QR handle.
func (StaticGateway) CreateQR(_ context.Context, _ QRInput) (QRCode, error) {
	id := "qr_" + uuid.NewString()
	return QRCode{ID: id, ImageURL: "https://example.invalid/qr/" + id}, nil
}
