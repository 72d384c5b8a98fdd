package smsactivate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultTimeout = 15 * time.Second

// Activation status codes accepted by the provider's setStatus action.
const (
	StatusReady  = 1 // ready to receive the SMS
	StatusCancel = 8 // cancel the activation
)

// State describes where an activation stands according to the provider.
type State int

const (
	// StateWaiting covers all of the provider's wait variants; the code has
	// not arrived yet.
	StateWaiting State = iota
	// StateReceived means the OTP code is available.
	StateReceived
	// StateCanceled means the activation was canceled provider-side.
	StateCanceled
)

// Lease is a phone number checked out from the provider for one activation.
type Lease struct {
	ID     string
	Number string
}

// Status is the parsed result of a getStatus poll.
type Status struct {
	State State
	Code  string
}

// Provider is the contract the orchestrator depends on. Client implements it
// against the live API; tests substitute fakes.
type Provider interface {
	GetPrices(ctx context.Context, country string) (map[string]decimal.Decimal, error)
	LeaseNumber(ctx context.Context, serviceCode, country string) (Lease, error)
	GetStatus(ctx context.Context, leaseID string) (Status, error)
	SetStatus(ctx context.Context, leaseID string, status int) error
}

// Client talks to the SMS-Activate handler API. Every action is a single GET
// with the api key and action-specific params in the query string.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a provider client for the given API key and base URL.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// GetBalance reports the provider account balance (ACCESS_BALANCE:<amount>).
func (c *Client) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	body, err := c.request(ctx, url.Values{"action": {"getBalance"}})
	if err != nil {
		return decimal.Zero, err
	}
	rest, ok := strings.CutPrefix(body, "ACCESS_BALANCE:")
	if !ok {
		return decimal.Zero, sentinelFailure(body)
	}
	balance, err := decimal.NewFromString(rest)
	if err != nil {
		return decimal.Zero, &SentinelError{Raw: body}
	}
	return balance, nil
}

// priceEntry mirrors one service entry in the getPrices JSON response.
type priceEntry struct {
	Cost  json.Number `json:"cost"`
	Count int         `json:"count"`
}

// GetPrices returns the provider's current cost per service code for the
// given country. The response is the one JSON-shaped body the API serves.
func (c *Client) GetPrices(ctx context.Context, country string) (map[string]decimal.Decimal, error) {
	body, err := c.request(ctx, url.Values{
		"action":  {"getPrices"},
		"country": {country},
	})
	if err != nil {
		return nil, err
	}

	var entries map[string]priceEntry
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return nil, sentinelFailure(body)
	}

	prices := make(map[string]decimal.Decimal, len(entries))
	for code, entry := range entries {
		cost, err := decimal.NewFromString(entry.Cost.String())
		if err != nil {
			continue
		}
		prices[code] = cost
	}
	return prices, nil
}

// LeaseNumber checks out a phone number for the given service
// (ACCESS_NUMBER:<id>:<msisdn>).
func (c *Client) LeaseNumber(ctx context.Context, serviceCode, country string) (Lease, error) {
	body, err := c.request(ctx, url.Values{
		"action":  {"getNumber"},
		"service": {serviceCode},
		"country": {country},
	})
	if err != nil {
		return Lease{}, err
	}

	rest, ok := strings.CutPrefix(body, "ACCESS_NUMBER:")
	if !ok {
		return Lease{}, sentinelFailure(body)
	}
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Lease{}, &SentinelError{Raw: body}
	}
	return Lease{ID: parts[0], Number: parts[1]}, nil
}

// GetStatus polls the activation state (STATUS_OK:<code>, STATUS_CANCEL or a
// wait variant).
func (c *Client) GetStatus(ctx context.Context, leaseID string) (Status, error) {
	body, err := c.request(ctx, url.Values{
		"action": {"getStatus"},
		"id":     {leaseID},
	})
	if err != nil {
		return Status{}, err
	}

	switch {
	case strings.HasPrefix(body, "STATUS_OK:"):
		code := strings.TrimPrefix(body, "STATUS_OK:")
		if code == "" {
			return Status{}, &SentinelError{Raw: body}
		}
		return Status{State: StateReceived, Code: code}, nil
	case body == "STATUS_CANCEL":
		return Status{State: StateCanceled}, nil
	case body == "STATUS_WAIT_CODE", body == "STATUS_WAIT_RETRY", body == "STATUS_WAIT_RESEND":
		return Status{State: StateWaiting}, nil
	default:
		return Status{}, sentinelFailure(body)
	}
}

// SetStatus reports an activation state change to the provider: StatusReady
// once we are listening for the SMS, StatusCancel to drop the lease.
func (c *Client) SetStatus(ctx context.Context, leaseID string, status int) error {
	body, err := c.request(ctx, url.Values{
		"action": {"setStatus"},
		"id":     {leaseID},
		"status": {fmt.Sprintf("%d", status)},
	})
	if err != nil {
		return err
	}
	// Acknowledgements all share the ACCESS_ prefix (ACCESS_READY,
	// ACCESS_CANCEL, ACCESS_ACTIVATION, ...).
	if !strings.HasPrefix(body, "ACCESS_") {
		return sentinelFailure(body)
	}
	return nil
}

func (c *Client) request(ctx context.Context, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse provider url: %w", err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	for key, values := range params {
		for _, value := range values {
			q.Set(key, value)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build provider request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	return strings.TrimSpace(string(raw)), nil
}
