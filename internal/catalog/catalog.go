package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// Icon names the fixed UI asset shown for a service. Icons are a closed set
// validated when the catalog is built; a typo fails loading instead of
// falling back to a broken lookup at render time.
type Icon string

const (
	IconShoppingBag  Icon = "shopping-bag"
	IconShoppingCart Icon = "shopping-cart"
	IconSmartphone   Icon = "smartphone"
)

var knownIcons = map[Icon]struct{}{
	IconShoppingBag:  {},
	IconShoppingCart: {},
	IconSmartphone:   {},
}

// Service is one catalog entry. Code is the provider's service code; Price is
// the amount debited from the wallet per activation.
type Service struct {
	ID          string
	Name        string
	Code        string
	Price       decimal.Decimal
	Description string
	Active      bool
	Icon        Icon
}

// DefaultServices is the static fallback set served when the provider price
// list is unreachable.
func DefaultServices() []Service {
	return []Service{
		{
			ID:          "1",
			Name:        "Flipkart",
			Code:        "fl",
			Price:       decimal.NewFromInt(20),
			Description: "Receive OTP for Flipkart account verification",
			Active:      true,
			Icon:        IconShoppingBag,
		},
		{
			ID:          "2",
			Name:        "Zepto",
			Code:        "zp",
			Price:       decimal.NewFromInt(25),
			Description: "Receive OTP for Zepto account verification",
			Active:      true,
			Icon:        IconShoppingCart,
		},
	}
}

// PriceSource supplies current provider costs per service code. Implemented
// by the SMS provider client and by the redis price cache wrapping it.
type PriceSource interface {
	GetPrices(ctx context.Context, country string) (map[string]decimal.Decimal, error)
}

// Catalog serves the purchasable services, overlaying live provider prices on
// a static default set and degrading to the defaults when the provider fails.
type Catalog struct {
	defaults []Service
	prices   PriceSource
	country  string
	logger   *slog.Logger
}

// New validates the service set and builds a catalog. An unknown icon or a
// duplicate service id is a configuration error.
func New(defaults []Service, prices PriceSource, country string, logger *slog.Logger) (*Catalog, error) {
	seen := make(map[string]struct{}, len(defaults))
	for _, svc := range defaults {
		if _, ok := knownIcons[svc.Icon]; !ok {
			return nil, fmt.Errorf("service %s: unknown icon %q", svc.ID, svc.Icon)
		}
		if _, dup := seen[svc.ID]; dup {
			return nil, fmt.Errorf("duplicate service id %s", svc.ID)
		}
		seen[svc.ID] = struct{}{}
	}
	return &Catalog{defaults: defaults, prices: prices, country: country, logger: logger}, nil
}

// Services returns the catalog with provider costs applied. A provider
// failure is non-fatal: the static set is served unchanged.
func (c *Catalog) Services(ctx context.Context) []Service {
	out := make([]Service, len(c.defaults))
	copy(out, c.defaults)

	if c.prices == nil {
		return out
	}
	live, err := c.prices.GetPrices(ctx, c.country)
	if err != nil {
		c.logger.Warn("price fetch failed, serving static catalog", slog.Any("error", err))
		return out
	}

	for i := range out {
		cost, ok := live[out[i].Code]
		if !ok {
			out[i].Active = false
			continue
		}
		out[i].Price = cost
		out[i].Active = true
	}
	return out
}

// Find looks up one service by id, using the same price overlay as Services.
func (c *Catalog) Find(ctx context.Context, id string) (Service, bool) {
	for _, svc := range c.Services(ctx) {
		if svc.ID == id {
			return svc, true
		}
	}
	return Service{}, false
}
