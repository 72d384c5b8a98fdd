package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/zepno/zepno/internal/logging"
)

type fakePrices struct {
	prices map[string]decimal.Decimal
	err    error
	calls  int
}

func (f *fakePrices) GetPrices(_ context.Context, _ string) (map[string]decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.prices, nil
}

func TestCatalogRejectsUnknownIcon(t *testing.T) {
	services := []Service{{ID: "1", Name: "Broken", Code: "br", Price: decimal.NewFromInt(1), Icon: Icon("sparkles")}}
	if _, err := New(services, nil, "22", logging.Discard()); err == nil {
		t.Fatal("expected unknown icon to fail catalog load")
	}
}

func TestCatalogOverlaysProviderPrices(t *testing.T) {
	source := &fakePrices{prices: map[string]decimal.Decimal{
		"fl": decimal.RequireFromString("31.5"),
	}}
	cat, err := New(DefaultServices(), source, "22", logging.Discard())
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	services := cat.Services(context.Background())
	byID := map[string]Service{}
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	if got := byID["1"]; !got.Price.Equal(decimal.RequireFromString("31.5")) || !got.Active {
		t.Fatalf("expected live price for Flipkart, got %+v", got)
	}
	if got := byID["2"]; got.Active {
		t.Fatalf("service absent from price list should be inactive, got %+v", got)
	}
}

func TestCatalogFallsBackToStaticSet(t *testing.T) {
	source := &fakePrices{err: errors.New("provider down")}
	cat, err := New(DefaultServices(), source, "22", logging.Discard())
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	services := cat.Services(context.Background())
	if len(services) != 2 {
		t.Fatalf("expected 2 fallback services, got %d", len(services))
	}
	for _, svc := range services {
		if !svc.Active {
			t.Fatalf("fallback service should stay active: %+v", svc)
		}
	}
	if !services[0].Price.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("fallback price changed: %s", services[0].Price)
	}
}

func TestPriceCacheServesSecondCallFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	source := &fakePrices{prices: map[string]decimal.Decimal{"fl": decimal.NewFromInt(20)}}
	cached := NewPriceCache(source, cache, time.Minute, logging.Discard())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		prices, err := cached.GetPrices(ctx, "22")
		if err != nil {
			t.Fatalf("get prices (call %d): %v", i+1, err)
		}
		if !prices["fl"].Equal(decimal.NewFromInt(20)) {
			t.Fatalf("unexpected price: %s", prices["fl"])
		}
	}

	if source.calls != 1 {
		t.Fatalf("expected one provider call, got %d", source.calls)
	}
}

func TestPriceCachePropagatesProviderError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	source := &fakePrices{err: errors.New("provider down")}
	cached := NewPriceCache(source, cache, time.Minute, logging.Discard())

	if _, err := cached.GetPrices(context.Background(), "22"); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}
