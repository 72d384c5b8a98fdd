package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const priceCachePrefix = "prices:v1:"

// PriceCache memoizes provider price lists in Redis for a fixed TTL so the
// catalog does not hit the provider on every page load.
type PriceCache struct {
	inner  PriceSource
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewPriceCache wraps a price source with a redis-backed TTL cache.
func NewPriceCache(inner PriceSource, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *PriceCache {
	return &PriceCache{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

// GetPrices serves from cache when possible, otherwise fetches from the inner
// source and stores the result. Cache failures degrade to pass-through.
func (p *PriceCache) GetPrices(ctx context.Context, country string) (map[string]decimal.Decimal, error) {
	key := priceCachePrefix + country

	if cached, err := p.cache.Get(ctx, key).Result(); err == nil {
		var raw map[string]string
		if err := json.Unmarshal([]byte(cached), &raw); err == nil {
			prices := make(map[string]decimal.Decimal, len(raw))
			ok := true
			for code, cost := range raw {
				d, err := decimal.NewFromString(cost)
				if err != nil {
					ok = false
					break
				}
				prices[code] = d
			}
			if ok {
				return prices, nil
			}
		}
		p.logger.Warn("dropping corrupt price cache entry", slog.String("key", key))
		p.cache.Del(ctx, key)
	} else if err != redis.Nil {
		p.logger.Warn("price cache lookup failed", slog.Any("error", err))
	}

	prices, err := p.inner.GetPrices(ctx, country)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]string, len(prices))
	for code, cost := range prices {
		raw[code] = cost.String()
	}
	if payload, err := json.Marshal(raw); err == nil {
		if err := p.cache.Set(ctx, key, payload, p.ttl).Err(); err != nil {
			p.logger.Warn("price cache store failed", slog.Any("error", err))
		}
	}

	return prices, nil
}
