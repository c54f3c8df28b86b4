package rates

import (
	"context"
	"time"

	"cajadiaria/internal/cache"
	"cajadiaria/internal/domain"
)

// CachedProvider wraps another provider with the rate cache, keyed per
// calendar day. A cache error never fails the lookup; the inner provider
// is consulted instead.
type CachedProvider struct {
	inner Provider
	cache cache.RateCache
	ttl   time.Duration
}

func Cached(inner Provider, rateCache cache.RateCache, ttl time.Duration) *CachedProvider {
	if rateCache == nil {
		rateCache = cache.NoopRateCache{}
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &CachedProvider{inner: inner, cache: rateCache, ttl: ttl}
}

func (p *CachedProvider) Rate(ctx context.Context) (domain.ExchangeRate, error) {
	key := "rate:" + string(domain.CurrencyForeign) + ":" + time.Now().UTC().Format(domain.DateFormat)
	if cached, ok, err := p.cache.Get(ctx, key); err == nil && ok {
		return *cached, nil
	}

	rate, err := p.inner.Rate(ctx)
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	_ = p.cache.Set(ctx, key, &rate, p.ttl)
	return rate, nil
}
