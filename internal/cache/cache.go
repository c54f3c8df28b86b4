package cache

import (
	"context"
	"time"

	"cajadiaria/internal/domain"
)

// RateCache stores fetched exchange rates so the live-rate APIs are not
// hit on every projection.
type RateCache interface {
	Get(ctx context.Context, key string) (*domain.ExchangeRate, bool, error)
	Set(ctx context.Context, key string, value *domain.ExchangeRate, ttl time.Duration) error
}

type NoopRateCache struct{}

func (NoopRateCache) Get(_ context.Context, _ string) (*domain.ExchangeRate, bool, error) {
	return nil, false, nil
}

func (NoopRateCache) Set(_ context.Context, _ string, _ *domain.ExchangeRate, _ time.Duration) error {
	return nil
}
