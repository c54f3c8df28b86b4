// Package rates supplies the foreign-to-local conversion used when a
// projection has to value USD obligations in soles. The conversion factor
// is always injected, never a literal inside an engine.
package rates

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
)

// Provider yields the current exchange rate for the foreign currency.
type Provider interface {
	Rate(ctx context.Context) (domain.ExchangeRate, error)
}

// Converter values an amount in local currency. Local amounts pass
// through unchanged; foreign amounts are valued at the sell rate.
type Converter func(amount decimal.Decimal, currency domain.Currency) decimal.Decimal

// ConverterFor builds a Converter from a fetched rate.
func ConverterFor(rate domain.ExchangeRate) Converter {
	return func(amount decimal.Decimal, currency domain.Currency) decimal.Decimal {
		if currency == domain.CurrencyForeign {
			return amount.Mul(rate.Sell)
		}
		return amount
	}
}

// DefaultSellRate is the reference conversion factor used when no live
// source is configured.
var DefaultSellRate = decimal.RequireFromString("3.75")

type fixedProvider struct {
	rate domain.ExchangeRate
}

// Fixed returns a Provider that always yields the given sell rate.
func Fixed(sell decimal.Decimal) Provider {
	return fixedProvider{rate: domain.ExchangeRate{
		Buy:      sell,
		Sell:     sell,
		Source:   "fixed",
		Currency: domain.CurrencyForeign,
	}}
}

func (p fixedProvider) Rate(_ context.Context) (domain.ExchangeRate, error) {
	r := p.rate
	r.Date = time.Now().UTC()
	return r, nil
}
