package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
)

func TestConverterPassesLocalThrough(t *testing.T) {
	convert := ConverterFor(domain.ExchangeRate{Sell: decimal.RequireFromString("3.80")})

	got := convert(decimal.RequireFromString("120.50"), domain.CurrencyLocal)
	if !got.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("local amount changed: got %s", got)
	}

	got = convert(decimal.RequireFromString("100"), domain.CurrencyForeign)
	if !got.Equal(decimal.RequireFromString("380")) {
		t.Fatalf("foreign amount: got %s, want 380", got)
	}
}

func TestFixedProvider(t *testing.T) {
	rate, err := Fixed(decimal.RequireFromString("3.75")).Rate(context.Background())
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !rate.Sell.Equal(decimal.RequireFromString("3.75")) {
		t.Fatalf("sell rate: got %s", rate.Sell)
	}
	if rate.Source != "fixed" {
		t.Fatalf("source: got %q", rate.Source)
	}
}

func TestHTTPProviderUsesPrimary(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"compra": 3.70, "venta": 3.78, "fecha": "2025-03-10"}`))
	}))
	defer primary.Close()

	p := NewHTTPProvider(primary.URL, "http://127.0.0.1:1/unused")
	rate, err := p.Rate(context.Background())
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !rate.Sell.Equal(decimal.RequireFromString("3.78")) {
		t.Fatalf("sell rate: got %s, want 3.78", rate.Sell)
	}
	if rate.Source != "official" {
		t.Fatalf("source: got %q, want official", rate.Source)
	}
}

func TestHTTPProviderFallsBackWithSpread(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"rates": {"PEN": 3.70}, "date": "2025-03-10"}`))
	}))
	defer fallback.Close()

	p := NewHTTPProvider(primary.URL, fallback.URL)
	rate, err := p.Rate(context.Background())
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	// 3.70 * 0.995 and 3.70 * 1.005, rounded to 3 decimals.
	if !rate.Buy.Equal(decimal.RequireFromString("3.682")) {
		t.Fatalf("buy rate: got %s, want 3.682", rate.Buy)
	}
	if !rate.Sell.Equal(decimal.RequireFromString("3.719")) {
		t.Fatalf("sell rate: got %s, want 3.719", rate.Sell)
	}
	if rate.Source != "mid-market-estimated" {
		t.Fatalf("source: got %q", rate.Source)
	}
}

type mapCache struct {
	entries map[string]*domain.ExchangeRate
	sets    int
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.ExchangeRate, bool, error) {
	r, ok := c.entries[key]
	return r, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *domain.ExchangeRate, _ time.Duration) error {
	c.entries[key] = value
	c.sets++
	return nil
}

func TestCachedProviderFetchesOnce(t *testing.T) {
	calls := 0
	inner := providerFunc(func(ctx context.Context) (domain.ExchangeRate, error) {
		calls++
		return domain.ExchangeRate{Sell: decimal.RequireFromString("3.75")}, nil
	})
	mc := &mapCache{entries: map[string]*domain.ExchangeRate{}}
	p := Cached(inner, mc, time.Hour)

	for i := 0; i < 3; i++ {
		rate, err := p.Rate(context.Background())
		if err != nil {
			t.Fatalf("Rate: %v", err)
		}
		if !rate.Sell.Equal(decimal.RequireFromString("3.75")) {
			t.Fatalf("sell rate: got %s", rate.Sell)
		}
	}
	if calls != 1 {
		t.Fatalf("inner provider called %d times, want 1", calls)
	}
	if mc.sets != 1 {
		t.Fatalf("cache set %d times, want 1", mc.sets)
	}
}

type providerFunc func(ctx context.Context) (domain.ExchangeRate, error)

func (f providerFunc) Rate(ctx context.Context) (domain.ExchangeRate, error) {
	return f(ctx)
}
