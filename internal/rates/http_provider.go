package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
)

const (
	defaultPrimaryURL  = "https://api.apis.net.pe/v1/tipo-cambio-sunat"
	defaultFallbackURL = "https://api.exchangerate-api.com/v4/latest/USD"
)

// Spread applied when only a mid-market rate is available: banks buy
// cheaper and sell dearer by roughly half a percent each way.
var (
	buySpread  = decimal.RequireFromString("0.995")
	sellSpread = decimal.RequireFromString("1.005")
)

// HTTPProvider fetches the official published rate, falling back to a
// mid-market API with an estimated spread when the primary is down.
type HTTPProvider struct {
	client      *http.Client
	primaryURL  string
	fallbackURL string
}

func NewHTTPProvider(primaryURL string, fallbackURL string) *HTTPProvider {
	if primaryURL == "" {
		primaryURL = defaultPrimaryURL
	}
	if fallbackURL == "" {
		fallbackURL = defaultFallbackURL
	}
	return &HTTPProvider{
		client:      &http.Client{Timeout: 8 * time.Second},
		primaryURL:  primaryURL,
		fallbackURL: fallbackURL,
	}
}

type officialRatePayload struct {
	Buy  float64 `json:"compra"`
	Sell float64 `json:"venta"`
	Date string  `json:"fecha"`
}

type midMarketPayload struct {
	Rates map[string]float64 `json:"rates"`
	Date  string             `json:"date"`
}

func (p *HTTPProvider) Rate(ctx context.Context) (domain.ExchangeRate, error) {
	rate, primaryErr := p.fetchOfficial(ctx)
	if primaryErr == nil {
		return rate, nil
	}

	rate, fallbackErr := p.fetchMidMarket(ctx)
	if fallbackErr != nil {
		return domain.ExchangeRate{}, fmt.Errorf("exchange rate fetch failed: primary %v, fallback %w", primaryErr, fallbackErr)
	}
	return rate, nil
}

func (p *HTTPProvider) fetchOfficial(ctx context.Context) (domain.ExchangeRate, error) {
	var payload officialRatePayload
	if err := p.getJSON(ctx, p.primaryURL, &payload); err != nil {
		return domain.ExchangeRate{}, err
	}
	if payload.Sell <= 0 {
		return domain.ExchangeRate{}, fmt.Errorf("primary rate source returned sell rate %v", payload.Sell)
	}

	return domain.ExchangeRate{
		Buy:      decimal.NewFromFloat(payload.Buy),
		Sell:     decimal.NewFromFloat(payload.Sell),
		Source:   "official",
		Currency: domain.CurrencyForeign,
		Date:     parseRateDate(payload.Date),
	}, nil
}

func (p *HTTPProvider) fetchMidMarket(ctx context.Context) (domain.ExchangeRate, error) {
	var payload midMarketPayload
	if err := p.getJSON(ctx, p.fallbackURL, &payload); err != nil {
		return domain.ExchangeRate{}, err
	}

	mid, ok := payload.Rates[string(domain.CurrencyLocal)]
	if !ok || mid <= 0 {
		return domain.ExchangeRate{}, fmt.Errorf("fallback rate source has no %s rate", domain.CurrencyLocal)
	}

	midDec := decimal.NewFromFloat(mid)
	return domain.ExchangeRate{
		Buy:      midDec.Mul(buySpread).Round(3),
		Sell:     midDec.Mul(sellSpread).Round(3),
		Source:   "mid-market-estimated",
		Currency: domain.CurrencyForeign,
		Date:     parseRateDate(payload.Date),
	}, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rate source %s returned status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseRateDate(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		return domain.DateOnly(time.Now())
	}
	return t
}
