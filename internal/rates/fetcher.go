package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jiangshan001/OpenISave/internal/core"
)

// DefaultAPIURL is the external quote source; the bridge currency is
// appended as the base of the request.
const DefaultAPIURL = "https://api.exchangerate-api.com/v4/latest"

// Fetcher pulls current USD-based quotes from an external HTTP source.
type Fetcher struct {
	client  *http.Client
	baseURL string
}

func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Fetch requests the latest USD-based quotes and returns one USD->C record
// per supported currency C present in the response, dated today and tagged
// source=api. Every failure is wrapped in a core.ExternalSourceError so
// callers can log and absorb it.
func (f *Fetcher) Fetch(ctx context.Context) ([]core.ExchangeRate, error) {
	url := f.baseURL + "/" + core.BridgeCurrency

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &core.ExternalSourceError{Source: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &core.ExternalSourceError{Source: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &core.ExternalSourceError{Source: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &core.ExternalSourceError{Source: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(payload.Rates) == 0 {
		return nil, &core.ExternalSourceError{Source: url, Err: fmt.Errorf("empty rate table")}
	}

	today := time.Now()
	var fetched []core.ExchangeRate
	for _, currency := range core.Currencies {
		if currency == core.BridgeCurrency {
			continue
		}
		value, ok := payload.Rates[currency]
		if !ok || value <= 0 {
			continue
		}
		fetched = append(fetched, core.ExchangeRate{
			FromCurrency: core.BridgeCurrency,
			ToCurrency:   currency,
			Rate:         decimal.NewFromFloat(value),
			Date:         today,
			Source:       core.SourceAPI,
		})
	}
	return fetched, nil
}
