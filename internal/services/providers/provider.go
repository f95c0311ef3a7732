package providers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"NightScan/internal/domain/models"
	"NightScan/pkg/config"
	xhttp "NightScan/pkg/http"
	"NightScan/pkg/util"
)

// candleResponse is the wire shape both market-data vendors share.
type candleResponse struct {
	Symbol  string `json:"symbol"`
	Candles []struct {
		Date   string  `json:"date"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"candles"`
}

// HTTPProvider fetches daily OHLCV history from one vendor endpoint. Calls
// run through a shared rate limiter and a per-provider circuit breaker so a
// dead vendor fails fast instead of stalling the whole scan.
type HTTPProvider struct {
	name     string
	endpoint config.ProviderEndpoint
	client   *xhttp.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
}

func NewHTTPProvider(endpoint config.ProviderEndpoint, retryMax int, limiter *rate.Limiter) *HTTPProvider {
	name := endpoint.Name
	if name == "" {
		name = "provider"
	}
	return &HTTPProvider{
		name:     name,
		endpoint: endpoint,
		client: xhttp.NewClient(
			xhttp.WithTimeout(endpoint.Timeout),
			xhttp.WithRetry(retryMax, 200*time.Millisecond),
		),
		limiter: limiter,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (p *HTTPProvider) Name() string { return p.name }

// FetchHistory returns ascending, date-unique daily candles for symbol.
func (p *HTTPProvider) FetchHistory(ctx context.Context, symbol string, lookbackDays int) ([]models.Candle, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s rate limit: %w", p.name, err)
		}
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		var resp candleResponse
		err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    p.endpoint.BaseURL + "/v1/daily",
			Headers: map[string]string{
				"X-API-Key": p.endpoint.APIKey,
			},
			QueryParams: map[string][]string{
				"symbol": {symbol},
				"days":   {fmt.Sprintf("%d", lookbackDays)},
			},
		}, &resp)
		if err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s fetch %s: %w: %v", p.name, symbol, models.ErrDataFetch, err)
	}

	resp := out.(*candleResponse)
	candles, err := normalizeCandles(symbol, resp)
	if err != nil {
		return nil, fmt.Errorf("%s fetch %s: %w: %v", p.name, symbol, models.ErrDataFetch, err)
	}
	return candles, nil
}

// normalizeCandles parses dates, drops rows that cannot be parsed, sorts
// ascending and deduplicates by calendar date keeping the last row.
func normalizeCandles(symbol string, resp *candleResponse) ([]models.Candle, error) {
	if len(resp.Candles) == 0 {
		return nil, fmt.Errorf("empty candle response")
	}

	candles := make([]models.Candle, 0, len(resp.Candles))
	for _, row := range resp.Candles {
		date, ok := util.ParseTime(row.Date)
		if !ok {
			continue
		}
		candles = append(candles, models.Candle{
			Date:   date,
			Symbol: symbol,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no parseable candles")
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})

	deduped := candles[:0]
	for _, c := range candles {
		if len(deduped) > 0 && util.SameCalendarDay(deduped[len(deduped)-1].Date, c.Date) {
			deduped[len(deduped)-1] = c
			continue
		}
		deduped = append(deduped, c)
	}
	return deduped, nil
}
