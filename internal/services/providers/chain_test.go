package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NightScan/internal/domain/models"
	"NightScan/pkg/cache"
	"NightScan/pkg/logger"
)

type stubProvider struct {
	name    string
	candles []models.Candle
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) FetchHistory(ctx context.Context, symbol string, lookbackDays int) ([]models.Candle, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

func testCandles(n int) []models.Candle {
	day := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Date: day.AddDate(0, 0, i), Symbol: "AAPL", Close: 100 + float64(i)}
	}
	return out
}

func newTestChain(t *testing.T, provs ...*stubProvider) (*Chain, cache.Service) {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)

	ch := NewChainWith(c, time.Hour, nil, log)
	for _, p := range provs {
		ch.providers = append(ch.providers, p)
	}
	return ch, c
}

func TestChainPrimarySuccess(t *testing.T) {
	primary := &stubProvider{name: "primary", candles: testCandles(5)}
	fallback := &stubProvider{name: "fallback", candles: testCandles(5)}
	ch, _ := newTestChain(t, primary, fallback)

	candles, source, err := ch.Fetch(context.Background(), "AAPL", 180)
	require.NoError(t, err)
	assert.Equal(t, "primary", source)
	assert.Len(t, candles, 5)
	assert.Equal(t, 0, fallback.calls, "fallback must not be called when primary succeeds")
}

func TestChainFallsBack(t *testing.T) {
	primary := &stubProvider{name: "primary", err: fmt.Errorf("boom: %w", models.ErrDataFetch)}
	fallback := &stubProvider{name: "fallback", candles: testCandles(5)}
	ch, _ := newTestChain(t, primary, fallback)

	candles, source, err := ch.Fetch(context.Background(), "AAPL", 180)
	require.NoError(t, err)
	assert.Equal(t, "fallback", source)
	assert.Len(t, candles, 5)
}

func TestChainAllProvidersFail(t *testing.T) {
	primary := &stubProvider{name: "primary", err: fmt.Errorf("p: %w", models.ErrDataFetch)}
	fallback := &stubProvider{name: "fallback", err: fmt.Errorf("f: %w", models.ErrDataFetch)}
	ch, _ := newTestChain(t, primary, fallback)

	_, _, err := ch.Fetch(context.Background(), "AAPL", 180)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataFetch))
}

func TestChainServesFromCache(t *testing.T) {
	primary := &stubProvider{name: "primary", candles: testCandles(5)}
	ch, _ := newTestChain(t, primary)

	_, _, err := ch.Fetch(context.Background(), "AAPL", 180)
	require.NoError(t, err)

	candles, source, err := ch.Fetch(context.Background(), "AAPL", 180)
	require.NoError(t, err)
	assert.Equal(t, "cache", source)
	assert.Len(t, candles, 5)
	assert.Equal(t, 1, primary.calls, "second fetch must hit the cache")
}

func TestNormalizeCandlesSortsAndDedupes(t *testing.T) {
	resp := &candleResponse{
		Symbol: "AAPL",
		Candles: []struct {
			Date   string  `json:"date"`
			Open   float64 `json:"open"`
			High   float64 `json:"high"`
			Low    float64 `json:"low"`
			Close  float64 `json:"close"`
			Volume float64 `json:"volume"`
		}{
			{Date: "2026-02-04", Close: 104},
			{Date: "2026-02-02", Close: 100},
			{Date: "2026-02-04", Close: 105}, // duplicate day, last wins
			{Date: "not-a-date", Close: 1},   // dropped
			{Date: "2026-02-03", Close: 102},
		},
	}
	candles, err := normalizeCandles("AAPL", resp)
	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.Equal(t, 100.0, candles[0].Close)
	assert.Equal(t, 102.0, candles[1].Close)
	assert.Equal(t, 105.0, candles[2].Close)
	assert.True(t, candles[0].Date.Before(candles[1].Date))
}
