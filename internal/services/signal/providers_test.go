package signal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/service"
	"NightScan/internal/services/indicators"
	"NightScan/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func recordWithHistory(n int) *models.StockRecord {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{Date: day.AddDate(0, 0, i), Symbol: "AAPL", Close: 100 + float64(i)*0.5}
	}
	rec := &models.StockRecord{Symbol: "AAPL", Sector: "tech", Candles: candles}
	rec.Indicators = indicators.Compute(candles)
	return rec
}

func TestTrendProviderDirectionFollowsChange(t *testing.T) {
	p := NewTrendProvider()
	rec := recordWithHistory(60)
	rec.Indicators.Change5d = 0.10 // strong up move saturates

	res := p.Predict(context.Background(), rec, nil)
	require.True(t, res.Available)
	assert.Equal(t, 1.0, res.Direction)
	assert.Equal(t, trendConfidence, res.Confidence)

	rec.Indicators.Change5d = -0.02
	res = p.Predict(context.Background(), rec, nil)
	require.True(t, res.Available)
	assert.InDelta(t, -0.4, res.Direction, 1e-9)
}

func TestTrendProviderInsufficientHistory(t *testing.T) {
	p := NewTrendProvider()
	res := p.Predict(context.Background(), recordWithHistory(10), nil)
	assert.False(t, res.Available)
	assert.Equal(t, "insufficient history", res.Reason)
}

func TestTrendProviderRegimeDampsConfidence(t *testing.T) {
	p := NewTrendProvider()
	rec := recordWithHistory(60)
	stressed := &models.RegimeState{Label: models.RegimeHighVol, CrashRisk: 1.0}

	res := p.Predict(context.Background(), rec, stressed)
	require.True(t, res.Available)
	assert.InDelta(t, trendConfidence*0.7, res.Confidence, 1e-9)
}

func TestTechnicalProviderOversoldBullish(t *testing.T) {
	p := NewTechnicalProvider()
	rec := recordWithHistory(60)
	rec.Indicators.RSI14 = 20
	rec.Indicators.MACDHistogram = 0.5

	res := p.Predict(context.Background(), rec, nil)
	require.True(t, res.Available)
	assert.Greater(t, res.Direction, 0.0)
	// RSI and MACD agree, so confidence takes the higher tier.
	assert.InDelta(t, 0.6, res.Confidence, 1e-9)
}

func TestTechnicalProviderDisagreementLowersConfidence(t *testing.T) {
	p := NewTechnicalProvider()
	rec := recordWithHistory(60)
	rec.Indicators.RSI14 = 80 // overbought, bearish read
	rec.Indicators.MACDHistogram = 1.0

	res := p.Predict(context.Background(), rec, nil)
	require.True(t, res.Available)
	assert.InDelta(t, 0.35, res.Confidence, 1e-9)
}

type stubModelStore struct {
	records map[string]*models.ModelRecord
}

func (s *stubModelStore) Get(symbol string) (*models.ModelRecord, bool) {
	r, ok := s.records[symbol]
	return r, ok
}
func (s *stubModelStore) Put(rec *models.ModelRecord) error { return nil }
func (s *stubModelStore) All() []*models.ModelRecord        { return nil }

type stubForecastService struct {
	forecast service.Forecast
	err      error
}

func (s *stubForecastService) Train(ctx context.Context, symbol string, history []models.Candle) (*models.ModelRecord, error) {
	return nil, fmt.Errorf("not used")
}
func (s *stubForecastService) Predict(ctx context.Context, symbol string, history []models.Candle) (service.Forecast, error) {
	return s.forecast, s.err
}

func TestForecastProviderNoModel(t *testing.T) {
	p := NewForecastProvider(&stubForecastService{}, &stubModelStore{records: map[string]*models.ModelRecord{}}, 7*24*time.Hour, testLogger(t))
	res := p.Predict(context.Background(), recordWithHistory(60), nil)
	assert.False(t, res.Available)
	assert.Equal(t, "no trained model", res.Reason)
}

func TestForecastProviderStaleModel(t *testing.T) {
	// Trained eight days ago against a seven day threshold: stale, and
	// therefore not trusted this run.
	store := &stubModelStore{records: map[string]*models.ModelRecord{
		"AAPL": {Symbol: "AAPL", TrainedAt: time.Now().Add(-8 * 24 * time.Hour)},
	}}
	p := NewForecastProvider(&stubForecastService{}, store, 7*24*time.Hour, testLogger(t))

	res := p.Predict(context.Background(), recordWithHistory(60), nil)
	assert.False(t, res.Available)
	assert.Equal(t, "model stale", res.Reason)
}

func TestForecastProviderFreshModel(t *testing.T) {
	store := &stubModelStore{records: map[string]*models.ModelRecord{
		"AAPL": {Symbol: "AAPL", TrainedAt: time.Now().Add(-24 * time.Hour)},
	}}
	fs := &stubForecastService{forecast: service.Forecast{Direction: 0.7, Confidence: 0.8, ModelTrained: true}}
	p := NewForecastProvider(fs, store, 7*24*time.Hour, testLogger(t))

	res := p.Predict(context.Background(), recordWithHistory(60), nil)
	require.True(t, res.Available)
	assert.Equal(t, 0.7, res.Direction)
	assert.Equal(t, 0.8, res.Confidence)
}

type stubAnalyzer struct {
	reading service.SentimentReading
	err     error
}

func (s *stubAnalyzer) AnalyzeSentiment(ctx context.Context, symbol string) (service.SentimentReading, error) {
	return s.reading, s.err
}

func TestSentimentProviderNoCoverage(t *testing.T) {
	p := NewSentimentProvider(&stubAnalyzer{}, testLogger(t))
	res := p.Predict(context.Background(), recordWithHistory(60), nil)
	assert.False(t, res.Available)
	assert.Equal(t, "no article coverage", res.Reason)
}

func TestSentimentProviderProxyReading(t *testing.T) {
	// Zero articles but nonzero confidence is the futures gap proxy.
	p := NewSentimentProvider(&stubAnalyzer{reading: service.SentimentReading{Direction: 0.3, Confidence: 0.25}}, testLogger(t))
	res := p.Predict(context.Background(), recordWithHistory(60), nil)
	require.True(t, res.Available)
	assert.Equal(t, 0.3, res.Direction)
	assert.Equal(t, 0.25, res.Confidence)
}

func TestSentimentProviderFetchError(t *testing.T) {
	p := NewSentimentProvider(&stubAnalyzer{err: fmt.Errorf("timeout")}, testLogger(t))
	res := p.Predict(context.Background(), recordWithHistory(60), nil)
	assert.False(t, res.Available)
	assert.Equal(t, "fetch failed", res.Reason)
}
