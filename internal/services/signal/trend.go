package signal

import (
	"context"
	"math"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/service"
	"NightScan/internal/services/indicators"
	"NightScan/pkg/util"
)

// Provider name tags, also the keys of the ensemble weight table.
const (
	ProviderForecast  = "forecast"
	ProviderTrend     = "trend"
	ProviderTechnical = "technical"
	ProviderSentiment = "sentiment"
)

// trendConfidence is the fixed moderate confidence of the trend signal.
// The 5-day change is a blunt instrument; its certainty does not scale
// with magnitude.
const trendConfidence = 0.5

// TrendProvider derives direction from the short-window price change.
type TrendProvider struct{}

func NewTrendProvider() *TrendProvider { return &TrendProvider{} }

var _ service.SignalProvider = (*TrendProvider)(nil)

func (p *TrendProvider) Name() string { return ProviderTrend }

func (p *TrendProvider) Predict(ctx context.Context, rec *models.StockRecord, regime *models.RegimeState) models.SignalResult {
	if rec == nil || len(rec.Candles) < indicators.MinHistory {
		return models.Unavailable(ProviderTrend, symbolOf(rec), "insufficient history")
	}

	// A 5% five-day move saturates direction.
	direction := util.Clamp(rec.Indicators.Change5d/0.05, -1, 1)

	return models.SignalResult{
		Provider:   ProviderTrend,
		Symbol:     rec.Symbol,
		Direction:  direction,
		Confidence: dampForRegime(trendConfidence, regime),
		Available:  true,
	}
}

// dampForRegime shades confidence down when the regime engine reports
// elevated crash risk. Unknown regimes leave confidence untouched.
func dampForRegime(confidence float64, regime *models.RegimeState) float64 {
	if !regime.Known() {
		return confidence
	}
	return util.Clamp(confidence*(1-0.3*regime.CrashRisk), 0, 1)
}

func symbolOf(rec *models.StockRecord) string {
	if rec == nil {
		return ""
	}
	return rec.Symbol
}

// tanh-style squash used by the technical composite.
func squash(x float64) float64 {
	return math.Tanh(x)
}
