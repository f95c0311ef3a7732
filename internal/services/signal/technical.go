package signal

import (
	"context"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/service"
	"NightScan/internal/services/indicators"
	"NightScan/pkg/util"
)

// TechnicalProvider derives direction from a composite of RSI positioning
// and the MACD crossover.
type TechnicalProvider struct{}

func NewTechnicalProvider() *TechnicalProvider { return &TechnicalProvider{} }

var _ service.SignalProvider = (*TechnicalProvider)(nil)

func (p *TechnicalProvider) Name() string { return ProviderTechnical }

func (p *TechnicalProvider) Predict(ctx context.Context, rec *models.StockRecord, regime *models.RegimeState) models.SignalResult {
	if rec == nil || len(rec.Candles) < indicators.MinHistory {
		return models.Unavailable(ProviderTechnical, symbolOf(rec), "insufficient history")
	}

	ind := rec.Indicators

	// RSI read as mean reversion: oversold pushes up, overbought down.
	// Neutral band around 50 contributes little.
	rsiComponent := (50 - ind.RSI14) / 50

	// MACD histogram read as momentum, normalized by price level so the
	// composite is comparable across symbols.
	macdComponent := 0.0
	if last := rec.LastClose(); last > 0 {
		macdComponent = squash(ind.MACDHistogram / last * 100)
	}

	direction := util.Clamp(0.5*rsiComponent+0.5*macdComponent, -1, 1)

	// Agreement between the two components earns higher confidence.
	confidence := 0.35
	if rsiComponent*macdComponent > 0 {
		confidence = 0.6
	}

	return models.SignalResult{
		Provider:   ProviderTechnical,
		Symbol:     rec.Symbol,
		Direction:  direction,
		Confidence: dampForRegime(confidence, regime),
		Available:  true,
	}
}
