package signal

import (
	"context"
	"time"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/repository"
	"NightScan/internal/domain/service"
	"NightScan/pkg/logger"
)

// ForecastProvider delegates to the externally trained per-symbol model.
// It reports unavailable when no trained, non-stale model exists; that is
// the trigger for the ensemble's weight redistribution.
type ForecastProvider struct {
	forecasts service.ForecastService
	store     repository.ModelStore
	staleness time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewForecastProvider(fs service.ForecastService, store repository.ModelStore, staleness time.Duration, log *logger.Logger) *ForecastProvider {
	return &ForecastProvider{
		forecasts: fs,
		store:     store,
		staleness: staleness,
		log:       log,
		now:       time.Now,
	}
}

var _ service.SignalProvider = (*ForecastProvider)(nil)

func (p *ForecastProvider) Name() string { return ProviderForecast }

func (p *ForecastProvider) Predict(ctx context.Context, rec *models.StockRecord, regime *models.RegimeState) models.SignalResult {
	if rec == nil || len(rec.Candles) == 0 {
		return models.Unavailable(ProviderForecast, symbolOf(rec), "no history")
	}

	record, ok := p.store.Get(rec.Symbol)
	if !ok {
		return models.Unavailable(ProviderForecast, rec.Symbol, "no trained model")
	}
	if record.StaleAfter(p.now(), p.staleness) {
		return models.Unavailable(ProviderForecast, rec.Symbol, "model stale")
	}

	fc, err := p.forecasts.Predict(ctx, rec.Symbol, rec.Candles)
	if err != nil {
		p.log.Warn("forecast predict failed",
			logger.String("symbol", rec.Symbol), logger.Error(err))
		return models.Unavailable(ProviderForecast, rec.Symbol, "predict failed")
	}

	return models.SignalResult{
		Provider:   ProviderForecast,
		Symbol:     rec.Symbol,
		Direction:  fc.Direction,
		Confidence: dampForRegime(fc.Confidence, regime),
		Available:  true,
	}
}
