package usecase

import (
	"context"
	"fmt"
	"time"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/service"
	"NightScan/pkg/logger"
)

// ErrAllProvidersUnavailable excludes a symbol from scoring; it is never
// silently mapped to a neutral prediction.
var ErrAllProvidersUnavailable = fmt.Errorf("all signal providers unavailable")

// Ensemble fuses the providers' signals into one prediction per symbol
// using a fixed weight table renormalized over the available subset.
type Ensemble struct {
	providers []service.SignalProvider
	weights   map[string]float64
	log       *logger.Logger
}

func NewEnsemble(provs []service.SignalProvider, weights map[string]float64, log *logger.Logger) *Ensemble {
	return &Ensemble{providers: provs, weights: weights, log: log}
}

// Predict collects every provider's signal and combines the available
// ones. Weight renormalization: each available provider keeps its share of
// the canonical table, rescaled so the applied weights sum to 1.0. The
// same rule applies regardless of which subset is missing.
func (e *Ensemble) Predict(ctx context.Context, rec *models.StockRecord, regime *models.RegimeState) (*models.EnsemblePrediction, error) {
	signals := make([]models.SignalResult, 0, len(e.providers))
	totalWeight := 0.0
	for _, p := range e.providers {
		res := p.Predict(ctx, rec, regime)
		signals = append(signals, res)
		if res.Available {
			totalWeight += e.weights[p.Name()]
		} else {
			e.log.Debug("provider unavailable",
				logger.String("provider", p.Name()),
				logger.String("symbol", rec.Symbol),
				logger.String("reason", res.Reason))
		}
	}

	if totalWeight <= 0 {
		return nil, fmt.Errorf("%s: %w", rec.Symbol, ErrAllProvidersUnavailable)
	}

	applied := make(map[string]float64)
	direction, confidence := 0.0, 0.0
	for _, sig := range signals {
		if !sig.Available {
			continue
		}
		w := e.weights[sig.Provider] / totalWeight
		applied[sig.Provider] = w
		direction += w * sig.Direction
		confidence += w * sig.Confidence
	}

	return &models.EnsemblePrediction{
		Symbol:     rec.Symbol,
		Timestamp:  time.Now().UTC(),
		Direction:  direction,
		Confidence: confidence,
		Weights:    applied,
		Signals:    signals,
	}, nil
}
