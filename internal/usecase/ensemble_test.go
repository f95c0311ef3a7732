package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/service"
	"NightScan/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return log
}

type fixedProvider struct {
	name   string
	result models.SignalResult
}

func (f *fixedProvider) Name() string { return f.name }

func (f *fixedProvider) Predict(ctx context.Context, rec *models.StockRecord, regime *models.RegimeState) models.SignalResult {
	res := f.result
	res.Provider = f.name
	res.Symbol = rec.Symbol
	return res
}

func canonicalWeights() map[string]float64 {
	return map[string]float64{
		"forecast":  0.45,
		"trend":     0.25,
		"technical": 0.15,
		"sentiment": 0.15,
	}
}

func available(name string, direction, confidence float64) service.SignalProvider {
	return &fixedProvider{name: name, result: models.SignalResult{
		Direction: direction, Confidence: confidence, Available: true,
	}}
}

func unavailable(name string) service.SignalProvider {
	return &fixedProvider{name: name, result: models.SignalResult{Reason: "stubbed out"}}
}

func TestEnsembleAllAvailableUsesCanonicalWeights(t *testing.T) {
	e := NewEnsemble([]service.SignalProvider{
		available("forecast", 1, 1),
		available("trend", 1, 1),
		available("technical", 1, 1),
		available("sentiment", 1, 1),
	}, canonicalWeights(), testLogger(t))

	pred, err := e.Predict(context.Background(), &models.StockRecord{Symbol: "AAPL"}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, pred.WeightSum(), 1e-6)
	assert.InDelta(t, 0.45, pred.Weights["forecast"], 1e-9)
	assert.InDelta(t, 1.0, pred.Direction, 1e-9)
}

func TestEnsembleRedistributesMissingForecastWeight(t *testing.T) {
	// With the forecast provider unavailable, the remaining weights keep
	// their 25:15:15 proportions and sum to 1.0.
	e := NewEnsemble([]service.SignalProvider{
		unavailable("forecast"),
		available("trend", 1, 0.5),
		available("technical", -1, 0.5),
		available("sentiment", 0, 0.5),
	}, canonicalWeights(), testLogger(t))

	pred, err := e.Predict(context.Background(), &models.StockRecord{Symbol: "Y"}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, pred.WeightSum(), 1e-6)
	assert.InDelta(t, 0.25/0.55, pred.Weights["trend"], 1e-6)     // ~0.4545
	assert.InDelta(t, 0.15/0.55, pred.Weights["technical"], 1e-6) // ~0.2727
	assert.InDelta(t, 0.15/0.55, pred.Weights["sentiment"], 1e-6)
	_, hasForecast := pred.Weights["forecast"]
	assert.False(t, hasForecast, "unavailable provider must carry no weight")

	wantDirection := 0.25/0.55*1 + 0.15/0.55*(-1)
	assert.InDelta(t, wantDirection, pred.Direction, 1e-9)
}

func TestEnsembleSingleAvailableProviderTakesFullWeight(t *testing.T) {
	e := NewEnsemble([]service.SignalProvider{
		unavailable("forecast"),
		unavailable("trend"),
		unavailable("technical"),
		available("sentiment", -0.6, 0.4),
	}, canonicalWeights(), testLogger(t))

	pred, err := e.Predict(context.Background(), &models.StockRecord{Symbol: "Z"}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, pred.Weights["sentiment"], 1e-9)
	assert.InDelta(t, -0.6, pred.Direction, 1e-9)
	assert.InDelta(t, 0.4, pred.Confidence, 1e-9)
}

func TestEnsembleWeightSumInvariantAcrossSubsets(t *testing.T) {
	names := []string{"forecast", "trend", "technical", "sentiment"}
	for mask := 1; mask < 1<<len(names); mask++ {
		provs := make([]service.SignalProvider, len(names))
		for i, n := range names {
			if mask&(1<<i) != 0 {
				provs[i] = available(n, 0.5, 0.5)
			} else {
				provs[i] = unavailable(n)
			}
		}
		e := NewEnsemble(provs, canonicalWeights(), testLogger(t))
		pred, err := e.Predict(context.Background(), &models.StockRecord{Symbol: "S"}, nil)
		require.NoError(t, err, "mask %b", mask)
		if math.Abs(pred.WeightSum()-1.0) > 1e-6 {
			t.Fatalf("mask %b: weight sum %v", mask, pred.WeightSum())
		}
	}
}

func TestEnsembleAllUnavailable(t *testing.T) {
	e := NewEnsemble([]service.SignalProvider{
		unavailable("forecast"),
		unavailable("trend"),
		unavailable("technical"),
		unavailable("sentiment"),
	}, canonicalWeights(), testLogger(t))

	_, err := e.Predict(context.Background(), &models.StockRecord{Symbol: "X"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllProvidersUnavailable))
}
