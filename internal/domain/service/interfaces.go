package service

import (
	"context"
	"time"

	"NightScan/internal/domain/models"
)

// SignalProvider is the common contract for the four predictors. Providers
// never return an error for a missing signal; they return an unavailable
// SignalResult so the ensemble can renormalize weights generically.
type SignalProvider interface {
	Name() string
	Predict(ctx context.Context, rec *models.StockRecord, regime *models.RegimeState) models.SignalResult
}

// RegimeEngine classifies the market volatility regime from a benchmark
// return series.
type RegimeEngine interface {
	Analyse(ctx context.Context, returns []float64, windowEnd time.Time) (*models.RegimeState, error)
}

// SentimentReading is the external sentiment capability's answer for one
// symbol.
type SentimentReading struct {
	Direction    float64
	Confidence   float64
	ArticleCount int
}

// SentimentAnalyzer bridges to the external sentiment-scoring capability.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, symbol string) (SentimentReading, error)
}

// Forecast is the trained time-series model's prediction for one symbol.
type Forecast struct {
	Direction    float64
	Confidence   float64
	ModelTrained bool
}

// ForecastService bridges to the external time-series model: training and
// prediction. The model's internal architecture is out of scope.
type ForecastService interface {
	Train(ctx context.Context, symbol string, history []models.Candle) (*models.ModelRecord, error)
	Predict(ctx context.Context, symbol string, history []models.Candle) (Forecast, error)
}

// Notifier is the fire-and-forget completion/error notification collaborator.
type Notifier interface {
	SendCompletion(ctx context.Context, state *models.PipelineRunState) error
	SendError(ctx context.Context, runID string, err error) error
}
