package signal

import (
	"context"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/service"
	"NightScan/pkg/logger"
)

// SentimentProvider delegates to the external sentiment capability. A
// symbol with neither article coverage nor a proxy reading is reported
// unavailable rather than defaulted to neutral.
type SentimentProvider struct {
	analyzer service.SentimentAnalyzer
	log      *logger.Logger
}

func NewSentimentProvider(analyzer service.SentimentAnalyzer, log *logger.Logger) *SentimentProvider {
	return &SentimentProvider{analyzer: analyzer, log: log}
}

var _ service.SignalProvider = (*SentimentProvider)(nil)

func (p *SentimentProvider) Name() string { return ProviderSentiment }

func (p *SentimentProvider) Predict(ctx context.Context, rec *models.StockRecord, regime *models.RegimeState) models.SignalResult {
	if rec == nil {
		return models.Unavailable(ProviderSentiment, "", "no record")
	}
	if p.analyzer == nil {
		return models.Unavailable(ProviderSentiment, rec.Symbol, "sentiment disabled")
	}

	reading, err := p.analyzer.AnalyzeSentiment(ctx, rec.Symbol)
	if err != nil {
		p.log.Warn("sentiment fetch failed",
			logger.String("symbol", rec.Symbol), logger.Error(err))
		return models.Unavailable(ProviderSentiment, rec.Symbol, "fetch failed")
	}

	// Zero articles and zero confidence means no coverage and no proxy.
	if reading.ArticleCount == 0 && reading.Confidence == 0 {
		return models.Unavailable(ProviderSentiment, rec.Symbol, "no article coverage")
	}

	return models.SignalResult{
		Provider:   ProviderSentiment,
		Symbol:     rec.Symbol,
		Direction:  reading.Direction,
		Confidence: reading.Confidence,
		Available:  true,
	}
}
