package providers

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/repository"
	"NightScan/pkg/cache"
	"NightScan/pkg/config"
	"NightScan/pkg/logger"
)

// cachedHistory is the TTL-cache envelope for one symbol's history.
type cachedHistory struct {
	Provider string          `json:"provider"`
	Candles  []models.Candle `json:"candles"`
}

// Chain is the scanner's single entry point for price history: TTL cache
// first, then each provider in order. A symbol fails only when every
// provider has failed.
type Chain struct {
	providers []repository.HistoryProvider
	cache     cache.Service
	ttl       time.Duration
	metrics   repository.Metrics
	log       *logger.Logger
}

// NewChain wires the primary and optional fallback endpoints behind one
// shared rate limiter.
func NewChain(cfg config.ProvidersConfig, c cache.Service, metrics repository.Metrics, log *logger.Logger) *Chain {
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateBurst)

	provs := []repository.HistoryProvider{
		NewHTTPProvider(cfg.Primary, cfg.RetryMax, limiter),
	}
	if cfg.Fallback.BaseURL != "" {
		provs = append(provs, NewHTTPProvider(cfg.Fallback, cfg.RetryMax, limiter))
	}

	return &Chain{
		providers: provs,
		cache:     c,
		ttl:       cfg.CacheTTL,
		metrics:   metrics,
		log:       log,
	}
}

// NewChainWith builds a chain over explicit providers, used by tests and
// by the DI layer when wiring stub endpoints.
func NewChainWith(c cache.Service, ttl time.Duration, metrics repository.Metrics, log *logger.Logger, provs ...repository.HistoryProvider) *Chain {
	return &Chain{providers: provs, cache: c, ttl: ttl, metrics: metrics, log: log}
}

// Fetch returns the candle history for symbol and the name of the provider
// that served it ("cache" on a cache hit).
func (ch *Chain) Fetch(ctx context.Context, symbol string, lookbackDays int) ([]models.Candle, string, error) {
	key := cache.Key("history", symbol, lookbackDays)

	var cached cachedHistory
	if err := ch.cache.Get(ctx, key, &cached); err == nil && len(cached.Candles) > 0 {
		return cached.Candles, "cache", nil
	}

	var lastErr error
	for i, p := range ch.providers {
		candles, err := p.FetchHistory(ctx, symbol, lookbackDays)
		if err != nil {
			lastErr = err
			if ch.metrics != nil {
				ch.metrics.RecordFetchError(p.Name())
			}
			if i+1 < len(ch.providers) {
				ch.log.Warn("provider failed, trying fallback",
					logger.String("provider", p.Name()),
					logger.String("symbol", symbol),
					logger.Error(err))
			}
			continue
		}

		if err := ch.cache.Set(ctx, key, cachedHistory{Provider: p.Name(), Candles: candles}, ch.ttl); err != nil {
			ch.log.Warn("history cache write failed",
				logger.String("symbol", symbol), logger.Error(err))
		}
		if ch.metrics != nil {
			ch.metrics.RecordSymbolScanned(p.Name())
		}
		return candles, p.Name(), nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("fetch %s: %w: no providers configured", symbol, models.ErrDataFetch)
	}
	return nil, "", lastErr
}
