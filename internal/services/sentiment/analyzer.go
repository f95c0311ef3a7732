package sentiment

import (
	"context"
	"fmt"

	"NightScan/internal/domain/service"
	"NightScan/pkg/cache"
	"NightScan/pkg/config"
	xhttp "NightScan/pkg/http"
	"NightScan/pkg/logger"
	"NightScan/pkg/util"
)

// scoreResponse is the external sentiment capability's answer for a symbol.
type scoreResponse struct {
	Symbol       string  `json:"symbol"`
	Score        float64 `json:"score"`      // [-1,1]
	Confidence   float64 `json:"confidence"` // [0,1]
	ArticleCount int     `json:"article_count"`
}

// gapResponse is the overnight futures gap used as a market-wide proxy
// when a symbol has no article coverage.
type gapResponse struct {
	GapPct float64 `json:"gap_pct"`
}

// Analyzer bridges to the external sentiment scorer over HTTP. Readings
// are cached briefly so the per-symbol and benchmark lookups within one
// run do not refetch.
type Analyzer struct {
	cfg    config.SentimentConfig
	client *xhttp.Client
	cache  cache.Service
	log    *logger.Logger
}

func NewAnalyzer(cfg config.SentimentConfig, c cache.Service, log *logger.Logger) *Analyzer {
	return &Analyzer{
		cfg:    cfg,
		client: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		cache:  c,
		log:    log,
	}
}

var _ service.SentimentAnalyzer = (*Analyzer)(nil)

// AnalyzeSentiment returns the symbol's sentiment reading. A symbol with
// zero scored articles falls back to the overnight futures gap when the
// proxy is enabled; the proxy reading carries reduced confidence.
func (a *Analyzer) AnalyzeSentiment(ctx context.Context, symbol string) (service.SentimentReading, error) {
	key := cache.Key("sentiment", symbol)

	var cached service.SentimentReading
	if err := a.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	var resp scoreResponse
	err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    a.cfg.BaseURL + "/v1/sentiment",
		QueryParams: map[string][]string{
			"symbol": {symbol},
		},
	}, &resp)
	if err != nil {
		return service.SentimentReading{}, fmt.Errorf("sentiment fetch %s: %w", symbol, err)
	}

	reading := service.SentimentReading{
		Direction:    util.Clamp(resp.Score, -1, 1),
		Confidence:   util.Clamp(resp.Confidence, 0, 1),
		ArticleCount: resp.ArticleCount,
	}

	if reading.ArticleCount == 0 && a.cfg.FuturesGapProxy {
		proxy, perr := a.futuresGap(ctx)
		if perr != nil {
			a.log.Warn("futures gap proxy unavailable",
				logger.String("symbol", symbol), logger.Error(perr))
		} else {
			reading = proxy
		}
	}

	if err := a.cache.Set(ctx, key, reading, a.cfg.CacheTTL); err != nil {
		a.log.Warn("sentiment cache write failed",
			logger.String("symbol", symbol), logger.Error(err))
	}
	return reading, nil
}

// futuresGap maps the overnight index futures gap onto a weak direction
// signal. A 1 percent gap saturates direction; confidence is capped low
// because the proxy says nothing about the specific symbol.
func (a *Analyzer) futuresGap(ctx context.Context) (service.SentimentReading, error) {
	var resp gapResponse
	err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    a.cfg.BaseURL + "/v1/futures-gap",
	}, &resp)
	if err != nil {
		return service.SentimentReading{}, fmt.Errorf("futures gap fetch: %w", err)
	}

	return service.SentimentReading{
		Direction:    util.Clamp(resp.GapPct/1.0, -1, 1),
		Confidence:   0.25,
		ArticleCount: 0,
	}, nil
}
