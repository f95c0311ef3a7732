package usecase

import (
	"context"
	"time"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/repository"
	"NightScan/internal/services/indicators"
	"NightScan/internal/services/providers"
	"NightScan/internal/universe"
	"NightScan/pkg/config"
	"NightScan/pkg/logger"
)

// ScanOutcome is what the scanning phase hands to signal generation.
type ScanOutcome struct {
	Records []*models.StockRecord
	Skipped []string
}

// Scanner walks the universe in bounded chunks, fetching history through
// the provider chain and attaching indicators. A symbol whose fetch fails
// on every provider is skipped and logged, never fatal to the run.
type Scanner struct {
	chain   *providers.Chain
	candles repository.CandleStore
	cfg     config.PipelineConfig
	log     *logger.Logger
}

func NewScanner(chain *providers.Chain, candles repository.CandleStore, cfg config.PipelineConfig, log *logger.Logger) *Scanner {
	return &Scanner{chain: chain, candles: candles, cfg: cfg, log: log}
}

// Scan processes the universe chunk by chunk. Chunking bounds peak memory
// and gives external rate limits natural breathing room.
func (s *Scanner) Scan(ctx context.Context, u *universe.Universe, lookbackDays int) (*ScanOutcome, error) {
	symbols := u.Symbols()
	out := &ScanOutcome{Records: make([]*models.StockRecord, 0, len(symbols))}

	chunkSize := s.cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(symbols)
	}

	for start := 0; start < len(symbols); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		end := start + chunkSize
		if end > len(symbols) {
			end = len(symbols)
		}

		for _, symbol := range symbols[start:end] {
			rec, err := s.scanOne(ctx, symbol, u.Sector(symbol), lookbackDays)
			if err != nil {
				s.log.Warn("symbol skipped",
					logger.String("symbol", symbol), logger.Error(err))
				out.Skipped = append(out.Skipped, symbol)
				continue
			}
			out.Records = append(out.Records, rec)
		}

		s.log.Debug("chunk scanned",
			logger.Int("from", start), logger.Int("to", end),
			logger.Int("records", len(out.Records)))
	}

	return out, nil
}

func (s *Scanner) scanOne(ctx context.Context, symbol, sector string, lookbackDays int) (*models.StockRecord, error) {
	candles, source, err := s.chain.Fetch(ctx, symbol, lookbackDays)
	if err != nil {
		return nil, err
	}

	if s.candles != nil && source != "cache" {
		if err := s.candles.StoreCandles(ctx, candles); err != nil {
			s.log.Warn("candle store write failed",
				logger.String("symbol", symbol), logger.Error(err))
		}
	}

	rec := &models.StockRecord{
		Symbol:    symbol,
		Sector:    sector,
		Candles:   candles,
		FetchedAt: time.Now().UTC(),
		Provider:  source,
	}
	rec.Indicators = indicators.Compute(candles)
	return rec, nil
}

// BenchmarkReturns fetches the benchmark's history and converts it to the
// daily return series the regime engine consumes.
func (s *Scanner) BenchmarkReturns(ctx context.Context, benchmark string, lookbackDays int) ([]float64, error) {
	candles, source, err := s.chain.Fetch(ctx, benchmark, lookbackDays)
	if err != nil {
		return nil, err
	}
	rec := &models.StockRecord{Symbol: benchmark, Candles: candles, Provider: source}
	return rec.Returns(), nil
}

// StoredHistory reads previously persisted candles for a symbol. Used by
// the training phase when a queued symbol did not survive the scan.
func (s *Scanner) StoredHistory(ctx context.Context, symbol string, n int) ([]models.Candle, error) {
	if s.candles == nil {
		return nil, nil
	}
	return s.candles.LatestCandles(ctx, symbol, n)
}
