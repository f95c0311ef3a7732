package models

import "time"

// Candle represents one daily OHLCV bar.
type Candle struct {
	Date   time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IndicatorSet holds the technical indicators computed once per symbol per run.
type IndicatorSet struct {
	SMA20         float64
	SMA50         float64
	RSI14         float64
	MACD          float64
	MACDSignal    float64
	MACDHistogram float64
	RealizedVol   float64 // annualized
	Change5d      float64 // fractional 5-day close change
}

// StockRecord is the scanner's per-symbol output: ordered history plus
// derived indicators. Rebuilt each run; cached only through the TTL cache.
type StockRecord struct {
	Symbol     string
	Sector     string
	Candles    []Candle // ascending by date, dates unique
	Indicators IndicatorSet
	FetchedAt  time.Time
	Provider   string // which data provider served the history
}

// LastClose returns the most recent close, or 0 when history is empty.
func (r *StockRecord) LastClose() float64 {
	if len(r.Candles) == 0 {
		return 0
	}
	return r.Candles[len(r.Candles)-1].Close
}

// Returns computes simple daily close-to-close returns.
func (r *StockRecord) Returns() []float64 {
	if len(r.Candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(r.Candles)-1)
	for i := 1; i < len(r.Candles); i++ {
		prev := r.Candles[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, r.Candles[i].Close/prev-1)
	}
	return out
}
