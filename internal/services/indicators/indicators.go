package indicators

import (
	"math"

	"NightScan/internal/domain/models"
)

// Window lengths and the annualization factor used across the scanner.
const (
	TradingDaysPerYear = 252

	smaShortWindow = 20
	smaLongWindow  = 50
	rsiWindow      = 14
	macdFast       = 12
	macdSlow       = 26
	macdSignal     = 9
	changeWindow   = 5
)

// MinHistory is the shortest candle series the scanner accepts for a
// symbol. Shorter series produce degenerate SMA50 and MACD values.
const MinHistory = smaLongWindow

// Compute derives the full indicator set from an ascending candle series.
// Missing-window indicators fall back to neutral values rather than NaN so
// downstream arithmetic never has to special-case them.
func Compute(candles []models.Candle) models.IndicatorSet {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	macdLine, signalLine := MACD(closes, macdFast, macdSlow, macdSignal)

	return models.IndicatorSet{
		SMA20:         SMA(closes, smaShortWindow),
		SMA50:         SMA(closes, smaLongWindow),
		RSI14:         RSI(closes, rsiWindow),
		MACD:          macdLine,
		MACDSignal:    signalLine,
		MACDHistogram: macdLine - signalLine,
		RealizedVol:   RealizedVol(closes),
		Change5d:      Change(closes, changeWindow),
	}
}

// SMA returns the simple moving average of the last window closes, or the
// mean of the whole series when it is shorter than the window.
func SMA(closes []float64, window int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if len(closes) < window {
		window = len(closes)
	}
	sum := 0.0
	for _, v := range closes[len(closes)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// EMA returns the exponential moving average series with the standard
// 2/(window+1) smoothing, seeded by the SMA of the first window values.
func EMA(values []float64, window int) []float64 {
	if len(values) == 0 || window <= 0 {
		return nil
	}
	out := make([]float64, len(values))
	k := 2.0 / float64(window+1)

	seed := window
	if seed > len(values) {
		seed = len(values)
	}
	sum := 0.0
	for i := 0; i < seed; i++ {
		sum += values[i]
		out[i] = sum / float64(i+1)
	}
	for i := seed; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI computes the Wilder relative strength index over the given window.
// Returns the neutral 50 when the series is too short to average a window
// of gains and losses.
func RSI(closes []float64, window int) float64 {
	if len(closes) < window+1 {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= window; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(window)
	avgLoss /= float64(window)

	// Wilder smoothing over the remainder of the series.
	for i := window + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the final MACD line and signal line values.
func MACD(closes []float64, fast, slow, signal int) (float64, float64) {
	if len(closes) < 2 {
		return 0, 0
	}
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	macdSeries := make([]float64, len(closes))
	for i := range closes {
		macdSeries[i] = fastEMA[i] - slowEMA[i]
	}
	signalSeries := EMA(macdSeries, signal)

	last := len(closes) - 1
	return macdSeries[last], signalSeries[last]
}

// RealizedVol is the annualized standard deviation of daily returns.
func RealizedVol(closes []float64) float64 {
	returns := dailyReturns(closes)
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear)
}

// Change returns the fractional close change over the last window days.
func Change(closes []float64, window int) float64 {
	if len(closes) < window+1 {
		return 0
	}
	base := closes[len(closes)-1-window]
	if base == 0 {
		return 0
	}
	return closes[len(closes)-1]/base - 1
}

func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}
