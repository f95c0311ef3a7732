package indicators

import (
	"math"
	"testing"
	"time"

	"NightScan/internal/domain/models"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	if got := SMA(closes, 5); !almostEqual(got, 3, 1e-9) {
		t.Fatalf("SMA(5) = %v, want 3", got)
	}
	if got := SMA(closes, 2); !almostEqual(got, 4.5, 1e-9) {
		t.Fatalf("SMA(2) = %v, want 4.5", got)
	}
	// Shorter series than window falls back to the full-series mean.
	if got := SMA(closes[:3], 10); !almostEqual(got, 2, 1e-9) {
		t.Fatalf("SMA short series = %v, want 2", got)
	}
	if got := SMA(nil, 5); got != 0 {
		t.Fatalf("SMA empty = %v, want 0", got)
	}
}

func TestRSIMonotoneSeries(t *testing.T) {
	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 100 - float64(i)
	}
	if got := RSI(up, 14); got != 100 {
		t.Fatalf("RSI all-gains = %v, want 100", got)
	}
	if got := RSI(down, 14); got > 1 {
		t.Fatalf("RSI all-losses = %v, want near 0", got)
	}
	if got := RSI(up[:10], 14); got != 50 {
		t.Fatalf("RSI short series = %v, want neutral 50", got)
	}
}

func TestMACDFlatSeries(t *testing.T) {
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 100
	}
	macd, signal := MACD(flat, 12, 26, 9)
	if macd != 0 || signal != 0 {
		t.Fatalf("MACD flat series = (%v, %v), want (0, 0)", macd, signal)
	}
}

func TestMACDRisingSeriesPositive(t *testing.T) {
	rising := make([]float64, 80)
	for i := range rising {
		rising[i] = 100 * math.Pow(1.01, float64(i))
	}
	macd, signal := MACD(rising, 12, 26, 9)
	if macd <= 0 {
		t.Fatalf("MACD rising series = %v, want > 0", macd)
	}
	if signal <= 0 {
		t.Fatalf("MACD signal rising series = %v, want > 0", signal)
	}
}

func TestRealizedVolConstantReturns(t *testing.T) {
	closes := make([]float64, 50)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] * 1.01
	}
	// Identical daily returns have zero variance.
	if got := RealizedVol(closes); !almostEqual(got, 0, 1e-9) {
		t.Fatalf("RealizedVol constant returns = %v, want 0", got)
	}
}

func TestChange(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 110}
	if got := Change(closes, 5); !almostEqual(got, 0.10, 1e-9) {
		t.Fatalf("Change(5) = %v, want 0.10", got)
	}
	if got := Change(closes[:3], 5); got != 0 {
		t.Fatalf("Change short series = %v, want 0", got)
	}
}

func TestComputeNeutralOnShortHistory(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	candles := []models.Candle{
		{Date: day, Symbol: "TT", Close: 100},
		{Date: day.AddDate(0, 0, 1), Symbol: "TT", Close: 101},
		{Date: day.AddDate(0, 0, 2), Symbol: "TT", Close: 102},
	}
	set := Compute(candles)
	if set.RSI14 != 50 {
		t.Fatalf("RSI14 on short history = %v, want neutral 50", set.RSI14)
	}
	if set.Change5d != 0 {
		t.Fatalf("Change5d on short history = %v, want 0", set.Change5d)
	}
	if math.IsNaN(set.SMA20) || math.IsNaN(set.MACD) {
		t.Fatal("indicator set contains NaN on short history")
	}
}
