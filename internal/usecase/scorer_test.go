package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"NightScan/internal/domain/models"
	"NightScan/pkg/config"
)

func newScorer() *Scorer {
	return NewScorer(config.ScoringConfig{BuyThreshold: 65}, eventRiskConfig())
}

func pred(symbol string, direction, confidence float64) *models.EnsemblePrediction {
	return &models.EnsemblePrediction{Symbol: symbol, Direction: direction, Confidence: confidence}
}

func TestScoreBaseTransform(t *testing.T) {
	s := newScorer()
	sc := s.Score(pred("AAPL", 0.8, 0.9), &models.EventRiskAssessment{}, "tech")
	// 50 + 50*0.8*0.9 = 86, no risk penalty.
	assert.InDelta(t, 86.0, sc.Score, 1e-9)
	assert.Equal(t, models.SignalBuy, sc.Signal)
	assert.Equal(t, "tech", sc.Sector)
}

func TestScoreRiskPenalty(t *testing.T) {
	s := newScorer()
	risk := &models.EventRiskAssessment{AdjustedRisk: 0.6}
	sc := s.Score(pred("AAPL", 0.8, 0.9), risk, "tech")
	// 86 - 0.15*100*0.6 = 77.
	assert.InDelta(t, 77.0, sc.Score, 1e-9)
}

func TestScoreClampedToRange(t *testing.T) {
	s := newScorer()
	low := s.Score(pred("DOWN", -1, 1), &models.EventRiskAssessment{AdjustedRisk: 1}, "x")
	assert.Equal(t, 0.0, low.Score)

	high := s.Score(pred("UP", 1, 1), &models.EventRiskAssessment{}, "x")
	assert.Equal(t, 100.0, high.Score)
}

func TestScoreSkipOverride(t *testing.T) {
	s := newScorer()
	// A perfect bullish prediction is still SKIP inside the hard window.
	sc := s.Score(pred("AAPL", 1, 1), &models.EventRiskAssessment{SkipTrading: true}, "tech")
	assert.Equal(t, models.SignalSkip, sc.Signal)
	assert.Equal(t, 100.0, sc.Score, "score itself is unaffected by the override")
}

func TestScoreClassification(t *testing.T) {
	s := newScorer()
	cases := []struct {
		direction, confidence float64
		want                  models.Signal
	}{
		{0.9, 0.9, models.SignalBuy},   // 90.5
		{-0.9, 0.9, models.SignalSell}, // 9.5
		{0.1, 0.5, models.SignalHold},  // 52.5
		{-0.1, 0.5, models.SignalHold}, // 47.5
	}
	for _, tc := range cases {
		sc := s.Score(pred("S", tc.direction, tc.confidence), &models.EventRiskAssessment{}, "x")
		assert.Equal(t, tc.want, sc.Signal, "direction %v confidence %v score %v", tc.direction, tc.confidence, sc.Score)
	}
}

func TestRankAndTopN(t *testing.T) {
	scores := []models.OpportunityScore{
		{Symbol: "B", Score: 70},
		{Symbol: "A", Score: 70},
		{Symbol: "C", Score: 90},
		{Symbol: "D", Score: 10},
	}
	ranked := Rank(scores)
	assert.Equal(t, "C", ranked[0].Symbol)
	assert.Equal(t, "A", ranked[1].Symbol, "ties break by symbol")
	assert.Equal(t, "B", ranked[2].Symbol)

	top := TopN(scores, 2)
	assert.Len(t, top, 2)
	assert.Equal(t, "C", top[0].Symbol)

	assert.Len(t, TopN(scores, 10), 4, "oversized N returns everything")
}

func TestSectorSummaries(t *testing.T) {
	scores := []models.OpportunityScore{
		{Symbol: "A", Sector: "tech", Score: 80, Signal: models.SignalBuy},
		{Symbol: "B", Sector: "tech", Score: 60, Signal: models.SignalHold},
		{Symbol: "C", Sector: "energy", Score: 50, Signal: models.SignalSkip},
	}
	sums := SectorSummaries(scores)
	assert.Len(t, sums, 2)
	assert.Equal(t, "tech", sums[0].Sector)
	assert.InDelta(t, 70.0, sums[0].AvgScore, 1e-9)
	assert.Equal(t, 1, sums[0].Buys)
	assert.Equal(t, 1, sums[1].Skips)
}
