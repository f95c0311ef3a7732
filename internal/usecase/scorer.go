package usecase

import (
	"sort"
	"time"

	"NightScan/internal/domain/models"
	"NightScan/pkg/config"
	"NightScan/pkg/util"
)

// Scorer turns predictions and risk assessments into the ranked
// opportunity list.
type Scorer struct {
	scoring   config.ScoringConfig
	eventRisk config.EventRiskConfig
}

func NewScorer(scoring config.ScoringConfig, eventRisk config.EventRiskConfig) *Scorer {
	return &Scorer{scoring: scoring, eventRisk: eventRisk}
}

// Score computes one symbol's opportunity entry.
//
//	score = clamp(50 + 50*direction*confidence - weight*100*adjusted_risk, 0, 100)
//
// The skip window is a hard override: a skipped symbol is SKIP no matter
// what the ensemble said.
func (s *Scorer) Score(pred *models.EnsemblePrediction, risk *models.EventRiskAssessment, sector string) models.OpportunityScore {
	base := 50 + 50*pred.Direction*pred.Confidence
	penalty := s.eventRisk.EventRiskWeight * 100 * risk.AdjustedRisk
	score := util.Clamp(base-penalty, 0, 100)

	return models.OpportunityScore{
		Symbol:     pred.Symbol,
		Sector:     sector,
		Score:      score,
		Signal:     s.classify(score, pred.Direction, risk.SkipTrading),
		Confidence: pred.Confidence,
		Timestamp:  time.Now().UTC(),
		Prediction: pred,
		Risk:       risk,
	}
}

func (s *Scorer) classify(score, direction float64, skip bool) models.Signal {
	if skip {
		return models.SignalSkip
	}
	sellThreshold := 100 - s.scoring.BuyThreshold
	switch {
	case direction > 0 && score >= s.scoring.BuyThreshold:
		return models.SignalBuy
	case direction < 0 && score <= sellThreshold:
		return models.SignalSell
	}
	return models.SignalHold
}

// Rank sorts descending by score with the symbol as a deterministic
// tie-break, and returns the full ranking.
func Rank(scores []models.OpportunityScore) []models.OpportunityScore {
	out := make([]models.OpportunityScore, len(scores))
	copy(out, scores)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// TopN returns the first n entries of the ranking.
func TopN(scores []models.OpportunityScore, n int) []models.OpportunityScore {
	ranked := Rank(scores)
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// SectorSummaries aggregates the scored symbols per sector, sorted by
// average score descending.
func SectorSummaries(scores []models.OpportunityScore) []models.SectorSummary {
	bySector := make(map[string]*models.SectorSummary)
	for _, sc := range scores {
		sum, ok := bySector[sc.Sector]
		if !ok {
			sum = &models.SectorSummary{Sector: sc.Sector}
			bySector[sc.Sector] = sum
		}
		sum.Count++
		sum.AvgScore += sc.Score
		switch sc.Signal {
		case models.SignalBuy:
			sum.Buys++
		case models.SignalSkip:
			sum.Skips++
		}
	}

	out := make([]models.SectorSummary, 0, len(bySector))
	for _, sum := range bySector {
		sum.AvgScore /= float64(sum.Count)
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgScore != out[j].AvgScore {
			return out[i].AvgScore > out[j].AvgScore
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}
