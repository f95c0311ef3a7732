package models

import "time"

// Signal is the discrete recommendation attached to an opportunity score.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
	SignalSkip Signal = "SKIP"
)

// OpportunityScore is the final per-symbol ranking entry. Score is clamped
// to [0,100]. Created once per symbol per run, ranked, serialized to the
// report artifacts; not persisted as a live object.
type OpportunityScore struct {
	Symbol     string               `json:"symbol"`
	Sector     string               `json:"sector"`
	Score      float64              `json:"score"`
	Signal     Signal               `json:"signal"`
	Confidence float64              `json:"confidence"`
	Timestamp  time.Time            `json:"timestamp"`
	Prediction *EnsemblePrediction  `json:"prediction,omitempty"`
	Risk       *EventRiskAssessment `json:"risk,omitempty"`
}

// SectorSummary aggregates scored symbols per sector for the run report.
type SectorSummary struct {
	Sector   string  `json:"sector"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
	Buys     int     `json:"buys"`
	Skips    int     `json:"skips"`
}
