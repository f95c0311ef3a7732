package models

import "time"

// Regime labels, ordered from calm to stressed.
const (
	RegimeCalm    = "calm"
	RegimeNormal  = "normal"
	RegimeHighVol = "high_vol"
	RegimeUnknown = "unknown"
)

// RegimeState is the market regime engine's daily output. Probabilities are
// indexed calm/normal/high_vol and sum to 1.0. CrashRisk is bounded [0,1].
// The state is recomputed at most once per calendar day and is read-only to
// consumers.
type RegimeState struct {
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities"`
	DailyVol      float64            `json:"daily_vol"`
	AnnualizedVol float64            `json:"annualized_vol"`
	CrashRisk     float64            `json:"crash_risk"`
	WindowStart   time.Time          `json:"window_start"`
	WindowEnd     time.Time          `json:"window_end"`
	ComputedAt    time.Time          `json:"computed_at"`
}

// Known reports whether the regime could be estimated for the day. When the
// engine had insufficient data and no cached state, consumers must disable
// regime-based adjustments.
func (s *RegimeState) Known() bool {
	return s != nil && s.Label != RegimeUnknown && s.Label != ""
}

// HighVolProbability returns the posterior of the stressed state.
func (s *RegimeState) HighVolProbability() float64 {
	if s == nil {
		return 0
	}
	return s.Probabilities[RegimeHighVol]
}
