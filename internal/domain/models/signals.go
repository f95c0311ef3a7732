package models

import "time"

// SignalResult is one provider's view of a symbol. Direction is in [-1,1],
// confidence in [0,1]. When Available is false the other fields carry no
// meaning and the provider's weight is redistributed by the ensemble.
type SignalResult struct {
	Provider   string
	Symbol     string
	Direction  float64
	Confidence float64
	Available  bool
	Reason     string // why unavailable, for the run report
}

// Unavailable builds the canonical unavailable marker for a provider.
func Unavailable(provider, symbol, reason string) SignalResult {
	return SignalResult{Provider: provider, Symbol: symbol, Reason: reason}
}

// EnsemblePrediction is the weighted consensus across available providers.
// Weights holds the post-renormalization weights actually used; they sum
// to 1.0 whenever at least one provider was available.
type EnsemblePrediction struct {
	Symbol     string
	Timestamp  time.Time
	Direction  float64
	Confidence float64
	Weights    map[string]float64
	Signals    []SignalResult
}

// WeightSum returns the total of the applied weights.
func (p *EnsemblePrediction) WeightSum() float64 {
	sum := 0.0
	for _, w := range p.Weights {
		sum += w
	}
	return sum
}
