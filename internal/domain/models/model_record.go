package models

import "time"

// ModelRecord tracks one symbol's trained forecast model. Created and
// updated only by the training scheduler; the forecast signal provider
// reads it to decide whether a prediction can be trusted.
type ModelRecord struct {
	Symbol       string    `json:"symbol"`
	TrainedAt    time.Time `json:"trained_at"`
	ArtifactPath string    `json:"artifact_path"`
	TrainLoss    float64   `json:"train_loss,omitempty"`
	Samples      int       `json:"samples,omitempty"`
}

// StaleAfter reports whether the model is older than the threshold at the
// given reference time. A stale model must be retrained before it is
// trusted again.
func (m *ModelRecord) StaleAfter(now time.Time, threshold time.Duration) bool {
	if m == nil || m.TrainedAt.IsZero() {
		return true
	}
	return now.Sub(m.TrainedAt) > threshold
}
