package repository

import (
	"context"
	"time"

	"NightScan/internal/domain/models"
)

// HistoryProvider fetches daily OHLCV history for one symbol. The scanner
// holds an ordered chain of these and falls back on failure.
type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, symbol string, lookbackDays int) ([]models.Candle, error)
}

// CandleStore persists fetched history for later training and run analysis.
type CandleStore interface {
	StoreCandles(ctx context.Context, candles []models.Candle) error
	LatestCandles(ctx context.Context, symbol string, n int) ([]models.Candle, error)
	Close() error
}

// ModelStore tracks trained model records and their artifacts.
type ModelStore interface {
	Get(symbol string) (*models.ModelRecord, bool)
	Put(rec *models.ModelRecord) error
	All() []*models.ModelRecord
}

// RunStateStore checkpoints pipeline run state after each phase transition.
// Writes must be atomic so a crash never leaves a partial state file.
type RunStateStore interface {
	Save(state *models.PipelineRunState) error
	Load(runID string) (*models.PipelineRunState, error)
	LatestPath() string
}

// ResultSink receives the final scored results of a run.
type ResultSink interface {
	StoreRun(ctx context.Context, state *models.PipelineRunState, scores []models.OpportunityScore) error
	Close() error
}

// ReportWriter renders the run artifacts: JSON summary, CSV exports, and
// the HTML report. Paths are date-stamped.
type ReportWriter interface {
	WriteJSON(state *models.PipelineRunState) (string, error)
	WriteCSV(scores []models.OpportunityScore) (string, error)
	WriteEventRiskCSV(scores []models.OpportunityScore) (string, error)
	WriteHTML(state *models.PipelineRunState, scores []models.OpportunityScore) (string, error)
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordSymbolScanned(provider string)
	RecordFetchError(provider string)
	RecordPhaseDuration(phase string, seconds float64)
	RecordModelTrained(outcome string)
	RecordOpportunities(count int)
	SetLastRun(t time.Time)
}
