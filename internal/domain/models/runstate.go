package models

import "time"

// Phase enumerates the pipeline phases in execution order.
type Phase int

const (
	PhaseSentimentIngestion Phase = iota
	PhaseStockScanning
	PhaseSignalGeneration
	PhaseEventRiskAndScoring
	PhaseModelTraining
	PhaseReportGeneration
	PhaseFinalization
)

var phaseNames = map[Phase]string{
	PhaseSentimentIngestion:  "sentiment_ingestion",
	PhaseStockScanning:       "stock_scanning",
	PhaseSignalGeneration:    "signal_generation",
	PhaseEventRiskAndScoring: "event_risk_and_scoring",
	PhaseModelTraining:       "model_training",
	PhaseReportGeneration:    "report_generation",
	PhaseFinalization:        "finalization",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return "unknown"
}

// AllPhases returns the phases in order.
func AllPhases() []Phase {
	return []Phase{
		PhaseSentimentIngestion,
		PhaseStockScanning,
		PhaseSignalGeneration,
		PhaseEventRiskAndScoring,
		PhaseModelTraining,
		PhaseReportGeneration,
		PhaseFinalization,
	}
}

// PhaseCheckpoint records one phase's execution window and outcome.
type PhaseCheckpoint struct {
	Phase     string    `json:"phase"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Completed bool      `json:"completed"`
	Error     string    `json:"error,omitempty"`
}

// RunStats holds counters surfaced in the run summary.
type RunStats struct {
	StocksScanned   int `json:"stocks_scanned"`
	StocksSkipped   int `json:"stocks_skipped"`
	SignalsBuilt    int `json:"signals_built"`
	SymbolsExcluded int `json:"symbols_excluded"` // no provider available
	ModelsTrained   int `json:"models_trained"`
	TrainingFailed  int `json:"training_failed"`
	SkipOverrides   int `json:"skip_overrides"`
}

// RunStateVersion guards against silent producer/consumer drift of the
// persisted run state file.
const RunStateVersion = 2

// PipelineRunState is the resumable state persisted after every phase
// transition. A crashed run leaves its last checkpoint on disk for
// diagnosis; resumption is an operator decision, not automatic.
type PipelineRunState struct {
	Version       int                `json:"version"`
	RunID         string             `json:"run_id"`
	Mode          string             `json:"mode"` // "test" or "full"
	StartedAt     time.Time          `json:"started_at"`
	EndedAt       time.Time          `json:"ended_at,omitempty"`
	CurrentPhase  string             `json:"current_phase"`
	Checkpoints   []PhaseCheckpoint  `json:"checkpoints"`
	Stats         RunStats           `json:"stats"`
	Regime        *RegimeState       `json:"regime,omitempty"`
	Opportunities []OpportunityScore `json:"top_opportunities,omitempty"`
	Sectors       []SectorSummary    `json:"sectors,omitempty"`
	Warnings      []string           `json:"warnings,omitempty"`
	// DataQuality is the aggregated log-warning digest collected over the
	// whole run. Kept apart from Warnings, which holds the phase-level
	// entries, so the same event is not listed twice.
	DataQuality   []string           `json:"data_quality,omitempty"`
	Failed        bool               `json:"failed"`
	Error         string             `json:"error,omitempty"`
}
