package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/repository"
	"NightScan/internal/domain/service"
	"NightScan/internal/universe"
	"NightScan/pkg/config"
	"NightScan/pkg/logger"
)

// Pipeline sequences the nightly phases and owns the only place allowed
// to halt a run. Every phase transition checkpoints the run state to disk
// before advancing, so a crash always leaves a diagnosable state file.
type Pipeline struct {
	cfg       *config.Config
	scanner   *Scanner
	regime    service.RegimeEngine
	ensemble  *Ensemble
	guard     *EventRiskGuard
	scorer    *Scorer
	trainer   *Trainer
	sentiment service.SentimentAnalyzer
	states    repository.RunStateStore
	reports   repository.ReportWriter
	sink      repository.ResultSink
	notifier  service.Notifier
	metrics   repository.Metrics
	collector *logger.WarningCollector
	log       *logger.Logger
}

// PipelineParams bundles the orchestrator's collaborators for DI.
type PipelineParams struct {
	Config    *config.Config
	Scanner   *Scanner
	Regime    service.RegimeEngine
	Ensemble  *Ensemble
	Guard     *EventRiskGuard
	Scorer    *Scorer
	Trainer   *Trainer
	Sentiment service.SentimentAnalyzer
	States    repository.RunStateStore
	Reports   repository.ReportWriter
	Sink      repository.ResultSink
	Notifier  service.Notifier
	Metrics   repository.Metrics
	Collector *logger.WarningCollector
	Log       *logger.Logger
}

func NewPipeline(p PipelineParams) *Pipeline {
	return &Pipeline{
		cfg:       p.Config,
		scanner:   p.Scanner,
		regime:    p.Regime,
		ensemble:  p.Ensemble,
		guard:     p.Guard,
		scorer:    p.Scorer,
		trainer:   p.Trainer,
		sentiment: p.Sentiment,
		states:    p.States,
		reports:   p.Reports,
		sink:      p.Sink,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
		collector: p.Collector,
		log:       p.Log,
	}
}

// runData carries phase outputs forward through the run.
type runData struct {
	universe    *universe.Universe
	calendar    *universe.Calendar
	regime      *models.RegimeState
	scan        *ScanOutcome
	predictions map[string]*models.EnsemblePrediction
	scores      []models.OpportunityScore
	training    *TrainingSummary
	maxPerNight int
}

// Run executes the full phase sequence in mode ("test" or "full") and
// returns the final run state. The returned error is non-nil only when a
// phase halted the run.
func (p *Pipeline) Run(ctx context.Context, mode string) (*models.PipelineRunState, error) {
	state := &models.PipelineRunState{
		Version:   models.RunStateVersion,
		RunID:     uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now().UTC(),
	}

	p.log.Info("pipeline run starting",
		logger.String("run_id", state.RunID),
		logger.String("mode", mode))

	data, err := p.prepare(state, mode)
	if err != nil {
		state.Failed = true
		state.Error = err.Error()
		state.EndedAt = time.Now().UTC()
		p.saveState(state)
		p.notifyError(ctx, state.RunID, err)
		return state, err
	}

	phases := []struct {
		phase models.Phase
		fn    func(ctx context.Context, state *models.PipelineRunState, data *runData) error
	}{
		{models.PhaseSentimentIngestion, p.runSentimentIngestion},
		{models.PhaseStockScanning, p.runStockScanning},
		{models.PhaseSignalGeneration, p.runSignalGeneration},
		{models.PhaseEventRiskAndScoring, p.runEventRiskAndScoring},
		{models.PhaseModelTraining, p.runModelTraining},
		{models.PhaseReportGeneration, p.runReportGeneration},
		{models.PhaseFinalization, p.runFinalization},
	}

	for _, ph := range phases {
		if err := p.runPhase(ctx, state, data, ph.phase, ph.fn); err != nil {
			p.notifyError(ctx, state.RunID, err)
			return state, err
		}
	}

	p.log.Info("pipeline run complete",
		logger.String("run_id", state.RunID),
		logger.Int("opportunities", len(state.Opportunities)),
		logger.Int("warnings", len(state.Warnings)))
	return state, nil
}

// prepare loads the static inputs before any phase runs. Calendar parse
// problems become warnings, never a failed load.
func (p *Pipeline) prepare(state *models.PipelineRunState, mode string) (*runData, error) {
	u, err := universe.Load(p.cfg.Universe.File, p.cfg.Universe.BenchmarkSymbol)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}

	cal, calWarnings, err := universe.LoadCalendar(p.cfg.Calendar.File)
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}
	for _, w := range calWarnings {
		p.log.Warn("calendar row rejected", logger.Error(w))
		state.Warnings = append(state.Warnings, w.Error())
	}

	data := &runData{
		universe:    u,
		calendar:    cal,
		predictions: make(map[string]*models.EnsemblePrediction),
		maxPerNight: p.cfg.Training.MaxPerNight,
	}
	if mode == config.ModeTest {
		data.universe = u.Truncate(p.cfg.Pipeline.TestUniverseSize)
		data.maxPerNight = p.cfg.Training.TestMaxPerNight
		p.log.Info("test mode",
			logger.Int("universe", len(data.universe.Members)),
			logger.Int("max_per_night", data.maxPerNight))
	}
	return data, nil
}

// runPhase wraps one phase: checkpoint start, execute, checkpoint end,
// persist. On failure it marks the run failed with partial results intact.
func (p *Pipeline) runPhase(ctx context.Context, state *models.PipelineRunState, data *runData, phase models.Phase, fn func(context.Context, *models.PipelineRunState, *runData) error) error {
	name := phase.String()
	state.CurrentPhase = name
	cp := models.PhaseCheckpoint{Phase: name, StartedAt: time.Now().UTC()}
	state.Checkpoints = append(state.Checkpoints, cp)
	p.saveState(state)

	p.log.Info("phase starting", logger.String("phase", name))
	err := fn(ctx, state, data)

	idx := len(state.Checkpoints) - 1
	state.Checkpoints[idx].EndedAt = time.Now().UTC()
	elapsed := state.Checkpoints[idx].EndedAt.Sub(state.Checkpoints[idx].StartedAt)
	if p.metrics != nil {
		p.metrics.RecordPhaseDuration(name, elapsed.Seconds())
	}

	if err != nil {
		perr := models.NewPhaseError(phase, err)
		state.Checkpoints[idx].Error = err.Error()
		state.Failed = true
		state.Error = perr.Error()
		state.EndedAt = time.Now().UTC()
		p.saveState(state)
		p.log.Error("phase failed", logger.String("phase", name), logger.Error(err))
		return perr
	}

	state.Checkpoints[idx].Completed = true
	p.saveState(state)
	p.log.Info("phase complete",
		logger.String("phase", name),
		logger.Duration("elapsed", elapsed))
	return nil
}

// runSentimentIngestion warms the market-wide sentiment reading. The
// phase is advisory: a dead sentiment service degrades the sentiment
// provider later, it does not halt the run.
func (p *Pipeline) runSentimentIngestion(ctx context.Context, state *models.PipelineRunState, data *runData) error {
	if !p.cfg.Sentiment.Enabled || p.sentiment == nil {
		p.log.Info("sentiment disabled, skipping ingestion")
		return nil
	}
	if _, err := p.sentiment.AnalyzeSentiment(ctx, data.universe.Benchmark); err != nil {
		p.log.Warn("sentiment warmup failed", logger.Error(err))
		state.Warnings = append(state.Warnings, fmt.Sprintf("sentiment warmup: %v", err))
	}
	return nil
}

// runStockScanning computes the regime from benchmark returns, then walks
// the universe. An unknown regime is a warning; an empty scan is fatal.
func (p *Pipeline) runStockScanning(ctx context.Context, state *models.PipelineRunState, data *runData) error {
	returns, err := p.scanner.BenchmarkReturns(ctx, data.universe.Benchmark, p.cfg.Regime.LookbackDays)
	if err != nil {
		p.log.Warn("benchmark fetch failed", logger.Error(err))
		state.Warnings = append(state.Warnings, fmt.Sprintf("benchmark fetch: %v", err))
	}

	regime, err := p.regime.Analyse(ctx, returns, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, models.ErrInsufficientData) {
			return fmt.Errorf("regime analysis: %w", err)
		}
		p.log.Warn("regime unknown, adjustments disabled", logger.Error(err))
		state.Warnings = append(state.Warnings, fmt.Sprintf("regime: %v", err))
	}
	data.regime = regime
	state.Regime = regime

	scan, err := p.scanner.Scan(ctx, data.universe, p.cfg.Pipeline.LookbackDays)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	data.scan = scan

	state.Stats.StocksScanned = len(scan.Records)
	state.Stats.StocksSkipped = len(scan.Skipped)
	for _, symbol := range scan.Skipped {
		state.Warnings = append(state.Warnings, fmt.Sprintf("symbol skipped: %s", symbol))
	}

	if len(scan.Records) == 0 {
		return fmt.Errorf("no symbols scanned successfully")
	}
	return nil
}

func (p *Pipeline) runSignalGeneration(ctx context.Context, state *models.PipelineRunState, data *runData) error {
	for _, rec := range data.scan.Records {
		pred, err := p.ensemble.Predict(ctx, rec, data.regime)
		if err != nil {
			if errors.Is(err, ErrAllProvidersUnavailable) {
				p.log.Warn("symbol excluded from scoring",
					logger.String("symbol", rec.Symbol))
				state.Warnings = append(state.Warnings, fmt.Sprintf("excluded, no providers available: %s", rec.Symbol))
				state.Stats.SymbolsExcluded++
				continue
			}
			return fmt.Errorf("predict %s: %w", rec.Symbol, err)
		}
		data.predictions[rec.Symbol] = pred
		state.Stats.SignalsBuilt++
	}

	if len(data.predictions) == 0 {
		return fmt.Errorf("no predictions produced")
	}
	return nil
}

func (p *Pipeline) runEventRiskAndScoring(ctx context.Context, state *models.PipelineRunState, data *runData) error {
	for _, rec := range data.scan.Records {
		pred, ok := data.predictions[rec.Symbol]
		if !ok {
			continue
		}
		risk := p.guard.Assess(rec.Symbol, data.calendar, data.regime)
		if risk.DataQualityNote != "" {
			state.Warnings = append(state.Warnings, fmt.Sprintf("%s: %s", rec.Symbol, risk.DataQualityNote))
		}
		score := p.scorer.Score(pred, &risk, rec.Sector)
		if score.Signal == models.SignalSkip {
			state.Stats.SkipOverrides++
		}
		data.scores = append(data.scores, score)
	}

	state.Opportunities = TopN(data.scores, p.cfg.Pipeline.TopN)
	state.Sectors = SectorSummaries(data.scores)
	if p.metrics != nil {
		p.metrics.RecordOpportunities(len(state.Opportunities))
	}
	return nil
}

func (p *Pipeline) runModelTraining(ctx context.Context, state *models.PipelineRunState, data *runData) error {
	if !p.cfg.Training.Enabled {
		p.log.Info("training disabled, skipping")
		return nil
	}

	queued := p.trainer.BuildQueue(data.scores, data.maxPerNight)
	if len(queued) == 0 {
		p.log.Info("no models need retraining")
		return nil
	}

	histories := make(map[string][]models.Candle, len(queued))
	for _, rec := range data.scan.Records {
		histories[rec.Symbol] = rec.Candles
	}
	for _, symbol := range queued {
		if len(histories[symbol]) > 0 {
			continue
		}
		stored, err := p.scanner.StoredHistory(ctx, symbol, p.cfg.Pipeline.LookbackDays)
		if err != nil {
			p.log.Warn("stored history unavailable",
				logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		if len(stored) > 0 {
			histories[symbol] = stored
		}
	}

	summary := p.trainer.Train(ctx, queued, histories)
	data.training = summary
	state.Stats.ModelsTrained = summary.Trained
	state.Stats.TrainingFailed = summary.Failed
	for _, f := range summary.Failures {
		p.log.Warn("training failure isolated", logger.Error(f))
		state.Warnings = append(state.Warnings, f.Error())
	}
	return nil
}

func (p *Pipeline) runReportGeneration(ctx context.Context, state *models.PipelineRunState, data *runData) error {
	ranked := Rank(data.scores)

	path, err := p.reports.WriteJSON(state)
	if err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	p.log.Info("json report written", logger.String("path", path))
	if _, err := p.reports.WriteCSV(ranked); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	if _, err := p.reports.WriteEventRiskCSV(ranked); err != nil {
		return fmt.Errorf("write event risk csv: %w", err)
	}
	if _, err := p.reports.WriteHTML(state, ranked); err != nil {
		return fmt.Errorf("write html report: %w", err)
	}

	if p.sink != nil {
		if err := p.sink.StoreRun(ctx, state, ranked); err != nil {
			p.log.Warn("result sink store failed", logger.Error(err))
			state.Warnings = append(state.Warnings, fmt.Sprintf("result sink: %v", err))
		}
	}
	return nil
}

func (p *Pipeline) runFinalization(ctx context.Context, state *models.PipelineRunState, data *runData) error {
	if p.collector != nil {
		state.DataQuality = p.collector.Summaries()
	}
	state.EndedAt = time.Now().UTC()
	if p.metrics != nil {
		p.metrics.SetLastRun(state.EndedAt)
	}

	if p.notifier != nil {
		if err := p.notifier.SendCompletion(ctx, state); err != nil {
			p.log.Warn("completion notification failed", logger.Error(err))
			state.Warnings = append(state.Warnings, fmt.Sprintf("notification: %v", err))
		}
	}
	return nil
}

func (p *Pipeline) saveState(state *models.PipelineRunState) {
	if err := p.states.Save(state); err != nil {
		p.log.Error("run state save failed", logger.Error(err))
	}
}

func (p *Pipeline) notifyError(ctx context.Context, runID string, err error) {
	if p.notifier == nil {
		return
	}
	if nerr := p.notifier.SendError(ctx, runID, err); nerr != nil {
		p.log.Warn("error notification failed", logger.Error(nerr))
	}
}
