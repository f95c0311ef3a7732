package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/service"
	"NightScan/internal/repository"
	"NightScan/internal/services/providers"
	"NightScan/pkg/cache"
	"NightScan/pkg/config"
	"NightScan/pkg/logger"
)

type stubHistory struct{}

func (s *stubHistory) Name() string { return "stub" }

func (s *stubHistory) FetchHistory(ctx context.Context, symbol string, lookbackDays int) ([]models.Candle, error) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, 90)
	for i := range out {
		out[i] = models.Candle{Date: day.AddDate(0, 0, i), Symbol: symbol, Close: 100 + float64(i)*0.3}
	}
	return out, nil
}

type stubRegime struct{}

func (s *stubRegime) Analyse(ctx context.Context, returns []float64, windowEnd time.Time) (*models.RegimeState, error) {
	return &models.RegimeState{
		Label:         models.RegimeNormal,
		Probabilities: map[string]float64{models.RegimeCalm: 0.2, models.RegimeNormal: 0.7, models.RegimeHighVol: 0.1},
		CrashRisk:     0.2,
		ComputedAt:    windowEnd,
	}, nil
}

type stubNotifier struct {
	mu          sync.Mutex
	completions int
	errors      int
}

func (n *stubNotifier) SendCompletion(ctx context.Context, state *models.PipelineRunState) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completions++
	return nil
}

func (n *stubNotifier) SendError(ctx context.Context, runID string, err error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors++
	return nil
}

type failingReports struct{}

func (f *failingReports) WriteJSON(*models.PipelineRunState) (string, error) {
	return "", fmt.Errorf("disk full")
}
func (f *failingReports) WriteCSV([]models.OpportunityScore) (string, error) { return "", nil }
func (f *failingReports) WriteEventRiskCSV([]models.OpportunityScore) (string, error) {
	return "", nil
}
func (f *failingReports) WriteHTML(*models.PipelineRunState, []models.OpportunityScore) (string, error) {
	return "", nil
}

type pipelineFixture struct {
	pipeline *Pipeline
	states   *repository.FileRunStateStore
	notifier *stubNotifier
	store    *memModelStore
	outDir   string
}

const defaultUniverseYAML = `
benchmark: SPY
members:
  - symbol: AAPL
    sector: tech
  - symbol: MSFT
    sector: tech
  - symbol: XOM
    sector: energy
`

func writeFixtureFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newPipelineFixture(t *testing.T, mutate func(p *PipelineParams)) *pipelineFixture {
	return newPipelineFixtureWith(t, defaultUniverseYAML, mutate)
}

func newPipelineFixtureWith(t *testing.T, universeYAML string, mutate func(p *PipelineParams)) *pipelineFixture {
	t.Helper()
	dir := t.TempDir()
	collector := logger.NewWarningCollector()
	log := testLogger(t)
	log.AttachCollector(collector)

	universePath := writeFixtureFile(t, dir, "universe.yaml", universeYAML)
	calendarPath := writeFixtureFile(t, dir, "calendar.yaml", `
events:
  - symbol: XOM
    type: earnings
    date: `+time.Now().Add(12*time.Hour).UTC().Format("2006-01-02T15:04:05Z")+`
  - symbol: MSFT
    type: bogus_type
    date: 2026-09-10
`)

	cfg := &config.Config{}
	cfg.Universe.File = universePath
	cfg.Universe.BenchmarkSymbol = "SPY"
	cfg.Calendar.File = calendarPath
	cfg.Pipeline = config.PipelineConfig{LookbackDays: 90, ChunkSize: 2, TopN: 10, TestUniverseSize: 2}
	cfg.Regime = config.RegimeConfig{LookbackDays: 90, MinObservations: 60, States: 3, Seed: 42, EWMALambda: 0.94, CacheTTL: 24 * time.Hour}
	cfg.Sentiment.Enabled = false
	cfg.Ensemble = config.EnsembleConfig{ForecastWeight: 0.45, TrendWeight: 0.25, TechnicalWeight: 0.15, SentimentWeight: 0.15}
	cfg.EventRisk = eventRiskConfig()
	cfg.Scoring = config.ScoringConfig{BuyThreshold: 65}
	cfg.Training = config.TrainingConfig{Enabled: true, MaxPerNight: 10, StalenessDays: 7, Workers: 1, TestMaxPerNight: 1}

	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })
	chain := providers.NewChainWith(mem, time.Hour, nil, log, &stubHistory{})
	scanner := NewScanner(chain, nil, cfg.Pipeline, log)

	ensemble := NewEnsemble([]service.SignalProvider{
		unavailable("forecast"),
		available("trend", 0.8, 0.6),
		available("technical", 0.4, 0.5),
		available("sentiment", 0.2, 0.3),
	}, cfg.Ensemble.Weights(), log)

	store := newMemModelStore()
	trainer := NewTrainer(&recordingForecast{}, store, nil, cfg.Training, log)

	states, err := repository.NewFileRunStateStore(filepath.Join(dir, "state"))
	require.NoError(t, err)
	outDir := filepath.Join(dir, "out")
	reports, err := repository.NewFileReportWriter(outDir)
	require.NoError(t, err)

	notifier := &stubNotifier{}
	params := PipelineParams{
		Config:    cfg,
		Scanner:   scanner,
		Regime:    &stubRegime{},
		Ensemble:  ensemble,
		Guard:     NewEventRiskGuard(cfg.EventRisk),
		Scorer:    NewScorer(cfg.Scoring, cfg.EventRisk),
		Trainer:   trainer,
		States:    states,
		Reports:   reports,
		Notifier:  notifier,
		Collector: collector,
		Log:       log,
	}
	if mutate != nil {
		mutate(&params)
	}

	return &pipelineFixture{
		pipeline: NewPipeline(params),
		states:   states,
		notifier: notifier,
		store:    store,
		outDir:   outDir,
	}
}

func TestPipelineFullRun(t *testing.T) {
	f := newPipelineFixture(t, nil)

	state, err := f.pipeline.Run(context.Background(), config.ModeFull)
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.False(t, state.Failed)
	require.Len(t, state.Checkpoints, len(models.AllPhases()))
	for i, phase := range models.AllPhases() {
		assert.Equal(t, phase.String(), state.Checkpoints[i].Phase)
		assert.True(t, state.Checkpoints[i].Completed, "phase %s not completed", phase)
	}

	assert.Equal(t, 3, state.Stats.StocksScanned)
	assert.Equal(t, 3, state.Stats.SignalsBuilt)
	assert.NotEmpty(t, state.Opportunities)
	// XOM has earnings in 12 hours: hard skip override.
	assert.Equal(t, 1, state.Stats.SkipOverrides)
	// The malformed MSFT calendar row surfaces as a warning, never zero risk.
	foundCalendarWarning := false
	for _, w := range state.Warnings {
		if strings.Contains(w, "MSFT") {
			foundCalendarWarning = true
		}
	}
	assert.True(t, foundCalendarWarning, "calendar parse warning missing: %v", state.Warnings)

	// All three symbols lacked models; test fixture quota allows all.
	assert.Equal(t, 3, state.Stats.ModelsTrained)
	assert.Equal(t, 1, f.notifier.completions)
	assert.Equal(t, 0, f.notifier.errors)

	// The checkpointed state on disk matches the final state.
	loaded, err := f.states.Load(state.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.Stats, loaded.Stats)
	assert.False(t, loaded.Failed)
}

func TestPipelineTestModeTruncatesUniverseAndQuota(t *testing.T) {
	f := newPipelineFixture(t, nil)

	state, err := f.pipeline.Run(context.Background(), config.ModeTest)
	require.NoError(t, err)

	assert.Equal(t, 2, state.Stats.StocksScanned, "test mode truncates the universe")
	assert.Equal(t, 1, state.Stats.ModelsTrained, "test mode truncates the training quota")
	require.Len(t, state.Checkpoints, len(models.AllPhases()), "phase sequence is unchanged in test mode")
}

func TestPipelineRepeatedRunsRankIdentically(t *testing.T) {
	f := newPipelineFixture(t, nil)

	first, err := f.pipeline.Run(context.Background(), config.ModeFull)
	require.NoError(t, err)
	second, err := f.pipeline.Run(context.Background(), config.ModeFull)
	require.NoError(t, err)

	require.Equal(t, len(first.Opportunities), len(second.Opportunities))
	for i := range first.Opportunities {
		a, b := first.Opportunities[i], second.Opportunities[i]
		assert.Equal(t, a.Symbol, b.Symbol, "rank %d", i)
		assert.Equal(t, a.Score, b.Score, "rank %d", i)
		assert.Equal(t, a.Signal, b.Signal, "rank %d", i)
		assert.Equal(t, a.Confidence, b.Confidence, "rank %d", i)
	}
}

func TestPipelineTenSymbolRunFillsOpportunitiesCSV(t *testing.T) {
	universeYAML := `
benchmark: SPY
members:
  - symbol: AAPL
    sector: tech
  - symbol: MSFT
    sector: tech
  - symbol: NVDA
    sector: tech
  - symbol: AMZN
    sector: consumer
  - symbol: TSLA
    sector: consumer
  - symbol: JPM
    sector: financials
  - symbol: GS
    sector: financials
  - symbol: XOM
    sector: energy
  - symbol: CVX
    sector: energy
  - symbol: UNH
    sector: healthcare
`
	f := newPipelineFixtureWith(t, universeYAML, nil)

	state, err := f.pipeline.Run(context.Background(), config.ModeFull)
	require.NoError(t, err)
	assert.Equal(t, 10, state.Stats.StocksScanned)
	assert.Equal(t, 10, state.Stats.SignalsBuilt)

	// Every scanned symbol lands in the opportunities CSV, one row each.
	matches, err := filepath.Glob(filepath.Join(f.outDir, "opportunities-*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 11, "want header plus one row per scanned symbol")
}

func TestPipelineWarningsNotDuplicatedByDigest(t *testing.T) {
	f := newPipelineFixture(t, nil)

	state, err := f.pipeline.Run(context.Background(), config.ModeFull)
	require.NoError(t, err)

	// The malformed MSFT calendar row appears once in the phase warnings.
	msft := 0
	for _, w := range state.Warnings {
		if strings.Contains(w, "MSFT") {
			msft++
		}
		assert.False(t, strings.HasPrefix(w, "["), "digest line leaked into warnings: %q", w)
	}
	assert.Equal(t, 1, msft, "warnings: %v", state.Warnings)

	// The log digest lives in its own field, aggregated with counts.
	require.NotEmpty(t, state.DataQuality)
	foundDigest := false
	for _, d := range state.DataQuality {
		assert.True(t, strings.HasPrefix(d, "[warn]"), "digest entry %q", d)
		if strings.Contains(d, "calendar row rejected") {
			foundDigest = true
		}
	}
	assert.True(t, foundDigest, "data quality: %v", state.DataQuality)
}

func TestPipelinePhaseFailureHaltsAndPreservesState(t *testing.T) {
	f := newPipelineFixture(t, func(p *PipelineParams) {
		p.Reports = &failingReports{}
	})

	state, err := f.pipeline.Run(context.Background(), config.ModeFull)
	require.Error(t, err)

	var perr *models.PhaseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, models.PhaseReportGeneration.String(), perr.Phase)

	assert.True(t, state.Failed)
	assert.NotEmpty(t, state.Error)
	assert.Equal(t, 1, f.notifier.errors)
	assert.Equal(t, 0, f.notifier.completions)

	// Partial results collected before the failure are preserved on disk.
	loaded, err := f.states.Load(state.RunID)
	require.NoError(t, err)
	assert.True(t, loaded.Failed)
	assert.NotEmpty(t, loaded.Opportunities)
	assert.Equal(t, 3, loaded.Stats.StocksScanned)

	// Phases before the failing one completed; the failing one did not.
	for _, cp := range loaded.Checkpoints {
		if cp.Phase == models.PhaseReportGeneration.String() {
			assert.False(t, cp.Completed)
			assert.NotEmpty(t, cp.Error)
		} else {
			assert.True(t, cp.Completed, "phase %s", cp.Phase)
		}
	}
}
