package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NightScan/internal/domain/models"
)

func TestFileModelStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileModelStore(dir)
	require.NoError(t, err)

	rec := &models.ModelRecord{
		Symbol:       "AAPL",
		TrainedAt:    time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC),
		ArtifactPath: "models/AAPL.bin",
		TrainLoss:    0.12,
		Samples:      160,
	}
	require.NoError(t, store.Put(rec))

	// A fresh store over the same directory sees the persisted record.
	reopened, err := NewFileModelStore(dir)
	require.NoError(t, err)
	got, ok := reopened.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, rec.ArtifactPath, got.ArtifactPath)
	assert.True(t, rec.TrainedAt.Equal(got.TrainedAt))
}

func TestFileModelStorePutOverwrites(t *testing.T) {
	store, err := NewFileModelStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(&models.ModelRecord{Symbol: "A", ArtifactPath: "old"}))
	require.NoError(t, store.Put(&models.ModelRecord{Symbol: "A", ArtifactPath: "new"}))

	got, ok := store.Get("A")
	require.True(t, ok)
	assert.Equal(t, "new", got.ArtifactPath)
	assert.Len(t, store.All(), 1)
}

func testRunState(runID string) *models.PipelineRunState {
	return &models.PipelineRunState{
		Version:   models.RunStateVersion,
		RunID:     runID,
		Mode:      "full",
		StartedAt: time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC),
		Checkpoints: []models.PhaseCheckpoint{
			{Phase: "sentiment_ingestion", Completed: true},
		},
		Stats: models.RunStats{StocksScanned: 12},
	}
}

func TestRunStateStoreSaveAndLoad(t *testing.T) {
	store, err := NewFileRunStateStore(t.TempDir())
	require.NoError(t, err)

	state := testRunState("run-1")
	require.NoError(t, store.Save(state))

	loaded, err := store.Load("run-1")
	require.NoError(t, err)
	assert.Equal(t, state.RunID, loaded.RunID)
	assert.Equal(t, 12, loaded.Stats.StocksScanned)

	// latest.json mirrors the newest save.
	b, err := os.ReadFile(store.LatestPath())
	require.NoError(t, err)
	assert.Contains(t, string(b), "run-1")
}

func TestRunStateStoreRejectsVersionDrift(t *testing.T) {
	store, err := NewFileRunStateStore(t.TempDir())
	require.NoError(t, err)

	state := testRunState("run-2")
	state.Version = models.RunStateVersion + 1
	require.NoError(t, store.Save(state))

	_, err = store.Load("run-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func scoredFixture() []models.OpportunityScore {
	return []models.OpportunityScore{
		{
			Symbol: "AAPL", Sector: "tech", Score: 82.5, Signal: models.SignalBuy,
			Confidence: 0.7,
			Prediction: &models.EnsemblePrediction{Symbol: "AAPL", Direction: 0.9},
			Risk:       &models.EventRiskAssessment{Symbol: "AAPL", AdjustedRisk: 0.2},
		},
		{
			Symbol: "XOM", Sector: "energy", Score: 45.0, Signal: models.SignalSkip,
			Risk: &models.EventRiskAssessment{
				Symbol: "XOM", SkipTrading: true, NearestEvent: models.EventEarnings,
				PositionHaircut: models.HaircutFull,
			},
		},
	}
}

func TestReportWriterArtifacts(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileReportWriter(dir)
	require.NoError(t, err)
	w.now = func() time.Time { return time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC) }

	state := testRunState("run-3")
	state.Opportunities = scoredFixture()
	state.Regime = &models.RegimeState{Label: models.RegimeNormal, AnnualizedVol: 0.18, CrashRisk: 0.3}
	state.Warnings = []string{"symbol skipped: ZZZZ"}

	jsonPath, err := w.WriteJSON(state)
	require.NoError(t, err)
	assert.Contains(t, jsonPath, "summary-2026-08-31.json")

	csvPath, err := w.WriteCSV(scoredFixture())
	require.NoError(t, err)
	csvBody, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvBody)), "\n")
	assert.Len(t, lines, 3, "header plus two rows")
	assert.Contains(t, lines[1], "AAPL")

	riskPath, err := w.WriteEventRiskCSV(scoredFixture())
	require.NoError(t, err)
	riskBody, err := os.ReadFile(riskPath)
	require.NoError(t, err)
	assert.Contains(t, string(riskBody), "earnings")
	assert.Contains(t, string(riskBody), "true")

	htmlPath, err := w.WriteHTML(state, scoredFixture())
	require.NoError(t, err)
	htmlBody, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(htmlBody), "AAPL")
	assert.Contains(t, string(htmlBody), "SKIP")
	assert.Contains(t, string(htmlBody), "symbol skipped: ZZZZ")
}
