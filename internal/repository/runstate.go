package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"NightScan/internal/domain/models"
	domrepo "NightScan/internal/domain/repository"
)

const latestStateFile = "latest.json"

// FileRunStateStore checkpoints pipeline run state as JSON. Each run gets
// its own file keyed by run ID; latest.json always mirrors the most
// recent save so operators have one stable path to inspect.
type FileRunStateStore struct {
	dir string
}

var _ domrepo.RunStateStore = (*FileRunStateStore)(nil)

func NewFileRunStateStore(dir string) (*FileRunStateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileRunStateStore{dir: dir}, nil
}

// Save persists the state atomically. A crash between phase transitions
// leaves the previous checkpoint intact, never a partial file.
func (s *FileRunStateStore) Save(state *models.PipelineRunState) error {
	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run state: %w", err)
	}

	if err := atomicWrite(s.runPath(state.RunID), b); err != nil {
		return fmt.Errorf("save run state: %w", err)
	}
	if err := atomicWrite(filepath.Join(s.dir, latestStateFile), b); err != nil {
		return fmt.Errorf("save latest state: %w", err)
	}
	return nil
}

// Load reads a run's state by ID and refuses versions it does not know.
func (s *FileRunStateStore) Load(runID string) (*models.PipelineRunState, error) {
	b, err := os.ReadFile(s.runPath(runID))
	if err != nil {
		return nil, fmt.Errorf("read run state: %w", err)
	}

	var state models.PipelineRunState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("parse run state: %w", err)
	}
	if state.Version != models.RunStateVersion {
		return nil, fmt.Errorf("run state version %d, expected %d", state.Version, models.RunStateVersion)
	}
	return &state, nil
}

func (s *FileRunStateStore) LatestPath() string {
	return filepath.Join(s.dir, latestStateFile)
}

func (s *FileRunStateStore) runPath(runID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("run-%s.json", runID))
}
