package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"NightScan/internal/domain/models"
	domrepo "NightScan/internal/domain/repository"
)

const modelIndexFile = "index.json"

// FileModelStore keeps model records in a single JSON index under the
// model directory. Writes are write-then-rename so a crash mid-write
// never corrupts the index.
type FileModelStore struct {
	dir     string
	mu      sync.RWMutex
	records map[string]*models.ModelRecord
}

var _ domrepo.ModelStore = (*FileModelStore)(nil)

// NewFileModelStore loads the existing index if present.
func NewFileModelStore(dir string) (*FileModelStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}

	s := &FileModelStore{dir: dir, records: make(map[string]*models.ModelRecord)}

	b, err := os.ReadFile(filepath.Join(dir, modelIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read model index: %w", err)
	}
	if err := json.Unmarshal(b, &s.records); err != nil {
		return nil, fmt.Errorf("parse model index: %w", err)
	}
	return s, nil
}

func (s *FileModelStore) Get(symbol string) (*models.ModelRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[symbol]
	return rec, ok
}

// Put upserts the record and persists the index.
func (s *FileModelStore) Put(rec *models.ModelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Symbol] = rec
	return s.flushLocked()
}

func (s *FileModelStore) All() []*models.ModelRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ModelRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (s *FileModelStore) flushLocked() error {
	b, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model index: %w", err)
	}
	return atomicWrite(filepath.Join(s.dir, modelIndexFile), b)
}

// atomicWrite writes to a temp file in the same directory and renames it
// into place.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
