package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"siapcheck/internal/verdict"
)

// MemStore is an in-memory Store for tests and runs without persistence.
// Safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	runs    map[string]Run
	records []Record
	nextID  int64
	now     func() time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{runs: make(map[string]Run), now: time.Now}
}

func (s *MemStore) CreateRun(label string, documents int) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Run{ID: uuid.NewString(), Label: label, Documents: documents, StartedAt: s.now().UTC()}
	s.runs[r.ID] = r
	return r, nil
}

func (s *MemStore) ListRuns() ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) SaveResult(runID string, r verdict.Result) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	s.nextID++
	s.records = append(s.records, Record{ID: s.nextID, RunID: runID, Result: r})
	return s.nextID, nil
}

func (s *MemStore) ListResults(runID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.RunID == runID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemStore) LatestResult(documentID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Result.DocumentID == documentID {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *MemStore) Close() error { return nil }
