package store

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded runs in memory. Runs are stored encoded so that
// callers never share state with the archive.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[string][]byte
	summary map[string]Summary
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:    make(map[string][]byte),
		summary: make(map[string]Summary),
	}
}

func (s *MemoryStore) Save(ctx context.Context, run *Run) error {
	data, err := encodeRun(run)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = data
	s.summary[run.ID] = run.Summary()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	data, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return decodeRun(data)
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.summary))
	for _, sum := range s.summary {
		out = append(out, sum)
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	if n := limitOrDefault(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
	delete(s.summary, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
