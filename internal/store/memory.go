package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[uuid.UUID]Run
	order       []uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[uuid.UUID]Run)
	s.order = nil
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
	}
	run.Permutation = slices.Clone(run.Permutation)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id uuid.UUID) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return Run{}, false, errNotInitialized
	}
	run, ok := s.runs[id]
	run.Permutation = slices.Clone(run.Permutation)
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, instance string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	var out []Run
	for _, id := range s.order {
		run := s.runs[id]
		if instance != "" && run.Instance != instance {
			continue
		}
		run.Permutation = slices.Clone(run.Permutation)
		out = append(out, run)
	}
	return out, nil
}
