package sizes

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps sizes in a map.
type MemoryStore struct {
	mu    sync.RWMutex
	sizes map[string]float64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sizes: make(map[string]float64)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sizes[id]
	return v, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, id string, size float64) error {
	if err := checkSize(size); err != nil {
		return err
	}
	s.mu.Lock()
	s.sizes[id] = size
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Increment(_ context.Context, id string, delta float64) (float64, error) {
	if err := checkSize(delta); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.sizes[id]
	if !ok {
		return 0, ErrNotFound
	}
	v += delta
	s.sizes[id] = v
	return v, nil
}

func (s *MemoryStore) All(context.Context) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.sizes), nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
