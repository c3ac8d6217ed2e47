package hostenv

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// State scopes addressable from scripts.
const (
	ScopeLocal  = "local"
	ScopeAsset  = "asset"
	ScopeScene  = "scene"
	ScopeGlobal = "global"
)

// StateStore is a key/value store for script state. Values are the bridge's
// neutral values (nil, bool, float64, string, []any, map[string]any).
type StateStore interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// MapStore is the in-process StateStore.
type MapStore struct {
	mu   sync.RWMutex
	data map[string]any
}

var _ StateStore = (*MapStore)(nil)

// NewMapStore creates an empty store
func NewMapStore() *MapStore {
	return &MapStore{data: make(map[string]any)}
}

// Get returns the value for key
func (s *MapStore) Get(_ context.Context, key string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set stores value under key
func (s *MapStore) Set(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes key
func (s *MapStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	delete(s.data, key)
	return ok, nil
}

// Keys returns all keys sorted
func (s *MapStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data)), nil
}

// Clear removes every key
func (s *MapStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.data)
	return nil
}
