package store

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// Memory is an in-process key-value store with the same contract as Store.
// The zero value is ready to use.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty Memory store, optionally pre-populated.
func NewMemory(initial map[string]string) *Memory {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Memory{values: values}
}

// Get returns the value stored under key, or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Keys returns the stored keys in byte order. Memory keeps no insertion
// sequence, unlike Store.
func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.values)), nil
}
