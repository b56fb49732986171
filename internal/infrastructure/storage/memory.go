package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Storage. Values survive for the life of the process only.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]string
	watchers *watchers
}

// NewMemory creates an empty in-process storage
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string]string),
		watchers: newWatchers(),
	}
}

// Get retrieves the value stored at key
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set replaces the value stored at key
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()

	m.watchers.notify(key, value)
	return nil
}

// Delete removes key
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	_, existed := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()

	if existed {
		m.watchers.notify(key, "")
	}
	return nil
}

// Watch registers fn for writes to key
func (m *Memory) Watch(key string, fn func(value string)) func() {
	return m.watchers.add(key, fn)
}

// Ping always succeeds
func (m *Memory) Ping(context.Context) error {
	return nil
}
