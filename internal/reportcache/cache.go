// Package reportcache remembers the most recent merge report per identity.
package reportcache

import (
	"context"
	"sync"
)

// Cache maps an identity to the last report shown for it.
type Cache interface {
	// Get returns the cached report. A miss is reported by ok == false, not an error.
	Get(ctx context.Context, identity string) (report string, ok bool, err error)

	// Set replaces the cached report.
	Set(ctx context.Context, identity, report string) error

	// Close releases resources.
	Close() error
}

// Memory is an in-process Cache. The zero value is ready to use.
type Memory struct {
	mu      sync.RWMutex
	reports map[string]string
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{reports: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, identity string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[identity]
	return r, ok, nil
}

func (m *Memory) Set(_ context.Context, identity, report string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reports == nil {
		m.reports = make(map[string]string)
	}
	m.reports[identity] = report
	return nil
}

func (m *Memory) Close() error { return nil }
