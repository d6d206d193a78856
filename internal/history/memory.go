// Package history keeps the records an agent has submitted, newest first.
// Adapters live in subpackages; Memory is the in-process default.
package history

import (
	"context"
	"slices"
	"sync"

	"ehopa/internal/registration/models"
)

// Memory is a process-local history.
type Memory struct {
	mu      sync.RWMutex
	records []models.Record
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(_ context.Context) ([]models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.records), nil
}

func (m *Memory) Put(_ context.Context, records []models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = slices.Clone(records)
	return nil
}

// Append prepends record.
func (m *Memory) Append(_ context.Context, record models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = slices.Insert(m.records, 0, record)
	return nil
}
