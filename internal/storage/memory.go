package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStorage is an in-process KV with an optional byte quota, standing in for
// browser local storage
type MemoryStorage struct {
	mu         sync.RWMutex
	values     map[string][]byte
	used       int
	quotaBytes int
}

// NewMemoryStorage creates a memory store. quotaBytes <= 0 disables the quota.
func NewMemoryStorage(quotaBytes int) *MemoryStorage {
	return &MemoryStorage{
		values:     make(map[string][]byte),
		quotaBytes: quotaBytes,
	}
}

// Get returns a copy of the stored value
func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.values[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), value...), nil
}

// Set stores value under key, replacing any previous value
func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.used + entrySize(key, value)
	if old, exists := m.values[key]; exists {
		next -= entrySize(key, old)
	}
	if m.quotaBytes > 0 && next > m.quotaBytes {
		return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, next, m.quotaBytes)
	}

	m.values[key] = append([]byte(nil), value...)
	m.used = next
	return nil
}

// Delete removes key
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if value, exists := m.values[key]; exists {
		m.used -= entrySize(key, value)
		delete(m.values, key)
	}
	return nil
}

// Len reports how many keys are stored
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

func (m *MemoryStorage) Close() error {
	return nil
}

func entrySize(key string, value []byte) int {
	return len(key) + len(value)
}
