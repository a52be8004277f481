// Package kv holds the small durable key-value stores used to stage work
// between restarts.
package kv

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

// Store is a durable string-keyed blob store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Memory is a process-local Store. It is not durable and exists for tests
// and for running without a data directory.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Open picks a backend by name. "sqlite" and "badger" need a path; "memory"
// ignores it.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "sqlite":
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "badger":
		b, err := OpenBadger(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("kv: unknown backend " + backend)
	}
}
