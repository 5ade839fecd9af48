/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storage persists the list of games as a single JSON document in a
// key-value backend.
package storage

import (
	"context"
	"fmt"
	"sync"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// KV is a minimal key-value store. Get returns a nil slice and no error
// when the key is absent.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open returns the backend named by kind. path is only used by sqlite.
func Open(ctx context.Context, kind, path string) (KV, error) {
	switch kind {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown storage backend (must be %q or %q): %q", BackendMemory, BackendSQLite, kind)
	}
}

type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string][]byte),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}

	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v

	return nil
}

func (m *Memory) Close() error {
	return nil
}
