// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrStoreUnavailable is wrapped by every Store read or write failure.
var ErrStoreUnavailable = errors.New("settings store unavailable")

// Store is durable storage for the one settings record.
type Store interface {
	// Load returns the record, creating and persisting Default() if none exists.
	Load(ctx context.Context) (*Record, error)

	// Save writes the whole record. It either fully persists or fails.
	Save(ctx context.Context, rec *Record) error

	// Close releases the underlying resources.
	Close() error
}

// unavailable wraps err so that errors.Is(err, ErrStoreUnavailable) holds
// while keeping the underlying cause in the chain.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore keeps the record in memory. Used by tests and by the
// "memory" storage backend for throwaway sessions.
type MemoryStore struct {
	mu  sync.RWMutex
	rec *Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored record, creating the default one first.
func (s *MemoryStore) Load(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("load", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil {
		s.rec = Default()
	}
	return s.rec.Clone(), nil
}

// Save replaces the stored record with a copy of rec.
func (s *MemoryStore) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return unavailable("save", err)
	}
	if rec == nil {
		return unavailable("save", errors.New("nil record"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := rec.Clone()
	c.ID = RecordID
	s.rec = c
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// =============================================================================
// BACKEND SELECTION
// =============================================================================

// Storage backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Open returns the Store for the named backend. path is ignored for memory.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendFile:
		s, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (valid: sqlite, file, memory)", backend)
	}
}
