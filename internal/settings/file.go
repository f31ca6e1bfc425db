// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/whitespc/whitespc/internal/util"
)

// FileStore persists the record as a JSON document. Writes go through
// util.AtomicWriteFile so a crash leaves either the old or the new file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the JSON file at path.
// The file is created on the first Load.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, unavailable("open", errors.New("empty settings file path"))
	}
	return &FileStore{path: path}, nil
}

// Path returns the JSON file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the record, writing the default one if the file does not exist.
func (s *FileStore) Load(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("load", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		rec := Default()
		if err := s.write(rec); err != nil {
			return nil, unavailable("create default", err)
		}
		return rec, nil
	}
	if err != nil {
		return nil, unavailable("load", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, unavailable("load", fmt.Errorf("failed to parse %s: %w", s.path, err))
	}
	rec.ID = RecordID
	return &rec, nil
}

// Save atomically replaces the JSON file.
func (s *FileStore) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return unavailable("save", err)
	}
	if rec == nil {
		return unavailable("save", errors.New("nil record"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(rec); err != nil {
		return unavailable("save", err)
	}
	return nil
}

// Close is a no-op; the file is not held open.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) write(rec *Record) error {
	c := rec.Clone()
	c.ID = RecordID

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return util.AtomicWriteFileWithDir(s.path, data, 0600, 0700)
}
