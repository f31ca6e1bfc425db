// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/whitespc/whitespc/internal/settings"
)

// testIterations keeps PBKDF2 fast in tests.
const testIterations = MinPBKDF2Iterations

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyStore wraps a MemoryStore and fails on demand.
type flakyStore struct {
	*settings.MemoryStore

	mu       sync.Mutex
	failLoad bool
	failSave bool
	saves    int
}

var errDiskGone = errors.New("disk gone")

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: settings.NewMemoryStore()}
}

func (s *flakyStore) Load(ctx context.Context) (*settings.Record, error) {
	s.mu.Lock()
	fail := s.failLoad
	s.mu.Unlock()
	if fail {
		return nil, errors.Join(settings.ErrStoreUnavailable, errDiskGone)
	}
	return s.MemoryStore.Load(ctx)
}

func (s *flakyStore) Save(ctx context.Context, rec *settings.Record) error {
	s.mu.Lock()
	fail := s.failSave
	s.saves++
	s.mu.Unlock()
	if fail {
		return errors.Join(settings.ErrStoreUnavailable, errDiskGone)
	}
	return s.MemoryStore.Save(ctx, rec)
}

func (s *flakyStore) setFail(load, save bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLoad, s.failSave = load, save
}

func (s *flakyStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type guardFixture struct {
	guard *Guard
	store *flakyStore
	clock *fakeClock
	audit *bytes.Buffer
}

func newFixture(t *testing.T) *guardFixture {
	t.Helper()
	f := &guardFixture{
		store: newFlakyStore(),
		clock: newFakeClock(),
		audit: &bytes.Buffer{},
	}
	f.guard = NewGuard(f.store,
		WithClock(f.clock),
		WithHasher(NewHasher(SchemePBKDF2, testIterations)),
		WithAuditLogger(NewAuditLoggerWriter(f.audit)),
	)
	return f
}

func (f *guardFixture) record(t *testing.T) *settings.Record {
	t.Helper()
	rec, err := f.store.MemoryStore.Load(context.Background())
	require.NoError(t, err)
	return rec
}

// auditTypes returns the event types written so far, in order.
func (f *guardFixture) auditTypes(t *testing.T) []string {
	t.Helper()
	var types []string
	for _, line := range strings.Split(strings.TrimSpace(f.audit.String()), "\n") {
		if line == "" {
			continue
		}
		var ev AuditEvent
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		types = append(types, ev.EventType)
	}
	return types
}
