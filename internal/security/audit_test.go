// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuditLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.log")
	l, err := NewAuditLogger(path)
	require.NoError(t, err)

	require.NoError(t, l.LogEvent("sess-1", EventPinSet, true, map[string]string{"scheme": "pbkdf2"}))
	require.NoError(t, l.LogEvent("sess-1", EventPinFailed, false, nil))
	require.NoError(t, l.Close())

	events, err := ReadAuditEvents(path, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, EventPinSet, events[0].EventType)
	require.Equal(t, "pbkdf2", events[0].Metadata["scheme"])
	require.Len(t, events[0].ID, 36)
	require.NotEqual(t, events[0].ID, events[1].ID)
	require.False(t, events[1].Success)
	require.False(t, events[1].Timestamp.IsZero())

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm() != 0600 && filepath.Separator == '/' {
		t.Errorf("audit log mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestAuditLogger_NilDiscards(t *testing.T) {
	var l *AuditLogger
	require.NoError(t, l.LogEvent("s", EventPinSet, true, nil))
	require.NoError(t, l.Close())
	require.Empty(t, l.Path())

	rotated, err := l.Rotate()
	require.NoError(t, err)
	require.Empty(t, rotated)
}

func TestAuditLogger_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	l, err := NewAuditLogger(path)
	require.NoError(t, err)
	defer l.Close()

	l.SetMaxSize(1)
	require.NoError(t, l.LogEvent("s", EventPinSet, true, nil))
	require.NoError(t, l.LogEvent("s", EventPinVerified, true, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	events, err := ReadAuditEvents(path, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, EventPinVerified, events[0].EventType)
}

func TestReadAuditEvents_LimitAndGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	var lines []string
	for _, typ := range []string{EventPinSet, EventPinFailed, EventPinVerified} {
		data, err := json.Marshal(AuditEvent{EventType: typ, Timestamp: time.Now()})
		require.NoError(t, err)
		lines = append(lines, string(data), "not json")
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0600))

	events, err := ReadAuditEvents(path, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, EventPinFailed, events[0].EventType)
	require.Equal(t, EventPinVerified, events[1].EventType)

	events, err = ReadAuditEvents(filepath.Join(t.TempDir(), "missing.log"), 0)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestAuditEvent_ToLogLine(t *testing.T) {
	ev := AuditEvent{
		Timestamp: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		EventType: EventPinFailed,
		Metadata:  map[string]string{"remaining_attempts": "3", "failed_attempts": "2"},
	}
	require.Equal(t, "2026-02-03 04:05:06 | PIN_FAILED | FAILURE | failed_attempts=2 remaining_attempts=3", ev.ToLogLine())
}

func TestAuditLogger_RotateOnDemand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	l, err := NewAuditLogger(path)
	require.NoError(t, err)
	defer l.Close()
	l.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, l.LogEvent("s", EventPinSet, true, nil))
	first, err := l.Rotate()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "audit_20260301_120000.log"), first)

	require.NoError(t, l.LogEvent("s", EventPinVerified, true, nil))
	second, err := l.Rotate()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "audit_20260301_120000_1.log"), second)

	old, err := ReadAuditEvents(first, 0)
	require.NoError(t, err)
	require.Len(t, old, 1)
	require.Equal(t, EventPinSet, old[0].EventType)

	current, err := ReadAuditEvents(path, 0)
	require.NoError(t, err)
	require.Empty(t, current)

	require.NoError(t, l.LogEvent("s", EventPinFailed, false, nil))
	current, err = ReadAuditEvents(path, 0)
	require.NoError(t, err)
	require.Len(t, current, 1)
}

func TestAuditLogger_MaxSizeZeroDisablesRotation(t *testing.T) {
	dir := t.TempDir()
	l, err := NewAuditLogger(filepath.Join(dir, "audit.log"))
	require.NoError(t, err)
	defer l.Close()

	l.SetMaxSize(0)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.LogEvent("s", EventPinVerified, true, nil))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
