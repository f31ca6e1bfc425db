// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxFileSize is the default max file size before rotation (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Audit event types.
const (
	EventPinSet           = "PIN_SET"
	EventPinRemoved       = "PIN_REMOVED"
	EventPinVerified      = "PIN_VERIFIED"
	EventPinFailed        = "PIN_FAILED"
	EventPinBlocked       = "PIN_BLOCKED"
	EventLockoutTriggered = "LOCKOUT_TRIGGERED"
	EventLockoutExpired   = "LOCKOUT_EXPIRED"
	EventPinUpgraded      = "PIN_UPGRADED"
	EventRecoverySet      = "RECOVERY_SET"
	EventRecoveryVerified = "RECOVERY_VERIFIED"
	EventRecoveryFailed   = "RECOVERY_FAILED"
	EventPinReset         = "PIN_RESET"
	EventSessionLocked    = "SESSION_LOCKED"
	EventSessionUnlocked  = "SESSION_UNLOCKED"
	EventAutoLock         = "AUTO_LOCK"
	EventLockTimeoutSet   = "LOCK_TIMEOUT_SET"
)

// =============================================================================
// AUDIT EVENT
// =============================================================================

// AuditEvent represents a single audit log entry. Secrets never appear in
// an event; metadata carries counts, reasons and settings only.
type AuditEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	SessionID string            `json:"session_id"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ToLogLine formats the event for human display.
func (e *AuditEvent) ToLogLine() string {
	status := "SUCCESS"
	if !e.Success {
		status = "FAILURE"
		if e.Error != "" {
			status = "ERROR: " + e.Error
		}
	}

	var meta []string
	for _, k := range sortedKeys(e.Metadata) {
		meta = append(meta, k+"="+e.Metadata[k])
	}

	return fmt.Sprintf("%s | %s | %s | %s",
		e.Timestamp.Format("2006-01-02 15:04:05"),
		e.EventType,
		status,
		strings.Join(meta, " "),
	)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

// AuditLogger appends audit events as JSON lines. It is safe for
// concurrent use. A nil *AuditLogger discards events.
type AuditLogger struct {
	path    string
	file    *os.File
	w       io.Writer
	mu      sync.Mutex
	maxSize int64
	now     func() time.Time
}

// NewAuditLogger opens (or creates) the audit log at path.
func NewAuditLogger(path string) (*AuditLogger, error) {
	if path == "" {
		path = DefaultAuditPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &AuditLogger{
		path:    path,
		file:    file,
		w:       file,
		maxSize: DefaultMaxFileSize,
		now:     time.Now,
	}, nil
}

// NewAuditLoggerWriter logs to w without rotation.
func NewAuditLoggerWriter(w io.Writer) *AuditLogger {
	return &AuditLogger{
		w:   w,
		now: time.Now,
	}
}

// Log writes one event. ID and Timestamp are filled in when empty.
func (l *AuditLogger) Log(event AuditEvent) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}

	if err := l.checkRotationLocked(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.w.Write(data); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	if l.file != nil {
		if err := l.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync audit log: %w", err)
		}
	}
	return nil
}

// LogEvent logs an event of the given type.
func (l *AuditLogger) LogEvent(sessionID, eventType string, success bool, metadata map[string]string) error {
	return l.Log(AuditEvent{
		EventType: eventType,
		SessionID: sessionID,
		Success:   success,
		Metadata:  metadata,
	})
}

// =============================================================================
// FILE ROTATION
// =============================================================================

// Rotate moves the current file aside with a timestamp suffix and reopens.
// It returns the path of the rotated file, or "" when there was no file.
func (l *AuditLogger) Rotate() (string, error) {
	if l == nil {
		return "", nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return "", nil
	}
	return l.rotateLocked()
}

func (l *AuditLogger) rotateLocked() (string, error) {
	if l.file == nil {
		return "", nil
	}

	if err := l.file.Close(); err != nil {
		return "", fmt.Errorf("failed to close audit log for rotation: %w", err)
	}

	ext := filepath.Ext(l.path)
	base := strings.TrimSuffix(l.path, ext)
	stamp := l.now().Format("20060102_150405")
	rotatedPath := fmt.Sprintf("%s_%s%s", base, stamp, ext)
	for i := 1; fileExists(rotatedPath); i++ {
		rotatedPath = fmt.Sprintf("%s_%s_%d%s", base, stamp, i, ext)
	}

	if err := os.Rename(l.path, rotatedPath); err != nil {
		l.file, _ = os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		l.w = l.file
		return "", fmt.Errorf("failed to rotate audit log: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		l.file, l.w = nil, nil
		return "", fmt.Errorf("failed to create new audit log after rotation: %w", err)
	}
	l.file = file
	l.w = file
	return rotatedPath, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (l *AuditLogger) checkRotationLocked() error {
	if l.file == nil || l.maxSize <= 0 {
		return nil
	}

	info, err := l.file.Stat()
	if err != nil {
		return nil // Ignore stat errors
	}
	if info.Size() >= l.maxSize {
		_, err := l.rotateLocked()
		return err
	}
	return nil
}

// SetMaxSize sets the maximum file size before rotation. 0 disables rotation.
func (l *AuditLogger) SetMaxSize(size int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxSize = size
}

// Path returns the audit log file path, empty for writer-backed loggers.
func (l *AuditLogger) Path() string {
	if l == nil {
		return ""
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Close closes the log file.
func (l *AuditLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.w = nil
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// =============================================================================
// READING
// =============================================================================

// ReadAuditEvents returns the last limit events from the log at path, oldest
// first. limit <= 0 returns every event. Lines that do not decode are skipped.
func ReadAuditEvents(path string, limit int) ([]AuditEvent, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
		if limit > 0 && len(events) > limit {
			events = events[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return events, nil
}

// DefaultAuditPath returns ~/.whitespc/audit.log.
func DefaultAuditPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".whitespc", "audit.log")
}
