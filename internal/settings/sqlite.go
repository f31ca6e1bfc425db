// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// currentSchemaVersion is bumped together with a new migrateToVn step.
const currentSchemaVersion = 1

// timeLayout is the on-disk format for timestamps.
const timeLayout = time.RFC3339Nano

const schemaV1 = `
CREATE TABLE IF NOT EXISTS user_settings (
	id                       INTEGER PRIMARY KEY CHECK (id = 1),
	pin_hash                 TEXT,
	is_locked                INTEGER NOT NULL DEFAULT 0,
	failed_pin_attempts      INTEGER NOT NULL DEFAULT 0,
	lockout_end_time         TEXT,
	lock_timeout             INTEGER NOT NULL DEFAULT 5,
	last_activity_at         TEXT,
	last_accessed_at         TEXT,
	security_question_1      TEXT,
	security_answer_1_hash   TEXT,
	security_question_2      TEXT,
	security_answer_2_hash   TEXT,
	security_question_3      TEXT,
	security_answer_3_hash   TEXT,
	has_completed_onboarding INTEGER NOT NULL DEFAULT 0,
	is_dark_mode             INTEGER NOT NULL DEFAULT 0,
	accent_color             TEXT NOT NULL DEFAULT 'violet',
	wallpaper                TEXT NOT NULL DEFAULT 'none',
	show_daily_motivation    INTEGER NOT NULL DEFAULT 1,
	updated_at               TEXT NOT NULL
);`

const selectRecord = `
SELECT pin_hash, is_locked, failed_pin_attempts, lockout_end_time, lock_timeout,
       last_activity_at, last_accessed_at,
       security_question_1, security_answer_1_hash,
       security_question_2, security_answer_2_hash,
       security_question_3, security_answer_3_hash,
       has_completed_onboarding, is_dark_mode, accent_color, wallpaper, show_daily_motivation
FROM user_settings WHERE id = ?`

const upsertRecord = `
INSERT INTO user_settings (
	id, pin_hash, is_locked, failed_pin_attempts, lockout_end_time, lock_timeout,
	last_activity_at, last_accessed_at,
	security_question_1, security_answer_1_hash,
	security_question_2, security_answer_2_hash,
	security_question_3, security_answer_3_hash,
	has_completed_onboarding, is_dark_mode, accent_color, wallpaper, show_daily_motivation,
	updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	pin_hash = excluded.pin_hash,
	is_locked = excluded.is_locked,
	failed_pin_attempts = excluded.failed_pin_attempts,
	lockout_end_time = excluded.lockout_end_time,
	lock_timeout = excluded.lock_timeout,
	last_activity_at = excluded.last_activity_at,
	last_accessed_at = excluded.last_accessed_at,
	security_question_1 = excluded.security_question_1,
	security_answer_1_hash = excluded.security_answer_1_hash,
	security_question_2 = excluded.security_question_2,
	security_answer_2_hash = excluded.security_answer_2_hash,
	security_question_3 = excluded.security_question_3,
	security_answer_3_hash = excluded.security_answer_3_hash,
	has_completed_onboarding = excluded.has_completed_onboarding,
	is_dark_mode = excluded.is_dark_mode,
	accent_color = excluded.accent_color,
	wallpaper = excluded.wallpaper,
	show_daily_motivation = excluded.show_daily_motivation,
	updated_at = excluded.updated_at`

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore persists the record in a single-row SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore opens or creates the database at path and applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, unavailable("open", errors.New("empty database path"))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, unavailable("open", fmt.Errorf("failed to create database directory: %w", err))
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("open", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, unavailable("open", fmt.Errorf("failed to set pragma: %w", err))
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, unavailable("open", fmt.Errorf("failed to initialize schema: %w", err))
	}

	return s, nil
}

// initSchema creates the tables and records the schema version.
func (s *SQLiteStore) initSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("check schema version: %w", err)
	}

	if version < 1 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			currentSchemaVersion, time.Now().UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load reads the record, inserting the default row on first use.
func (s *SQLiteStore) Load(ctx context.Context) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		rec = Default()
		if err := s.write(ctx, rec); err != nil {
			return nil, unavailable("create default", err)
		}
		return rec, nil
	}
	if err != nil {
		return nil, unavailable("load", err)
	}
	return rec, nil
}

// Save upserts the record inside a transaction.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return unavailable("save", errors.New("nil record"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(ctx, rec); err != nil {
		return unavailable("save", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) scan(ctx context.Context) (*Record, error) {
	if s.db == nil {
		return nil, errors.New("store closed")
	}

	var (
		pinHash, lockoutEnd, lastActivity, lastAccessed sql.NullString
		q1, a1, q2, a2, q3, a3                          sql.NullString
		rec                                             = Record{ID: RecordID}
		timeout                                         int
	)

	err := s.db.QueryRowContext(ctx, selectRecord, RecordID).Scan(
		&pinHash, &rec.IsLocked, &rec.FailedAttempts, &lockoutEnd, &timeout,
		&lastActivity, &lastAccessed,
		&q1, &a1, &q2, &a2, &q3, &a3,
		&rec.HasCompletedOnboarding,
		&rec.Preferences.IsDarkMode,
		&rec.Preferences.AccentColor,
		&rec.Preferences.Wallpaper,
		&rec.Preferences.ShowDailyMotivation,
	)
	if err != nil {
		return nil, err
	}

	rec.PinHash = pinHash.String
	rec.LockTimeout = LockTimeout(timeout)
	rec.SecurityQuestions = [3]string{q1.String, q2.String, q3.String}
	rec.SecurityAnswerHashes = [3]string{a1.String, a2.String, a3.String}

	if rec.LockoutEndTime, err = parseNullTime(lockoutEnd); err != nil {
		return nil, fmt.Errorf("lockout_end_time: %w", err)
	}
	if rec.LastActivityAt, err = parseNullTime(lastActivity); err != nil {
		return nil, fmt.Errorf("last_activity_at: %w", err)
	}
	if rec.LastAccessedAt, err = parseNullTime(lastAccessed); err != nil {
		return nil, fmt.Errorf("last_accessed_at: %w", err)
	}

	return &rec, nil
}

func (s *SQLiteStore) write(ctx context.Context, rec *Record) error {
	if s.db == nil {
		return errors.New("store closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, upsertRecord,
		RecordID,
		nullString(rec.PinHash),
		rec.IsLocked,
		rec.FailedAttempts,
		formatNullTime(rec.LockoutEndTime),
		int(rec.LockTimeout),
		formatNullTime(rec.LastActivityAt),
		formatNullTime(rec.LastAccessedAt),
		nullString(rec.SecurityQuestions[0]), nullString(rec.SecurityAnswerHashes[0]),
		nullString(rec.SecurityQuestions[1]), nullString(rec.SecurityAnswerHashes[1]),
		nullString(rec.SecurityQuestions[2]), nullString(rec.SecurityAnswerHashes[2]),
		rec.HasCompletedOnboarding,
		rec.Preferences.IsDarkMode,
		rec.Preferences.AccentColor,
		rec.Preferences.Wallpaper,
		rec.Preferences.ShowDailyMotivation,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	return tx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
