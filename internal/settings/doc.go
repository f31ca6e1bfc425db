// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings provides the single persisted settings record for whitespc.
//
// The record holds the PIN hash, failed-attempt lockout state, recovery
// questions, the auto-lock timeout and a handful of display preferences.
// Exactly one record exists; every Store creates it with defaults on the
// first Load.
//
// # Key Types
//
//   - Record: The settings record (fixed ID 1)
//   - LockTimeout: Inactivity threshold before auto-lock
//   - Store: Load/Save contract implemented by SQLiteStore, FileStore and MemoryStore
//
// # Usage
//
//	store, err := settings.NewSQLiteStore(filepath.Join(dir, "whitespc.db"))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec, err := store.Load(ctx)
//	rec.LockTimeout = settings.LockTimeoutFifteenMinutes
//	err = store.Save(ctx, rec)
//
// # Errors
//
// Every read or write failure wraps ErrStoreUnavailable so callers can
// tell "the store is broken" apart from ordinary outcomes.
package settings
