// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// storeFactories builds every Store implementation over a fresh location.
func storeFactories(t *testing.T) map[string]func(dir string) Store {
	t.Helper()
	return map[string]func(dir string) Store{
		"sqlite": func(dir string) Store {
			s, err := NewSQLiteStore(filepath.Join(dir, "whitespc.db"))
			require.NoError(t, err)
			return s
		},
		"file": func(dir string) Store {
			s, err := NewFileStore(filepath.Join(dir, "settings.json"))
			require.NoError(t, err)
			return s
		},
		"memory": func(string) Store {
			return NewMemoryStore()
		},
	}
}

func TestStore_LoadCreatesDefault(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t.TempDir())
			defer store.Close()

			rec, err := store.Load(context.Background())
			require.NoError(t, err)
			require.Equal(t, RecordID, rec.ID)
			require.Equal(t, LockTimeoutFiveMinutes, rec.LockTimeout)
			require.False(t, rec.HasPin())
			require.Equal(t, DefaultPreferences(), rec.Preferences)
		})
	}
}

func TestStore_SaveAndLoadAllFields(t *testing.T) {
	lockout := time.Date(2026, 3, 1, 10, 0, 30, 500, time.UTC)
	activity := time.Date(2026, 3, 1, 9, 55, 0, 0, time.UTC)
	accessed := time.Date(2026, 3, 1, 9, 50, 0, 0, time.UTC)

	want := &Record{
		ID:                     RecordID,
		PinHash:                "hash",
		IsLocked:               true,
		FailedAttempts:         3,
		LockoutEndTime:         &lockout,
		LockTimeout:            LockTimeoutNever,
		LastActivityAt:         &activity,
		LastAccessedAt:         &accessed,
		SecurityQuestions:      [3]string{"Pet?", "City?", "Color?"},
		SecurityAnswerHashes:   [3]string{"h1", "h2", "h3"},
		HasCompletedOnboarding: true,
		Preferences: Preferences{
			IsDarkMode:          true,
			AccentColor:         "cyan",
			Wallpaper:           "gradient1",
			ShowDailyMotivation: false,
		},
	}

	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t.TempDir())
			defer store.Close()

			require.NoError(t, store.Save(ctx, want))

			got, err := store.Load(ctx)
			require.NoError(t, err)

			require.Equal(t, want.PinHash, got.PinHash)
			require.Equal(t, want.IsLocked, got.IsLocked)
			require.Equal(t, want.FailedAttempts, got.FailedAttempts)
			require.True(t, want.LockoutEndTime.Equal(*got.LockoutEndTime))
			require.Equal(t, want.LockTimeout, got.LockTimeout)
			require.True(t, want.LastActivityAt.Equal(*got.LastActivityAt))
			require.True(t, want.LastAccessedAt.Equal(*got.LastAccessedAt))
			require.Equal(t, want.SecurityQuestions, got.SecurityQuestions)
			require.Equal(t, want.SecurityAnswerHashes, got.SecurityAnswerHashes)
			require.Equal(t, want.HasCompletedOnboarding, got.HasCompletedOnboarding)
			require.Equal(t, want.Preferences, got.Preferences)
		})
	}
}

func TestStore_ClearedFieldsStayCleared(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t.TempDir())
			defer store.Close()

			now := time.Now()
			rec, err := store.Load(ctx)
			require.NoError(t, err)
			rec.PinHash = "hash"
			rec.LockoutEndTime = &now
			rec.SecurityQuestions = [3]string{"a", "b", "c"}
			require.NoError(t, store.Save(ctx, rec))

			rec.PinHash = ""
			rec.LockoutEndTime = nil
			rec.ClearSecurityQuestions()
			require.NoError(t, store.Save(ctx, rec))

			got, err := store.Load(ctx)
			require.NoError(t, err)
			require.False(t, got.HasPin())
			require.Nil(t, got.LockoutEndTime)
			require.Equal(t, [3]string{}, got.SecurityQuestions)
		})
	}
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t.TempDir())
			defer store.Close()

			rec, err := store.Load(ctx)
			require.NoError(t, err)
			rec.FailedAttempts = 4

			again, err := store.Load(ctx)
			require.NoError(t, err)
			require.Equal(t, 0, again.FailedAttempts, "unsaved mutation leaked into the store")
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "whitespc.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	rec, err := store.Load(ctx)
	require.NoError(t, err)
	rec.PinHash = "persisted"
	require.NoError(t, store.Save(ctx, rec))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "persisted", got.PinHash)
}

func TestSQLiteStore_ClosedIsUnavailable(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "whitespc.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)

	err = store.Save(context.Background(), Default())
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestFileStore_CorruptFileIsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		rec, err := store.Load(ctx)
		require.NoError(t, err)
		rec.FailedAttempts = i
		require.NoError(t, store.Save(ctx, rec))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Load(ctx)
	require.True(t, errors.Is(err, ErrStoreUnavailable))
	require.True(t, errors.Is(err, context.Canceled))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(BackendFile, filepath.Join(dir, "s.json"))
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)

	s, err = Open(BackendMemory, "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	s, err = Open(BackendSQLite, filepath.Join(dir, "s.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("postgres", "")
	require.Error(t, err)
}
