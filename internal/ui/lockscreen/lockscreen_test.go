// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lockscreen

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/whitespc/whitespc/internal/security"
	"github.com/whitespc/whitespc/internal/settings"
)

// =============================================================================
// FIXTURES
// =============================================================================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

type fixture struct {
	guard *security.Guard
	clock *fakeClock
}

func newFixture(t *testing.T, pin string) *fixture {
	t.Helper()
	f := &fixture{clock: &fakeClock{now: time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)}}
	f.guard = security.NewGuard(settings.NewMemoryStore(),
		security.WithClock(f.clock),
		security.WithHasher(security.NewHasher(security.SchemePBKDF2, security.MinPBKDF2Iterations)),
	)
	if pin != "" {
		require.NoError(t, f.guard.SetPin(context.Background(), pin))
	}
	return f
}

// start builds a model and feeds it the startup status.
func (f *fixture) start(t *testing.T, opts Options) Model {
	t.Helper()
	m := New(f.guard, opts)
	t.Cleanup(m.Close)
	m = feed(t, m, loadStatus(f.guard, opts.StartLocked)())
	if m.state == statePin {
		m = feed(t, m, checkLockout(f.guard)())
	}
	return m
}

func feed(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	ctrlL = tea.KeyMsg{Type: tea.KeyCtrlL}
	ctrlR = tea.KeyMsg{Type: tea.KeyCtrlR}
	ctrlP = tea.KeyMsg{Type: tea.KeyCtrlP}
	ctrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
)

// submit types s, presses Enter and feeds back the guard's reply.
func submit(t *testing.T, m Model, s string) Model {
	t.Helper()
	m = typeText(t, m, s)
	m, cmd := press(t, m, enter)
	if cmd == nil {
		return m
	}
	return feed(t, m, cmd())
}

// runAll executes cmd and any batch it expands to, feeding every result.
// Only use it where no tick or event wait can be in the batch.
func runAll(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = runAll(t, m, c)
		}
		return m
	}
	return feed(t, m, msg)
}

// =============================================================================
// STARTUP
// =============================================================================

func TestStartup_LocksWhenPinSet(t *testing.T) {
	f := newFixture(t, "2468")
	m := f.start(t, Options{})

	require.Equal(t, statePin, m.state)
	require.True(t, m.Locked())
	require.False(t, f.guard.IsUnlocked())
	require.True(t, m.input.Focused())
	require.Contains(t, m.View(), "Journal locked")
}

func TestStartup_OpenWithoutPin(t *testing.T) {
	f := newFixture(t, "")
	m := f.start(t, Options{})

	require.Equal(t, stateOpen, m.state)
	require.False(t, m.Locked())
	require.True(t, f.guard.IsUnlocked())
	require.Contains(t, m.View(), "Journal unlocked")
	require.Contains(t, m.View(), "No PIN set")
}

func TestStartup_StartLockedWithoutPin(t *testing.T) {
	f := newFixture(t, "")
	m := f.start(t, Options{StartLocked: true})
	require.Equal(t, statePin, m.state)

	// With no PIN, an empty submit opens the journal.
	m = submit(t, m, "")
	require.Equal(t, stateOpen, m.state)
	require.True(t, f.guard.IsUnlocked())
}

// =============================================================================
// PIN ENTRY AND LOCKOUT
// =============================================================================

func TestPinEntry_CorrectPinUnlocks(t *testing.T) {
	f := newFixture(t, "2468")
	m := f.start(t, Options{})

	m = submit(t, m, "2468")
	require.Equal(t, stateOpen, m.state)
	require.True(t, f.guard.IsUnlocked())
	require.Equal(t, "Welcome back.", m.notice)
}

func TestPinEntry_WrongPinShowsRemainingAttempts(t *testing.T) {
	f := newFixture(t, "2468")
	m := f.start(t, Options{})

	m = submit(t, m, "1111")
	require.Equal(t, statePin, m.state)
	require.Equal(t, 4, m.remainingAttempts)
	require.Equal(t, "Incorrect PIN. 4 attempts remaining.", m.errMsg)
	require.Empty(t, m.input.Value())

	m = submit(t, m, "")
	require.Equal(t, "Enter your PIN.", m.errMsg)
	require.Equal(t, 4, m.remainingAttempts)
}

func TestPinEntry_LockoutCountdownAndExpiry(t *testing.T) {
	f := newFixture(t, "2468")
	m := f.start(t, Options{})

	for i := 0; i < security.MaxFailedAttempts-1; i++ {
		m = submit(t, m, "0000")
	}
	require.Equal(t, "Incorrect PIN. 1 attempt remaining.", m.errMsg)

	m = typeText(t, m, "0000")
	m, cmd := press(t, m, enter)
	m = feed(t, m, cmd())
	require.Equal(t, statePin, m.state, "lockout is confirmed by a status check")

	m = feed(t, m, checkLockout(f.guard)())
	require.Equal(t, stateLockedOut, m.state)
	require.Equal(t, 30, m.lockoutSeconds)
	require.Contains(t, m.View(), "0:30")

	// Typing during lockout does nothing.
	m = typeText(t, m, "2468")
	require.Empty(t, m.input.Value())

	f.clock.Advance(12 * time.Second)
	next, cmd := m.Update(lockoutTickMsg{gen: m.lockoutGen})
	m = feed(t, next.(Model), cmd())
	require.Equal(t, stateLockedOut, m.state)
	require.Equal(t, 18, m.lockoutSeconds)

	f.clock.Advance(19 * time.Second)
	next, cmd = m.Update(lockoutTickMsg{gen: m.lockoutGen})
	m = feed(t, next.(Model), cmd())
	require.Equal(t, statePin, m.state)
	require.Equal(t, "You can try again.", m.notice)
	require.Equal(t, security.MaxFailedAttempts, m.remainingAttempts)

	m = submit(t, m, "2468")
	require.Equal(t, stateOpen, m.state)
}

func TestLockoutTick_StaleGenerationIgnored(t *testing.T) {
	f := newFixture(t, "2468")
	m := f.start(t, Options{})

	_, cmd := m.Update(lockoutTickMsg{gen: m.lockoutGen - 1})
	require.Nil(t, cmd)
}

// =============================================================================
// AUTO-LOCK AND ACTIVITY
// =============================================================================

func TestAutoLock_PollsAndLocksWhenIdle(t *testing.T) {
	f := newFixture(t, "2468")
	ctx := context.Background()
	require.NoError(t, f.guard.SetLockTimeout(ctx, settings.LockTimeoutOneMinute))

	m := f.start(t, Options{PollInterval: 10 * time.Millisecond})
	m = submit(t, m, "2468")
	require.Equal(t, stateOpen, m.state)

	next, cmd := m.Update(autoLockTickMsg{gen: m.autoGen})
	m = feed(t, next.(Model), cmd())
	require.Equal(t, stateOpen, m.state)

	f.clock.Advance(2 * time.Minute)
	next, cmd = m.Update(autoLockTickMsg{gen: m.autoGen})
	m = feed(t, next.(Model), cmd())
	require.Equal(t, statePin, m.state)
	require.Equal(t, "Locked after inactivity.", m.notice)
	require.False(t, f.guard.IsUnlocked())
}

func TestAutoLock_NeverAndAlwaysDoNotPollLock(t *testing.T) {
	for _, timeout := range []settings.LockTimeout{settings.LockTimeoutNever, settings.LockTimeoutAlways} {
		t.Run(timeout.String(), func(t *testing.T) {
			f := newFixture(t, "2468")
			require.NoError(t, f.guard.SetLockTimeout(context.Background(), timeout))

			m := f.start(t, Options{})
			m = submit(t, m, "2468")
			f.clock.Advance(24 * time.Hour)

			next, cmd := m.Update(autoLockTickMsg{gen: m.autoGen})
			m = feed(t, next.(Model), cmd())
			require.Equal(t, stateOpen, m.state)
			require.True(t, f.guard.IsUnlocked())
		})
	}
}

func TestAutoLock_StaleTickIgnoredAfterRelock(t *testing.T) {
	f := newFixture(t, "2468")
	m := f.start(t, Options{})
	m = submit(t, m, "2468")
	gen := m.autoGen

	m, _ = press(t, m, ctrlL)
	require.Equal(t, statePin, m.state)
	require.False(t, f.guard.IsUnlocked())

	_, cmd := m.Update(autoLockTickMsg{gen: gen})
	require.Nil(t, cmd)
}

func TestActivity_WritesAreRateLimited(t *testing.T) {
	f := newFixture(t, "")
	m := f.start(t, Options{ActivityInterval: time.Hour})
	require.NoError(t, f.guard.CompleteOnboarding(context.Background()))
	m.status.Onboarded = true

	f.clock.Advance(time.Minute)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.NotNil(t, cmd)
	m = runAll(t, m, cmd)

	st, err := f.guard.Status(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st.LastActivityAt)
	require.True(t, st.LastActivityAt.Equal(f.clock.Now()))

	_, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	require.Nil(t, cmd)
}

func TestConfigChanged_UpdatesIntervals(t *testing.T) {
	f := newFixture(t, "")
	m := f.start(t, Options{})
	require.Equal(t, DefaultPollInterval, m.pollInterval)

	m = feed(t, m, ConfigChangedMsg{PollInterval: 250 * time.Millisecond})
	require.Equal(t, 250*time.Millisecond, m.pollInterval)

	m = feed(t, m, ConfigChangedMsg{})
	require.Equal(t, 250*time.Millisecond, m.pollInterval)
}

// =============================================================================
// LOCK EVENTS
// =============================================================================

func TestLockEvent_ExternalLockCoversJournal(t *testing.T) {
	f := newFixture(t, "2468")
	m := f.start(t, Options{})
	m = submit(t, m, "2468")

	m = feed(t, m, lockEventMsg(security.LockEvent{Unlocked: false, Reason: security.ReasonAutoLock}))
	require.Equal(t, statePin, m.state)
	require.Equal(t, "Locked after inactivity.", m.notice)

	m = feed(t, m, lockEventMsg(security.LockEvent{Unlocked: true, Reason: security.ReasonManual}))
	require.Equal(t, stateOpen, m.state)
}

func TestLockEvent_DeliveredFromSubscription(t *testing.T) {
	f := newFixture(t, "")
	m := f.start(t, Options{})

	f.guard.Lock()
	msg := waitForEvent(m.events)()
	ev, ok := msg.(lockEventMsg)
	require.True(t, ok)
	require.False(t, ev.Unlocked)

	m = feed(t, m, msg)
	require.Equal(t, statePin, m.state)
}

// =============================================================================
// RECOVERY AND NEW PIN
// =============================================================================

func setQuestions(t *testing.T, g *security.Guard) {
	t.Helper()
	require.NoError(t, g.SetSecurityQuestions(context.Background(),
		[3]string{"First pet?", "Birth city?", "Favourite colour?"},
		[3]string{"Rex", "Paris", "Blue"},
	))
}

func TestRecovery_ResetsPin(t *testing.T) {
	f := newFixture(t, "2468")
	setQuestions(t, f.guard)
	m := f.start(t, Options{})

	m, cmd := press(t, m, ctrlR)
	require.NotNil(t, cmd)
	m = feed(t, m, cmd())
	require.Equal(t, stateRecovery, m.state)
	require.Contains(t, m.View(), "First pet?")
	require.Contains(t, m.View(), "Question 1 of 3")

	m = submit(t, m, "rex")
	require.Contains(t, m.View(), "Birth city?")
	m = submit(t, m, " PARIS ")
	m = submit(t, m, "blue")
	require.Equal(t, stateNewPin, m.state)
	require.True(t, m.resetting)

	m = submit(t, m, "1357")
	require.True(t, m.confirming)
	m = submit(t, m, "1357")
	require.Equal(t, stateOpen, m.state)
	require.Equal(t, "PIN reset.", m.notice)
	require.True(t, f.guard.IsUnlocked())

	res, err := f.guard.ValidatePin(context.Background(), "1357")
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestRecovery_WrongAnswersReturnToPin(t *testing.T) {
	f := newFixture(t, "2468")
	setQuestions(t, f.guard)
	m := f.start(t, Options{})

	m, cmd := press(t, m, ctrlR)
	m = feed(t, m, cmd())
	m = submit(t, m, "rex")
	m = submit(t, m, "london")
	m = submit(t, m, "blue")

	require.Equal(t, statePin, m.state)
	require.Equal(t, "Those answers did not match.", m.errMsg)
	require.False(t, f.guard.IsUnlocked())
}

func TestRecovery_WrongAnswersCanLockOut(t *testing.T) {
	f := newFixture(t, "2468")
	setQuestions(t, f.guard)
	m := f.start(t, Options{})

	for i := 0; i < security.MaxFailedAttempts-1; i++ {
		m = submit(t, m, "0000")
	}

	m, cmd := press(t, m, ctrlR)
	m = feed(t, m, cmd())
	m = submit(t, m, "rex")
	m = submit(t, m, "london")
	m = typeText(t, m, "blue")
	m, cmd = press(t, m, enter)
	m = feed(t, m, cmd())
	require.Equal(t, statePin, m.state)

	m = feed(t, m, checkLockout(f.guard)())
	require.Equal(t, stateLockedOut, m.state)
	require.NotContains(t, m.View(), "forgot PIN")

	m, cmd = press(t, m, ctrlR)
	require.Nil(t, cmd)
	require.Equal(t, stateLockedOut, m.state)
}

func TestRecovery_BackReturnsToPin(t *testing.T) {
	f := newFixture(t, "2468")
	setQuestions(t, f.guard)
	m := f.start(t, Options{})

	m, cmd := press(t, m, ctrlR)
	m = feed(t, m, cmd())
	m = submit(t, m, "rex")

	m, _ = press(t, m, esc)
	require.Equal(t, statePin, m.state)
	require.Equal(t, [3]string{}, m.answers)
}

func TestRecovery_UnavailableWithoutQuestions(t *testing.T) {
	f := newFixture(t, "2468")
	m := f.start(t, Options{})

	m, cmd := press(t, m, ctrlR)
	require.Nil(t, cmd)
	require.Equal(t, statePin, m.state)
	require.Equal(t, "No security questions are set up.", m.errMsg)
}

func TestNewPin_MismatchStartsOver(t *testing.T) {
	f := newFixture(t, "")
	m := f.start(t, Options{})

	m, _ = press(t, m, ctrlP)
	require.Equal(t, stateNewPin, m.state)
	require.False(t, m.resetting)

	m = submit(t, m, "1111")
	m = submit(t, m, "2222")
	require.False(t, m.confirming)
	require.Equal(t, "PINs did not match. Start again.", m.errMsg)

	m = submit(t, m, "")
	require.Equal(t, "PIN cannot be empty.", m.errMsg)

	m = submit(t, m, "3333")
	m = submit(t, m, "3333")
	require.Equal(t, stateOpen, m.state)
	require.True(t, m.status.HasPin)

	has, err := f.guard.HasPinSet(context.Background())
	require.NoError(t, err)
	require.True(t, has)
	require.True(t, f.guard.IsUnlocked(), "setting a PIN does not lock the running session")
}

func TestNewPin_BackReturnsToOpen(t *testing.T) {
	f := newFixture(t, "")
	m := f.start(t, Options{})

	m, _ = press(t, m, ctrlP)
	m, _ = press(t, m, esc)
	require.Equal(t, stateOpen, m.state)
}

// =============================================================================
// ONBOARDING, QUIT AND VIEW HELPERS
// =============================================================================

func TestOnboarding_EnterCompletesSetup(t *testing.T) {
	f := newFixture(t, "")
	m := f.start(t, Options{})
	require.Contains(t, m.View(), "Welcome!")

	m, cmd := press(t, m, enter)
	m = runAll(t, m, cmd)
	require.True(t, m.status.Onboarded)
	require.NotContains(t, m.View(), "Welcome!")

	done, err := f.guard.HasCompletedOnboarding(context.Background())
	require.NoError(t, err)
	require.True(t, done)
}

func TestQuit(t *testing.T) {
	f := newFixture(t, "2468")
	m := f.start(t, Options{})

	_, cmd := press(t, m, ctrlC)
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	require.True(t, ok)
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{30, "0:30"},
		{5, "0:05"},
		{90, "1:30"},
		{0, "0:00"},
		{-3, "0:00"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, formatCountdown(tc.seconds))
	}
}

func TestHelpLine(t *testing.T) {
	keys := DefaultKeyMap()
	line := helpLine(keys.Submit, keys.Recover)
	require.Equal(t, "Enter submit  C-r forgot PIN", line)
	require.False(t, strings.HasSuffix(line, " "))
}
