// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lockscreen

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/whitespc/whitespc/internal/security"
)

// =============================================================================
// MESSAGES
// =============================================================================

// statusMsg carries the guard snapshot loaded at startup.
type statusMsg struct {
	status security.Status
	err    error
}

type pinResultMsg struct {
	result security.ValidationResult
	err    error
}

type lockoutMsg struct {
	status security.LockoutStatus
	err    error
}

// lockoutTickMsg and autoLockTickMsg carry the generation that scheduled
// them; ticks from an older generation are dropped.
type lockoutTickMsg struct{ gen int }
type autoLockTickMsg struct{ gen int }

type autoLockMsg struct {
	gen    int
	locked bool
	err    error
}

type lockEventMsg security.LockEvent

// eventsClosedMsg is sent once the subscription channel is closed.
type eventsClosedMsg struct{}

type questionsMsg struct {
	questions [3]string
	err       error
}

type recoveryMsg struct {
	ok  bool
	err error
}

// pinSavedMsg reports the outcome of SetPin or ResetPinWithRecovery.
type pinSavedMsg struct {
	reset bool
	err   error
}

type activityMsg struct{ err error }

type onboardedMsg struct{ err error }

// ConfigChangedMsg tells a running lock screen about new UI intervals.
// Zero values keep the current setting.
type ConfigChangedMsg struct {
	PollInterval     time.Duration
	ActivityInterval time.Duration
}

// =============================================================================
// COMMANDS
// =============================================================================

func loadStatus(g Guard, startLocked bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		st, err := g.Status(ctx)
		if err != nil {
			return statusMsg{err: err}
		}
		if st.Unlocked && (st.HasPin || startLocked) {
			g.Lock()
			st.Unlocked = false
		}
		return statusMsg{status: st}
	}
}

func validatePin(g Guard, pin string) tea.Cmd {
	return func() tea.Msg {
		res, err := g.ValidatePin(context.Background(), pin)
		return pinResultMsg{result: res, err: err}
	}
}

func checkLockout(g Guard) tea.Cmd {
	return func() tea.Msg {
		st, err := g.CheckLockoutStatus(context.Background())
		return lockoutMsg{status: st, err: err}
	}
}

func lockoutTick(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return lockoutTickMsg{gen: gen}
	})
}

func autoLockTick(gen int, every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return autoLockTickMsg{gen: gen}
	})
}

// autoLock only consults the guard for positive minute timeouts. Always is
// handled by locking at startup and Never never locks.
func autoLock(g Guard, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		timeout, err := g.LockTimeout(ctx)
		if err != nil {
			return autoLockMsg{gen: gen, err: err}
		}
		if timeout.Minutes() <= 0 {
			return autoLockMsg{gen: gen}
		}
		locked, err := g.AutoLockIfIdle(ctx)
		return autoLockMsg{gen: gen, locked: locked, err: err}
	}
}

func waitForEvent(events <-chan security.LockEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return lockEventMsg(ev)
	}
}

func loadQuestions(g Guard) tea.Cmd {
	return func() tea.Msg {
		q, err := g.SecurityQuestions(context.Background())
		return questionsMsg{questions: q, err: err}
	}
}

func checkAnswers(g Guard, answers [3]string) tea.Cmd {
	return func() tea.Msg {
		ok, err := g.ValidateSecurityAnswers(context.Background(), answers)
		return recoveryMsg{ok: ok, err: err}
	}
}

func savePin(g Guard, pin string, reset bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if reset {
			return pinSavedMsg{reset: true, err: g.ResetPinWithRecovery(ctx, pin)}
		}
		return pinSavedMsg{err: g.SetPin(ctx, pin)}
	}
}

func recordActivity(g Guard) tea.Cmd {
	return func() tea.Msg {
		return activityMsg{err: g.UpdateActivity(context.Background())}
	}
}

func completeOnboarding(g Guard) tea.Cmd {
	return func() tea.Msg {
		return onboardedMsg{err: g.CompleteOnboarding(context.Background())}
	}
}
