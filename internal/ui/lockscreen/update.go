// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lockscreen

import (
	"errors"
	"fmt"
	"log"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/whitespc/whitespc/internal/security"
)

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.theme.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case statusMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.status = msg.status
		m.remainingAttempts = msg.status.RemainingAttempts
		if msg.status.Unlocked {
			cmd := m.enterOpen("")
			return m, cmd
		}
		cmd := m.enterLocked("")
		return m, cmd

	case pinResultMsg:
		m.busy = false
		if msg.err != nil {
			if errors.Is(msg.err, security.ErrInvalidInput) {
				m.errMsg = "Enter your PIN."
			} else {
				m.errMsg = msg.err.Error()
			}
			return m, nil
		}
		switch {
		case msg.result.Success:
			m.remainingAttempts = security.MaxFailedAttempts
			cmd := m.enterOpen("Welcome back.")
			return m, cmd
		case msg.result.LockedOut:
			m.errMsg = ""
			return m, checkLockout(m.guard)
		default:
			m.remainingAttempts = msg.result.RemainingAttempts
			m.errMsg = fmt.Sprintf("Incorrect PIN. %s remaining.", plural(msg.result.RemainingAttempts, "attempt"))
			return m, nil
		}

	case lockoutMsg:
		if m.state != statePin && m.state != stateLockedOut {
			return m, nil
		}
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		if msg.status.LockedOut {
			m.state = stateLockedOut
			m.lockoutSeconds = msg.status.RemainingSeconds
			m.input.Blur()
			m.lockoutGen++
			return m, lockoutTick(m.lockoutGen)
		}
		if m.state == stateLockedOut {
			m.remainingAttempts = security.MaxFailedAttempts
			m.notice = "You can try again."
			m.errMsg = ""
			m.state = statePin
			cmd := m.focusInput(textinput.EchoPassword)
			return m, cmd
		}
		return m, nil

	case lockoutTickMsg:
		if msg.gen != m.lockoutGen || m.state != stateLockedOut {
			return m, nil
		}
		return m, checkLockout(m.guard)

	case autoLockTickMsg:
		if msg.gen != m.autoGen || m.state != stateOpen {
			return m, nil
		}
		return m, autoLock(m.guard, msg.gen)

	case autoLockMsg:
		if msg.gen != m.autoGen || m.state != stateOpen {
			return m, nil
		}
		if msg.err != nil {
			log.Printf("lockscreen: auto-lock check failed: %v", msg.err)
		}
		if msg.locked {
			cmd := m.enterLocked("Locked after inactivity.")
			return m, cmd
		}
		return m, autoLockTick(m.autoGen, m.pollInterval)

	case lockEventMsg:
		next := waitForEvent(m.events)
		if msg.Unlocked {
			cmd := m.enterOpen("")
			return m, tea.Batch(next, cmd)
		}
		if m.state == stateOpen {
			notice := "Locked."
			if msg.Reason == security.ReasonAutoLock {
				notice = "Locked after inactivity."
			}
			cmd := m.enterLocked(notice)
			return m, tea.Batch(next, cmd)
		}
		return m, next

	case eventsClosedMsg:
		return m, nil

	case questionsMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.questions = msg.questions
		m.answers = [3]string{}
		m.answerIdx = 0
		m.notice = ""
		m.state = stateRecovery
		cmd := m.focusInput(textinput.EchoNormal)
		return m, cmd

	case recoveryMsg:
		m.busy = false
		if msg.err != nil {
			m.answers = [3]string{}
			m.answerIdx = 0
			if errors.Is(msg.err, security.ErrInvalidInput) {
				m.errMsg = "Answers cannot be empty."
			} else {
				m.errMsg = msg.err.Error()
			}
			cmd := m.focusInput(textinput.EchoNormal)
			return m, cmd
		}
		if !msg.ok {
			cmd := m.enterLocked("")
			m.errMsg = "Those answers did not match."
			return m, cmd
		}
		cmd := m.beginNewPin(true)
		return m, cmd

	case pinSavedMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.firstPin = ""
			m.confirming = false
			cmd := m.focusInput(textinput.EchoPassword)
			return m, cmd
		}
		m.status.HasPin = true
		m.remainingAttempts = security.MaxFailedAttempts
		if msg.reset {
			// The unlock event may already have opened the journal.
			cmd := m.enterOpen("PIN reset.")
			m.notice = "PIN reset."
			return m, cmd
		}
		m.state = stateOpen
		m.clearRecovery()
		m.input.Blur()
		m.notice = "PIN saved. The journal locks on the next start."
		return m, nil

	case activityMsg:
		if msg.err != nil {
			log.Printf("lockscreen: activity update failed: %v", msg.err)
		}
		return m, nil

	case onboardedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.status.Onboarded = true
		m.notice = "Setup complete."
		return m, nil

	case ConfigChangedMsg:
		if msg.PollInterval > 0 {
			m.pollInterval = msg.PollInterval
		}
		if msg.ActivityInterval > 0 {
			m.activity.SetLimit(rate.Every(msg.ActivityInterval))
		}
		return m, nil
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateOpen:
		return m.handleOpenKey(msg)

	case statePin:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Recover):
			cmd := m.beginRecovery()
			return m, cmd
		case key.Matches(msg, m.keys.Submit):
			pin := m.input.Value()
			m.input.Reset()
			m.busy = true
			m.notice = ""
			return m, validatePin(m.guard, pin)
		}

	case stateLockedOut:
		// Answers count against the same lockout, so recovery waits too.
		return m, nil

	case stateRecovery:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Back):
			cmd := m.enterLocked("")
			return m, cmd
		case key.Matches(msg, m.keys.Submit):
			m.answers[m.answerIdx] = m.input.Value()
			m.input.Reset()
			m.errMsg = ""
			m.answerIdx++
			if m.answerIdx < len(m.answers) {
				return m, nil
			}
			m.busy = true
			return m, checkAnswers(m.guard, m.answers)
		}

	case stateNewPin:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Back):
			if m.resetting {
				cmd := m.enterLocked("")
				return m, cmd
			}
			m.state = stateOpen
			m.clearRecovery()
			m.input.Blur()
			m.errMsg = ""
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			return m.submitNewPin()
		}

	default:
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleOpenKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.activity.Allow() {
		cmds = append(cmds, recordActivity(m.guard))
	}

	switch {
	case key.Matches(msg, m.keys.Lock):
		m.guard.Lock()
		cmds = append(cmds, m.enterLocked("Locked."))
	case key.Matches(msg, m.keys.SetPin):
		cmds = append(cmds, m.beginNewPin(false))
	case key.Matches(msg, m.keys.Submit) && !m.status.Onboarded:
		cmds = append(cmds, completeOnboarding(m.guard))
	}
	if len(cmds) == 0 {
		return m, nil
	}
	return m, tea.Batch(cmds...)
}

func (m Model) submitNewPin() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	m.input.Reset()

	if value == "" {
		m.errMsg = "PIN cannot be empty."
		return m, nil
	}
	if !m.confirming {
		m.firstPin = value
		m.confirming = true
		m.errMsg = ""
		return m, nil
	}
	if value != m.firstPin {
		m.firstPin = ""
		m.confirming = false
		m.errMsg = "PINs did not match. Start again."
		return m, nil
	}

	m.busy = true
	m.errMsg = ""
	return m, savePin(m.guard, value, m.resetting)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
