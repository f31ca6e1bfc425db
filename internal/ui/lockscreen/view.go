// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lockscreen

import (
	"fmt"
	"strings"

	"github.com/whitespc/whitespc/internal/security"
	"github.com/whitespc/whitespc/internal/ui/styles"
	"github.com/whitespc/whitespc/internal/util"
)

// View renders the lock screen.
func (m Model) View() string {
	var body string
	box := m.theme.Box

	switch m.state {
	case stateLoading:
		body = m.viewLoading()
	case stateOpen:
		body = m.viewOpen()
	case statePin:
		body = m.viewPin()
	case stateLockedOut:
		body = m.viewLockedOut()
		box = m.theme.LockedBox
	case stateRecovery:
		body = m.viewRecovery()
	case stateNewPin:
		body = m.viewNewPin()
	}

	return m.theme.Center(box.Width(m.theme.BoxWidth()).Render(body))
}

// =============================================================================
// RENDER METHODS
// =============================================================================

func (m Model) viewLoading() string {
	parts := []string{m.theme.Title.Render("whitespc"), m.theme.Muted.Render("Opening journal...")}
	return m.withMessages(parts)
}

func (m Model) viewOpen() string {
	parts := []string{
		m.theme.Title.Render("whitespc"),
		m.theme.SuccessText.Render("Journal unlocked"),
	}
	if !m.status.Onboarded {
		parts = append(parts, "", m.theme.Value.Render("Welcome! Press Enter to finish setup."))
	}
	if !m.status.HasPin {
		parts = append(parts, "", m.theme.Hint.Render("No PIN set. Anyone at this terminal can read your journal."))
	}
	parts = m.appendMessages(parts)
	parts = append(parts, "", m.theme.Muted.Render(helpLine(m.keys.Lock, m.keys.SetPin, m.keys.Quit)))
	return strings.Join(parts, "\n")
}

func (m Model) viewPin() string {
	parts := []string{m.theme.Title.Render(styles.StatusIndicators.Locked + " Journal locked")}
	if m.status.HasPin {
		parts = append(parts, m.theme.Subtitle.Render("Enter your PIN"))
	} else {
		parts = append(parts, m.theme.Subtitle.Render("No PIN set. Press Enter to open."))
	}
	parts = append(parts, "", m.input.View())

	if m.busy {
		parts = append(parts, m.theme.Muted.Render("Checking..."))
	} else if m.status.HasPin && m.remainingAttempts < security.MaxFailedAttempts && m.errMsg == "" {
		parts = append(parts, m.theme.WarningText.Render(plural(m.remainingAttempts, "attempt")+" remaining"))
	}
	parts = m.appendMessages(parts)

	help := helpLine(m.keys.Submit, m.keys.Quit)
	if m.status.HasRecovery {
		help = helpLine(m.keys.Submit, m.keys.Recover, m.keys.Quit)
	}
	parts = append(parts, "", m.theme.Muted.Render(help))
	return strings.Join(parts, "\n")
}

func (m Model) viewLockedOut() string {
	parts := []string{
		m.theme.ErrorText.Render(styles.StatusIndicators.Error + " Too many incorrect attempts"),
		"",
		m.theme.Subtitle.Render("Try again in ") + m.theme.Countdown.Render(formatCountdown(m.lockoutSeconds)),
	}
	parts = m.appendMessages(parts)

	parts = append(parts, "", m.theme.Muted.Render(helpLine(m.keys.Quit)))
	return strings.Join(parts, "\n")
}

func (m Model) viewRecovery() string {
	idx := m.answerIdx
	if idx >= len(m.questions) {
		idx = len(m.questions) - 1
	}
	question := util.TruncateWidth(m.questions[idx], m.theme.BoxWidth()-4)

	parts := []string{
		m.theme.Title.Render("Recover access"),
		m.theme.Subtitle.Render(fmt.Sprintf("Question %d of %d", idx+1, len(m.questions))),
		"",
		m.theme.Value.Render(question),
		m.input.View(),
	}
	if m.busy {
		parts = append(parts, m.theme.Muted.Render("Checking answers..."))
	}
	parts = m.appendMessages(parts)
	parts = append(parts, "", m.theme.Muted.Render(helpLine(m.keys.Submit, m.keys.Back, m.keys.Quit)))
	return strings.Join(parts, "\n")
}

func (m Model) viewNewPin() string {
	title := "Choose a PIN"
	if m.resetting {
		title = "Choose a new PIN"
	}
	prompt := "Enter the new PIN"
	if m.confirming {
		prompt = "Enter it again to confirm"
	}

	parts := []string{
		m.theme.Title.Render(title),
		m.theme.Subtitle.Render(prompt),
		"",
		m.input.View(),
	}
	if m.busy {
		parts = append(parts, m.theme.Muted.Render("Saving..."))
	}
	parts = m.appendMessages(parts)
	parts = append(parts, "", m.theme.Muted.Render(helpLine(m.keys.Submit, m.keys.Back, m.keys.Quit)))
	return strings.Join(parts, "\n")
}

func (m Model) appendMessages(parts []string) []string {
	if m.notice != "" {
		parts = append(parts, m.theme.SuccessText.Render(m.notice))
	}
	if m.errMsg != "" {
		parts = append(parts, m.theme.ErrorText.Render(m.errMsg))
	}
	return parts
}

func (m Model) withMessages(parts []string) string {
	return strings.Join(m.appendMessages(parts), "\n")
}

// formatCountdown renders whole seconds as M:SS.
func formatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
