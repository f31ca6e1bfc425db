// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status_cmd.go - The "status" command.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/whitespc/whitespc/internal/security"
)

func (a *App) handleStatus(ctx context.Context, args Args) error {
	st, err := a.Guard.Status(ctx)
	if err != nil {
		return err
	}
	return a.emit(args, "status", st, func() { a.printStatus(st) })
}

func (a *App) printStatus(st security.Status) {
	w := a.Out
	fmt.Fprintln(w, TitleStyle.Render("whitespc status"))

	pin := "not set"
	if st.HasPin {
		pin = "set"
	}
	fmt.Fprintln(w, RenderField("PIN", pin))

	switch {
	case st.LockedOut:
		fmt.Fprintln(w, LabelStyle.Render("Lockout")+ErrorStyle.Render(fmt.Sprintf("active, %ds left", st.RemainingSeconds)))
	case st.FailedAttempts > 0:
		fmt.Fprintln(w, LabelStyle.Render("Failed attempts")+WarningStyle.Render(
			fmt.Sprintf("%d of %d", st.FailedAttempts, security.MaxFailedAttempts)))
	default:
		fmt.Fprintln(w, RenderField("Lockout", "none"))
	}

	recovery := "not set up"
	if st.HasRecovery {
		recovery = "3 questions"
	}
	fmt.Fprintln(w, RenderField("Recovery", recovery))
	fmt.Fprintln(w, RenderField("Auto-lock", st.LockTimeout.Label()))

	idle := "no"
	if st.ShouldAutoLock {
		idle = "yes"
	}
	fmt.Fprintln(w, RenderField("Idle lock due", idle))
	fmt.Fprintln(w, RenderField("Last activity", formatTime(st.LastActivityAt)))
	fmt.Fprintln(w, RenderField("Last unlock", formatTime(st.LastAccessedAt)))

	onboarding := "pending"
	if st.Onboarded {
		onboarding = "complete"
	}
	fmt.Fprintln(w, RenderField("Onboarding", onboarding))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
