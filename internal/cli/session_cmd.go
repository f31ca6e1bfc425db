// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - The "timeout", "activity" and "autolock" commands.
package cli

import (
	"context"
	"fmt"

	"github.com/whitespc/whitespc/internal/settings"
)

const timeoutUsage = `  whitespc timeout [show]       Show the auto-lock timeout
  whitespc timeout set <value>  always | 1m | 5m | 15m | 30m | never`

// TimeoutData is the data of "timeout".
type TimeoutData struct {
	Timeout string `json:"timeout"`
	Minutes int    `json:"minutes"`
	Label   string `json:"label"`
}

func newTimeoutData(t settings.LockTimeout) TimeoutData {
	return TimeoutData{Timeout: t.String(), Minutes: t.Minutes(), Label: t.Label()}
}

// AutoLockData is the data of "autolock".
type AutoLockData struct {
	ShouldAutoLock bool        `json:"should_auto_lock"`
	Timeout        TimeoutData `json:"timeout"`
}

func (a *App) handleTimeout(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)

	switch sub := p.Subcommand(); sub {
	case "", "show":
		t, err := a.Guard.LockTimeout(ctx)
		if err != nil {
			return err
		}
		return a.emit(args, "timeout", newTimeoutData(t), func() {
			fmt.Fprintln(a.Out, RenderField("Auto-lock", t.Label()))
		})

	case "set":
		raw := p.Positional(1)
		if raw == "" {
			return ErrMissingArgument("value", timeoutUsage)
		}
		t, err := settings.ParseLockTimeout(raw)
		if err != nil {
			return NewValidationErrorWithExample("timeout", raw, err.Error(), "whitespc timeout set 15m")
		}
		if err := a.requirePin(ctx); err != nil {
			return err
		}
		if err := a.Guard.SetLockTimeout(ctx, t); err != nil {
			return err
		}
		return a.emit(args, "timeout set", newTimeoutData(t), func() {
			fmt.Fprintln(a.Out, SuccessStyle.Render("Auto-lock: "+t.Label()))
		})

	default:
		return ErrUnknownSubcommand("timeout", sub, timeoutUsage)
	}
}

func (a *App) handleActivity(ctx context.Context, args Args) error {
	if err := a.Guard.UpdateActivity(ctx); err != nil {
		return err
	}
	return a.done(args, "activity", "Activity recorded.")
}

func (a *App) handleAutoLock(ctx context.Context, args Args) error {
	should, err := a.Guard.ShouldAutoLock(ctx)
	if err != nil {
		return err
	}
	t, err := a.Guard.LockTimeout(ctx)
	if err != nil {
		return err
	}

	data := AutoLockData{ShouldAutoLock: should, Timeout: newTimeoutData(t)}
	return a.emit(args, "autolock", data, func() {
		if should {
			fmt.Fprintln(a.Out, WarningStyle.Render("Idle timeout reached: the journal would lock now."))
		} else {
			fmt.Fprintln(a.Out, DimStyle.Render("Idle timeout not reached."))
		}
		fmt.Fprintln(a.Out, RenderField("Auto-lock", t.Label()))
	})
}
