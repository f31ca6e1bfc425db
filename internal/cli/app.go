// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Command dispatch.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/whitespc/whitespc/internal/config"
	"github.com/whitespc/whitespc/internal/security"
)

// App carries what the command handlers need. Guard may be nil for
// commands where Command.NeedsGuard is false.
type App struct {
	Guard  *security.Guard
	Config *config.Config
	// ConfigPath is the file "config" reads and writes.
	ConfigPath string
	// Audit is nil when audit logging is disabled.
	Audit  *security.AuditLogger
	Prompt Prompter
	Out    io.Writer
}

var errNoGuard = errors.New("settings store is not open")

// Run executes cmd. CmdTUI and CmdLock are handled by the caller.
func (a *App) Run(ctx context.Context, cmd Command, args Args) error {
	if cmd.NeedsGuard() && a.Guard == nil {
		return fmt.Errorf("%s: %w", cmd, errNoGuard)
	}

	switch cmd {
	case CmdStatus:
		return a.handleStatus(ctx, args)
	case CmdPin:
		return a.handlePin(ctx, args)
	case CmdRecovery:
		return a.handleRecovery(ctx, args)
	case CmdTimeout:
		return a.handleTimeout(ctx, args)
	case CmdActivity:
		return a.handleActivity(ctx, args)
	case CmdAutoLock:
		return a.handleAutoLock(ctx, args)
	case CmdOnboarding:
		return a.handleOnboarding(ctx, args)
	case CmdPrefs:
		return a.handlePrefs(ctx, args)
	case CmdAudit:
		return a.handleAudit(ctx, args)
	case CmdConfig:
		return a.handleConfig(args)
	case CmdVersion:
		return a.handleVersion(args)
	case CmdHelp:
		PrintUsage(a.Out)
		if args.Unknown != "" {
			return &UsageError{Message: fmt.Sprintf("unknown command: %s", args.Unknown)}
		}
		return nil
	default:
		return fmt.Errorf("%s must be run by the lock screen", cmd)
	}
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

// emit prints data as a JSON envelope, or calls human for styled output.
func (a *App) emit(args Args, command string, data interface{}, human func()) error {
	if args.JSON {
		return NewJSONResponse(command, data).Write(a.Out)
	}
	human()
	return nil
}

// done reports a plain outcome.
func (a *App) done(args Args, command, message string) error {
	return a.emit(args, command, ResultData{OK: true, Message: message}, func() {
		fmt.Fprintln(a.Out, SuccessStyle.Render(message))
	})
}

func (a *App) handleVersion(args Args) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	return a.emit(args, "version", data, func() { PrintVersion(a.Out) })
}

// =============================================================================
// PIN GATE
// =============================================================================

// requirePin asks for the current PIN when one is set. Wrong entries count
// toward the lockout like any other attempt.
func (a *App) requirePin(ctx context.Context) error {
	has, err := a.Guard.HasPinSet(ctx)
	if err != nil || !has {
		return err
	}
	pin, err := a.Prompt.Secret("Current PIN")
	if err != nil {
		return err
	}
	return a.checkPin(ctx, pin)
}

func (a *App) checkPin(ctx context.Context, pin string) error {
	res, err := a.Guard.ValidatePin(ctx, pin)
	if err != nil {
		return err
	}
	if res.Success {
		return nil
	}
	if res.LockedOut {
		status, err := a.Guard.CheckLockoutStatus(ctx)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: too many attempts, try again in %ds", ErrAccessDenied, status.RemainingSeconds)
	}
	return fmt.Errorf("%w: incorrect PIN (%d remaining)", ErrAccessDenied, res.RemainingAttempts)
}
