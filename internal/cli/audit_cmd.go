// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// audit_cmd.go - The "audit" command.
//
// Usage:
//   whitespc audit [N]        Show the last N events (default 20)
//   whitespc audit --all      Show every event
//   whitespc audit rotate     Move the current log aside and start a new one
package cli

import (
	"context"
	"fmt"

	"github.com/whitespc/whitespc/internal/security"
)

// DefaultAuditLines is how many events "audit" shows without an argument.
const DefaultAuditLines = 20

const auditUsage = `  whitespc audit [N]       Show the last N audit events (default 20)
  whitespc audit --all     Show every event
  whitespc audit rotate    Start a new audit log file`

// AuditData is the data of "audit".
type AuditData struct {
	Enabled bool                  `json:"enabled"`
	Path    string                `json:"path,omitempty"`
	Events  []security.AuditEvent `json:"events"`
}

// RotateData is the data of "audit rotate".
type RotateData struct {
	RotatedTo string `json:"rotated_to"`
}

func (a *App) handleAudit(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "all")

	if p.Subcommand() == "rotate" {
		return a.auditRotate(ctx, args)
	}

	limit := DefaultAuditLines
	if p.BoolFlag("all") {
		limit = 0
	} else if raw := p.Positional(0); raw != "" {
		n, err := ParseIntWithValidation(raw, "count")
		if err != nil {
			return err
		}
		limit = n
	}

	data := AuditData{Enabled: a.Audit != nil, Path: a.Audit.Path(), Events: []security.AuditEvent{}}
	if data.Enabled && data.Path != "" {
		events, err := security.ReadAuditEvents(data.Path, limit)
		if err != nil {
			return fmt.Errorf("read audit log: %w", err)
		}
		if events != nil {
			data.Events = events
		}
	}

	return a.emit(args, "audit", data, func() {
		if !data.Enabled {
			fmt.Fprintln(a.Out, DimStyle.Render("Audit logging is disabled."))
			return
		}
		if len(data.Events) == 0 {
			fmt.Fprintln(a.Out, DimStyle.Render("No audit events in "+data.Path))
			return
		}
		for _, ev := range data.Events {
			line := ev.ToLogLine()
			if ev.Success {
				fmt.Fprintln(a.Out, ValueStyle.Render(line))
			} else {
				fmt.Fprintln(a.Out, WarningStyle.Render(line))
			}
		}
	})
}

// auditRotate hides history from "audit", so it asks for the PIN first.
func (a *App) auditRotate(ctx context.Context, args Args) error {
	if a.Audit == nil {
		return &UsageError{Message: "audit logging is disabled", Usage: auditUsage}
	}
	if err := a.requirePin(ctx); err != nil {
		return err
	}
	rotated, err := a.Audit.Rotate()
	if err != nil {
		return err
	}
	return a.emit(args, "audit rotate", RotateData{RotatedTo: rotated}, func() {
		fmt.Fprintln(a.Out, SuccessStyle.Render("Audit log rotated to "+rotated))
	})
}
