// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// pin_cmd.go - The "pin" command.
//
// Subcommands:
//   set       Set or change the PIN (asks for the current one first)
//   remove    Remove the PIN and the recovery questions
//   verify    Check a PIN; failures count toward the lockout
package cli

import (
	"context"
)

const pinUsage = `  whitespc pin set       Set or change the PIN
  whitespc pin remove    Remove the PIN and recovery questions
  whitespc pin verify    Check a PIN`

func (a *App) handlePin(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)

	switch sub := p.Subcommand(); sub {
	case "set", "change":
		if err := a.requirePin(ctx); err != nil {
			return err
		}
		pin, err := promptNewSecret(a.Prompt, "New PIN")
		if err != nil {
			return err
		}
		if err := a.Guard.SetPin(ctx, pin); err != nil {
			return err
		}
		return a.done(args, "pin set", "PIN set. The journal locks on the next start.")

	case "remove", "clear":
		if err := a.requirePin(ctx); err != nil {
			return err
		}
		if err := a.Guard.RemovePin(ctx); err != nil {
			return err
		}
		return a.done(args, "pin remove", "PIN removed. Recovery questions were cleared too.")

	case "verify", "check":
		pin, err := a.Prompt.Secret("PIN")
		if err != nil {
			return err
		}
		if err := a.checkPin(ctx, pin); err != nil {
			return err
		}
		return a.done(args, "pin verify", "PIN accepted.")

	case "":
		return ErrMissingArgument("subcommand", pinUsage)
	default:
		return ErrUnknownSubcommand("pin", sub, pinUsage)
	}
}
