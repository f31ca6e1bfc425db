// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the whitespc command line.

Parse turns os.Args into a Command and Args. App.Run dispatches every
command except the two that open the lock screen (the default command and
"lock"), which main runs itself.

# Commands

	whitespc                          start the lock screen
	whitespc status [--json]          PIN, lockout, session and timeout summary
	whitespc pin set|remove|verify    manage or check the PIN
	whitespc recovery set|verify|reset|questions
	whitespc lock                     open the lock screen already engaged
	whitespc timeout [show|set <v>]   always|1m|5m|15m|30m|never
	whitespc activity                 record activity now
	whitespc autolock                 report whether the idle timeout has passed
	whitespc onboarding [status|complete]
	whitespc prefs [show|set <key> <value>]
	whitespc audit [N]                last N audit events
	whitespc config [show|path|init|get|set]
	whitespc version

# Output

Human output goes through lipgloss styles built from the shared palette.
Colors follow NO_COLOR, FORCE_COLOR and TTY detection. With --json every
command prints a JSONResponse envelope instead.

# Secrets

PINs and recovery answers are read through a Prompter. The terminal
prompter uses golang.org/x/term so nothing is echoed; when stdin is not a
terminal one line is read per secret, which keeps scripted use possible.
*/
package cli
