// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and usage text for whitespc.
package cli

import (
	"fmt"
	"io"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLock
	CmdStatus
	CmdPin
	CmdRecovery
	CmdTimeout
	CmdActivity
	CmdAutoLock
	CmdOnboarding
	CmdPrefs
	CmdAudit
	CmdConfig
	CmdVersion
	CmdHelp
)

var commandNames = map[Command]string{
	CmdTUI:        "tui",
	CmdLock:       "lock",
	CmdStatus:     "status",
	CmdPin:        "pin",
	CmdRecovery:   "recovery",
	CmdTimeout:    "timeout",
	CmdActivity:   "activity",
	CmdAutoLock:   "autolock",
	CmdOnboarding: "onboarding",
	CmdPrefs:      "prefs",
	CmdAudit:      "audit",
	CmdConfig:     "config",
	CmdVersion:    "version",
	CmdHelp:       "help",
}

// String returns the command's canonical name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// NeedsGuard reports whether the command reads or writes the settings store.
func (c Command) NeedsGuard() bool {
	switch c {
	case CmdConfig, CmdVersion, CmdHelp:
		return false
	default:
		return true
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON bool

	// Raw holds the arguments after the command name, flags included.
	Raw []string

	// Unknown is set when the command name was not recognised.
	Unknown string
}

const usageText = `whitespc - PIN lock for your private journal

Usage:
  whitespc                          Start the lock screen (default)
  whitespc status, s                PIN, lockout, session and timeout summary
  whitespc pin set                  Set or change the PIN
  whitespc pin remove               Remove the PIN and recovery questions
  whitespc pin verify               Check a PIN (counts toward lockout)
  whitespc recovery set             Set the three security questions
  whitespc recovery questions       Show the stored questions
  whitespc recovery verify          Answer the questions
  whitespc recovery reset           Answer the questions and choose a new PIN
  whitespc lock                     Open the lock screen already engaged
  whitespc timeout [show]           Show the auto-lock timeout
  whitespc timeout set <value>      always | 1m | 5m | 15m | 30m | never
  whitespc activity                 Record activity now
  whitespc autolock                 Report whether the idle timeout has passed
  whitespc onboarding [status]      Show whether setup is complete
  whitespc onboarding complete      Mark setup complete
  whitespc prefs [show]             Show display preferences
  whitespc prefs set <key> <value>  dark_mode | accent | wallpaper | motivation
  whitespc audit [N]                Show the last N audit events (default 20)
  whitespc audit rotate             Start a new audit log file
  whitespc config [show]            Show the configuration
  whitespc config path              Print the config file path
  whitespc config init              Write a default config file
  whitespc config get <key>         Print one config value
  whitespc config set <key> <value> Change one config value
  whitespc version                  Print version information

Flags:
  --json        Output in JSON format
  -h, --help    Show this help

Secrets are prompted without echo. When stdin is not a terminal, one line
is read per secret.

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "whitespc version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	parsed.Raw = remaining[1:]

	switch cmd {
	case "tui":
		return CmdTUI, parsed
	case "lock":
		return CmdLock, parsed
	case "status", "s":
		return CmdStatus, parsed
	case "pin":
		return CmdPin, parsed
	case "recovery", "recover":
		return CmdRecovery, parsed
	case "timeout":
		return CmdTimeout, parsed
	case "activity":
		return CmdActivity, parsed
	case "autolock", "auto-lock":
		return CmdAutoLock, parsed
	case "onboarding":
		return CmdOnboarding, parsed
	case "prefs", "preferences":
		return CmdPrefs, parsed
	case "audit":
		return CmdAudit, parsed
	case "config":
		return CmdConfig, parsed
	case "version", "--version", "-V":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		parsed.Unknown = remaining[0]
		return CmdHelp, parsed
	}
}

// parseGlobalFlags strips flags that apply to every command.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for _, arg := range args {
		switch arg {
		case "--json", "--json=true":
			parsed.JSON = true
		case "--json=false":
			parsed.JSON = false
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}
