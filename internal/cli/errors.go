// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for whitespc commands.
//
// Handlers always return errors; main decides how to display them.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/whitespc/whitespc/internal/config"
	"github.com/whitespc/whitespc/internal/security"
	"github.com/whitespc/whitespc/internal/settings"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	// ExitUsageError covers bad arguments and rejected input.
	ExitUsageError  = 2
	ExitConfigError = 3
	ExitStoreError  = 4
	// ExitAccessDenied is returned when a PIN or recovery check fails.
	ExitAccessDenied = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError reports a bad argument value.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	if e.Example != "" {
		msg += "\n  Example: " + e.Example
	}
	return msg
}

// UsageError reports a malformed command line.
type UsageError struct {
	Message string
	Usage   string
}

func (e *UsageError) Error() string {
	if e.Usage == "" {
		return e.Message
	}
	return e.Message + "\n\nUsage:\n" + e.Usage
}

// ErrAccessDenied is returned by commands whose check did not pass, so
// scripts can branch on the exit code.
var ErrAccessDenied = errors.New("access denied")

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a ValidationError with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// ErrMissingArgument reports a missing positional argument.
func ErrMissingArgument(argName, usage string) error {
	return &UsageError{Message: fmt.Sprintf("missing argument: %s", argName), Usage: usage}
}

// ErrUnknownSubcommand reports an unrecognised subcommand.
func ErrUnknownSubcommand(command, sub, usage string) error {
	return &UsageError{Message: fmt.Sprintf("unknown %s subcommand: %s", command, sub), Usage: usage}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var usageErr *UsageError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &usageErr):
		return ExitUsageError
	case errors.Is(err, security.ErrInvalidInput):
		return ExitUsageError
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, settings.ErrStoreUnavailable):
		return ExitStoreError
	case errors.Is(err, ErrAccessDenied):
		return ExitAccessDenied
	}
	return ExitGeneralError
}

// DisplayError writes err in the error style, or as a JSON envelope.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Write(w)
		return
	}
	msg := strings.TrimRight(err.Error(), "\n")
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), msg)
}
