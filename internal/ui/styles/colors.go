// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Accent colors selectable in the journal preferences.
var (
	Violet = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	Blue   = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	Green  = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	Rose   = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	Amber  = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	Cyan   = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
)

var accents = map[string]lipgloss.AdaptiveColor{
	"violet": Violet,
	"blue":   Blue,
	"green":  Green,
	"rose":   Rose,
	"amber":  Amber,
	"cyan":   Cyan,
}

// DefaultAccent is used when a stored accent name is unknown.
const DefaultAccent = "violet"

// Accent maps an accent name to its color. Unknown names fall back to violet.
func Accent(name string) lipgloss.AdaptiveColor {
	if c, ok := accents[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return accents[DefaultAccent]
}

// =============================================================================
// SURFACES AND TEXT
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#F8FAFC", Dark: "#1E1E2E"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E2E8F0", Dark: "#313244"}
var Border = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#45475A"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#0F172A", Dark: "#CDD6F4"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#475569", Dark: "#A6ADC8"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#6C7086"}

// =============================================================================
// SEMANTIC
// =============================================================================

// High contrast pairs so status stays readable for colorblind users.
var Success = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"}
var Error = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
var Warning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
var Info = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicatorSet holds ASCII shapes shown next to colored status text.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Locked  string
}

// StatusIndicators is the indicator set used everywhere.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Locked:  "[#]",
}

// RenderSuccess renders a success message with its indicator.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Success).Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error message with its indicator.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Error).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning message with its indicator.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Warning).Bold(true).
		Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders an informational message with its indicator.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Info).
		Render(StatusIndicators.Info + " " + message)
}

// RenderStatus picks RenderSuccess or RenderError.
func RenderStatus(ok bool, message string) string {
	if ok {
		return RenderSuccess(message)
	}
	return RenderError(message)
}
