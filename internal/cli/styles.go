// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for command output.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/whitespc/whitespc/internal/settings"
	"github.com/whitespc/whitespc/internal/ui/styles"
)

// init picks the color profile from NO_COLOR, FORCE_COLOR and the TTY.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Violet).
			MarginBottom(1)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextPrimary).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(22)

	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Success).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Error).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Warning)

	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Border)
)

// ApplyPreferences tints titles with the accent color and makes adaptive
// colors follow the dark mode preference.
func ApplyPreferences(p settings.Preferences) {
	styles.ApplyDarkMode(p.IsDarkMode)
	TitleStyle = TitleStyle.Foreground(styles.Accent(p.AccentColor))
}

// =============================================================================
// HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule, 50 columns by default.
func RenderSeparator(width ...int) string {
	w := 50
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("-", w))
}

// RenderField renders one "label  value" line.
func RenderField(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}

// RenderStatus renders a value in the OK or failure style.
func RenderStatus(ok bool, text string) string {
	if ok {
		return SuccessStyle.Render(text)
	}
	return ErrorStyle.Render(text)
}
