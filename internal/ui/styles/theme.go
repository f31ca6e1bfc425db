// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles for the lock screen and CLI output.
type Theme struct {
	AccentName string
	Accent     lipgloss.AdaptiveColor

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// CONTAINER STYLES
	// ==========================================================================

	Box       lipgloss.Style
	LockedBox lipgloss.Style

	// ==========================================================================
	// TEXT STYLES
	// ==========================================================================

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Hint     lipgloss.Style

	// ==========================================================================
	// STATUS STYLES
	// ==========================================================================

	ErrorText   lipgloss.Style
	WarningText lipgloss.Style
	SuccessText lipgloss.Style
	Countdown   lipgloss.Style

	// ==========================================================================
	// INPUT STYLES
	// ==========================================================================

	Prompt      lipgloss.Style
	InputText   lipgloss.Style
	Placeholder lipgloss.Style
}

// NewTheme builds a theme around the named accent color.
func NewTheme(accent string) *Theme {
	t := &Theme{
		AccentName: accent,
		Accent:     Accent(accent),
	}
	if _, ok := accents[accent]; !ok {
		t.AccentName = DefaultAccent
	}
	t.initStyles()
	return t
}

// ApplyDarkMode forces the renderer's background detection so adaptive
// colors follow the user's dark mode preference instead of the terminal.
func ApplyDarkMode(dark bool) {
	lipgloss.SetHasDarkBackground(dark)
}

func (t *Theme) initStyles() {
	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Accent).
		Padding(1, 3)

	t.LockedBox = t.Box.
		BorderForeground(Error)

	t.Title = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Width(20)

	t.Value = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	t.WarningText = lipgloss.NewStyle().
		Foreground(Warning)

	t.SuccessText = lipgloss.NewStyle().
		Foreground(Success)

	t.Countdown = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)

	t.Prompt = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the dimensions used to center content.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// Center places content in the middle of the current window. Without a
// known size the content is returned unchanged.
func (t *Theme) Center(content string) string {
	if t.Width <= 0 || t.Height <= 0 {
		return content
	}
	return lipgloss.Place(t.Width, t.Height, lipgloss.Center, lipgloss.Center, content)
}

// BoxWidth returns the content width for boxed views.
func (t *Theme) BoxWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		if t.Width > 8 {
			return t.Width - 8
		}
		return 40
	case LayoutMedium:
		return 48
	default:
		return 56
	}
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
