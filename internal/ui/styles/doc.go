// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides colors and lipgloss styles for the lock screen and
the CLI.

Every color is a lipgloss.AdaptiveColor. The user's dark mode preference is
applied with ApplyDarkMode, which overrides terminal background detection.

# Accent Colors

The six accent colors mirror the journal's preference values:

	violet, blue, green, rose, amber, cyan

Accent returns the color for a name and falls back to violet.

# Usage

	styles.ApplyDarkMode(prefs.IsDarkMode)
	theme := styles.NewTheme(prefs.AccentColor)
	fmt.Println(theme.Box.Render(theme.Title.Render("whitespc")))
*/
package styles
