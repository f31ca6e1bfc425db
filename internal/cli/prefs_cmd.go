// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prefs_cmd.go - The "onboarding" and "prefs" commands.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/whitespc/whitespc/internal/settings"
)

const prefsUsage = `  whitespc prefs [show]             Show display preferences
  whitespc prefs set <key> <value>  dark_mode | accent | wallpaper | motivation`

const onboardingUsage = `  whitespc onboarding [status]   Show whether setup is complete
  whitespc onboarding complete   Mark setup complete`

// OnboardingData is the data of "onboarding".
type OnboardingData struct {
	Completed bool `json:"completed"`
}

func (a *App) handleOnboarding(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)

	switch sub := p.Subcommand(); sub {
	case "", "status":
		done, err := a.Guard.HasCompletedOnboarding(ctx)
		if err != nil {
			return err
		}
		return a.emit(args, "onboarding", OnboardingData{Completed: done}, func() {
			state := "pending"
			if done {
				state = "complete"
			}
			fmt.Fprintln(a.Out, RenderField("Onboarding", state))
		})
	case "complete", "done":
		if err := a.Guard.CompleteOnboarding(ctx); err != nil {
			return err
		}
		return a.done(args, "onboarding complete", "Onboarding complete.")
	default:
		return ErrUnknownSubcommand("onboarding", sub, onboardingUsage)
	}
}

func (a *App) handlePrefs(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)

	switch sub := p.Subcommand(); sub {
	case "", "show":
		prefs, err := a.Guard.Preferences(ctx)
		if err != nil {
			return err
		}
		return a.emit(args, "prefs", prefs, func() { a.printPrefs(prefs) })

	case "set":
		key, value := p.Positional(1), strings.Join(p.PositionalFrom(2), " ")
		if key == "" || value == "" {
			return ErrMissingArgument("key and value", prefsUsage)
		}
		prefs, err := a.Guard.Preferences(ctx)
		if err != nil {
			return err
		}
		if err := setPreference(&prefs, key, value); err != nil {
			return err
		}
		if err := a.Guard.SetPreferences(ctx, prefs); err != nil {
			return err
		}
		return a.emit(args, "prefs set", prefs, func() { a.printPrefs(prefs) })

	default:
		return ErrUnknownSubcommand("prefs", sub, prefsUsage)
	}
}

// setPreference applies one key/value pair. Value checks beyond parsing
// are left to Preferences.Validate.
func setPreference(p *settings.Preferences, key, value string) error {
	switch strings.ToLower(strings.ReplaceAll(key, "-", "_")) {
	case "dark_mode", "dark", "is_dark_mode":
		b, err := ParseBoolString(value)
		if err != nil {
			return NewValidationError("dark_mode", value, err.Error())
		}
		p.IsDarkMode = b
	case "accent", "accent_color":
		p.AccentColor = strings.ToLower(strings.TrimSpace(value))
	case "wallpaper":
		p.Wallpaper = strings.TrimSpace(value)
	case "motivation", "daily_motivation", "show_daily_motivation":
		b, err := ParseBoolString(value)
		if err != nil {
			return NewValidationError("motivation", value, err.Error())
		}
		p.ShowDailyMotivation = b
	default:
		return NewValidationErrorWithExample("preference", key, "unknown key", "whitespc prefs set accent rose")
	}
	return nil
}

func (a *App) printPrefs(p settings.Preferences) {
	fmt.Fprintln(a.Out, TitleStyle.Render("Preferences"))
	fmt.Fprintln(a.Out, RenderField("Dark mode", strconv.FormatBool(p.IsDarkMode)))
	fmt.Fprintln(a.Out, RenderField("Accent", p.AccentColor))
	fmt.Fprintln(a.Out, RenderField("Wallpaper", p.Wallpaper))
	fmt.Fprintln(a.Out, RenderField("Daily motivation", strconv.FormatBool(p.ShowDailyMotivation)))
}
