// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The "config" command.
//
// Subcommands:
//   show (default)     Effective configuration, env overrides included
//   path               Config file location
//   init [--force]     Write a default config file
//   get <key>          One effective value
//   set <key> <value>  Change one value in the file
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/whitespc/whitespc/internal/config"
)

const configUsage = `  whitespc config [show]            Show the configuration
  whitespc config path              Print the config file path
  whitespc config init [--force]    Write a default config file
  whitespc config get <key>         Print one value
  whitespc config set <key> <value> Change one value`

// ConfigValueData is the data of "config get" and "config set".
type ConfigValueData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

func (a *App) handleConfig(args Args) error {
	p := NewArgParser(args.Raw, "force")

	switch sub := p.Subcommand(); sub {
	case "", "show":
		return a.emit(args, "config", a.Config, func() {
			fmt.Fprintln(a.Out, TitleStyle.Render("Configuration"))
			for _, key := range config.Keys() {
				v, err := a.Config.Get(key)
				if err != nil {
					continue
				}
				fmt.Fprintln(a.Out, RenderField(key, fmt.Sprint(v)))
			}
			fmt.Fprintln(a.Out, DimStyle.Render("File: "+a.ConfigPath))
		})

	case "path":
		return a.emit(args, "config path", map[string]string{"path": a.ConfigPath}, func() {
			fmt.Fprintln(a.Out, a.ConfigPath)
		})

	case "init":
		if _, err := os.Stat(a.ConfigPath); err == nil && !p.BoolFlag("force") {
			return &UsageError{Message: fmt.Sprintf("%s already exists (use --force to overwrite)", a.ConfigPath)}
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.SaveTOML(config.Default(), a.ConfigPath); err != nil {
			return err
		}
		return a.done(args, "config init", "Wrote "+a.ConfigPath)

	case "get":
		key := p.Positional(1)
		if key == "" {
			return ErrMissingArgument("key", configUsage)
		}
		v, err := a.Config.Get(key)
		if err != nil {
			return NewValidationError("key", key, err.Error())
		}
		return a.emit(args, "config get", ConfigValueData{Key: key, Value: v}, func() {
			fmt.Fprintln(a.Out, fmt.Sprint(v))
		})

	case "set":
		key, value := p.Positional(1), p.Positional(2)
		if key == "" || value == "" {
			return ErrMissingArgument("key and value", configUsage)
		}
		cfg, err := config.ReadFile(a.ConfigPath)
		if err != nil {
			return err
		}
		if err := cfg.Set(key, value); err != nil {
			return NewValidationError("key", key, err.Error())
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if err := config.SaveTOML(cfg, a.ConfigPath); err != nil {
			return err
		}
		stored, _ := cfg.Get(key)
		return a.emit(args, "config set", ConfigValueData{Key: key, Value: stored}, func() {
			fmt.Fprintln(a.Out, SuccessStyle.Render(fmt.Sprintf("%s = %v", key, stored)))
		})

	default:
		return ErrUnknownSubcommand("config", sub, configUsage)
	}
}
