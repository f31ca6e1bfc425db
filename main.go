// whitespc - PIN lock for a private journal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/whitespc/whitespc/internal/cli"
	"github.com/whitespc/whitespc/internal/config"
	"github.com/whitespc/whitespc/internal/security"
	"github.com/whitespc/whitespc/internal/settings"
	"github.com/whitespc/whitespc/internal/ui/lockscreen"
	"github.com/whitespc/whitespc/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate

	log.SetFlags(log.LstdFlags)
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cmd, args)
	stop()

	if err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}

// run loads configuration, opens the settings store when the command needs
// it and dispatches.
func run(ctx context.Context, cmd cli.Command, args cli.Args) error {
	app := &cli.App{
		Prompt: cli.NewTermPrompter(os.Stdin, os.Stderr),
		Out:    os.Stdout,
	}

	if cmd == cli.CmdVersion || cmd == cli.CmdHelp {
		return app.Run(ctx, cmd, args)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	config.SetGlobal(cfg)
	app.Config = cfg
	if app.ConfigPath, err = config.ConfigPath(); err != nil {
		return err
	}
	if !cmd.NeedsGuard() {
		return app.Run(ctx, cmd, args)
	}

	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	storePath, err := cfg.StoragePath()
	if err != nil {
		return err
	}
	store, err := settings.Open(cfg.Storage.Backend, storePath)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []security.GuardOption{}

	scheme, err := security.ParseHashScheme(cfg.Security.HashScheme)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	opts = append(opts, security.WithHasher(security.NewHasher(scheme, cfg.Security.PBKDF2Iterations)))

	if cfg.Security.AuditEnabled {
		auditPath, err := cfg.AuditPath()
		if err != nil {
			return err
		}
		logger, err := security.NewAuditLogger(auditPath)
		if err != nil {
			// Audit is best effort; the lock still works without it.
			log.Printf("whitespc: audit log disabled: %v", err)
		} else {
			defer logger.Close()
			logger.SetMaxSize(cfg.Security.AuditMaxSizeBytes)
			opts = append(opts, security.WithAuditLogger(logger))
			app.Audit = logger
		}
	}

	guard := security.NewGuard(store, opts...)
	app.Guard = guard

	prefs, err := guard.Preferences(ctx)
	if err != nil {
		return err
	}
	cli.ApplyPreferences(prefs)

	switch cmd {
	case cli.CmdTUI, cli.CmdLock:
		styles.ApplyDarkMode(prefs.IsDarkMode)
		lsOpts := lockscreen.OptionsFromConfig(config.Global())
		lsOpts.Theme = styles.NewTheme(prefs.AccentColor)
		lsOpts.StartLocked = cmd == cli.CmdLock
		return lockscreen.Run(ctx, guard, lsOpts)
	default:
		return app.Run(ctx, cmd, args)
	}
}

// loadConfig loads the effective configuration. The config command still
// runs against an invalid file so the bad value can be fixed.
func loadConfig(cmd cli.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err == nil {
		return cfg, nil
	}
	if cmd != cli.CmdConfig || !errors.Is(err, config.ErrInvalidConfig) {
		return nil, err
	}

	path, pathErr := config.ConfigPath()
	if pathErr != nil {
		return nil, err
	}
	raw, readErr := config.ReadFile(path)
	if readErr != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", cli.WarningStyle.Render("[!]"), err)
	return raw, nil
}
