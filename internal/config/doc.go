// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for whitespc.
//
// Configuration is TOML, with built-in defaults, environment variable
// overrides and validation.
//
// # Configuration Precedence
//
//   - Environment variables (WHITESPC_*)
//   - $WHITESPC_HOME/config.toml, default ~/.whitespc/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	path, _ := cfg.StoragePath()
//
// Watch reloads the file on change so a running lock screen picks up new
// poll intervals without a restart.
package config
