// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across whitespc packages.
//
// # Key Functions
//
//   - AtomicWriteFile, AtomicWriteFileWithDir: Crash-safe file writing with fsync
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, StringWidth: Terminal column aware helpers for the lock screen
//
// # Usage
//
//	// Persist the settings file without ever exposing a half-written file
//	err := util.AtomicWriteFileWithDir(path, data, 0600, 0700)
//
//	// Fit a recovery question into the prompt box
//	label := util.TruncateWidth(question, 48)
package util
