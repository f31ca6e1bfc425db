// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security implements the whitespc access guard.
//
// The Guard gates the journal behind an optional PIN. It owns the
// interpretation of the security fields of the settings record:
//
//   - PIN set/remove and verification against a stored hash
//   - failed-attempt counting with a timed lockout
//   - recovery through three security questions
//   - auto-lock after inactivity
//
// Two "locked" concepts coexist and are kept apart. The session lock is the
// in-memory unlocked flag held by Session and toggled by Lock, Unlock and
// PIN validation. The security lockout is the persisted LockoutEndTime that
// refuses every attempt for LockoutDuration after MaxFailedAttempts wrong
// PINs or wrong sets of recovery answers, which share one counter. Lockout expiry is lazy: it is only noticed by ValidatePin and
// CheckLockoutStatus, so UIs poll CheckLockoutStatus while locked out.
//
// # Usage
//
//	store, _ := settings.Open(settings.BackendSQLite, path)
//	guard := security.NewGuard(store, security.WithAuditLogger(audit))
//
//	res, err := guard.ValidatePin(ctx, pin)
//	switch {
//	case err != nil:
//	    // store unavailable, nothing was persisted
//	case res.LockedOut:
//	    // show countdown from guard.CheckLockoutStatus
//	case !res.Success:
//	    // res.RemainingAttempts left
//	}
//
// Expected outcomes (wrong PIN, lockout, wrong recovery answers) are
// reported as values. Only invalid input and store failures are errors.
package security
