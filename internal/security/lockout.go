// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"time"

	"github.com/whitespc/whitespc/internal/settings"
)

// =============================================================================
// LOCKOUT POLICY
// =============================================================================

const (
	// MaxFailedAttempts is the number of consecutive wrong PINs that
	// triggers a lockout.
	MaxFailedAttempts = 5

	// LockoutDuration is how long every attempt is refused once triggered.
	LockoutDuration = 30 * time.Second
)

// ValidationResult is the outcome of a PIN validation.
type ValidationResult struct {
	Success           bool `json:"success"`
	RemainingAttempts int  `json:"remaining_attempts"`
	LockedOut         bool `json:"locked_out"`
}

// LockoutStatus describes an active security lockout.
type LockoutStatus struct {
	LockedOut        bool `json:"locked_out"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

// lockoutActive reports whether rec refuses attempts at now.
func lockoutActive(rec *settings.Record, now time.Time) bool {
	return rec.LockoutEndTime != nil && now.Before(*rec.LockoutEndTime)
}

// lockoutStatus computes the read-only lockout view. Remaining time is
// rounded up to whole seconds so a countdown never shows 0 while locked.
func lockoutStatus(rec *settings.Record, now time.Time) LockoutStatus {
	if !lockoutActive(rec, now) {
		return LockoutStatus{}
	}
	remaining := rec.LockoutEndTime.Sub(now)
	secs := int((remaining + time.Second - 1) / time.Second)
	return LockoutStatus{LockedOut: true, RemainingSeconds: secs}
}

// expireLockout clears an elapsed lockout and the attempt counter.
// It reports whether anything changed.
func expireLockout(rec *settings.Record, now time.Time) bool {
	if rec.LockoutEndTime == nil || lockoutActive(rec, now) {
		return false
	}
	rec.LockoutEndTime = nil
	rec.FailedAttempts = 0
	return true
}

// recordFailure counts one wrong PIN. When the limit is reached the lockout
// starts and the counter resets; the return value reports that case.
func recordFailure(rec *settings.Record, now time.Time) bool {
	rec.FailedAttempts++
	if rec.FailedAttempts < MaxFailedAttempts {
		return false
	}
	end := now.Add(LockoutDuration)
	rec.LockoutEndTime = &end
	rec.FailedAttempts = 0
	return true
}

// clearFailures resets the attempt counter and any lockout.
func clearFailures(rec *settings.Record) {
	rec.FailedAttempts = 0
	rec.LockoutEndTime = nil
}

// =============================================================================
// AUTO-LOCK POLICY
// =============================================================================

// shouldAutoLock decides whether inactivity requires a session lock.
func shouldAutoLock(rec *settings.Record, now time.Time) bool {
	switch {
	case !rec.HasPin():
		return false
	case rec.LockTimeout == settings.LockTimeoutNever:
		return false
	case rec.LockTimeout == settings.LockTimeoutAlways:
		return true
	case rec.LastActivityAt == nil:
		return true
	}
	idle := now.Sub(*rec.LastActivityAt)
	return idle >= time.Duration(rec.LockTimeout.Minutes())*time.Minute
}
