// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RecordID is the fixed identifier of the one settings record.
const RecordID = 1

// =============================================================================
// LOCK TIMEOUT
// =============================================================================

// LockTimeout is the inactivity threshold before the app locks itself.
// Positive values are minutes; the numeric value is what gets persisted.
type LockTimeout int

const (
	LockTimeoutAlways         LockTimeout = 0
	LockTimeoutOneMinute      LockTimeout = 1
	LockTimeoutFiveMinutes    LockTimeout = 5
	LockTimeoutFifteenMinutes LockTimeout = 15
	LockTimeoutThirtyMinutes  LockTimeout = 30
	LockTimeoutNever          LockTimeout = -1
)

// DefaultLockTimeout is applied to freshly created records.
const DefaultLockTimeout = LockTimeoutFiveMinutes

// LockTimeouts lists every supported timeout in display order.
var LockTimeouts = []LockTimeout{
	LockTimeoutAlways,
	LockTimeoutOneMinute,
	LockTimeoutFiveMinutes,
	LockTimeoutFifteenMinutes,
	LockTimeoutThirtyMinutes,
	LockTimeoutNever,
}

// Valid reports whether t is one of the supported timeouts.
func (t LockTimeout) Valid() bool {
	for _, v := range LockTimeouts {
		if v == t {
			return true
		}
	}
	return false
}

// Minutes returns the threshold in minutes. Always is 0, Never is -1.
func (t LockTimeout) Minutes() int {
	return int(t)
}

// String returns the short form used by the CLI and config ("5m", "never").
func (t LockTimeout) String() string {
	switch t {
	case LockTimeoutAlways:
		return "always"
	case LockTimeoutNever:
		return "never"
	default:
		if t.Valid() {
			return fmt.Sprintf("%dm", int(t))
		}
		return fmt.Sprintf("LockTimeout(%d)", int(t))
	}
}

// Label returns a human readable description.
func (t LockTimeout) Label() string {
	switch t {
	case LockTimeoutAlways:
		return "Immediately"
	case LockTimeoutOneMinute:
		return "After 1 minute"
	case LockTimeoutNever:
		return "Never"
	default:
		return fmt.Sprintf("After %d minutes", int(t))
	}
}

// ParseLockTimeout accepts "always", "never", "5m", "5" and similar forms.
func ParseLockTimeout(s string) (LockTimeout, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "always", "immediately", "0":
		return LockTimeoutAlways, nil
	case "never", "-1", "off":
		return LockTimeoutNever, nil
	}

	v = strings.TrimSuffix(strings.TrimSuffix(v, "min"), "m")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid lock timeout %q", s)
	}
	t := LockTimeout(n)
	if !t.Valid() {
		return 0, fmt.Errorf("unsupported lock timeout %q (use always, 1m, 5m, 15m, 30m or never)", s)
	}
	return t, nil
}

// =============================================================================
// PREFERENCES
// =============================================================================

// AccentColors are the accent colors the journal UI knows how to render.
var AccentColors = []string{"violet", "blue", "green", "rose", "amber", "cyan"}

// Preferences are the display settings stored alongside the security fields.
type Preferences struct {
	IsDarkMode          bool   `json:"is_dark_mode"`
	AccentColor         string `json:"accent_color"`
	Wallpaper           string `json:"wallpaper"`
	ShowDailyMotivation bool   `json:"show_daily_motivation"`
}

// DefaultPreferences returns the preferences of a fresh install.
func DefaultPreferences() Preferences {
	return Preferences{
		IsDarkMode:          false,
		AccentColor:         "violet",
		Wallpaper:           "none",
		ShowDailyMotivation: true,
	}
}

// Validate checks the accent color and wallpaper values.
func (p Preferences) Validate() error {
	known := false
	for _, c := range AccentColors {
		if c == p.AccentColor {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown accent color %q (valid: %s)", p.AccentColor, strings.Join(AccentColors, ", "))
	}
	if strings.TrimSpace(p.Wallpaper) == "" {
		return fmt.Errorf("wallpaper must not be empty (use \"none\")")
	}
	return nil
}

// =============================================================================
// RECORD
// =============================================================================

// Record is the single settings record. Empty strings and nil timestamps
// mean "absent".
type Record struct {
	ID int `json:"id"`

	// PIN and lockout
	PinHash        string     `json:"pin_hash,omitempty"`
	IsLocked       bool       `json:"is_locked"`
	FailedAttempts int        `json:"failed_attempts"`
	LockoutEndTime *time.Time `json:"lockout_end_time,omitempty"`

	// Auto-lock
	LockTimeout    LockTimeout `json:"lock_timeout"`
	LastActivityAt *time.Time  `json:"last_activity_at,omitempty"`
	LastAccessedAt *time.Time  `json:"last_accessed_at,omitempty"`

	// Recovery. Either all three slots are set or none.
	SecurityQuestions    [3]string `json:"security_questions"`
	SecurityAnswerHashes [3]string `json:"security_answer_hashes"`

	HasCompletedOnboarding bool `json:"has_completed_onboarding"`

	Preferences Preferences `json:"preferences"`
}

// Default returns a record with the values of a fresh install.
func Default() *Record {
	return &Record{
		ID:          RecordID,
		LockTimeout: DefaultLockTimeout,
		Preferences: DefaultPreferences(),
	}
}

// HasPin reports whether a PIN hash is stored.
func (r *Record) HasPin() bool {
	return r.PinHash != ""
}

// HasSecurityQuestions reports whether all three questions are set.
func (r *Record) HasSecurityQuestions() bool {
	for _, q := range r.SecurityQuestions {
		if q == "" {
			return false
		}
	}
	return true
}

// ClearSecurityQuestions removes all recovery material.
func (r *Record) ClearSecurityQuestions() {
	r.SecurityQuestions = [3]string{}
	r.SecurityAnswerHashes = [3]string{}
}

// Clone returns a deep copy so callers never share timestamp pointers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.LockoutEndTime = cloneTime(r.LockoutEndTime)
	c.LastActivityAt = cloneTime(r.LastActivityAt)
	c.LastAccessedAt = cloneTime(r.LastAccessedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
