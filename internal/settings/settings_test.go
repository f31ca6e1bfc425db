// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"testing"
	"time"
)

func TestParseLockTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    LockTimeout
		wantErr bool
	}{
		{"always", LockTimeoutAlways, false},
		{"0", LockTimeoutAlways, false},
		{"1m", LockTimeoutOneMinute, false},
		{"5", LockTimeoutFiveMinutes, false},
		{" 15m ", LockTimeoutFifteenMinutes, false},
		{"30min", LockTimeoutThirtyMinutes, false},
		{"NEVER", LockTimeoutNever, false},
		{"-1", LockTimeoutNever, false},
		{"10m", 0, true},
		{"soon", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		got, err := ParseLockTimeout(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseLockTimeout(%q) expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLockTimeout(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLockTimeout(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLockTimeoutString(t *testing.T) {
	for _, lt := range LockTimeouts {
		parsed, err := ParseLockTimeout(lt.String())
		if err != nil {
			t.Fatalf("ParseLockTimeout(%q) failed: %v", lt.String(), err)
		}
		if parsed != lt {
			t.Errorf("round trip of %v gave %v", lt, parsed)
		}
	}

	if got := LockTimeout(7).String(); got != "LockTimeout(7)" {
		t.Errorf("invalid timeout String() = %q", got)
	}
	if LockTimeout(7).Valid() {
		t.Error("LockTimeout(7) should not be valid")
	}
}

func TestDefaultRecord(t *testing.T) {
	rec := Default()

	if rec.ID != RecordID {
		t.Errorf("ID = %d, want %d", rec.ID, RecordID)
	}
	if rec.HasPin() {
		t.Error("default record should have no PIN")
	}
	if rec.IsLocked {
		t.Error("default record should not be locked")
	}
	if rec.LockTimeout != LockTimeoutFiveMinutes {
		t.Errorf("LockTimeout = %v, want 5m", rec.LockTimeout)
	}
	if rec.Preferences.IsDarkMode {
		t.Error("default record should not be dark mode")
	}
	if rec.Preferences.AccentColor != "violet" {
		t.Errorf("AccentColor = %q, want violet", rec.Preferences.AccentColor)
	}
	if rec.HasSecurityQuestions() {
		t.Error("default record should have no security questions")
	}
}

func TestRecordClone(t *testing.T) {
	now := time.Now()
	rec := Default()
	rec.LockoutEndTime = &now
	rec.SecurityQuestions = [3]string{"a", "b", "c"}

	c := rec.Clone()
	*c.LockoutEndTime = now.Add(time.Hour)
	c.SecurityQuestions[0] = "changed"

	if !rec.LockoutEndTime.Equal(now) {
		t.Error("Clone shares the LockoutEndTime pointer")
	}
	if rec.SecurityQuestions[0] != "a" {
		t.Error("Clone shares the security question array")
	}
}

func TestRecordSecurityQuestions(t *testing.T) {
	rec := Default()
	rec.SecurityQuestions = [3]string{"q1", "q2", ""}
	if rec.HasSecurityQuestions() {
		t.Error("partial questions must not count as configured")
	}

	rec.SecurityQuestions[2] = "q3"
	if !rec.HasSecurityQuestions() {
		t.Error("three questions should count as configured")
	}

	rec.ClearSecurityQuestions()
	if rec.HasSecurityQuestions() || rec.SecurityAnswerHashes[0] != "" {
		t.Error("ClearSecurityQuestions left recovery material behind")
	}
}

func TestPreferencesValidate(t *testing.T) {
	p := DefaultPreferences()
	if err := p.Validate(); err != nil {
		t.Fatalf("default preferences invalid: %v", err)
	}

	p.AccentColor = "magenta"
	if err := p.Validate(); err == nil {
		t.Error("expected error for unknown accent color")
	}

	p = DefaultPreferences()
	p.Wallpaper = " "
	if err := p.Validate(); err == nil {
		t.Error("expected error for empty wallpaper")
	}
}
