// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/whitespc/whitespc/internal/settings"
)

// ErrInvalidInput is returned for empty PINs, questions or answers.
var ErrInvalidInput = errors.New("invalid input")

// =============================================================================
// GUARD
// =============================================================================

// Guard is the access guard. Every operation that reads and writes the
// settings record holds one mutex from load to save, so concurrent
// validations cannot lose attempt counts.
type Guard struct {
	store   settings.Store
	session *Session
	clock   Clock
	hasher  *Hasher
	audit   *AuditLogger

	mu sync.Mutex
}

// GuardOption is a functional option for configuring Guard.
type GuardOption func(*Guard)

// WithClock sets the time source.
func WithClock(c Clock) GuardOption {
	return func(g *Guard) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithHasher sets the credential hasher.
func WithHasher(h *Hasher) GuardOption {
	return func(g *Guard) {
		if h != nil {
			g.hasher = h
		}
	}
}

// WithAuditLogger sets the audit logger. Without one, events are dropped.
func WithAuditLogger(l *AuditLogger) GuardOption {
	return func(g *Guard) {
		g.audit = l
	}
}

// WithSession shares an existing session object.
func WithSession(s *Session) GuardOption {
	return func(g *Guard) {
		if s != nil {
			g.session = s
		}
	}
}

// NewGuard creates a guard over store.
func NewGuard(store settings.Store, opts ...GuardOption) *Guard {
	g := &Guard{
		store:   store,
		session: NewSession(),
		clock:   SystemClock{},
		hasher:  DefaultHasher(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session returns the session object the guard mutates.
func (g *Guard) Session() *Session {
	return g.session
}

// IsUnlocked reports the session flag.
func (g *Guard) IsUnlocked() bool {
	return g.session.IsUnlocked()
}

// Subscribe registers for lock events. See Session.Subscribe.
func (g *Guard) Subscribe() (<-chan LockEvent, func()) {
	return g.session.Subscribe()
}

// =============================================================================
// PIN LIFECYCLE
// =============================================================================

// HasPinSet reports whether a PIN is configured.
func (g *Guard) HasPinSet(ctx context.Context) (bool, error) {
	rec, err := g.read(ctx, "has pin")
	if err != nil {
		return false, err
	}
	return rec.HasPin(), nil
}

// SetPin stores a new PIN, marks the record locked and clears any lockout.
func (g *Guard) SetPin(ctx context.Context, pin string) error {
	if pin == "" {
		return fmt.Errorf("set pin: %w: empty PIN", ErrInvalidInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.load(ctx, "set pin")
	if err != nil {
		return err
	}

	hash, err := g.hasher.Hash(pin, PinSalt)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	replaced := rec.HasPin()
	rec.PinHash = hash
	rec.IsLocked = true
	clearFailures(rec)

	if err := g.save(ctx, "set pin", rec); err != nil {
		return err
	}
	g.logEvent(EventPinSet, true, map[string]string{
		"replaced": strconv.FormatBool(replaced),
		"scheme":   string(g.hasher.Scheme()),
	})
	return nil
}

// RemovePin clears the PIN together with all recovery material and unlocks
// the session. Removing when no PIN is set is not an error.
func (g *Guard) RemovePin(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.load(ctx, "remove pin")
	if err != nil {
		return err
	}

	hadPin := rec.HasPin()
	rec.PinHash = ""
	rec.IsLocked = false
	rec.ClearSecurityQuestions()

	if err := g.save(ctx, "remove pin", rec); err != nil {
		return err
	}
	g.session.set(true, ReasonPinRemoved, g.clock.Now())
	g.logEvent(EventPinRemoved, true, map[string]string{"had_pin": strconv.FormatBool(hadPin)})
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidatePin checks pin against the stored hash and advances the lockout
// state machine. Wrong PINs and active lockouts are reported in the result;
// the error is non-nil only for an empty PIN or a store failure, in which
// case nothing was persisted and the session is unchanged.
func (g *Guard) ValidatePin(ctx context.Context, pin string) (ValidationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.load(ctx, "validate pin")
	if err != nil {
		return ValidationResult{}, err
	}
	now := g.clock.Now()

	if lockoutActive(rec, now) {
		g.logEvent(EventPinBlocked, false, map[string]string{
			"remaining_seconds": strconv.Itoa(lockoutStatus(rec, now).RemainingSeconds),
		})
		return ValidationResult{LockedOut: true}, nil
	}

	expired := expireLockout(rec, now)

	if !rec.HasPin() {
		if expired {
			if err := g.save(ctx, "validate pin", rec); err != nil {
				return ValidationResult{}, err
			}
		}
		if !g.session.IsUnlocked() {
			g.session.set(true, ReasonNoPin, now)
		}
		return ValidationResult{Success: true, RemainingAttempts: MaxFailedAttempts}, nil
	}

	if pin == "" {
		if expired {
			if err := g.save(ctx, "validate pin", rec); err != nil {
				return ValidationResult{}, err
			}
			g.logEvent(EventLockoutExpired, true, nil)
		}
		return ValidationResult{}, fmt.Errorf("validate pin: %w: empty PIN", ErrInvalidInput)
	}

	ok, needsUpgrade := g.hasher.Verify(pin, PinSalt, rec.PinHash)
	if ok {
		upgraded := false
		if needsUpgrade {
			if hash, err := g.hasher.Hash(pin, PinSalt); err == nil {
				rec.PinHash = hash
				upgraded = true
			} else {
				log.Printf("security: PIN hash upgrade skipped: %v", err)
			}
		}
		accessed, activity := now, now
		rec.LastAccessedAt = &accessed
		rec.LastActivityAt = &activity
		clearFailures(rec)

		if err := g.save(ctx, "validate pin", rec); err != nil {
			return ValidationResult{}, err
		}
		if expired {
			g.logEvent(EventLockoutExpired, true, nil)
		}
		if upgraded {
			g.logEvent(EventPinUpgraded, true, map[string]string{"scheme": string(g.hasher.Scheme())})
		}
		g.logEvent(EventPinVerified, true, nil)
		g.session.set(true, ReasonPinVerified, now)
		return ValidationResult{Success: true, RemainingAttempts: MaxFailedAttempts}, nil
	}

	lockedOut := recordFailure(rec, now)
	if err := g.save(ctx, "validate pin", rec); err != nil {
		return ValidationResult{}, err
	}
	if expired {
		g.logEvent(EventLockoutExpired, true, nil)
	}

	if lockedOut {
		g.logEvent(EventLockoutTriggered, false, map[string]string{
			"duration_seconds": strconv.Itoa(int(LockoutDuration / time.Second)),
		})
		return ValidationResult{LockedOut: true}, nil
	}

	remaining := MaxFailedAttempts - rec.FailedAttempts
	g.logEvent(EventPinFailed, false, map[string]string{
		"failed_attempts":    strconv.Itoa(rec.FailedAttempts),
		"remaining_attempts": strconv.Itoa(remaining),
	})
	return ValidationResult{RemainingAttempts: remaining}, nil
}

// CheckLockoutStatus reports an active lockout without changing any state.
func (g *Guard) CheckLockoutStatus(ctx context.Context) (LockoutStatus, error) {
	rec, err := g.read(ctx, "check lockout")
	if err != nil {
		return LockoutStatus{}, err
	}
	return lockoutStatus(rec, g.clock.Now()), nil
}

// =============================================================================
// RECOVERY
// =============================================================================

// SetSecurityQuestions stores three questions verbatim with their hashed,
// normalized answers.
func (g *Guard) SetSecurityQuestions(ctx context.Context, questions, answers [3]string) error {
	for i := range questions {
		if strings.TrimSpace(questions[i]) == "" {
			return fmt.Errorf("set security questions: %w: question %d is empty", ErrInvalidInput, i+1)
		}
		if NormalizeAnswer(answers[i]) == "" {
			return fmt.Errorf("set security questions: %w: answer %d is empty", ErrInvalidInput, i+1)
		}
	}

	var hashes [3]string
	for i, a := range answers {
		h, err := g.hasher.Hash(NormalizeAnswer(a), RecoverySalt)
		if err != nil {
			return fmt.Errorf("set security questions: %w", err)
		}
		hashes[i] = h
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.load(ctx, "set security questions")
	if err != nil {
		return err
	}
	rec.SecurityQuestions = questions
	rec.SecurityAnswerHashes = hashes

	if err := g.save(ctx, "set security questions", rec); err != nil {
		return err
	}
	g.logEvent(EventRecoverySet, true, nil)
	return nil
}

// HasSecurityQuestions reports whether all three questions are set.
func (g *Guard) HasSecurityQuestions(ctx context.Context) (bool, error) {
	rec, err := g.read(ctx, "has security questions")
	if err != nil {
		return false, err
	}
	return rec.HasSecurityQuestions(), nil
}

// SecurityQuestions returns the stored questions, empty strings when unset.
func (g *Guard) SecurityQuestions(ctx context.Context) ([3]string, error) {
	rec, err := g.read(ctx, "security questions")
	if err != nil {
		return [3]string{}, err
	}
	return rec.SecurityQuestions, nil
}

// ValidateSecurityAnswers reports whether all three answers match. It does
// not unlock anything; callers follow a true result with
// ResetPinWithRecovery.
//
// A wrong set of answers counts as one failed attempt against the same
// limit as ValidatePin, and answers are refused while a lockout is active.
func (g *Guard) ValidateSecurityAnswers(ctx context.Context, answers [3]string) (bool, error) {
	var normalized [3]string
	for i, a := range answers {
		normalized[i] = NormalizeAnswer(a)
		if normalized[i] == "" {
			return false, fmt.Errorf("validate security answers: %w: answer %d is empty", ErrInvalidInput, i+1)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.load(ctx, "validate security answers")
	if err != nil {
		return false, err
	}
	if !rec.HasSecurityQuestions() {
		return false, nil
	}
	now := g.clock.Now()

	if lockoutActive(rec, now) {
		g.logEvent(EventPinBlocked, false, map[string]string{
			"target":            "recovery_answers",
			"remaining_seconds": strconv.Itoa(lockoutStatus(rec, now).RemainingSeconds),
		})
		return false, nil
	}
	expired := expireLockout(rec, now)

	valid, upgrade := true, false
	for i := range normalized {
		stored := rec.SecurityAnswerHashes[i]
		ok, needsUpgrade := g.hasher.Verify(normalized[i], RecoverySalt, stored)
		if !ok && !IsPBKDF2Hash(stored) {
			// Rewrite on success so the next check matches the current form.
			ok, _ = g.hasher.Verify(legacyNormalizeAnswer(answers[i]), RecoverySalt, stored)
			needsUpgrade = ok
		}
		valid = valid && ok
		upgrade = upgrade || needsUpgrade
	}

	if !valid {
		lockedOut := recordFailure(rec, now)
		if err := g.save(ctx, "validate security answers", rec); err != nil {
			return false, err
		}
		if expired {
			g.logEvent(EventLockoutExpired, true, nil)
		}
		g.logEvent(EventRecoveryFailed, false, map[string]string{
			"failed_attempts": strconv.Itoa(rec.FailedAttempts),
		})
		if lockedOut {
			g.logEvent(EventLockoutTriggered, false, map[string]string{
				"duration_seconds": strconv.Itoa(int(LockoutDuration / time.Second)),
			})
		}
		return false, nil
	}

	switch {
	case upgrade:
		g.upgradeAnswers(ctx, rec, normalized)
	case expired:
		if err := g.save(ctx, "validate security answers", rec); err != nil {
			return false, err
		}
	}
	if expired {
		g.logEvent(EventLockoutExpired, true, nil)
	}
	g.logEvent(EventRecoveryVerified, true, nil)
	return true, nil
}

// upgradeAnswers rewrites answer hashes with the current scheme. Failure
// leaves the old, still valid hashes in place.
func (g *Guard) upgradeAnswers(ctx context.Context, rec *settings.Record, normalized [3]string) {
	for i, a := range normalized {
		h, err := g.hasher.Hash(a, RecoverySalt)
		if err != nil {
			log.Printf("security: recovery hash upgrade skipped: %v", err)
			return
		}
		rec.SecurityAnswerHashes[i] = h
	}
	if err := g.save(ctx, "upgrade security answers", rec); err != nil {
		log.Printf("security: recovery hash upgrade not saved: %v", err)
		return
	}
	g.logEvent(EventPinUpgraded, true, map[string]string{
		"target": "recovery_answers",
		"scheme": string(g.hasher.Scheme()),
	})
}

// ResetPinWithRecovery replaces the PIN, clears any lockout and unlocks the
// session. It does not check answers: callers must have had
// ValidateSecurityAnswers return true first.
func (g *Guard) ResetPinWithRecovery(ctx context.Context, newPin string) error {
	if newPin == "" {
		return fmt.Errorf("reset pin: %w: empty PIN", ErrInvalidInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.load(ctx, "reset pin")
	if err != nil {
		return err
	}

	hash, err := g.hasher.Hash(newPin, PinSalt)
	if err != nil {
		return fmt.Errorf("reset pin: %w", err)
	}
	wasLockedOut := rec.LockoutEndTime != nil
	rec.PinHash = hash
	clearFailures(rec)

	if err := g.save(ctx, "reset pin", rec); err != nil {
		return err
	}
	g.session.set(true, ReasonPinReset, g.clock.Now())
	g.logEvent(EventPinReset, true, map[string]string{"cleared_lockout": strconv.FormatBool(wasLockedOut)})
	return nil
}

// =============================================================================
// AUTO-LOCK
// =============================================================================

// UpdateActivity records user interaction now.
func (g *Guard) UpdateActivity(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.load(ctx, "update activity")
	if err != nil {
		return err
	}
	now := g.clock.Now()
	rec.LastActivityAt = &now
	return g.save(ctx, "update activity", rec)
}

// ShouldAutoLock reports whether the inactivity timeout has elapsed.
func (g *Guard) ShouldAutoLock(ctx context.Context) (bool, error) {
	rec, err := g.read(ctx, "should auto lock")
	if err != nil {
		return false, err
	}
	return shouldAutoLock(rec, g.clock.Now()), nil
}

// AutoLockIfIdle locks an unlocked session when ShouldAutoLock holds and
// reports whether it did.
func (g *Guard) AutoLockIfIdle(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.load(ctx, "auto lock")
	if err != nil {
		return false, err
	}
	now := g.clock.Now()
	if !g.session.IsUnlocked() || !shouldAutoLock(rec, now) {
		return false, nil
	}

	g.session.set(false, ReasonAutoLock, now)
	g.logEvent(EventAutoLock, true, map[string]string{"timeout": rec.LockTimeout.String()})
	return true, nil
}

// Lock engages the session lock. Lockout state is not touched.
func (g *Guard) Lock() {
	g.session.set(false, ReasonManual, g.clock.Now())
	g.logEvent(EventSessionLocked, true, nil)
}

// Unlock releases the session lock without a PIN. Lockout state is not touched.
func (g *Guard) Unlock() {
	g.session.set(true, ReasonManual, g.clock.Now())
	g.logEvent(EventSessionUnlocked, true, nil)
}

// SetLockTimeout changes the inactivity threshold.
func (g *Guard) SetLockTimeout(ctx context.Context, t settings.LockTimeout) error {
	if !t.Valid() {
		return fmt.Errorf("set lock timeout: %w: %v", ErrInvalidInput, t)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.load(ctx, "set lock timeout")
	if err != nil {
		return err
	}
	old := rec.LockTimeout
	rec.LockTimeout = t

	if err := g.save(ctx, "set lock timeout", rec); err != nil {
		return err
	}
	g.logEvent(EventLockTimeoutSet, true, map[string]string{"from": old.String(), "to": t.String()})
	return nil
}

// LockTimeout returns the inactivity threshold.
func (g *Guard) LockTimeout(ctx context.Context) (settings.LockTimeout, error) {
	rec, err := g.read(ctx, "lock timeout")
	if err != nil {
		return 0, err
	}
	return rec.LockTimeout, nil
}

// =============================================================================
// ONBOARDING & PREFERENCES
// =============================================================================

// HasCompletedOnboarding reports the onboarding flag.
func (g *Guard) HasCompletedOnboarding(ctx context.Context) (bool, error) {
	rec, err := g.read(ctx, "onboarding")
	if err != nil {
		return false, err
	}
	return rec.HasCompletedOnboarding, nil
}

// CompleteOnboarding sets the onboarding flag.
func (g *Guard) CompleteOnboarding(ctx context.Context) error {
	return g.update(ctx, "complete onboarding", func(rec *settings.Record) error {
		rec.HasCompletedOnboarding = true
		return nil
	})
}

// Preferences returns the display preferences.
func (g *Guard) Preferences(ctx context.Context) (settings.Preferences, error) {
	rec, err := g.read(ctx, "preferences")
	if err != nil {
		return settings.Preferences{}, err
	}
	return rec.Preferences, nil
}

// SetPreferences validates and stores display preferences.
func (g *Guard) SetPreferences(ctx context.Context, p settings.Preferences) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("set preferences: %w: %w", ErrInvalidInput, err)
	}
	return g.update(ctx, "set preferences", func(rec *settings.Record) error {
		rec.Preferences = p
		return nil
	})
}

// =============================================================================
// STATUS
// =============================================================================

// Status is a consistent snapshot of the guard for display.
type Status struct {
	HasPin            bool                 `json:"has_pin"`
	Unlocked          bool                 `json:"unlocked"`
	LockedOut         bool                 `json:"locked_out"`
	RemainingSeconds  int                  `json:"remaining_seconds,omitempty"`
	FailedAttempts    int                  `json:"failed_attempts"`
	RemainingAttempts int                  `json:"remaining_attempts"`
	HasRecovery       bool                 `json:"has_recovery"`
	LockTimeout       settings.LockTimeout `json:"lock_timeout"`
	ShouldAutoLock    bool                 `json:"should_auto_lock"`
	LastActivityAt    *time.Time           `json:"last_activity_at,omitempty"`
	LastAccessedAt    *time.Time           `json:"last_accessed_at,omitempty"`
	Onboarded         bool                 `json:"onboarded"`
}

// Status returns a read-only snapshot.
func (g *Guard) Status(ctx context.Context) (Status, error) {
	rec, err := g.read(ctx, "status")
	if err != nil {
		return Status{}, err
	}
	now := g.clock.Now()
	lockout := lockoutStatus(rec, now)

	attempts := rec.FailedAttempts
	if rec.LockoutEndTime != nil && !lockout.LockedOut {
		attempts = 0
	}
	remaining := MaxFailedAttempts - attempts
	if lockout.LockedOut {
		remaining = 0
	}

	return Status{
		HasPin:            rec.HasPin(),
		Unlocked:          g.session.IsUnlocked(),
		LockedOut:         lockout.LockedOut,
		RemainingSeconds:  lockout.RemainingSeconds,
		FailedAttempts:    attempts,
		RemainingAttempts: remaining,
		HasRecovery:       rec.HasSecurityQuestions(),
		LockTimeout:       rec.LockTimeout,
		ShouldAutoLock:    shouldAutoLock(rec, now),
		LastActivityAt:    rec.LastActivityAt,
		LastAccessedAt:    rec.LastAccessedAt,
		Onboarded:         rec.HasCompletedOnboarding,
	}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// read loads a consistent record for a read-only operation.
func (g *Guard) read(ctx context.Context, op string) (*settings.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.load(ctx, op)
}

// update applies fn to the record and saves it (caller must not hold mu).
func (g *Guard) update(ctx context.Context, op string, fn func(*settings.Record) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.load(ctx, op)
	if err != nil {
		return err
	}
	if err := fn(rec); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return g.save(ctx, op, rec)
}

func (g *Guard) load(ctx context.Context, op string) (*settings.Record, error) {
	rec, err := g.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

func (g *Guard) save(ctx context.Context, op string, rec *settings.Record) error {
	if err := g.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// logEvent writes an audit event. Audit failures are reported on stderr and
// never fail the guard operation.
func (g *Guard) logEvent(eventType string, success bool, metadata map[string]string) {
	if err := g.audit.LogEvent(g.session.ID(), eventType, success, metadata); err != nil {
		log.Printf("security: audit %s: %v", eventType, err)
	}
}
