// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reasons attached to lock events.
const (
	ReasonManual      = "manual"
	ReasonAutoLock    = "auto_lock"
	ReasonPinVerified = "pin_verified"
	ReasonNoPin       = "no_pin"
	ReasonPinRemoved  = "pin_removed"
	ReasonPinReset    = "pin_reset"
)

// LockEvent is delivered to subscribers whenever the session flag is set.
type LockEvent struct {
	Unlocked bool      `json:"unlocked"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}

// =============================================================================
// SESSION
// =============================================================================

// Session holds the process-wide unlocked flag. It starts unlocked; the UI
// engages the lock once a PIN exists.
type Session struct {
	id string

	mu       sync.Mutex
	unlocked bool
	subs     []*subscriber
	nextSub  int
}

type subscriber struct {
	id int
	ch chan LockEvent
}

// NewSession creates an unlocked session with a fresh id.
func NewSession() *Session {
	return &Session{
		id:       uuid.NewString(),
		unlocked: true,
	}
}

// ID identifies the session in audit records.
func (s *Session) ID() string {
	return s.id
}

// IsUnlocked returns the current flag.
func (s *Session) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked
}

// Subscribe registers for lock events. Each subscriber has a one-event
// buffer; if it has not drained the previous event, that event is replaced
// by the newer one so publishing never waits. cancel unregisters and
// closes the channel.
func (s *Session) Subscribe() (<-chan LockEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	sub := &subscriber{id: s.nextSub, ch: make(chan LockEvent, 1)}
	s.subs = append(s.subs, sub)

	var once sync.Once
	cancel := func() {
		once.Do(func() { s.unsubscribe(sub.id) })
	}
	return sub.ch, cancel
}

func (s *Session) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// set updates the flag and publishes the event to every subscriber in
// subscription order.
func (s *Session) set(unlocked bool, reason string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unlocked = unlocked
	ev := LockEvent{Unlocked: unlocked, Reason: reason, At: at}
	for _, sub := range s.subs {
		publish(sub.ch, ev)
	}
}

// publish delivers ev without blocking, dropping a stale pending event.
func publish(ch chan LockEvent, ev LockEvent) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}
