// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSession_StartsUnlocked(t *testing.T) {
	s := NewSession()
	require.True(t, s.IsUnlocked())
	require.Len(t, s.ID(), 36)
	require.NotEqual(t, s.ID(), NewSession().ID())
}

func TestSession_DeliversInSubscriptionOrder(t *testing.T) {
	s := NewSession()
	first, cancel1 := s.Subscribe()
	defer cancel1()
	second, cancel2 := s.Subscribe()
	defer cancel2()

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.set(false, ReasonManual, at)

	for _, ch := range []<-chan LockEvent{first, second} {
		select {
		case ev := <-ch:
			require.Equal(t, LockEvent{Unlocked: false, Reason: ReasonManual, At: at}, ev)
		default:
			t.Fatal("event not delivered")
		}
	}
	require.False(t, s.IsUnlocked())
}

func TestSession_SlowSubscriberNeverBlocks(t *testing.T) {
	s := NewSession()
	events, cancel := s.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.set(i%2 == 0, ReasonManual, time.Time{})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("set blocked on an undrained subscriber")
	}

	// Only the newest event survives in the buffer.
	ev := <-events
	require.False(t, ev.Unlocked)
	select {
	case extra := <-events:
		t.Fatalf("unexpected extra event %+v", extra)
	default:
	}
}

func TestSession_CancelClosesChannel(t *testing.T) {
	s := NewSession()
	events, cancel := s.Subscribe()
	cancel()
	cancel()

	_, open := <-events
	require.False(t, open)

	s.set(false, ReasonManual, time.Time{})
	require.False(t, s.IsUnlocked())
}
