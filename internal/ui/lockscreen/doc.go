// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package lockscreen is the Bubble Tea front end of the access guard.

It covers the journal until the PIN is entered, counts down an active
lockout, walks through the three security questions to reset a forgotten
PIN (not offered during a lockout, since wrong answers count toward it),
and relocks the session after the configured idle timeout.

Guard calls never run inside Update. Each one is a tea.Cmd whose result
comes back as a message, so slow PBKDF2 verification does not freeze the
screen. Periodic checks are tea.Tick chains tagged with a generation
number; leaving a state bumps the generation and orphans the old chain.

Usage:

	err := lockscreen.Run(ctx, guard, lockscreen.OptionsFromConfig(cfg))
*/
package lockscreen
