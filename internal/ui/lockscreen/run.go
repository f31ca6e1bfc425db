// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lockscreen

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/whitespc/whitespc/internal/config"
)

// Run shows the lock screen until the user quits or ctx is cancelled.
// When opts.ConfigPath is set, edits to the [ui] section are applied live
// and valid reloads replace config.Global.
// Operational log lines go to opts.LogPath while the screen is up.
func Run(ctx context.Context, g Guard, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.LogPath != "" {
		f, err := tea.LogToFile(opts.LogPath, "whitespc")
		if err != nil {
			return fmt.Errorf("lock screen log: %w", err)
		}
		defer func() {
			log.SetOutput(os.Stderr)
			log.SetPrefix("")
			f.Close()
		}()
	}

	m := New(g, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if opts.ConfigPath != "" {
		err := config.Watch(ctx, opts.ConfigPath, config.DefaultWatchDebounce, func(cfg *config.Config, err error) {
			if err != nil {
				log.Printf("lockscreen: ignoring config change: %v", err)
				return
			}
			config.SetGlobal(cfg)
			p.Send(ConfigChangedMsg{
				PollInterval:     time.Duration(cfg.UI.PollIntervalMs) * time.Millisecond,
				ActivityInterval: time.Duration(cfg.UI.ActivityIntervalSecs) * time.Second,
			})
		})
		if err != nil {
			log.Printf("lockscreen: config watch disabled: %v", err)
		}
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("lock screen: %w", err)
	}
	return nil
}
