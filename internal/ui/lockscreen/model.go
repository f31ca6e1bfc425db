// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lockscreen

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"github.com/whitespc/whitespc/internal/config"
	"github.com/whitespc/whitespc/internal/security"
	"github.com/whitespc/whitespc/internal/settings"
	"github.com/whitespc/whitespc/internal/ui/styles"
)

// Guard is the part of security.Guard the lock screen drives.
type Guard interface {
	Status(ctx context.Context) (security.Status, error)
	ValidatePin(ctx context.Context, pin string) (security.ValidationResult, error)
	CheckLockoutStatus(ctx context.Context) (security.LockoutStatus, error)
	LockTimeout(ctx context.Context) (settings.LockTimeout, error)
	AutoLockIfIdle(ctx context.Context) (bool, error)
	SecurityQuestions(ctx context.Context) ([3]string, error)
	ValidateSecurityAnswers(ctx context.Context, answers [3]string) (bool, error)
	ResetPinWithRecovery(ctx context.Context, newPin string) error
	SetPin(ctx context.Context, pin string) error
	UpdateActivity(ctx context.Context) error
	CompleteOnboarding(ctx context.Context) error
	Subscribe() (<-chan security.LockEvent, func())
	Lock()
}

// =============================================================================
// STATE
// =============================================================================

type state int

const (
	stateLoading   state = iota // waiting for the first status snapshot
	stateOpen                   // journal unlocked
	statePin                    // PIN entry
	stateLockedOut              // lockout countdown
	stateRecovery               // answering security questions
	stateNewPin                 // choosing a PIN (set or recovery reset)
)

// =============================================================================
// OPTIONS
// =============================================================================

// Default intervals, matching config.Default().
const (
	DefaultPollInterval     = time.Second
	DefaultActivityInterval = 15 * time.Second
)

// Options configures a lock screen.
type Options struct {
	Theme            *styles.Theme
	PollInterval     time.Duration
	ActivityInterval time.Duration
	// StartLocked engages the lock at startup even when no PIN is set.
	StartLocked bool
	// ConfigPath, when set, is watched for UI interval changes by Run.
	ConfigPath string
	// LogPath receives log output while the alternate screen is active.
	LogPath string
}

// OptionsFromConfig maps the [ui] config section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		PollInterval:     time.Duration(cfg.UI.PollIntervalMs) * time.Millisecond,
		ActivityInterval: time.Duration(cfg.UI.ActivityIntervalSecs) * time.Second,
	}
	if path, err := config.ConfigPath(); err == nil {
		opts.ConfigPath = path
	}
	if dir, err := config.ConfigDir(); err == nil {
		opts.LogPath = filepath.Join(dir, "whitespc.log")
	}
	return opts
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the lock screen.
type Model struct {
	guard Guard
	theme *styles.Theme
	keys  KeyMap
	input textinput.Model

	state       state
	startLocked bool
	busy        bool

	status            security.Status
	remainingAttempts int
	lockoutSeconds    int

	// Recovery
	questions [3]string
	answers   [3]string
	answerIdx int

	// New PIN entry
	firstPin   string
	confirming bool
	resetting  bool

	notice string
	errMsg string

	pollInterval time.Duration
	activity     *rate.Limiter
	lockoutGen   int
	autoGen      int

	events      <-chan security.LockEvent
	unsubscribe func()
}

// New creates a lock screen for g. It subscribes to lock events right away
// so nothing is missed before Init runs; call Close when done.
func New(g Guard, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.DefaultAccent)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ActivityInterval <= 0 {
		opts.ActivityInterval = DefaultActivityInterval
	}

	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 32
	ti.Prompt = "> "
	ti.PromptStyle = theme.Prompt
	ti.TextStyle = theme.InputText
	ti.PlaceholderStyle = theme.Placeholder
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(theme.Accent)
	ti.EchoCharacter = '*'

	events, unsubscribe := g.Subscribe()

	return Model{
		guard:        g,
		theme:        theme,
		keys:         DefaultKeyMap(),
		input:        ti,
		state:        stateLoading,
		startLocked:  opts.StartLocked,
		pollInterval: opts.PollInterval,
		activity:     rate.NewLimiter(rate.Every(opts.ActivityInterval), 1),
		events:       events,
		unsubscribe:  unsubscribe,
	}
}

// Close releases the lock event subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init loads the guard status and starts listening for lock events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadStatus(m.guard, m.startLocked),
		waitForEvent(m.events),
		textinput.Blink,
	)
}

// Locked reports whether the lock screen is covering the journal.
func (m Model) Locked() bool {
	return m.state != stateOpen
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func (m *Model) enterOpen(notice string) tea.Cmd {
	if m.state == stateOpen {
		return nil
	}
	m.state = stateOpen
	m.busy = false
	m.errMsg = ""
	m.notice = notice
	m.clearRecovery()
	m.input.Reset()
	m.input.Blur()
	m.lockoutGen++
	m.autoGen++
	return autoLockTick(m.autoGen, m.pollInterval)
}

// enterLocked shows PIN entry and asks the guard whether a lockout is
// running, which may move the screen on to the countdown.
func (m *Model) enterLocked(notice string) tea.Cmd {
	m.state = statePin
	m.busy = false
	m.notice = notice
	m.errMsg = ""
	m.clearRecovery()
	m.autoGen++
	return tea.Batch(m.focusInput(textinput.EchoPassword), checkLockout(m.guard))
}

func (m *Model) beginRecovery() tea.Cmd {
	if !m.status.HasRecovery {
		m.errMsg = "No security questions are set up."
		return nil
	}
	m.busy = true
	m.errMsg = ""
	return loadQuestions(m.guard)
}

func (m *Model) beginNewPin(resetting bool) tea.Cmd {
	m.state = stateNewPin
	m.resetting = resetting
	m.firstPin = ""
	m.confirming = false
	m.errMsg = ""
	return m.focusInput(textinput.EchoPassword)
}

func (m *Model) focusInput(mode textinput.EchoMode) tea.Cmd {
	m.input.Reset()
	m.input.EchoMode = mode
	return m.input.Focus()
}

func (m *Model) clearRecovery() {
	m.questions = [3]string{}
	m.answers = [3]string{}
	m.answerIdx = 0
	m.firstPin = ""
	m.confirming = false
	m.resetting = false
}
