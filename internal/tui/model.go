// Package tui implements the mrview terminal UI.
package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/colonyops/mrview/internal/core/config"
	"github.com/colonyops/mrview/internal/core/draft"
	"github.com/colonyops/mrview/internal/core/logging"
	"github.com/colonyops/mrview/internal/core/notify"
	"github.com/colonyops/mrview/internal/diffrender"
	"github.com/colonyops/mrview/internal/tui/components"
	tuinotify "github.com/colonyops/mrview/internal/tui/notify"
	"github.com/colonyops/mrview/internal/tui/views/mrlist"
	"github.com/colonyops/mrview/internal/tui/views/mrreview"
)

// Backend is everything the TUI asks of the server.
type Backend interface {
	mrlist.Lister
	mrreview.Backend
}

// Options configures the TUI.
type Options struct {
	Backend  Backend
	Renderer diffrender.Renderer
	Drafts   draft.Store
	Config   *config.Config
	Build    BuildInfo

	// InitialID opens the review screen for this merge request on start.
	InitialID string

	// Now overrides the clock in tests.
	Now func() time.Time
}

type screen int

const (
	screenList screen = iota
	screenReview
)

// Model is the root Bubble Tea model. It owns the list and review screens
// and the toast overlay.
type Model struct {
	screen screen
	list   mrlist.View
	review mrreview.View

	bus             *tuinotify.Bus
	toastController *ToastController
	toastView       *ToastView
	help            *components.HelpDialog

	initialID string
	build     BuildInfo
	log       zerolog.Logger

	width    int
	height   int
	quitting bool
}

// New creates the root model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		def := config.DefaultConfig()
		cfg = &def
	}

	log := logging.Component("tui")

	toasts := NewToastController()
	bus := tuinotify.NewBus(logging.Component("notify"))
	bus.Subscribe(toasts.Push)

	list := mrlist.New(mrlist.Deps{
		Lister:  opts.Backend,
		Bus:     bus,
		Logger:  logging.Component("mrlist"),
		Timeout: cfg.Server.Timeout,
		Status:  cfg.Review.ListStatus,
		Now:     opts.Now,
	})

	review := mrreview.New(mrreview.Deps{
		Backend:         opts.Backend,
		Renderer:        opts.Renderer,
		Drafts:          opts.Drafts,
		Bus:             bus,
		Logger:          logging.Component("mrreview"),
		Timeout:         cfg.Server.Timeout,
		ConfirmMerge:    cfg.Review.ShouldConfirmMerge(),
		StayAfterAction: cfg.Review.StayAfterAction,
		Now:             opts.Now,
	})

	return Model{
		list:            list,
		review:          review,
		bus:             bus,
		toastController: toasts,
		toastView:       NewToastView(toasts),
		initialID:       opts.InitialID,
		build:           opts.Build,
		log:             log,
		width:           80,
		height:          24,
	}
}

// Notify publishes a notification to the toast overlay.
func (m Model) Notify(n notify.Notification) {
	m.bus.Publish(n)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.list.Init(), m.review.Init()}
	if m.initialID != "" {
		cmds = append(cmds, func() tea.Msg { return mrlist.OpenMsg{ID: m.initialID} })
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	return m, tea.Batch(cmd, m.ensureToastTick())
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height)
		m.review.SetSize(msg.Width, msg.Height)
		return m, nil

	case toastTickMsg:
		m.toastController.Tick(toastTickInterval)
		if !m.toastController.HasToasts() {
			m.toastController.SetTicking(false)
			return m, nil
		}
		return m, scheduleToastTick()

	case mrlist.OpenMsg:
		m.log.Debug().Str("mr_id", msg.ID).Msg("opening merge request")
		m.screen = screenReview
		var cmd tea.Cmd
		m.review, cmd = m.review.Mount(msg.ID)
		return m, cmd

	case mrreview.NavigateListMsg:
		id := m.review.Controller().ID()
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.review, cmd = m.review.Unmount()
		cmds = append(cmds, cmd)
		m.screen = screenList
		m.list.Controller().Select(id)
		if msg.Refresh {
			cmds = append(cmds, m.list.Load())
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Everything else is routed by type: both screens ignore messages that
	// are not theirs, and in-flight results must reach the review view even
	// while the list is showing.
	var listCmd, reviewCmd tea.Cmd
	m.list, listCmd = m.list.Update(msg)
	m.review, reviewCmd = m.review.Update(msg)
	return m, tea.Batch(listCmd, reviewCmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m.quit()
	}

	if m.help != nil {
		if key == "esc" || key == "?" || key == "q" {
			m.help = nil
		}
		return m, nil
	}

	if !m.editorFocused() {
		switch key {
		case "?":
			m.help = components.NewHelpDialog(m.helpTitle(), m.helpSections())
			return m, nil
		case "ctrl+x":
			m.toastController.Dismiss()
			return m, nil
		case "q":
			if m.screen == screenList {
				return m.quit()
			}
		}
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenReview:
		m.review, cmd = m.review.Update(msg)
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m Model) editorFocused() bool {
	if m.screen == screenReview {
		return m.review.HasEditorFocus()
	}
	return m.list.HasEditorFocus()
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	var cmd tea.Cmd
	if m.screen == screenReview {
		m.review, cmd = m.review.Unmount()
	}
	// Persist the draft before the program exits.
	return m, tea.Sequence(cmd, tea.Quit)
}

// ensureToastTick starts the expiry ticker once a toast is showing.
func (m Model) ensureToastTick() tea.Cmd {
	if !m.toastController.HasToasts() || m.toastController.Ticking() {
		return nil
	}
	m.toastController.SetTicking(true)
	return scheduleToastTick()
}
