// Package mrlist implements the merge request list screen.
package mrlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/colonyops/mrview/internal/api"
	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/core/styles"
	"github.com/colonyops/mrview/internal/tui/components"
	"github.com/colonyops/mrview/internal/tui/notify"
)

// Lister fetches merge request summaries.
type Lister interface {
	List(ctx context.Context, status string) ([]mr.Summary, error)
}

// OpenMsg asks the parent model to open the review screen for ID.
type OpenMsg struct {
	ID string
}

type listLoadedMsg struct {
	seq   uint64
	items []mr.Summary
	err   error
}

// Deps wires the list screen to its collaborators.
type Deps struct {
	Lister  Lister
	Bus     *notify.Bus
	Logger  zerolog.Logger
	Timeout time.Duration
	Status  string
	Now     func() time.Time
}

// View is the Bubble Tea sub-model for the merge request list.
type View struct {
	ctrl    *Controller
	lister  Lister
	bus     *notify.Bus
	log     zerolog.Logger
	timeout time.Duration
	now     func() time.Time

	filter    textinput.Model
	filtering bool
	spinner   spinner.Model

	width  int
	height int
}

// New creates the list view. Call Load or Init to fetch.
func New(d Deps) View {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter by title, path or id"

	s := spinner.New()
	s.Spinner = spinner.Dot

	return View{
		ctrl:    NewController(d.Status),
		lister:  d.Lister,
		bus:     d.Bus,
		log:     d.Logger,
		timeout: d.Timeout,
		now:     now,
		filter:  ti,
		spinner: s,
		width:   80,
		height:  24,
	}
}

// Init fetches the list.
func (v View) Init() tea.Cmd {
	return v.Load()
}

// Load starts a fetch for the current status filter.
func (v View) Load() tea.Cmd {
	seq := v.ctrl.BeginLoad()
	status := v.ctrl.Status()
	lister, timeout, log := v.lister, v.timeout, v.log

	fetch := func() (msg tea.Msg) {
		defer func() {
			if p := recover(); p != nil {
				log.Error().Interface("panic", p).Msg("list fetch panicked")
				msg = listLoadedMsg{seq: seq, err: fmt.Errorf("list: panic: %v", p)}
			}
		}()

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		items, err := lister.List(ctx, status)
		return listLoadedMsg{seq: seq, items: items, err: err}
	}

	return tea.Batch(fetch, v.spinner.Tick)
}

// Controller exposes the underlying controller.
func (v View) Controller() *Controller {
	return v.ctrl
}

// HasEditorFocus reports whether keys are going to the filter input.
func (v View) HasEditorFocus() bool {
	return v.filtering
}

// SetSize updates the view dimensions.
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.filter.SetWidth(max(width-4, 10))
}

// Update handles messages for the list view.
func (v View) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case listLoadedMsg:
		if !v.ctrl.Apply(msg.seq, msg.items, msg.err) {
			return v, nil
		}
		if msg.err != nil {
			v.log.Error().Err(msg.err).Str("status", v.ctrl.Status()).Msg("failed to list merge requests")
			v.bus.Errorf("Load merge requests: %s", api.Message(msg.err))
		}
		return v, nil
	case spinner.TickMsg:
		if !v.ctrl.Loading() {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	case tea.KeyMsg:
		if v.filtering {
			return v.handleFilterKey(msg)
		}
		return v.handleKey(msg)
	}
	return v, nil
}

func (v View) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		v.ctrl.Move(1)
	case "k", "up":
		v.ctrl.Move(-1)
	case "g", "home":
		v.ctrl.Home()
	case "G", "end":
		v.ctrl.End()
	case "enter":
		if sel, ok := v.ctrl.Selected(); ok {
			return v, func() tea.Msg { return OpenMsg{ID: sel.ID} }
		}
	case "/":
		v.filtering = true
		cmd := v.filter.Focus()
		return v, cmd
	case "s":
		v.ctrl.CycleStatus()
		return v, v.Load()
	case "R", "r":
		return v, v.Load()
	}
	return v, nil
}

func (v View) handleFilterKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.filtering = false
		v.filter.Blur()
		v.filter.Reset()
		v.ctrl.SetQuery("")
		return v, nil
	case "enter":
		v.filtering = false
		v.filter.Blur()
		return v, nil
	case "down", "up":
		if msg.String() == "down" {
			v.ctrl.Move(1)
		} else {
			v.ctrl.Move(-1)
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.filter, cmd = v.filter.Update(msg)
	v.ctrl.SetQuery(v.filter.Value())
	return v, cmd
}

// View renders the list.
func (v View) View() string {
	sections := []string{v.renderHeader()}
	if v.filtering || v.ctrl.Query() != "" {
		sections = append(sections, v.filter.View())
	}
	sections = append(sections, v.renderRows(), v.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v View) renderHeader() string {
	title := styles.TitleStyle.Render("Merge requests")
	meta := fmt.Sprintf("%s (%d)", v.ctrl.Status(), len(v.ctrl.Visible()))
	if v.ctrl.Loading() {
		meta += " " + v.spinner.View()
	}
	return title + " " + styles.MutedStyle.Render(meta) + "\n"
}

func (v View) rowsHeight() int {
	h := v.height - 4 // header, blank, help
	if v.filtering || v.ctrl.Query() != "" {
		h--
	}
	return max(h, 1)
}

func (v View) renderRows() string {
	visible := v.ctrl.Visible()
	switch {
	case len(visible) > 0:
	case !v.ctrl.Loaded() && v.ctrl.Loading():
		return styles.MutedStyle.Render("Loading…")
	case !v.ctrl.Loaded() && v.ctrl.Err() != nil:
		return styles.ErrorStyle.Render("Could not load merge requests. Press r to retry.")
	case v.ctrl.Query() != "":
		return styles.MutedStyle.Render("No merge requests match the filter.")
	default:
		return styles.MutedStyle.Render("No merge requests.")
	}

	// Scroll so the cursor stays on screen.
	height := v.rowsHeight()
	start := 0
	if v.ctrl.Cursor() >= height {
		start = v.ctrl.Cursor() - height + 1
	}
	end := min(start+height, len(visible))

	now := v.now()
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, v.renderRow(visible[i], i == v.ctrl.Cursor(), now))
	}
	return strings.Join(rows, "\n")
}

func (v View) renderRow(s mr.Summary, selected bool, now time.Time) string {
	marker := "  "
	titleStyle := styles.ListNormalStyle
	if selected {
		marker = styles.ListSelectedStyle.Render("▸ ")
		titleStyle = styles.ListSelectedStyle
	}

	parts := []string{
		marker + components.StatusBadge(s.Status),
		styles.MutedStyle.Render("!" + s.ID),
		titleStyle.Render(s.Title),
	}
	if s.Path != "" {
		parts = append(parts, styles.MutedStyle.Render(s.Path))
	}
	if !s.UpdatedAt.IsZero() {
		parts = append(parts, styles.MutedStyle.Render(humanize.RelTime(s.UpdatedAt, now, "ago", "from now")))
	}

	return ansi.Truncate(strings.Join(parts, " "), v.width, "…")
}

func (v View) renderHelp() string {
	if v.filtering {
		return styles.HelpStyle.Render("enter apply • esc clear")
	}
	return styles.HelpStyle.Render("enter open • / filter • s status • r reload • ? help • q quit")
}
