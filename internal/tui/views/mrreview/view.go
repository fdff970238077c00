package mrreview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/colonyops/mrview/internal/api"
	"github.com/colonyops/mrview/internal/core/draft"
	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/core/slots"
	"github.com/colonyops/mrview/internal/core/styles"
	"github.com/colonyops/mrview/internal/diffrender"
	"github.com/colonyops/mrview/internal/timeline"
	"github.com/colonyops/mrview/internal/tui/components"
	"github.com/colonyops/mrview/internal/tui/notify"
)

const (
	headerLines  = 3 // title, meta, tabs
	helpLines    = 1
	composeLines = 6
)

// Deps wires the review screen to its collaborators.
type Deps struct {
	Backend  Backend
	Renderer diffrender.Renderer
	Drafts   draft.Store // nil keeps drafts in memory
	Bus      *notify.Bus
	Logger   zerolog.Logger
	Timeout  time.Duration

	ConfirmMerge    bool
	StayAfterAction bool

	Now func() time.Time
}

// View is the Bubble Tea sub-model for reviewing one merge request.
type View struct {
	ctrl   *Controller
	run    runner
	drafts draft.Store
	bus    *notify.Bus
	log    zerolog.Logger
	now    func() time.Time

	confirmMerge bool
	confirm      *components.ConfirmModal
	pending      mr.Action

	collapsed func(path string) bool

	timeline  *timeline.Renderer
	viewport  viewport.Model
	compose   textarea.Model
	composing bool
	spinner   spinner.Model
	cursor    int

	width  int
	height int
}

// New creates an unmounted review view.
func New(d Deps) View {
	drafts := d.Drafts
	if drafts == nil {
		drafts = draft.NewMemory()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}

	ta := textarea.New()
	ta.Placeholder = "Leave a comment (markdown)…"
	ta.ShowLineNumbers = false
	ta.SetHeight(composeLines - 2)

	s := spinner.New()
	s.Spinner = spinner.Dot

	collapsed := func(string) bool { return false }
	if c, ok := d.Renderer.(interface{ Collapsed(string) bool }); ok {
		collapsed = c.Collapsed
	}

	return View{
		ctrl: NewController(Options{StayAfterAction: d.StayAfterAction}),
		run: runner{
			backend:  d.Backend,
			renderer: d.Renderer,
			timeout:  d.Timeout,
			log:      d.Logger,
		},
		drafts:       drafts,
		bus:          d.Bus,
		log:          d.Logger,
		now:          now,
		confirmMerge: d.ConfirmMerge,
		collapsed:    collapsed,
		timeline:     timeline.NewRenderer(80, d.Logger),
		viewport:     viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
		compose:      ta,
		spinner:      s,
	}
}

// Mount binds the view to id and starts the initial fetches.
func (v View) Mount(id string) (View, tea.Cmd) {
	reqs := v.ctrl.Mount(id)

	v.compose.Reset()
	v.composing = false
	v.compose.Blur()
	v.confirm = nil
	v.cursor = 0
	v.refreshContent()

	return v, tea.Batch(
		v.run.cmds(reqs),
		loadDraft(v.drafts, v.ctrl.Generation(), id),
		v.spinner.Tick,
	)
}

// Unmount persists the compose draft and detaches from the merge request.
func (v View) Unmount() (View, tea.Cmd) {
	if !v.ctrl.Mounted() {
		return v, nil
	}
	cmd := v.persistDraft()
	v.ctrl.Unmount()
	v.composing = false
	v.confirm = nil
	return v, cmd
}

// Init starts the loading spinner and the clock that keeps relative
// timestamps current.
func (v View) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, scheduleClock())
}

// Controller exposes the underlying controller.
func (v View) Controller() *Controller {
	return v.ctrl
}

// HasEditorFocus reports whether keys are going to the compose box.
func (v View) HasEditorFocus() bool {
	return v.composing
}

// SetSize updates the view dimensions.
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.timeline.SetWidth(width)
	v.compose.SetWidth(max(width-2, 10))
	v.viewport.SetWidth(width)
	v.viewport.SetHeight(v.bodyHeight())
	v.refreshContent()
}

func (v View) bodyHeight() int {
	h := v.height - headerLines - helpLines
	if v.composing {
		h -= composeLines
	}
	return max(h, 1)
}

// Update handles messages for the review view.
func (v View) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		return v.handleResult(msg.res)
	case draftLoadedMsg:
		return v.handleDraftLoaded(msg)
	case draftSavedMsg:
		if msg.err != nil {
			v.log.Warn().Err(msg.err).Msg("failed to persist draft")
		}
		return v, nil
	case clockTickMsg:
		if v.ctrl.Mounted() {
			v.refreshContent()
		}
		return v, scheduleClock()
	case spinner.TickMsg:
		if !v.loading() {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v View) loading() bool {
	_, loaded := v.ctrl.Model()
	return v.ctrl.Mounted() && (!loaded || v.ctrl.Busy(slots.Diff) || v.ctrl.Busy(slots.Files))
}

func (v View) handleResult(res Result) (View, tea.Cmd) {
	eff := v.ctrl.Apply(res)

	var cmds []tea.Cmd
	if len(eff.Requests) > 0 {
		cmds = append(cmds, v.run.cmds(eff.Requests))
	}

	if eff.Err != nil {
		v.bus.Errorf("%s", errorText(eff.Err))
	}
	if eff.Warn != "" {
		v.bus.Warnf("%s", eff.Warn)
	}
	if eff.Info != "" {
		v.bus.Infof("%s", eff.Info)
	}

	if eff.ClearDraft {
		v.compose.Reset()
		v.composing = false
		v.compose.Blur()
		v.viewport.SetHeight(v.bodyHeight())
		cmds = append(cmds, deleteDraft(v.drafts, v.ctrl.ID()))
	}

	if eff.Navigate {
		cmds = append(cmds, func() tea.Msg { return NavigateListMsg{Refresh: true} })
	}

	v.clampCursor()
	v.refreshContent()
	return v, tea.Batch(cmds...)
}

func (v View) handleDraftLoaded(msg draftLoadedMsg) (View, tea.Cmd) {
	if msg.gen != v.ctrl.Generation() {
		return v, nil
	}
	if msg.err != nil {
		v.log.Warn().Err(msg.err).Msg("failed to load draft")
		return v, nil
	}
	if msg.ok && v.ctrl.RestoreDraft(msg.draft) {
		v.compose.SetValue(msg.draft.Body)
		v.bus.Infof("Restored unsent comment")
	}
	return v, nil
}

func (v View) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	if v.confirm != nil {
		return v.handleConfirmKey(msg)
	}
	if v.composing {
		return v.handleComposeKey(msg)
	}
	return v.handleNormalKey(msg)
}

func (v View) handleConfirmKey(msg tea.KeyMsg) (View, tea.Cmd) {
	m, _ := v.confirm.Update(msg)
	switch {
	case m.Confirmed():
		v.confirm = nil
		action := v.pending
		v.pending = ""
		return v.dispatch(action)
	case m.Cancelled():
		v.confirm = nil
		v.pending = ""
	default:
		v.confirm = &m
	}
	return v, nil
}

func (v View) handleComposeKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.composing = false
		v.compose.Blur()
		v.ctrl.SetCompose(v.compose.Value())
		v.viewport.SetHeight(v.bodyHeight())
		return v, v.persistDraft()
	case "ctrl+s":
		v.ctrl.SetCompose(v.compose.Value())
		return v.submit()
	}

	var cmd tea.Cmd
	v.compose, cmd = v.compose.Update(msg)
	v.ctrl.SetCompose(v.compose.Value())
	return v, cmd
}

func (v View) handleNormalKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		cmd := v.persistDraft()
		return v, tea.Batch(cmd, func() tea.Msg { return NavigateListMsg{} })
	case "tab":
		next := TabFiles
		if v.ctrl.Tab() == TabFiles {
			next = TabConversation
		}
		return v.activate(next)
	case "1":
		return v.activate(TabConversation)
	case "2":
		return v.activate(TabFiles)
	case "j", "down":
		if v.ctrl.Tab() == TabConversation {
			v.cursor++
			v.clampCursor()
			v.refreshContent()
		} else {
			v.viewport.ScrollDown(1)
		}
	case "k", "up":
		if v.ctrl.Tab() == TabConversation {
			v.cursor--
			v.clampCursor()
			v.refreshContent()
		} else {
			v.viewport.ScrollUp(1)
		}
	case "ctrl+d", "pgdown":
		v.viewport.HalfPageDown()
	case "ctrl+u", "pgup":
		v.viewport.HalfPageUp()
	case "R":
		v.refreshContent()
		return v, v.run.cmds(v.ctrl.Refresh())
	case "c":
		return v.startCompose()
	case "r":
		return v.beginOnSelected(v.ctrl.BeginReply)
	case "e":
		return v.beginOnSelected(v.ctrl.BeginEdit)
	case "m":
		return v.request(mr.ActionMerge)
	case "x":
		return v.request(mr.ActionClose)
	case "o":
		return v.request(mr.ActionReopen)
	}
	return v, nil
}

func (v View) activate(t Tab) (View, tea.Cmd) {
	reqs := v.ctrl.ActivateTab(t)
	v.viewport.GotoTop()
	v.refreshContent()
	if len(reqs) == 0 {
		return v, nil
	}
	return v, tea.Batch(v.run.cmds(reqs), v.spinner.Tick)
}

// request dispatches a lifecycle action, asking first when it is a merge and
// confirmation is enabled.
func (v View) request(action mr.Action) (View, tea.Cmd) {
	if err := v.ctrl.Can(action); err != nil {
		v.bus.Warnf("%s", errorText(err))
		return v, nil
	}

	if action == mr.ActionMerge && v.confirmMerge {
		model, _ := v.ctrl.Model()
		m := components.NewConfirmModal("Merge", fmt.Sprintf("Merge !%s %q?", model.ID, model.Title))
		v.confirm = &m
		v.pending = action
		return v, nil
	}

	return v.dispatch(action)
}

func (v View) dispatch(action mr.Action) (View, tea.Cmd) {
	var (
		req Request
		err error
	)
	switch action {
	case mr.ActionMerge:
		req, err = v.ctrl.Merge()
	case mr.ActionClose:
		req, err = v.ctrl.Close()
	case mr.ActionReopen:
		req, err = v.ctrl.Reopen()
	default:
		return v, nil
	}

	if err != nil {
		v.bus.Warnf("%s", errorText(err))
		return v, nil
	}
	v.refreshContent()
	return v, v.run.cmd(req)
}

func (v View) startCompose() (View, tea.Cmd) {
	if err := v.ctrl.Can(mr.ActionComment); err != nil && !errors.Is(err, mr.ErrBusy) {
		v.bus.Warnf("%s", errorText(err))
		return v, nil
	}
	v.composing = true
	v.viewport.SetHeight(v.bodyHeight())
	cmd := v.compose.Focus()
	return v, cmd
}

func (v View) beginOnSelected(begin func(int64) (string, error)) (View, tea.Cmd) {
	if v.ctrl.Tab() != TabConversation {
		return v, nil
	}
	entry, ok := v.selected()
	if !ok {
		return v, nil
	}

	text, err := begin(entry.ID)
	if err != nil {
		v.bus.Warnf("%s", errorText(err))
		return v, nil
	}
	v.compose.SetValue(text)
	return v.startCompose()
}

func (v View) submit() (View, tea.Cmd) {
	req, err := v.ctrl.Submit(v.compose.Value())
	if err != nil {
		v.bus.Warnf("%s", errorText(err))
		return v, nil
	}
	return v, v.run.cmd(req)
}

func (v View) persistDraft() tea.Cmd {
	if !v.ctrl.Mounted() {
		return nil
	}
	return saveDraft(v.drafts, v.ctrl.Draft())
}

func (v View) selected() (mr.ConversationEntry, bool) {
	model, ok := v.ctrl.Model()
	if !ok || v.cursor < 0 || v.cursor >= len(model.Conversation) {
		return mr.ConversationEntry{}, false
	}
	return model.Conversation[v.cursor], true
}

func (v *View) clampCursor() {
	model, _ := v.ctrl.Model()
	v.cursor = min(v.cursor, len(model.Conversation)-1)
	v.cursor = max(v.cursor, 0)
}

// refreshContent re-renders the active tab into the viewport. The timeline
// is projected against the current time on every call.
func (v *View) refreshContent() {
	if v.ctrl.Tab() == TabFiles {
		v.viewport.SetContent(v.renderFiles())
		return
	}
	v.viewport.SetContent(v.renderConversation())
}

func (v View) renderConversation() string {
	model, ok := v.ctrl.Model()
	if !ok {
		return styles.MutedStyle.Render("Loading merge request…")
	}

	var b strings.Builder
	if desc := strings.TrimSpace(model.Description); desc != "" {
		b.WriteString(lipgloss.NewStyle().Width(max(v.width-2, 20)).Render(desc))
		b.WriteString("\n\n")
	}

	now := v.now()
	entries := timeline.Project(model.Conversation, now)
	b.WriteString(v.timeline.Render(entries, v.cursor, now))
	return b.String()
}

func (v View) renderFiles() string {
	var b strings.Builder

	if files, ok := v.ctrl.Files(); ok {
		for _, f := range files {
			b.WriteString(fileIcon(f.Action))
			b.WriteString(" ")
			b.WriteString(f.Path)
			if v.collapsed(f.Path) {
				b.WriteString(" " + styles.DiffCollapsedStyle.Render("(collapsed)"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	diff, ok := v.ctrl.Diff()
	switch {
	case ok && diff == "":
		b.WriteString(styles.MutedStyle.Render("No changes."))
	case ok:
		b.WriteString(diff)
	case v.ctrl.Busy(slots.Diff):
		b.WriteString(v.spinner.View() + " " + styles.MutedStyle.Render("Loading diff…"))
	default:
		b.WriteString(styles.MutedStyle.Render("Diff not loaded. Press 2 to retry."))
	}

	return b.String()
}

func fileIcon(action string) string {
	switch strings.ToLower(action) {
	case "added", "add", "new":
		return styles.DiffAddStyle.Render(styles.IconFileAdded)
	case "deleted", "delete", "removed":
		return styles.DiffDeleteStyle.Render(styles.IconFileDeleted)
	case "renamed", "rename":
		return styles.DiffHunkStyle.Render(styles.IconFileRenamed)
	default:
		return styles.MutedStyle.Render(styles.IconFileModified)
	}
}

// View renders the review screen.
func (v View) View() string {
	if !v.ctrl.Mounted() {
		return ""
	}

	sections := []string{v.renderHeader(), v.renderTabs(), v.viewport.View()}
	if v.composing {
		sections = append(sections, v.renderCompose())
	}
	sections = append(sections, v.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Overlay renders the confirmation modal over background, if open.
func (v View) Overlay(background string, width, height int) string {
	if v.confirm == nil {
		return background
	}
	return v.confirm.Overlay(background, width, height)
}

func (v View) renderHeader() string {
	model, ok := v.ctrl.Model()
	if !ok {
		return v.spinner.View() + " " + styles.MutedStyle.Render("!"+v.ctrl.ID()) + "\n"
	}

	title := components.StatusBadge(model.Status) + " " + styles.TitleStyle.Render(model.Title) +
		" " + styles.MutedStyle.Render("!"+model.ID)

	meta := []string{}
	if model.Path != "" {
		meta = append(meta, model.Path)
	}
	if !model.CreatedAt.IsZero() {
		meta = append(meta, "opened "+model.CreatedAt.Format("2006-01-02"))
	}
	switch {
	case !v.ctrl.AuthSettled():
		meta = append(meta, "checking sign-in…")
	case !v.ctrl.Authenticated():
		meta = append(meta, "read-only")
	}
	if v.ctrl.Busy(slots.Merge) || v.ctrl.Busy(slots.Lifecycle) {
		meta = append(meta, v.spinner.View()+" working")
	}

	return title + "\n" + styles.MutedStyle.Render(strings.Join(meta, " · "))
}

func (v View) renderTabs() string {
	label := func(t Tab) string {
		name := t.String()
		if t == TabFiles {
			if files, ok := v.ctrl.Files(); ok {
				name = fmt.Sprintf("%s (%d)", name, len(files))
			}
		}
		if t == v.ctrl.Tab() {
			return styles.TabActiveStyle.Render(name)
		}
		return styles.TabInactiveStyle.Render(name)
	}
	return label(TabConversation) + label(TabFiles)
}

func (v View) renderCompose() string {
	title := "Comment"
	if id, editing := v.ctrl.Editing(); editing {
		title = fmt.Sprintf("Edit comment #%d", id)
	}
	return styles.ComposeStyle.Width(max(v.width-2, 10)).Render(
		styles.MutedStyle.Render(title+" · ctrl+s send · esc keep draft") + "\n" + v.compose.View(),
	)
}

func (v View) renderHelp() string {
	if v.composing {
		return styles.HelpStyle.UnsetMarginTop().Render("ctrl+s send • esc close editor")
	}

	parts := []string{"tab switch", "j/k move"}
	for _, a := range v.ctrl.Actions() {
		switch a {
		case mr.ActionMerge:
			parts = append(parts, "m merge")
		case mr.ActionClose:
			parts = append(parts, "x close")
		case mr.ActionReopen:
			parts = append(parts, "o reopen")
		case mr.ActionComment:
			parts = append(parts, "c comment", "r reply", "e edit")
		}
	}
	parts = append(parts, "R refresh", "q back")
	return styles.HelpStyle.UnsetMarginTop().Render(strings.Join(parts, " • "))
}

// errorText prefers the backend's own message for display.
func errorText(err error) string {
	msg := api.Message(err)
	switch {
	case errors.Is(err, mr.ErrUnauthenticated):
		return "Sign in to do that"
	case errors.Is(err, mr.ErrBusy):
		return "Already in progress"
	case errors.Is(err, mr.ErrEmptyComment):
		return "Comment is empty"
	}
	return msg
}
