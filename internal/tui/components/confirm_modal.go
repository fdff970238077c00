// Package components provides reusable TUI components.
package components

import (
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/mrview/internal/core/styles"
)

// ConfirmModal is a yes/no confirmation dialog.
type ConfirmModal struct {
	title     string
	message   string
	confirmed bool
	cancelled bool
}

// NewConfirmModal creates a new confirmation modal.
func NewConfirmModal(title, message string) ConfirmModal {
	return ConfirmModal{title: title, message: message}
}

// Update handles input for the confirmation modal.
func (m ConfirmModal) Update(msg tea.Msg) (ConfirmModal, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y", "enter":
		m.confirmed = true
	case "n", "N", "esc", "q":
		m.cancelled = true
	}

	return m, nil
}

// View renders the confirmation modal.
func (m ConfirmModal) View() string {
	body := m.message + "\n\n" + styles.HelpStyle.UnsetMarginTop().Render("y confirm • n cancel")
	if m.title != "" {
		body = styles.ModalTitleStyle.Render(m.title) + "\n\n" + body
	}
	return styles.ModalStyle.Render(body)
}

// Overlay centers the modal over background.
func (m ConfirmModal) Overlay(background string, width, height int) string {
	return Center(background, m.View(), width, height)
}

// Confirmed returns true if user confirmed.
func (m ConfirmModal) Confirmed() bool {
	return m.confirmed
}

// Cancelled returns true if user cancelled.
func (m ConfirmModal) Cancelled() bool {
	return m.cancelled
}

// Center composites fg over the middle of background.
func Center(background, fg string, width, height int) string {
	fgW, fgH := lipgloss.Width(fg), lipgloss.Height(fg)

	bg := lipgloss.NewLayer(background)
	top := lipgloss.NewLayer(fg).
		X(max((width-fgW)/2, 0)).
		Y(max((height-fgH)/2, 0)).
		Z(1)

	return lipgloss.NewCompositor(bg, top).Render()
}
