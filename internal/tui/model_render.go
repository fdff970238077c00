package tui

import (
	tea "charm.land/bubbletea/v2"
)

// View implements tea.Model.
func (m Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	var content string
	switch m.screen {
	case screenReview:
		content = m.review.View()
		content = m.review.Overlay(content, m.width, m.height)
	default:
		content = m.list.View()
	}

	if m.help != nil {
		content = m.help.Overlay(content, m.width, m.height)
	}
	if m.toastController.HasToasts() {
		content = m.toastView.Overlay(content, m.width, m.height)
	}

	v := tea.NewView(content)
	v.AltScreen = true
	return v
}
