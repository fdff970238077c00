package components

import (
	"strings"

	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/mrview/internal/core/styles"
)

const helpKeyWidth = 12

// HelpEntry is a single keyboard shortcut.
type HelpEntry struct {
	Key  string
	Desc string
}

// HelpSection groups related entries under a title.
type HelpSection struct {
	Title   string
	Entries []HelpEntry
}

// HelpDialog lists the keyboard shortcuts of the current screen.
type HelpDialog struct {
	title    string
	sections []HelpSection
}

// NewHelpDialog creates a help dialog with the given sections.
func NewHelpDialog(title string, sections []HelpSection) *HelpDialog {
	return &HelpDialog{title: title, sections: sections}
}

// View renders the dialog.
func (h *HelpDialog) View() string {
	var lines []string
	for i, section := range h.sections {
		if section.Title != "" {
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, styles.TitleStyle.Render(section.Title))
		}
		for _, e := range section.Entries {
			lines = append(lines, formatKeyDesc(e.Key, e.Desc))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render(h.title),
		"",
		strings.Join(lines, "\n"),
		styles.HelpStyle.Render("esc/? close"),
	)
	return styles.ModalStyle.Render(content)
}

// Overlay centers the dialog over background.
func (h *HelpDialog) Overlay(background string, width, height int) string {
	return Center(background, h.View(), width, height)
}

func formatKeyDesc(key, desc string) string {
	pad := max(helpKeyWidth-lipgloss.Width(key), 1)
	return styles.ListSelectedStyle.Render(key+strings.Repeat(" ", pad)) + desc
}
