package tui

import (
	"github.com/colonyops/mrview/internal/tui/components"
)

func (m Model) helpTitle() string {
	if m.build.Version == "" {
		return "mrview"
	}
	return "mrview " + m.build.Version
}

func (m Model) helpSections() []components.HelpSection {
	global := components.HelpSection{
		Title: "Global",
		Entries: []components.HelpEntry{
			{Key: "?", Desc: "toggle help"},
			{Key: "ctrl+x", Desc: "dismiss notification"},
			{Key: "ctrl+c", Desc: "quit"},
		},
	}

	if m.screen == screenList {
		return []components.HelpSection{
			{
				Title: "Merge requests",
				Entries: []components.HelpEntry{
					{Key: "j/k", Desc: "move"},
					{Key: "g/G", Desc: "first / last"},
					{Key: "enter", Desc: "open review"},
					{Key: "/", Desc: "filter"},
					{Key: "s", Desc: "cycle status"},
					{Key: "r", Desc: "reload"},
					{Key: "q", Desc: "quit"},
				},
			},
			global,
		}
	}

	return []components.HelpSection{
		{
			Title: "Review",
			Entries: []components.HelpEntry{
				{Key: "tab 1 2", Desc: "switch tab"},
				{Key: "j/k", Desc: "select entry / scroll"},
				{Key: "ctrl+d/u", Desc: "half page down / up"},
				{Key: "R", Desc: "refresh"},
				{Key: "q esc", Desc: "back to list"},
			},
		},
		{
			Title: "Actions",
			Entries: []components.HelpEntry{
				{Key: "m", Desc: "merge"},
				{Key: "x", Desc: "close"},
				{Key: "o", Desc: "reopen"},
				{Key: "c", Desc: "comment"},
				{Key: "r", Desc: "reply to selected comment"},
				{Key: "e", Desc: "edit selected comment"},
				{Key: "ctrl+s", Desc: "send comment"},
			},
		},
		global,
	}
}
