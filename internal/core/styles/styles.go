// Package styles provides shared lipgloss v2 styles for CLI and TUI components.
package styles

import (
	"image/color"

	lipgloss "charm.land/lipgloss/v2"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports. All of them are rebuilt by SetTheme.
var (
	TitleStyle   lipgloss.Style
	MutedStyle   lipgloss.Style
	HelpStyle    lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	SuccessStyle lipgloss.Style

	// Merge request status badges.
	StatusOpenStyle    lipgloss.Style
	StatusClosedStyle  lipgloss.Style
	StatusMergedStyle  lipgloss.Style
	StatusUnknownStyle lipgloss.Style

	TabActiveStyle   lipgloss.Style
	TabInactiveStyle lipgloss.Style
	TabDisabledStyle lipgloss.Style

	// Timeline.
	TimelineGlyphStyle    lipgloss.Style
	TimelineMetaStyle     lipgloss.Style
	TimelineSelectedStyle lipgloss.Style

	// Diff.
	DiffAddStyle       lipgloss.Style
	DiffDeleteStyle    lipgloss.Style
	DiffHunkStyle      lipgloss.Style
	DiffFileStyle      lipgloss.Style
	DiffContextStyle   lipgloss.Style
	DiffCollapsedStyle lipgloss.Style
	DiffLineNoStyle    lipgloss.Style

	ListSelectedStyle lipgloss.Style
	ListNormalStyle   lipgloss.Style

	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
	ComposeStyle    lipgloss.Style

	ToastInfoStyle    lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	TitleStyle = lipgloss.NewStyle().Foreground(p.Foreground).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	HelpStyle = lipgloss.NewStyle().Foreground(p.Muted).MarginTop(1)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)

	StatusOpenStyle = badge(p.Success, p.Background)
	StatusClosedStyle = badge(p.Error, p.Background)
	StatusMergedStyle = badge(p.Merged, p.Background)
	StatusUnknownStyle = badge(p.Surface, p.Foreground)

	TabActiveStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		Underline(true).
		Padding(0, 1)
	TabInactiveStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Padding(0, 1)
	TabDisabledStyle = lipgloss.NewStyle().
		Foreground(p.Surface).
		Padding(0, 1)

	TimelineGlyphStyle = lipgloss.NewStyle().Foreground(p.Primary).Width(2)
	TimelineMetaStyle = lipgloss.NewStyle().Foreground(p.Muted)
	TimelineSelectedStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Primary).
		PaddingLeft(1)

	DiffAddStyle = lipgloss.NewStyle().Foreground(p.Success)
	DiffDeleteStyle = lipgloss.NewStyle().Foreground(p.Error)
	DiffHunkStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	DiffFileStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	DiffContextStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	DiffCollapsedStyle = lipgloss.NewStyle().Foreground(p.Muted).Italic(true)
	DiffLineNoStyle = lipgloss.NewStyle().Foreground(p.Muted)

	ListSelectedStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	ListNormalStyle = lipgloss.NewStyle().Foreground(p.Foreground)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(1, 2)
	ModalTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Foreground)
	ComposeStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface)

	ToastInfoStyle = toast(p.Primary, p)
	ToastWarningStyle = toast(p.Warning, p)
	ToastErrorStyle = toast(p.Error, p)
}

func badge(bg, fg color.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Bold(true).
		Padding(0, 1)
}

func toast(accent color.Color, p Palette) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Foreground(p.Foreground).
		Padding(0, 1)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
