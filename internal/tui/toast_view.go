package tui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/mrview/internal/core/notify"
	"github.com/colonyops/mrview/internal/core/styles"
)

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastView renders the toast stack, oldest on top.
type ToastView struct {
	controller *ToastController
}

func NewToastView(controller *ToastController) *ToastView {
	return &ToastView{controller: controller}
}

func (v *ToastView) View() string {
	toasts := v.controller.Toasts()
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, renderToast(t))
	}
	return strings.Join(rendered, "\n")
}

func renderToast(t toast) string {
	icon, style := styles.IconNotifyInfo, styles.ToastInfoStyle
	switch t.notification.Level {
	case notify.LevelError:
		icon, style = styles.IconNotifyError, styles.ToastErrorStyle
	case notify.LevelWarning:
		icon, style = styles.IconNotifyWarning, styles.ToastWarningStyle
	}

	content := icon + " " + t.notification.Message
	if t.repeats > 0 {
		content += styles.MutedStyle.Render(fmt.Sprintf(" ×%d", t.repeats+1))
	}
	return style.Width(toastWidth).Render(content)
}

// Overlay draws the toast stack in the lower-right corner of background.
func (v *ToastView) Overlay(background string, width, height int) string {
	content := v.View()
	if content == "" {
		return background
	}

	w, h := lipgloss.Width(content), lipgloss.Height(content)
	layer := lipgloss.NewLayer(content).
		X(max(width-w-1, 0)).
		Y(max(height-h, 0)).
		Z(2)

	return lipgloss.NewCompositor(lipgloss.NewLayer(background), layer).Render()
}
