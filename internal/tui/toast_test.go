package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/mrview/internal/core/notify"
	"github.com/colonyops/mrview/internal/core/styles"
	"github.com/colonyops/mrview/pkg/tuitest"
)

func info(msg string) notify.Notification {
	return notify.Notification{Level: notify.LevelInfo, Message: msg}
}

func TestToastController_Push(t *testing.T) {
	c := NewToastController()
	c.Push(info("hello"))

	require.Len(t, c.Toasts(), 1)
	assert.Equal(t, "hello", c.Toasts()[0].notification.Message)
	assert.Equal(t, toastTTL, c.Toasts()[0].remaining)
}

func TestToastController_Push_evicts_oldest(t *testing.T) {
	c := NewToastController()
	for i := range maxToasts + 2 {
		c.Push(info(time.Duration(i).String()))
	}

	assert.Len(t, c.Toasts(), maxToasts)
	assert.Equal(t, "2ns", c.Toasts()[0].notification.Message)
}

func TestToastController_Push_collapses_repeats(t *testing.T) {
	c := NewToastController()
	c.Push(info("merge failed"))
	c.Tick(3 * time.Second)
	c.Push(info("merge failed"))

	require.Len(t, c.Toasts(), 1)
	assert.Equal(t, 1, c.Toasts()[0].repeats)
	assert.Equal(t, toastTTL, c.Toasts()[0].remaining, "a repeat restarts the TTL")

	c.Push(notify.Notification{Level: notify.LevelError, Message: "merge failed"})
	assert.Len(t, c.Toasts(), 2, "different level is a different toast")
}

func TestToastController_Tick(t *testing.T) {
	c := NewToastController()
	c.Push(info("expires"))
	c.Push(info("survives"))
	c.toasts[0].remaining = 50 * time.Millisecond

	c.Tick(100 * time.Millisecond)

	require.Len(t, c.Toasts(), 1)
	assert.Equal(t, "survives", c.Toasts()[0].notification.Message)
	assert.Equal(t, toastTTL-100*time.Millisecond, c.Toasts()[0].remaining)
}

func TestToastController_Dismiss(t *testing.T) {
	c := NewToastController()
	c.Dismiss()
	assert.False(t, c.HasToasts())

	c.Push(info("first"))
	c.Push(info("second"))
	c.Dismiss()

	require.Len(t, c.Toasts(), 1)
	assert.Equal(t, "first", c.Toasts()[0].notification.Message)
}

func TestToastView_levels(t *testing.T) {
	tests := []struct {
		level notify.Level
		icon  string
	}{
		{notify.LevelError, styles.IconNotifyError},
		{notify.LevelWarning, styles.IconNotifyWarning},
		{notify.LevelInfo, styles.IconNotifyInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			c := NewToastController()
			c.Push(notify.Notification{Level: tt.level, Message: "test msg"})

			out := NewToastView(c).View()
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "test msg")
		})
	}
}

func TestToastView_stack_order_and_repeats(t *testing.T) {
	c := NewToastController()
	v := NewToastView(c)
	assert.Empty(t, v.View())

	c.Push(info("first"))
	c.Push(info("second"))
	c.Push(info("second"))

	out := tuitest.StripANSI(v.View())
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
	assert.Contains(t, out, "second ×2")
}

func TestToastView_Overlay(t *testing.T) {
	c := NewToastController()
	v := NewToastView(c)

	bg := "background content"
	assert.Equal(t, bg, v.Overlay(bg, 80, 24))

	c.Push(info("positioned"))
	row := strings.Repeat(".", 120)
	grid := strings.TrimSuffix(strings.Repeat(row+"\n", 40), "\n")

	lines := strings.Split(tuitest.StripANSI(v.Overlay(grid, 120, 40)), "\n")
	require.Len(t, lines, 40)

	found := -1
	for i, line := range lines {
		if strings.Contains(line, "positioned") {
			found = i
		}
	}
	assert.Greater(t, found, 30, "toast sits at the bottom")
	assert.True(t, strings.HasPrefix(lines[found], "....."), "toast sits on the right")
}
