package components

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/mrview/pkg/tuitest"
)

func TestHelpDialog_View(t *testing.T) {
	d := NewHelpDialog("Keys", []HelpSection{
		{Title: "List", Entries: []HelpEntry{{Key: "enter", Desc: "open"}}},
		{Title: "Review", Entries: []HelpEntry{{Key: "m", Desc: "merge"}}},
	})

	out := tuitest.StripANSI(d.View())
	assert.Contains(t, out, "Keys")
	assert.Contains(t, out, "enter       open")
	assert.Contains(t, out, "m           merge")
	assert.Contains(t, out, "esc/? close")
}

func TestHelpDialog_OverlayKeepsBackground(t *testing.T) {
	d := NewHelpDialog("Keys", nil)
	out := tuitest.StripANSI(d.Overlay("background row", 80, 24))
	assert.Contains(t, out, "background row")
	assert.Contains(t, out, "Keys")
}
