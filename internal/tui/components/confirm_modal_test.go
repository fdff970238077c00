package components

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/mrview/pkg/tuitest"
)

func TestConfirmModal_Keys(t *testing.T) {
	tests := []struct {
		key       rune
		confirmed bool
		cancelled bool
	}{
		{'y', true, false},
		{'Y', true, false},
		{'n', false, true},
		{'N', false, true},
		{'x', false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			m := NewConfirmModal("Merge", "Merge !101?")
			m, _ = m.Update(tuitest.KeyPress(tt.key))
			assert.Equal(t, tt.confirmed, m.Confirmed())
			assert.Equal(t, tt.cancelled, m.Cancelled())
		})
	}
}

func TestConfirmModal_EnterAndEsc(t *testing.T) {
	m := NewConfirmModal("", "sure?")
	m, _ = m.Update(tuitest.KeyEnter())
	assert.True(t, m.Confirmed())

	m = NewConfirmModal("", "sure?")
	m, _ = m.Update(tuitest.KeyEsc())
	assert.True(t, m.Cancelled())
}

func TestConfirmModal_View(t *testing.T) {
	m := NewConfirmModal("Merge", "Merge !101 into main?")
	out := tuitest.StripANSI(m.View())
	assert.Contains(t, out, "Merge !101 into main?")
	assert.Contains(t, out, "y confirm")
}
