package notify

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/mrview/internal/core/notify"
)

func TestBus_Publish_dispatches_to_subscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var a, b []notify.Notification
	bus.Subscribe(func(n notify.Notification) { a = append(a, n) })
	bus.Subscribe(func(n notify.Notification) { b = append(b, n) })

	bus.Publish(notify.Notification{Level: notify.LevelInfo, Message: "hello"})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "hello", a[0].Message)
	assert.False(t, a[0].CreatedAt.IsZero(), "CreatedAt should be stamped")
}

func TestBus_Helpers_set_level(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var got []notify.Notification
	bus.Subscribe(func(n notify.Notification) { got = append(got, n) })

	bus.Errorf("merge failed: %s", "conflict")
	bus.Warnf("read only")
	bus.Infof("merged !%d", 101)

	require.Len(t, got, 3)
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, "merge failed: conflict", got[0].Message)
	assert.Equal(t, notify.LevelWarning, got[1].Level)
	assert.Equal(t, notify.LevelInfo, got[2].Level)
	assert.Equal(t, "merged !101", got[2].Message)
}

func TestBus_NilIsNoop(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() {
		bus.Publish(notify.Notification{Message: "dropped"})
	})
}
