// Package notify dispatches notifications from views to whoever displays them.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/mrview/internal/core/notify"
)

// Subscriber is a callback invoked when a notification is published.
type Subscriber func(notify.Notification)

// Bus is a synchronous in-process notification bus. Subscribers run inline,
// so publishing from the Bubble Tea update loop is safe. Every notification
// is also written to the log.
type Bus struct {
	log         zerolog.Logger
	mu          sync.Mutex
	subscribers []Subscriber
}

// NewBus creates a bus that logs through log.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe registers a callback that will be invoked on every Publish.
func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Publish dispatches n to all subscribers.
func (b *Bus) Publish(n notify.Notification) {
	if b == nil {
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	var ev *zerolog.Event
	switch n.Level {
	case notify.LevelError:
		ev = b.log.Error()
	case notify.LevelWarning:
		ev = b.log.Warn()
	default:
		ev = b.log.Info()
	}
	ev.Str("level", string(n.Level)).Msg(n.Message)

	b.mu.Lock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Errorf publishes an error-level notification.
func (b *Bus) Errorf(format string, args ...any) {
	b.Publish(notify.Notification{Level: notify.LevelError, Message: fmt.Sprintf(format, args...)})
}

// Warnf publishes a warning-level notification.
func (b *Bus) Warnf(format string, args ...any) {
	b.Publish(notify.Notification{Level: notify.LevelWarning, Message: fmt.Sprintf(format, args...)})
}

// Infof publishes an info-level notification.
func (b *Bus) Infof(format string, args ...any) {
	b.Publish(notify.Notification{Level: notify.LevelInfo, Message: fmt.Sprintf(format, args...)})
}
