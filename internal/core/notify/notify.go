// Package notify defines user-facing notifications raised by the TUI.
package notify

import "time"

// Level represents the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single message shown to the reviewer.
type Notification struct {
	Level     Level
	Message   string
	CreatedAt time.Time
}
