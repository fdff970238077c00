// Package mr defines the merge request domain: lifecycle status, the
// conversation timeline, the legal transitions between states, and the
// error taxonomy shared by the client, the TUI and the CLI.
package mr

import (
	"strings"
	"time"
)

// Status is the server-held lifecycle state of a merge request.
// It is never computed locally; the client only mirrors what the backend reports.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusMerged  Status = "merged"
	StatusUnknown Status = "unknown"
)

// ParseStatus maps a backend status string onto a Status. Matching is
// case-insensitive and "opened" is accepted as an alias for open. Anything
// else is StatusUnknown, for which no lifecycle transition is legal.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open", "opened":
		return StatusOpen
	case "closed":
		return StatusClosed
	case "merged":
		return StatusMerged
	default:
		return StatusUnknown
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}

func (s Status) String() string {
	if s == "" {
		return string(StatusUnknown)
	}
	return string(s)
}

// Terminal reports whether no further transition can leave this state.
func (s Status) Terminal() bool {
	return s == StatusMerged
}

// MergeRequest is the reconciled view model of a single merge request.
// A successful detail fetch replaces the whole value; fields are never
// patched individually.
type MergeRequest struct {
	ID           string
	Title        string
	Description  string
	Path         string
	Status       Status
	CreatedAt    time.Time
	MergedAt     time.Time
	Conversation []ConversationEntry
}

// FileChange describes one file touched by a merge request.
type FileChange struct {
	Path   string `json:"path"`
	Action string `json:"action"`
}

// Summary is a row on the merge request list screen.
type Summary struct {
	ID        string
	Title     string
	Status    Status
	Path      string
	UpdatedAt time.Time
}
