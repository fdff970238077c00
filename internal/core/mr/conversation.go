package mr

import (
	"strings"
	"time"
)

// Kind is the closed set of conversation entry kinds. Wire values the client
// does not recognize decode to KindUnknown instead of failing.
type Kind int

const (
	KindUnknown Kind = iota
	KindComment
	KindMerged
	KindClosed
	KindReopened
)

// Kinds returns every known kind, excluding KindUnknown.
func Kinds() []Kind {
	return []Kind{KindComment, KindMerged, KindClosed, KindReopened}
}

// ParseKind maps a backend conversation type onto a Kind.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "comment":
		return KindComment
	case "merged", "merge":
		return KindMerged
	case "closed", "close":
		return KindClosed
	case "reopen", "reopened":
		return KindReopened
	default:
		return KindUnknown
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// MarshalText implements encoding.TextMarshaler using the backend's names.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k Kind) String() string {
	switch k {
	case KindComment:
		return "Comment"
	case KindMerged:
		return "Merged"
	case KindClosed:
		return "Closed"
	case KindReopened:
		return "Reopen"
	default:
		return "Unknown"
	}
}

// ConversationEntry is one item on the merge request timeline.
// Body is empty for KindMerged entries.
type ConversationEntry struct {
	ID        int64
	AuthorID  int64
	Kind      Kind
	Body      string
	CreatedAt time.Time
}

// Editable reports whether the entry accepts reply and edit actions.
func (e ConversationEntry) Editable() bool {
	return e.Kind == KindComment
}
