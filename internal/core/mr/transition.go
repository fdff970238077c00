package mr

import "fmt"

// Action is a mutating operation a user can request on a merge request.
type Action string

const (
	ActionMerge       Action = "merge"
	ActionClose       Action = "close"
	ActionReopen      Action = "reopen"
	ActionComment     Action = "comment"
	ActionEditComment Action = "edit_comment"
)

// Lifecycle reports whether the action changes the merge request status.
func (a Action) Lifecycle() bool {
	switch a {
	case ActionMerge, ActionClose, ActionReopen:
		return true
	default:
		return false
	}
}

// Allowed reports whether action may be requested while the merge request
// is in status s.
//
//	open   --merge-->  merged (terminal)
//	open   --close-->  closed
//	closed --reopen--> open
//
// Comments are allowed in every state, including ones this client does
// not recognise.
func (s Status) Allowed(a Action) bool {
	switch a {
	case ActionMerge, ActionClose:
		return s == StatusOpen
	case ActionReopen:
		return s == StatusClosed
	case ActionComment, ActionEditComment:
		return true
	default:
		return false
	}
}

// Next returns the status that results from applying a to s. Non-lifecycle
// actions leave the status unchanged. Illegal requests return
// ErrIllegalTransition.
func Next(s Status, a Action) (Status, error) {
	if !s.Allowed(a) {
		return s, fmt.Errorf("%s from %s: %w", a, s, ErrIllegalTransition)
	}

	switch a {
	case ActionMerge:
		return StatusMerged, nil
	case ActionClose:
		return StatusClosed, nil
	case ActionReopen:
		return StatusOpen, nil
	default:
		return s, nil
	}
}
