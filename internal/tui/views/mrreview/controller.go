package mrreview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/colonyops/mrview/internal/core/draft"
	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/core/slots"
)

// Tab is a section of the review screen.
type Tab int

const (
	TabConversation Tab = iota
	TabFiles
)

func (t Tab) String() string {
	if t == TabFiles {
		return "Files Changed"
	}
	return "Conversation"
}

// RequestKind names a backend call issued by the controller.
type RequestKind int

const (
	ReqAuth RequestKind = iota
	ReqDetail
	ReqFiles
	ReqDiff
	ReqMerge
	ReqClose
	ReqReopen
	ReqComment
	ReqEditComment
)

func (k RequestKind) String() string {
	switch k {
	case ReqAuth:
		return "auth"
	case ReqDetail:
		return "detail"
	case ReqFiles:
		return "files"
	case ReqDiff:
		return "diff"
	case ReqMerge:
		return "merge"
	case ReqClose:
		return "close"
	case ReqReopen:
		return "reopen"
	case ReqComment:
		return "comment"
	case ReqEditComment:
		return "edit comment"
	default:
		return fmt.Sprintf("request(%d)", int(k))
	}
}

// fetch reports whether responses of this kind are ordered by sequence token.
func (k RequestKind) fetch() bool {
	return k <= ReqDiff
}

// Request describes one backend call. Gen and Seq let the controller
// discard responses that no longer apply.
type Request struct {
	Kind   RequestKind
	MRID   string
	Gen    uint64
	Seq    uint64
	ConvID int64
	Body   string

	lease slots.Lease
}

// Result is the settled outcome of a Request. Diff holds rendered markup.
type Result struct {
	Req   Request
	MR    mr.MergeRequest
	Files []mr.FileChange
	Diff  string
	Err   error
}

// Effects tells the view what to do after a result is applied.
type Effects struct {
	Requests   []Request
	Navigate   bool
	ClearDraft bool
	Info       string
	Warn       string
	Err        error
}

type composeMode int

const (
	composeNew composeMode = iota
	composeEdit
)

// Controller reconciles server state for one merge request with the
// reviewer's actions. It holds no Bubble Tea state and performs no I/O:
// every backend call is returned as a Request and fed back as a Result.
type Controller struct {
	stayAfterAction bool

	gen   uint64
	slots slots.Table

	mountState
}

// mountState is discarded on every Mount.
type mountState struct {
	id      string
	mounted bool
	seq     [ReqDiff + 1]uint64

	authenticated bool
	authSettled   bool

	model  mr.MergeRequest
	loaded bool

	files       []mr.FileChange
	filesLoaded bool

	diff       string
	diffLoaded bool

	tab Tab

	compose  string
	mode     composeMode
	targetID int64
}

// Options configures a Controller.
type Options struct {
	// StayAfterAction keeps the screen open after close and reopen.
	StayAfterAction bool
}

// NewController creates an unmounted controller.
func NewController(opts Options) *Controller {
	return &Controller{stayAfterAction: opts.StayAfterAction}
}

// Mount binds the controller to id and returns the initial auth, detail
// and file list fetches. Remounting discards all state from the previous
// mount.
func (c *Controller) Mount(id string) []Request {
	c.gen++
	c.slots.Reset()
	c.mountState = mountState{id: id, mounted: true}

	reqs := []Request{c.next(ReqAuth), c.next(ReqDetail)}
	if r, ok := c.filesRequest(); ok {
		reqs = append(reqs, r)
	}
	return reqs
}

// Unmount drops the view model. Responses still in flight are ignored.
func (c *Controller) Unmount() {
	c.gen++
	c.mounted = false
	c.slots.Reset()
}

// Apply folds a settled result into the controller. Results from an older
// mount or superseded by a newer fetch of the same kind are dropped.
func (c *Controller) Apply(res Result) Effects {
	res.Req.lease.Release()

	if !c.mounted || res.Req.Gen != c.gen || res.Req.MRID != c.id {
		return Effects{}
	}
	if res.Req.Kind.fetch() && res.Req.Seq != c.seq[res.Req.Kind] {
		return c.superseded(res.Req)
	}

	switch res.Req.Kind {
	case ReqAuth:
		return c.applyAuth(res)
	case ReqDetail:
		if res.Err != nil {
			return Effects{Err: fmt.Errorf("load merge request: %w", res.Err)}
		}
		c.model = res.MR
		c.model.ID = c.id
		c.loaded = true
		return Effects{}
	case ReqFiles:
		if res.Err != nil {
			return Effects{Err: fmt.Errorf("load files: %w", res.Err)}
		}
		c.files = res.Files
		c.filesLoaded = true
		return Effects{}
	case ReqDiff:
		if res.Err != nil {
			return Effects{Err: fmt.Errorf("load diff: %w", res.Err)}
		}
		c.diff = res.Diff
		c.diffLoaded = true
		return Effects{}
	default:
		return c.applyAction(res)
	}
}

// superseded handles a fetch response overtaken by a newer request. A diff
// invalidated while the files tab is showing is fetched again, since the
// refresh that invalidated it could not take the diff slot.
func (c *Controller) superseded(req Request) Effects {
	if req.Kind != ReqDiff || c.tab != TabFiles || c.diffLoaded {
		return Effects{}
	}
	if r, ok := c.diffRequest(); ok {
		return Effects{Requests: []Request{r}}
	}
	return Effects{}
}

func (c *Controller) applyAuth(res Result) Effects {
	c.authSettled = true
	c.authenticated = res.Err == nil
	if res.Err != nil {
		return Effects{Warn: "Read-only: not signed in"}
	}
	return Effects{}
}

func (c *Controller) applyAction(res Result) Effects {
	kind := res.Req.Kind
	if res.Err != nil {
		return Effects{Err: fmt.Errorf("%s: %w", kind, res.Err)}
	}

	switch kind {
	case ReqMerge:
		c.invalidateDiff()
		return Effects{Navigate: true, Info: "Merged !" + c.id}

	case ReqClose, ReqReopen:
		c.invalidateDiff()
		eff := Effects{Requests: c.refresh()}
		if !c.stayAfterAction {
			eff.Navigate = true
		}
		if kind == ReqClose {
			eff.Info = "Closed !" + c.id
		} else {
			eff.Info = "Reopened !" + c.id
		}
		return eff

	case ReqComment, ReqEditComment:
		info := "Comment posted"
		if kind == ReqEditComment {
			info = "Comment updated"
		}

		// Text typed while the post was in flight stays in the editor.
		if c.compose != res.Req.Body {
			return Effects{Requests: c.refresh(), Info: info + ", newer text kept"}
		}

		c.compose = ""
		c.mode = composeNew
		c.targetID = 0
		return Effects{Requests: c.refresh(), ClearDraft: true, Info: info}
	}

	return Effects{}
}

// refresh re-reads the detail and, when the diff tab is showing, the diff.
func (c *Controller) refresh() []Request {
	reqs := []Request{c.next(ReqDetail)}
	if c.tab == TabFiles {
		if r, ok := c.diffRequest(); ok {
			reqs = append(reqs, r)
		}
	}
	return reqs
}

// Refresh re-reads the detail, and the file list when no fetch of it is in
// flight.
func (c *Controller) Refresh() []Request {
	if !c.mounted {
		return nil
	}
	reqs := c.refresh()
	if r, ok := c.filesRequest(); ok {
		reqs = append(reqs, r)
	}
	return reqs
}

// invalidateDiff drops the cached diff and any in-flight diff response.
func (c *Controller) invalidateDiff() {
	c.diff = ""
	c.diffLoaded = false
	c.seq[ReqDiff]++
}

// ActivateTab switches tabs. The first activation of the files tab fetches
// the diff; later activations reuse the cached markup.
func (c *Controller) ActivateTab(t Tab) []Request {
	c.tab = t
	if t != TabFiles {
		return nil
	}
	if r, ok := c.diffRequest(); ok {
		return []Request{r}
	}
	return nil
}

func (c *Controller) diffRequest() (Request, bool) {
	if !c.mounted || c.diffLoaded {
		return Request{}, false
	}
	lease, err := c.slots.Acquire(slots.Diff)
	if err != nil {
		return Request{}, false
	}
	r := c.next(ReqDiff)
	r.lease = lease
	return r, true
}

func (c *Controller) filesRequest() (Request, bool) {
	lease, err := c.slots.Acquire(slots.Files)
	if err != nil {
		return Request{}, false
	}
	r := c.next(ReqFiles)
	r.lease = lease
	return r, true
}

// next issues a request of kind, bumping the sequence token for fetches.
func (c *Controller) next(kind RequestKind) Request {
	r := Request{Kind: kind, MRID: c.id, Gen: c.gen}
	if kind.fetch() {
		c.seq[kind]++
		r.Seq = c.seq[kind]
	}
	return r
}

// Can reports why action is unavailable, or nil if it may be dispatched.
func (c *Controller) Can(action mr.Action) error {
	if !c.mounted {
		return fmt.Errorf("%s: %w", action, mr.ErrNotFound)
	}
	if !c.authenticated {
		return fmt.Errorf("%s: %w", action, mr.ErrUnauthenticated)
	}
	if _, err := mr.Next(c.model.Status, action); err != nil {
		return err
	}
	if c.slots.Busy(slotFor(action)) {
		return fmt.Errorf("%s: %w", action, mr.ErrBusy)
	}
	return nil
}

// Actions lists the lifecycle actions currently available.
func (c *Controller) Actions() []mr.Action {
	var out []mr.Action
	for _, a := range []mr.Action{mr.ActionMerge, mr.ActionClose, mr.ActionReopen, mr.ActionComment} {
		if c.Can(a) == nil {
			out = append(out, a)
		}
	}
	return out
}

func slotFor(a mr.Action) slots.Slot {
	if a == mr.ActionMerge {
		return slots.Merge
	}
	return slots.Lifecycle
}

// Merge requests a merge.
func (c *Controller) Merge() (Request, error) {
	return c.dispatch(mr.ActionMerge, ReqMerge)
}

// Close requests the merge request be closed.
func (c *Controller) Close() (Request, error) {
	return c.dispatch(mr.ActionClose, ReqClose)
}

// Reopen requests a closed merge request be reopened.
func (c *Controller) Reopen() (Request, error) {
	return c.dispatch(mr.ActionReopen, ReqReopen)
}

// Submit sends the compose buffer, as a new comment or as an edit of the
// comment selected with BeginEdit. The buffer is kept until the backend
// confirms.
func (c *Controller) Submit(body string) (Request, error) {
	c.compose = body
	if strings.TrimSpace(body) == "" {
		return Request{}, mr.ErrEmptyComment
	}

	if c.mode == composeEdit {
		r, err := c.dispatch(mr.ActionEditComment, ReqEditComment)
		if err != nil {
			return Request{}, err
		}
		r.ConvID = c.targetID
		r.Body = body
		return r, nil
	}

	r, err := c.dispatch(mr.ActionComment, ReqComment)
	if err != nil {
		return Request{}, err
	}
	r.Body = body
	return r, nil
}

func (c *Controller) dispatch(action mr.Action, kind RequestKind) (Request, error) {
	if err := c.Can(action); err != nil {
		return Request{}, err
	}

	lease, err := c.slots.Acquire(slotFor(action))
	if err != nil {
		return Request{}, err
	}

	r := c.next(kind)
	r.lease = lease
	return r, nil
}

// BeginReply starts a new comment quoting entry convID and returns the
// prefilled compose text.
func (c *Controller) BeginReply(convID int64) (string, error) {
	entry, err := c.comment(convID)
	if err != nil {
		return "", err
	}

	c.mode = composeNew
	c.targetID = 0
	c.compose = quote(entry.Body)
	return c.compose, nil
}

// BeginEdit switches the compose buffer to editing entry convID and returns
// its current text.
func (c *Controller) BeginEdit(convID int64) (string, error) {
	entry, err := c.comment(convID)
	if err != nil {
		return "", err
	}

	c.mode = composeEdit
	c.targetID = convID
	c.compose = entry.Body
	return c.compose, nil
}

// CancelCompose leaves edit mode and clears the buffer.
func (c *Controller) CancelCompose() {
	c.mode = composeNew
	c.targetID = 0
	c.compose = ""
}

func (c *Controller) comment(convID int64) (mr.ConversationEntry, error) {
	for _, e := range c.model.Conversation {
		if e.ID != convID {
			continue
		}
		if !e.Editable() {
			return mr.ConversationEntry{}, fmt.Errorf("entry %d is a %s event: %w", convID, e.Kind, mr.ErrIllegalTransition)
		}
		return e, nil
	}
	return mr.ConversationEntry{}, fmt.Errorf("entry %d: %w", convID, mr.ErrNotFound)
}

func quote(body string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n") + "\n\n"
}

// SetCompose records the compose buffer as typed.
func (c *Controller) SetCompose(body string) {
	c.compose = body
}

// Draft returns the compose buffer as a persistable draft.
func (c *Controller) Draft() draft.Draft {
	d := draft.Draft{MRID: c.id, Body: c.compose}
	if c.mode == composeEdit {
		d.TargetID = c.targetID
	}
	return d
}

// RestoreDraft loads a persisted draft into an empty compose buffer. It
// reports whether the draft was applied.
func (c *Controller) RestoreDraft(d draft.Draft) bool {
	if d.MRID != c.id || d.Empty() || strings.TrimSpace(c.compose) != "" {
		return false
	}
	c.compose = d.Body
	if d.TargetID != 0 {
		c.mode = composeEdit
		c.targetID = d.TargetID
	}
	return true
}

// ID returns the mounted merge request id.
func (c *Controller) ID() string { return c.id }

// Generation returns the current mount generation.
func (c *Controller) Generation() uint64 { return c.gen }

// Mounted reports whether the controller is bound to a merge request.
func (c *Controller) Mounted() bool { return c.mounted }

// Model returns the last successfully fetched view model.
func (c *Controller) Model() (mr.MergeRequest, bool) { return c.model, c.loaded }

// Files returns the file list from phase one.
func (c *Controller) Files() ([]mr.FileChange, bool) { return c.files, c.filesLoaded }

// Diff returns the cached diff markup.
func (c *Controller) Diff() (string, bool) { return c.diff, c.diffLoaded }

// Authenticated reports the result of the last auth probe.
func (c *Controller) Authenticated() bool { return c.authenticated }

// AuthSettled reports whether the auth probe has completed.
func (c *Controller) AuthSettled() bool { return c.authSettled }

// Tab returns the active tab.
func (c *Controller) Tab() Tab { return c.tab }

// Busy reports whether slot is in flight.
func (c *Controller) Busy(s slots.Slot) bool { return c.slots.Busy(s) }

// Compose returns the compose buffer.
func (c *Controller) Compose() string { return c.compose }

// Editing returns the comment being edited, if any.
func (c *Controller) Editing() (int64, bool) {
	return c.targetID, c.mode == composeEdit
}

// IsLocal reports whether err was raised by the controller without
// reaching the backend.
func IsLocal(err error) bool {
	return errors.Is(err, mr.ErrUnauthenticated) ||
		errors.Is(err, mr.ErrIllegalTransition) ||
		errors.Is(err, mr.ErrBusy) ||
		errors.Is(err, mr.ErrEmptyComment)
}
