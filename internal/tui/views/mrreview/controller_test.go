package mrreview

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/mrview/internal/core/draft"
	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/core/slots"
)

var errBoom = errors.New("boom")

func sampleMR(status mr.Status) mr.MergeRequest {
	return mr.MergeRequest{
		ID:     "101",
		Title:  "Add retry budget",
		Status: status,
		Conversation: []mr.ConversationEntry{
			{ID: 1, AuthorID: 2, Kind: mr.KindComment, Body: "cap the backoff?"},
			{ID: 2, Kind: mr.KindClosed, Body: "closed due to conflict"},
		},
	}
}

func kinds(reqs []Request) []RequestKind {
	out := make([]RequestKind, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Kind)
	}
	return out
}

func find(t *testing.T, reqs []Request, kind RequestKind) Request {
	t.Helper()
	for _, r := range reqs {
		if r.Kind == kind {
			return r
		}
	}
	t.Fatalf("no %s request in %v", kind, kinds(reqs))
	return Request{}
}

// mounted returns a controller for MR 101 with auth and detail settled.
func mounted(t *testing.T, status mr.Status, authed bool, opts ...Options) *Controller {
	t.Helper()

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	c := NewController(o)
	reqs := c.Mount("101")

	var authErr error
	if !authed {
		authErr = errBoom
	}
	c.Apply(Result{Req: find(t, reqs, ReqAuth), Err: authErr})
	c.Apply(Result{Req: find(t, reqs, ReqDetail), MR: sampleMR(status)})
	c.Apply(Result{Req: find(t, reqs, ReqFiles), Files: []mr.FileChange{{Path: "a.rs"}}})
	return c
}

func TestController_MountIssuesInitialFetches(t *testing.T) {
	c := NewController(Options{})
	reqs := c.Mount("101")

	assert.Equal(t, []RequestKind{ReqAuth, ReqDetail, ReqFiles}, kinds(reqs))
	assert.True(t, c.Busy(slots.Files), "files slot is held before the request starts")
	assert.False(t, c.Authenticated(), "auth fails closed until the check settles")

	for _, r := range reqs {
		assert.Equal(t, "101", r.MRID)
		assert.Equal(t, c.Generation(), r.Gen)
	}
}

func TestController_FilesSlotReleasedWhateverTheOutcome(t *testing.T) {
	for name, err := range map[string]error{"success": nil, "failure": errBoom} {
		t.Run(name, func(t *testing.T) {
			c := NewController(Options{})
			reqs := c.Mount("101")

			eff := c.Apply(Result{Req: find(t, reqs, ReqFiles), Err: err})
			assert.False(t, c.Busy(slots.Files))

			_, loaded := c.Files()
			assert.Equal(t, err == nil, loaded)
			if err != nil {
				require.ErrorIs(t, eff.Err, errBoom)
			}
		})
	}
}

// Scenario A: open, authenticated, merge succeeds.
func TestController_MergeSuccessNavigates(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	req, err := c.Merge()
	require.NoError(t, err)
	assert.Equal(t, ReqMerge, req.Kind)
	assert.True(t, c.Busy(slots.Merge))

	eff := c.Apply(Result{Req: req})
	assert.True(t, eff.Navigate)
	assert.NoError(t, eff.Err)
	assert.False(t, c.Busy(slots.Merge))

	model, _ := c.Model()
	assert.Equal(t, mr.StatusOpen, model.Status, "status is never flipped locally")
}

func TestController_MergeFailureKeepsStatus(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	req, err := c.Merge()
	require.NoError(t, err)

	eff := c.Apply(Result{Req: req, Err: mr.ErrRejected})
	require.ErrorIs(t, eff.Err, mr.ErrRejected)
	assert.False(t, eff.Navigate)
	assert.False(t, c.Busy(slots.Merge))

	model, _ := c.Model()
	assert.Equal(t, mr.StatusOpen, model.Status)

	_, err = c.Merge()
	assert.NoError(t, err, "merge can be retried once the slot is idle")
}

func TestController_RepeatedTriggerRefused(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	_, err := c.Merge()
	require.NoError(t, err)

	_, err = c.Merge()
	require.ErrorIs(t, err, mr.ErrBusy)

	_, err = c.Close()
	assert.NoError(t, err, "different slots do not block each other")
}

// Scenario B: the diff is fetched once per mount.
func TestController_DiffFetchedOnce(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	assert.Empty(t, c.ActivateTab(TabConversation))

	first := c.ActivateTab(TabFiles)
	require.Len(t, first, 1)
	assert.Equal(t, ReqDiff, first[0].Kind)

	c.ActivateTab(TabConversation)
	assert.Empty(t, c.ActivateTab(TabFiles), "no refetch while in flight")

	c.Apply(Result{Req: first[0], Diff: "<markup>"})
	diff, ok := c.Diff()
	require.True(t, ok)
	assert.Equal(t, "<markup>", diff)
	assert.False(t, c.Busy(slots.Diff))

	c.ActivateTab(TabConversation)
	assert.Empty(t, c.ActivateTab(TabFiles), "no refetch once cached")
}

func TestController_DiffFailureRetriesOnNextActivation(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	reqs := c.ActivateTab(TabFiles)
	eff := c.Apply(Result{Req: reqs[0], Err: errBoom})
	require.Error(t, eff.Err)

	_, ok := c.Diff()
	assert.False(t, ok)
	assert.Len(t, c.ActivateTab(TabFiles), 1)
}

// Scenario C: unauthenticated reviewers cannot dispatch anything.
func TestController_UnauthenticatedGating(t *testing.T) {
	c := mounted(t, mr.StatusOpen, false)

	assert.False(t, c.Authenticated())
	assert.Empty(t, c.Actions())

	_, err := c.Merge()
	require.ErrorIs(t, err, mr.ErrUnauthenticated)
	_, err = c.Close()
	require.ErrorIs(t, err, mr.ErrUnauthenticated)
	_, err = c.Submit("hello")
	require.ErrorIs(t, err, mr.ErrUnauthenticated)

	assert.False(t, c.Busy(slots.Merge))
	assert.False(t, c.Busy(slots.Lifecycle))

	model, ok := c.Model()
	require.True(t, ok, "read-only views keep working")
	assert.Equal(t, "Add retry budget", model.Title)
}

func TestController_AuthPanicFailsClosed(t *testing.T) {
	c := NewController(Options{})
	reqs := c.Mount("101")

	r := runner{backend: &fakeBackend{panics: map[RequestKind]bool{ReqAuth: true}}, log: zerolog.Nop()}
	res := r.exec(find(t, reqs, ReqAuth))
	require.Error(t, res.Err)

	eff := c.Apply(res)
	assert.False(t, c.Authenticated())
	assert.NotEmpty(t, eff.Warn)
}

func TestController_IllegalTransitions(t *testing.T) {
	tests := []struct {
		status mr.Status
		action func(*Controller) (Request, error)
		name   string
	}{
		{mr.StatusOpen, (*Controller).Reopen, "reopen open"},
		{mr.StatusClosed, (*Controller).Merge, "merge closed"},
		{mr.StatusClosed, (*Controller).Close, "close closed"},
		{mr.StatusMerged, (*Controller).Merge, "merge merged"},
		{mr.StatusMerged, (*Controller).Close, "close merged"},
		{mr.StatusMerged, (*Controller).Reopen, "reopen merged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mounted(t, tt.status, true)
			_, err := tt.action(c)
			require.ErrorIs(t, err, mr.ErrIllegalTransition)
			assert.True(t, IsLocal(err))
			assert.False(t, c.Busy(slots.Merge))
			assert.False(t, c.Busy(slots.Lifecycle))
		})
	}
}

func TestController_Actions(t *testing.T) {
	assert.Equal(t,
		[]mr.Action{mr.ActionMerge, mr.ActionClose, mr.ActionComment},
		mounted(t, mr.StatusOpen, true).Actions())
	assert.Equal(t,
		[]mr.Action{mr.ActionReopen, mr.ActionComment},
		mounted(t, mr.StatusClosed, true).Actions())
	assert.Equal(t,
		[]mr.Action{mr.ActionComment},
		mounted(t, mr.StatusMerged, true).Actions())
	assert.Equal(t,
		[]mr.Action{mr.ActionComment},
		mounted(t, mr.StatusUnknown, true).Actions())
}

func TestController_CommentOnUnknownStatus(t *testing.T) {
	c := mounted(t, mr.StatusUnknown, true)

	req, err := c.Submit("hello")
	require.NoError(t, err)
	assert.Equal(t, ReqComment, req.Kind)

	_, err = c.Merge()
	require.ErrorIs(t, err, mr.ErrIllegalTransition)
}

func TestController_CloseRefreshesAndNavigates(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	req, err := c.Close()
	require.NoError(t, err)

	eff := c.Apply(Result{Req: req})
	assert.True(t, eff.Navigate)
	assert.Equal(t, []RequestKind{ReqDetail}, kinds(eff.Requests))
	assert.False(t, c.Busy(slots.Lifecycle))

	c.Apply(Result{Req: eff.Requests[0], MR: sampleMR(mr.StatusClosed)})
	model, _ := c.Model()
	assert.Equal(t, mr.StatusClosed, model.Status)
}

func TestController_StayAfterAction(t *testing.T) {
	c := mounted(t, mr.StatusClosed, true, Options{StayAfterAction: true})

	req, err := c.Reopen()
	require.NoError(t, err)

	eff := c.Apply(Result{Req: req})
	assert.False(t, eff.Navigate)
	assert.Len(t, eff.Requests, 1)
}

func TestController_DetailReplacesWholeModel(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	next := mr.MergeRequest{Title: "Renamed", Status: mr.StatusMerged}
	reqs := c.Refresh()
	c.Apply(Result{Req: find(t, reqs, ReqDetail), MR: next})

	model, _ := c.Model()
	assert.Equal(t, "Renamed", model.Title)
	assert.Equal(t, mr.StatusMerged, model.Status)
	assert.Empty(t, model.Conversation, "no field survives from the previous snapshot")
	assert.Equal(t, "101", model.ID)
}

func TestController_DetailFailureKeepsPreviousModel(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)
	before, _ := c.Model()

	reqs := c.Refresh()
	eff := c.Apply(Result{Req: find(t, reqs, ReqDetail), Err: errBoom})
	require.ErrorIs(t, eff.Err, errBoom)

	after, ok := c.Model()
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestController_StaleDetailDiscarded(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	older := find(t, c.Refresh(), ReqDetail)
	newer := find(t, c.Refresh(), ReqDetail)

	c.Apply(Result{Req: newer, MR: mr.MergeRequest{Title: "newer", Status: mr.StatusClosed}})
	c.Apply(Result{Req: older, MR: mr.MergeRequest{Title: "older", Status: mr.StatusOpen}})

	model, _ := c.Model()
	assert.Equal(t, "newer", model.Title)
	assert.Equal(t, mr.StatusClosed, model.Status)
}

func TestController_LateResponsesAfterUnmountDropped(t *testing.T) {
	c := NewController(Options{})
	reqs := c.Mount("101")

	c.Unmount()
	assert.False(t, c.Busy(slots.Files), "unmount resets the slot table")

	eff := c.Apply(Result{Req: find(t, reqs, ReqDetail), MR: sampleMR(mr.StatusOpen)})
	assert.Equal(t, Effects{}, eff)
	_, ok := c.Model()
	assert.False(t, ok)
}

func TestController_RemountDropsPreviousMount(t *testing.T) {
	c := NewController(Options{})
	old := c.Mount("101")
	fresh := c.Mount("102")

	c.Apply(Result{Req: find(t, old, ReqDetail), MR: sampleMR(mr.StatusOpen)})
	_, ok := c.Model()
	assert.False(t, ok)

	// The old files lease must not free the new mount's files slot.
	c.Apply(Result{Req: find(t, old, ReqFiles)})
	assert.True(t, c.Busy(slots.Files))

	c.Apply(Result{Req: find(t, fresh, ReqFiles)})
	assert.False(t, c.Busy(slots.Files))
}

func TestController_DiffInvalidatedByLifecycleNotComment(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)
	diffReq := c.ActivateTab(TabFiles)[0]
	c.Apply(Result{Req: diffReq, Diff: "<markup>"})

	req, err := c.Submit("looks good")
	require.NoError(t, err)
	c.Apply(Result{Req: req})
	_, ok := c.Diff()
	assert.True(t, ok, "comments keep the cached diff")

	req, err = c.Close()
	require.NoError(t, err)
	eff := c.Apply(Result{Req: req})
	_, ok = c.Diff()
	assert.False(t, ok, "lifecycle actions drop the cached diff")
	assert.Equal(t, []RequestKind{ReqDetail, ReqDiff}, kinds(eff.Requests),
		"the files tab is showing, so the diff is fetched again")
}

func TestController_InFlightDiffDroppedAfterInvalidation(t *testing.T) {
	c := mounted(t, mr.StatusClosed, true)
	inflight := c.ActivateTab(TabFiles)
	require.Len(t, inflight, 1)

	req, err := c.Reopen()
	require.NoError(t, err)
	eff := c.Apply(Result{Req: req})
	assert.Equal(t, []RequestKind{ReqDetail}, kinds(eff.Requests), "diff slot still held")

	eff = c.Apply(Result{Req: inflight[0], Diff: "<pre-reopen markup>"})
	_, ok := c.Diff()
	assert.False(t, ok, "diff fetched before the reopen is discarded")
	require.Equal(t, []RequestKind{ReqDiff}, kinds(eff.Requests), "files tab still showing, so the diff is fetched again")
	assert.True(t, c.Busy(slots.Diff))
	assert.Empty(t, c.ActivateTab(TabFiles), "refetch already in flight")

	c.Apply(Result{Req: eff.Requests[0], Diff: "<post-reopen markup>"})
	diff, ok := c.Diff()
	assert.True(t, ok)
	assert.Equal(t, "<post-reopen markup>", diff)
	assert.False(t, c.Busy(slots.Diff))
}

func TestController_StaleDiffNotRefetchedOffFilesTab(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true, Options{StayAfterAction: true})
	inflight := c.ActivateTab(TabFiles)
	require.Len(t, inflight, 1)

	req, err := c.Close()
	require.NoError(t, err)
	c.Apply(Result{Req: req})
	c.ActivateTab(TabConversation)

	eff := c.Apply(Result{Req: inflight[0], Diff: "<stale>"})
	assert.Empty(t, eff.Requests)
	assert.False(t, c.Busy(slots.Diff))

	assert.Len(t, c.ActivateTab(TabFiles), 1, "next activation fetches")
}

func TestController_CommentSuccessClearsDraft(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	req, err := c.Submit("ship it")
	require.NoError(t, err)
	assert.Equal(t, ReqComment, req.Kind)
	assert.Equal(t, "ship it", req.Body)

	eff := c.Apply(Result{Req: req})
	assert.True(t, eff.ClearDraft)
	assert.False(t, eff.Navigate)
	assert.Equal(t, []RequestKind{ReqDetail}, kinds(eff.Requests))
	assert.Empty(t, c.Compose())
}

func TestController_TextTypedDuringPostSurvives(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	req, err := c.Submit("lgtm")
	require.NoError(t, err)
	c.SetCompose("lgtm\n\nalso: second thought")

	eff := c.Apply(Result{Req: req})
	require.NoError(t, eff.Err)
	assert.False(t, eff.ClearDraft)
	assert.Equal(t, []RequestKind{ReqDetail}, kinds(eff.Requests))
	assert.Equal(t, "lgtm\n\nalso: second thought", c.Compose())
	assert.Equal(t, "lgtm\n\nalso: second thought", c.Draft().Body)
	assert.False(t, c.Busy(slots.Lifecycle))
}

func TestController_CommentFailureKeepsDraft(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	req, err := c.Submit("ship it")
	require.NoError(t, err)

	eff := c.Apply(Result{Req: req, Err: mr.ErrUnauthorized})
	require.ErrorIs(t, eff.Err, mr.ErrUnauthorized)
	assert.False(t, eff.ClearDraft)
	assert.Equal(t, "ship it", c.Compose())
	assert.Equal(t, "ship it", c.Draft().Body)
	assert.False(t, c.Busy(slots.Lifecycle))
}

func TestController_EmptyCommentRejectedLocally(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	_, err := c.Submit("  \n ")
	require.ErrorIs(t, err, mr.ErrEmptyComment)
	assert.False(t, c.Busy(slots.Lifecycle))
}

func TestController_EditAndReply(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	_, err := c.BeginEdit(2)
	require.ErrorIs(t, err, mr.ErrIllegalTransition, "only comments are editable")
	_, err = c.BeginEdit(99)
	require.ErrorIs(t, err, mr.ErrNotFound)

	text, err := c.BeginReply(1)
	require.NoError(t, err)
	assert.Equal(t, "> cap the backoff?\n\n", text)
	_, editing := c.Editing()
	assert.False(t, editing)

	text, err = c.BeginEdit(1)
	require.NoError(t, err)
	assert.Equal(t, "cap the backoff?", text)

	req, err := c.Submit("capped at 3")
	require.NoError(t, err)
	assert.Equal(t, ReqEditComment, req.Kind)
	assert.Equal(t, int64(1), req.ConvID)
	assert.Equal(t, int64(1), c.Draft().TargetID)

	eff := c.Apply(Result{Req: req})
	assert.True(t, eff.ClearDraft)
	_, editing = c.Editing()
	assert.False(t, editing)
}

func TestController_RestoreDraft(t *testing.T) {
	c := mounted(t, mr.StatusOpen, true)

	assert.False(t, c.RestoreDraft(draft.Draft{MRID: "999", Body: "other"}))
	assert.False(t, c.RestoreDraft(draft.Draft{MRID: "101", Body: "  "}))

	assert.True(t, c.RestoreDraft(draft.Draft{MRID: "101", TargetID: 1, Body: "wip", UpdatedAt: time.Now()}))
	assert.Equal(t, "wip", c.Compose())
	id, editing := c.Editing()
	assert.True(t, editing)
	assert.Equal(t, int64(1), id)

	assert.False(t, c.RestoreDraft(draft.Draft{MRID: "101", Body: "later"}), "typed text wins")
}
