package mrreview

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/colonyops/mrview/internal/core/draft"
	"github.com/colonyops/mrview/internal/core/logging"
	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/diffrender"
)

// Backend is the subset of the API client the review screen calls.
type Backend interface {
	CheckAuth(ctx context.Context) error
	Detail(ctx context.Context, id string) (mr.MergeRequest, error)
	Files(ctx context.Context, id string) ([]mr.FileChange, error)
	Diff(ctx context.Context, id string) (string, error)
	Merge(ctx context.Context, id string) error
	Close(ctx context.Context, id string) error
	Reopen(ctx context.Context, id string) error
	Comment(ctx context.Context, id, body string) error
	EditComment(ctx context.Context, id string, convID int64, body string) error
}

// resultMsg carries a settled request back into Update.
type resultMsg struct {
	res Result
}

// draftLoadedMsg carries a persisted draft for the mounted merge request.
type draftLoadedMsg struct {
	gen   uint64
	draft draft.Draft
	ok    bool
	err   error
}

type draftSavedMsg struct {
	err error
}

const clockInterval = 30 * time.Second

type clockTickMsg time.Time

func scheduleClock() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

// NavigateListMsg asks the parent model to return to the merge request list.
type NavigateListMsg struct {
	Refresh bool
}

// runner executes controller requests off the update loop.
type runner struct {
	backend  Backend
	renderer diffrender.Renderer
	timeout  time.Duration
	log      zerolog.Logger
}

func (r runner) cmds(reqs []Request) tea.Cmd {
	if len(reqs) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(reqs))
	for _, req := range reqs {
		cmds = append(cmds, r.cmd(req))
	}
	return tea.Batch(cmds...)
}

// cmd wraps req in a command that always yields a resultMsg, even when the
// backend or renderer panics.
func (r runner) cmd(req Request) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{res: r.exec(req)}
	}
}

func (r runner) exec(req Request) (res Result) {
	res.Req = req

	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Stringer("request", req.Kind).Msg("request panicked")
			res.Err = fmt.Errorf("%s: panic: %v", req.Kind, p)
		}
	}()

	ctx := logging.WithMRID(context.Background(), req.MRID)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	switch req.Kind {
	case ReqAuth:
		res.Err = r.backend.CheckAuth(ctx)
	case ReqDetail:
		res.MR, res.Err = r.backend.Detail(ctx, req.MRID)
	case ReqFiles:
		res.Files, res.Err = r.backend.Files(ctx, req.MRID)
	case ReqDiff:
		var raw string
		raw, res.Err = r.backend.Diff(ctx, req.MRID)
		if res.Err == nil {
			res.Diff, res.Err = r.renderer.Render(raw)
		}
	case ReqMerge:
		res.Err = r.backend.Merge(ctx, req.MRID)
	case ReqClose:
		res.Err = r.backend.Close(ctx, req.MRID)
	case ReqReopen:
		res.Err = r.backend.Reopen(ctx, req.MRID)
	case ReqComment:
		res.Err = r.backend.Comment(ctx, req.MRID, req.Body)
	case ReqEditComment:
		res.Err = r.backend.EditComment(ctx, req.MRID, req.ConvID, req.Body)
	default:
		res.Err = fmt.Errorf("unknown request %s", req.Kind)
	}

	if res.Err != nil {
		r.log.Debug().Err(res.Err).Str("mr_id", req.MRID).Stringer("request", req.Kind).Msg("request failed")
	}
	return res
}

func loadDraft(store draft.Store, gen uint64, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		d, ok, err := store.Load(ctx, id)
		return draftLoadedMsg{gen: gen, draft: d, ok: ok, err: err}
	}
}

func saveDraft(store draft.Store, d draft.Draft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return draftSavedMsg{err: store.Save(ctx, d)}
	}
}

func deleteDraft(store draft.Store, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return draftSavedMsg{err: store.Delete(ctx, id)}
	}
}
