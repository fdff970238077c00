package commands

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/mrview/internal/api"
	"github.com/colonyops/mrview/internal/core/config"
	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/mockserver"
	"github.com/colonyops/mrview/internal/printer"
)

const devToken = "dev-token"

type testEnv struct {
	url   string
	flags *Flags
	out   *bytes.Buffer
	stdin string
}

func newTestEnv(t *testing.T, token string) *testEnv {
	t.Helper()

	fx, err := mockserver.DefaultFixtures()
	require.NoError(t, err)

	srv := mockserver.New(mockserver.NewStore(fx.Records), mockserver.Options{
		Users:  fx.Users,
		Logger: zerolog.Nop(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	return &testEnv{
		url: ts.URL,
		flags: &Flags{
			Config: &cfg,
			Client: api.New(ts.URL, api.WithToken(token), api.WithLogger(zerolog.Nop())),
		},
		out: &bytes.Buffer{},
	}
}

// run executes args against an app built by register and returns the
// printed output without styling.
func (e *testEnv) run(t *testing.T, register func(*cli.Command) *cli.Command, args ...string) (string, error) {
	t.Helper()
	e.out.Reset()

	app := &cli.Command{
		Name:           "mrview",
		Writer:         e.out,
		ErrWriter:      e.out,
		Reader:         strings.NewReader(e.stdin),
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	app = register(app)

	ctx := printer.NewContext(context.Background(), printer.New(e.out, e.out))
	err := app.Run(ctx, append([]string{"mrview"}, args...))
	return ansi.Strip(e.out.String()), err
}

func (e *testEnv) detail(t *testing.T, id string) mr.MergeRequest {
	t.Helper()
	client := api.New(e.url, api.WithLogger(zerolog.Nop()))
	d, err := client.Detail(context.Background(), id)
	require.NoError(t, err)
	return d
}

func nonInteractive(cmd *ActionCmd) *ActionCmd {
	cmd.interactive = func() bool { return false }
	return cmd
}

func TestActionCmd_MergeWithYes(t *testing.T) {
	env := newTestEnv(t, devToken)
	cmd := nonInteractive(NewActionCmd(env.flags))

	out, err := env.run(t, cmd.Register, "merge", "--yes", "101")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Merged !101")
	assert.Contains(t, out, "Add retry budget to the pack receiver")
	assert.Equal(t, mr.StatusMerged, env.detail(t, "101").Status)
	assert.False(t, cmd.slots.Any(), "slot released after success")
}

func TestActionCmd_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t, "")
	cmd := nonInteractive(NewActionCmd(env.flags))

	_, err := env.run(t, cmd.Register, "close", "--yes", "101")
	require.ErrorIs(t, err, mr.ErrUnauthenticated)
	assert.Equal(t, mr.StatusOpen, env.detail(t, "101").Status, "nothing was sent")
}

func TestActionCmd_IllegalTransition(t *testing.T) {
	env := newTestEnv(t, devToken)
	cmd := nonInteractive(NewActionCmd(env.flags))

	_, err := env.run(t, cmd.Register, "reopen", "--yes", "101")
	require.ErrorIs(t, err, mr.ErrIllegalTransition)
	assert.Equal(t, mr.StatusOpen, env.detail(t, "101").Status)
}

func TestActionCmd_BackendRejection(t *testing.T) {
	env := newTestEnv(t, devToken)
	cmd := nonInteractive(NewActionCmd(env.flags))

	_, err := env.run(t, cmd.Register, "merge", "--yes", "104")
	require.ErrorIs(t, err, mr.ErrRejected)
	assert.Contains(t, err.Error(), "ref hash conflict")
	assert.False(t, cmd.slots.Any(), "slot released after failure")
}

func TestActionCmd_MissingID(t *testing.T) {
	env := newTestEnv(t, devToken)
	cmd := nonInteractive(NewActionCmd(env.flags))

	_, err := env.run(t, cmd.Register, "merge", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing merge request id")
}

func TestActionCmd_Confirmation(t *testing.T) {
	tests := []struct {
		name       string
		answer     bool
		answerErr  error
		wantStatus mr.Status
		wantOut    string
	}{
		{name: "accepted", answer: true, wantStatus: mr.StatusClosed, wantOut: "✓ Closed !101"},
		{name: "declined", answer: false, wantStatus: mr.StatusOpen, wantOut: "Close cancelled"},
		{name: "aborted", answerErr: huh.ErrUserAborted, wantStatus: mr.StatusOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, devToken)
			cmd := NewActionCmd(env.flags)
			cmd.interactive = func() bool { return true }

			var prompt string
			cmd.confirm = func(title, _ string) (bool, error) {
				prompt = title
				return tt.answer, tt.answerErr
			}

			out, err := env.run(t, cmd.Register, "close", "101")
			require.NoError(t, err)

			assert.Equal(t, `Close !101 "Add retry budget to the pack receiver"?`, prompt)
			assert.Equal(t, tt.wantStatus, env.detail(t, "101").Status)
			if tt.wantOut != "" {
				assert.Contains(t, out, tt.wantOut)
			}
		})
	}
}

func TestActionCmd_YesSkipsPrompt(t *testing.T) {
	env := newTestEnv(t, devToken)
	cmd := NewActionCmd(env.flags)
	cmd.interactive = func() bool { return true }
	cmd.confirm = func(string, string) (bool, error) {
		return false, errors.New("prompted")
	}

	_, err := env.run(t, cmd.Register, "close", "-y", "101")
	require.NoError(t, err)
	assert.Equal(t, mr.StatusClosed, env.detail(t, "101").Status)
}

func lastEntry(d mr.MergeRequest) mr.ConversationEntry {
	return d.Conversation[len(d.Conversation)-1]
}

func TestCommentCmd_Post(t *testing.T) {
	env := newTestEnv(t, devToken)
	cmd := NewCommentCmd(env.flags)

	out, err := env.run(t, cmd.Register, "comment", "-m", "ready to land", "101")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Commented on !101")

	last := lastEntry(env.detail(t, "101"))
	assert.Equal(t, mr.KindComment, last.Kind)
	assert.Equal(t, "ready to land", last.Body)
	assert.Equal(t, int64(1), last.AuthorID)
}

func TestCommentCmd_FromStdin(t *testing.T) {
	env := newTestEnv(t, devToken)
	env.stdin = "from a pipe\n"
	cmd := NewCommentCmd(env.flags)

	_, err := env.run(t, cmd.Register, "comment", "--message=-", "101")
	require.NoError(t, err)
	assert.Equal(t, "from a pipe\n", lastEntry(env.detail(t, "101")).Body)
}

func TestCommentCmd_Edit(t *testing.T) {
	env := newTestEnv(t, devToken)

	_, err := env.run(t, NewCommentCmd(env.flags).Register, "comment", "-m", "first", "101")
	require.NoError(t, err)
	posted := lastEntry(env.detail(t, "101"))

	out, err := env.run(t, NewCommentCmd(env.flags).Register,
		"comment", "--edit", strconv.FormatInt(posted.ID, 10), "-m", "second", "101")
	require.NoError(t, err)
	assert.Contains(t, out, "Edited comment")

	d := env.detail(t, "101")
	assert.Equal(t, "second", lastEntry(d).Body)
	assert.Equal(t, posted.ID, lastEntry(d).ID)
}

func TestCommentCmd_EmptyBody(t *testing.T) {
	env := newTestEnv(t, devToken)
	before := len(env.detail(t, "101").Conversation)

	_, err := env.run(t, NewCommentCmd(env.flags).Register, "comment", "-m", "   ", "101")
	require.ErrorIs(t, err, mr.ErrEmptyComment)
	assert.Len(t, env.detail(t, "101").Conversation, before)
}

func TestMockServerCmd_ServeUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var out bytes.Buffer
	ctx, cancel := context.WithCancel(printer.NewContext(context.Background(), printer.New(&out, &out)))
	defer cancel()

	cmd := NewMockServerCmd(&Flags{})
	done := make(chan error, 1)
	go func() { done <- cmd.serve(ctx, ln) }()

	client := api.New("http://"+ln.Addr().String(), api.WithToken(devToken), api.WithLogger(zerolog.Nop()))
	require.NoError(t, client.CheckAuth(context.Background()))

	list, err := client.List(context.Background(), "all")
	require.NoError(t, err)
	assert.Len(t, list, 4)

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, ansi.Strip(out.String()), "Serving 4 merge request(s)")
}

func TestMockServerCmd_BadFixtures(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cmd := NewMockServerCmd(&Flags{})
	cmd.fixtures = "/does/not/exist.yaml"

	err = cmd.serve(context.Background(), ln)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fixtures")
}

func TestConfigValidateCmd(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		env := newTestEnv(t, "")
		out, err := env.run(t, NewConfigValidateCmd(env.flags).Register, "config", "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "✓ Configuration is valid")
	})

	t.Run("invalid as json", func(t *testing.T) {
		env := newTestEnv(t, "")
		env.flags.Config.TUI.Theme = "neon"

		out, err := env.run(t, NewConfigValidateCmd(env.flags).Register, "config", "validate", "--format", "json")
		require.Error(t, err)
		assert.Contains(t, out, `"valid": false`)
		assert.Contains(t, out, `"field": "tui.theme"`)
	})
}
