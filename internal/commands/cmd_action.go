package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/mrview/internal/api"
	"github.com/colonyops/mrview/internal/core/logging"
	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/core/slots"
	"github.com/colonyops/mrview/internal/printer"
)

// lifecycleAction describes one status-changing subcommand.
type lifecycleAction struct {
	action mr.Action
	verb   string // capitalised, used in prompts
	past   string
	usage  string
	status string // list status offered by completion
	slot   slots.Slot
	send   func(c *api.Client, ctx context.Context, id string) error
}

var lifecycleActions = []lifecycleAction{
	{
		action: mr.ActionMerge,
		verb:   "Merge",
		past:   "Merged",
		usage:  "Merge an open merge request",
		status: "open",
		slot:   slots.Merge,
		send:   (*api.Client).Merge,
	},
	{
		action: mr.ActionClose,
		verb:   "Close",
		past:   "Closed",
		usage:  "Close an open merge request",
		status: "open",
		slot:   slots.Lifecycle,
		send:   (*api.Client).Close,
	},
	{
		action: mr.ActionReopen,
		verb:   "Reopen",
		past:   "Reopened",
		usage:  "Reopen a closed merge request",
		status: "closed",
		slot:   slots.Lifecycle,
		send:   (*api.Client).Reopen,
	},
}

// confirmFunc asks the user to approve an action.
type confirmFunc func(title, affirmative string) (bool, error)

type ActionCmd struct {
	flags *Flags
	yes   bool
	slots slots.Table

	interactive func() bool
	confirm     confirmFunc
}

// NewActionCmd creates the merge, close and reopen commands.
func NewActionCmd(flags *Flags) *ActionCmd {
	return &ActionCmd{
		flags: flags,
		interactive: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
		confirm: huhConfirm,
	}
}

// Register adds one subcommand per lifecycle action to the application
func (cmd *ActionCmd) Register(app *cli.Command) *cli.Command {
	for _, a := range lifecycleActions {
		app.Commands = append(app.Commands, &cli.Command{
			Name:      string(a.action),
			Usage:     a.usage,
			UsageText: fmt.Sprintf("mrview %s [--yes] <id>", a.action),
			Description: fmt.Sprintf(`%s a merge request without opening the TUI.

The token must authenticate against the backend. When stdout is a terminal
you are asked to confirm first; pass --yes to skip the prompt.`, a.verb),
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "yes",
					Aliases:     []string{"y"},
					Usage:       "skip the confirmation prompt",
					Destination: &cmd.yes,
				},
			},
			ShellComplete: MRIDCompleter(cmd.flags, a.status),
			Action:        cmd.runner(a),
		})
	}

	return app
}

func (cmd *ActionCmd) runner(a lifecycleAction) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		id, err := mrID(c)
		if err != nil {
			return err
		}
		return cmd.run(ctx, a, id)
	}
}

func (cmd *ActionCmd) run(ctx context.Context, a lifecycleAction, id string) error {
	p := printer.Ctx(ctx)
	client := cmd.flags.Client
	ctx = logging.WithMRID(ctx, id)

	if err := client.CheckAuth(ctx); err != nil {
		return fmt.Errorf("%s !%s: %w: %w", a.action, id, mr.ErrUnauthenticated, err)
	}

	detail, err := client.Detail(ctx, id)
	if err != nil {
		return fmt.Errorf("load !%s: %w", id, err)
	}

	if _, err := mr.Next(detail.Status, a.action); err != nil {
		return fmt.Errorf("!%s is %s: %w", id, detail.Status, err)
	}

	if !cmd.yes && cmd.interactive() {
		ok, err := cmd.confirm(fmt.Sprintf("%s !%s %q?", a.verb, id, detail.Title), a.verb)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			p.Infof("%s cancelled", a.verb)
			return nil
		}
	}

	err = cmd.slots.Do(a.slot, func() error {
		return a.send(client, ctx, id)
	})
	if err != nil {
		logging.ForMR("commands", id).Error().Err(err).Str("action", string(a.action)).Msg("lifecycle action failed")
		return fmt.Errorf("%s !%s: %w", a.action, id, err)
	}

	p.Success(fmt.Sprintf("%s !%s", a.past, id), detail.Title)
	return nil
}

func huhConfirm(title, affirmative string) (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative(affirmative).
		Negative("Cancel").
		Value(&confirmed).
		Run()
	return confirmed, err
}
