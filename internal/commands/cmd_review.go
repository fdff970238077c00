package commands

import (
	"context"

	"github.com/urfave/cli/v3"
)

type ReviewCmd struct {
	flags *Flags
	tui   *TuiCmd
}

// NewReviewCmd creates a new review command
func NewReviewCmd(flags *Flags, tui *TuiCmd) *ReviewCmd {
	return &ReviewCmd{flags: flags, tui: tui}
}

// Register adds the review command to the application
func (cmd *ReviewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "review",
		Usage:     "Open the review screen for one merge request",
		UsageText: "mrview review <id>",
		Description: `Opens the interactive review screen directly on a merge request.

Leaving the review screen (q or esc) returns to the merge request list.`,
		ShellComplete: MRIDCompleter(cmd.flags, "all"),
		Action:        cmd.run,
	})

	return app
}

func (cmd *ReviewCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := mrID(c)
	if err != nil {
		return err
	}
	return cmd.tui.run(ctx, id)
}
