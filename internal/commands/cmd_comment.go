package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/mrview/internal/core/logging"
	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/core/slots"
	"github.com/colonyops/mrview/internal/printer"
)

type CommentCmd struct {
	flags   *Flags
	message string
	edit    int64
	slots   slots.Table
}

// NewCommentCmd creates a new comment command
func NewCommentCmd(flags *Flags) *CommentCmd {
	return &CommentCmd{flags: flags}
}

// Register adds the comment command to the application
func (cmd *CommentCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "comment",
		Usage:     "Post a comment on a merge request",
		UsageText: "mrview comment -m <body> [--edit <conv-id>] <id>",
		Description: `Posts a comment to a merge request's conversation.

Pass -m - to read the body from stdin. With --edit the body replaces an
existing comment instead of adding a new one.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "message",
				Aliases:     []string{"m"},
				Usage:       "comment body, or - for stdin",
				Required:    true,
				Destination: &cmd.message,
			},
			&cli.Int64Flag{
				Name:        "edit",
				Usage:       "conversation entry id of a comment to replace",
				Destination: &cmd.edit,
			},
		},
		ShellComplete: MRIDCompleter(cmd.flags, "all"),
		Action:        cmd.run,
	})

	return app
}

func (cmd *CommentCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	id, err := mrID(c)
	if err != nil {
		return err
	}

	body := cmd.message
	if body == "-" {
		data, err := io.ReadAll(c.Root().Reader)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		body = string(data)
	}
	if strings.TrimSpace(body) == "" {
		return mr.ErrEmptyComment
	}

	client := cmd.flags.Client
	ctx = logging.WithMRID(ctx, id)

	if err := client.CheckAuth(ctx); err != nil {
		return fmt.Errorf("comment !%s: %w: %w", id, mr.ErrUnauthenticated, err)
	}

	err = cmd.slots.Do(slots.Lifecycle, func() error {
		if cmd.edit > 0 {
			return client.EditComment(ctx, id, cmd.edit, body)
		}
		return client.Comment(ctx, id, body)
	})
	if err != nil {
		return fmt.Errorf("comment !%s: %w", id, err)
	}

	if cmd.edit > 0 {
		p.Successf("Edited comment %d on !%s", cmd.edit, id)
		return nil
	}
	p.Successf("Commented on !%s", id)
	return nil
}
