package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// MRIDCompleter returns a ShellCompleteFunc that suggests merge request ids
// for the given list status as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func MRIDCompleter(flags *Flags, status string) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if flags.Client == nil {
			return
		}

		items, err := flags.Client.List(ctx, status)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, s := range items {
			_, _ = fmt.Fprintln(w, s.ID)
		}
	}
}
