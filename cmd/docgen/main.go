// Command docgen generates CLI reference documentation from the mrview
// command definitions. Output is written to docs/cli-reference.md.
package main

import (
	"fmt"
	"os"

	docs "github.com/urfave/cli-docs/v3"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/mrview/internal/commands"
	"github.com/colonyops/mrview/internal/tui"
)

func main() {
	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "mrview",
		Usage:     "Review merge requests from the terminal",
		UsageText: "mrview [global options] command [command options]",
		Description: `mrview browses and reviews merge requests on a mono-style backend.

Run 'mrview' with no arguments to open the merge request list.
Run 'mrview review <id>' to jump straight to one merge request.`,
		Flags: commands.GlobalFlags(flags),
	}

	tuiCmd := commands.NewTuiCmd(flags, tui.BuildInfo{})

	root = commands.NewReviewCmd(flags, tuiCmd).Register(root)
	root = commands.NewActionCmd(flags).Register(root)
	root = commands.NewCommentCmd(flags).Register(root)
	root = commands.NewMockServerCmd(flags).Register(root)
	root = commands.NewConfigValidateCmd(flags).Register(root)

	md, err := docs.ToMarkdown(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating docs: %v\n", err)
		os.Exit(1)
	}

	outPath := "docs/cli-reference.md"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outPath)
}
