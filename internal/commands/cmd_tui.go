package commands

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/mrview/internal/diffrender"
	"github.com/colonyops/mrview/internal/tui"
)

type TuiCmd struct {
	flags *Flags
	build tui.BuildInfo
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, build tui.BuildInfo) *TuiCmd {
	return &TuiCmd{
		flags: flags,
		build: build,
	}
}

// Run executes the TUI on the list screen. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, _ *cli.Command) error {
	return cmd.run(ctx, "")
}

func (cmd *TuiCmd) run(_ context.Context, initialID string) error {
	cfg := cmd.flags.Config

	renderer := diffrender.NewTerminal(diffrender.Options{
		Highlight: cfg.Diff.HighlightEnabled(),
		Style:     cfg.Diff.Style,
		Collapse:  cfg.Diff.Collapse,
	})

	m := tui.New(tui.Options{
		Backend:   cmd.flags.Client,
		Renderer:  renderer,
		Drafts:    cmd.flags.Drafts,
		Config:    cfg,
		Build:     cmd.build,
		InitialID: initialID,
	})

	log.Info().
		Str("base_url", cmd.flags.Client.BaseURL()).
		Str("mr_id", initialID).
		Msg("starting tui")

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	return nil
}
