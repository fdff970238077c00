package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/mrview/internal/api"
	"github.com/colonyops/mrview/internal/commands"
	"github.com/colonyops/mrview/internal/core/config"
	"github.com/colonyops/mrview/internal/core/logging"
	"github.com/colonyops/mrview/internal/core/styles"
	"github.com/colonyops/mrview/internal/data/db"
	"github.com/colonyops/mrview/internal/data/stores"
	"github.com/colonyops/mrview/internal/printer"
	"github.com/colonyops/mrview/internal/tui"
	"github.com/colonyops/mrview/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

// localCommands run without a backend client or draft database.
var localCommands = []string{"config", "mock-server"}

func buildInfo() tui.BuildInfo {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	if len(c) > 7 {
		c = c[:7]
	}

	return tui.BuildInfo{Version: v, Commit: c, Date: d}
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		database  *db.DB
	)

	flags := &commands.Flags{}
	build := buildInfo()

	app := &cli.Command{
		Name:      "mrview",
		Usage:     "Review merge requests from the terminal",
		UsageText: "mrview [global options] command [command options]",
		Description: `mrview browses and reviews merge requests on a mono-style backend.

Run 'mrview' with no arguments to open the merge request list.
Run 'mrview review <id>' to jump straight to one merge request.`,
		Version: fmt.Sprintf("%s (%s) %s", build.Version, build.Commit, build.Date),
		Flags:   commands.GlobalFlags(flags),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := config.LoadDotEnv(".env"); err != nil {
				return ctx, err
			}

			// Always log to a file unless asked otherwise; the TUI owns the terminal
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "mrview.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile, logging.ContextHook{})
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			ctx = printer.NewContext(ctx, printer.New(c.Root().Writer, c.Root().ErrWriter))

			local := slices.Contains(localCommands, c.Args().First())

			cfg, err := config.Read(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// config validate reports problems itself
			if err := cfg.Validate(); err != nil && c.Args().First() != "config" {
				return ctx, fmt.Errorf("load config: invalid config: %w", err)
			}

			if palette, ok := styles.GetPalette(cfg.TUI.Theme); ok {
				styles.SetTheme(palette)
			}

			if local {
				return ctx, nil
			}

			flags.Client = api.New(cfg.Server.BaseURL,
				api.WithToken(cfg.Server.Token),
				api.WithTimeout(cfg.Server.Timeout),
				api.WithLogger(logging.Component("api")),
			)

			if cfg.Drafts.IsEnabled() {
				database, err = openDatabase(cfg.DataDir)
				if err != nil {
					// Drafts fall back to memory for this run
					log.Warn().Err(err).Msg("draft storage unavailable")
				} else {
					flags.Drafts = stores.NewDraftStore(database)
				}
			}

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, build)

	app = commands.NewReviewCmd(flags, tuiCmd).Register(app)
	app = commands.NewActionCmd(flags).Register(app)
	app = commands.NewCommentCmd(flags).Register(app)
	app = commands.NewMockServerCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'mrview --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

// openDatabase opens the draft database, moving a corrupt file aside and
// starting fresh when needed.
func openDatabase(dataDir string) (*db.DB, error) {
	opts := db.OpenOptions{Logger: logging.Component("db")}

	database, err := db.Open(dataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	backup, recoverErr := stores.RecoverFromCorruption(dataDir)
	if recoverErr != nil {
		return nil, fmt.Errorf("recover database: %w", recoverErr)
	}
	log.Warn().Str("backup", backup).Msg("draft database was corrupt and has been moved aside")

	return db.Open(dataDir, opts)
}
